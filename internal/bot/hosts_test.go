package bot

import "testing"

func TestHostAllowList(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		host     string
		want     bool
	}{
		{"exact match", []string{"bot.example.com"}, "bot.example.com", true},
		{"port ignored", []string{"bot.example.com"}, "bot.example.com:8080", true},
		{"case insensitive", []string{"Bot.Example.com"}, "BOT.example.COM", true},
		{"other host", []string{"bot.example.com"}, "evil.example.com", false},
		{"wildcard subdomain", []string{"*.example.com"}, "bot.example.com", true},
		{"wildcard excludes apex", []string{"*.example.com"}, "example.com", false},
		{"wildcard suffix trick", []string{"*.example.com"}, "badexample.com", false},
		{"any host", []string{"*"}, "anything.test", true},
		{"empty list", nil, "bot.example.com", false},
		{"empty host", []string{"*"}, "", false},
		{"ipv6 with port", []string{"::1"}, "[::1]:8080", true},
		{"blank patterns skipped", []string{" ", "bot.example.com"}, "bot.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHostAllowList(tt.patterns).Allowed(tt.host); got != tt.want {
				t.Errorf("Allowed(%q) with %v = %v, want %v", tt.host, tt.patterns, got, tt.want)
			}
		})
	}
}
