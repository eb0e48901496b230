package links

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already canonical", in: "https://example.com/a", want: "https://example.com/a"},
		{name: "www and case", in: "https://WWW.Example.com/a", want: "https://example.com/a"},
		{name: "http upgraded", in: "http://example.com/a", want: "https://example.com/a"},
		{name: "trailing slash and fragment", in: "https://example.com/a/#section", want: "https://example.com/a"},
		{name: "tracking params dropped", in: "https://example.com/a?utm_source=x&id=3&fbclid=y", want: "https://example.com/a?id=3"},
		{name: "query sorted", in: "https://example.com/a?b=2&a=1", want: "https://example.com/a?a=1&b=2"},
		{name: "not a url", in: "  plain text ", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestSameArticle(t *testing.T) {
	require.True(t, SameArticle("https://www.example.com/a/", "http://example.com/a?utm_medium=slack"))
	require.False(t, SameArticle("https://example.com/a", "https://example.com/b"))
}

func TestDomain(t *testing.T) {
	require.Equal(t, "example.com", Domain("https://www.Example.com/path"))
	require.Equal(t, "", Domain("::bad"))
}
