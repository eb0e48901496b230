package schedule

import (
	"testing"
	"time"
)

const testLayout = "Mon 2006-01-02 15:04 MST"

func TestWeeklyPrevious(t *testing.T) {
	w := Weekly{Day: time.Friday, Hour: 9, Location: time.UTC}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later the same friday",
			now:  time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the slot",
			now:  time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
			want: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "friday before the hour",
			now:  time.Date(2026, 10, 16, 8, 59, 0, 0, time.UTC),
			want: time.Date(2026, 10, 9, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "midweek",
			now:  time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 10, 9, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Previous(tt.now); !got.Equal(tt.want) {
				t.Errorf("Previous(%s) = %s, want %s", tt.now.Format(testLayout), got.Format(testLayout), tt.want.Format(testLayout))
			}
		})
	}
}

func TestWeeklyNextAndLocation(t *testing.T) {
	loc, err := LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	w := Weekly{Day: time.Monday, Hour: 8, Location: loc}

	next := w.Next(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	if next.Weekday() != time.Monday || next.Hour() != 8 || next.Location() != loc {
		t.Fatalf("Next = %s, want Monday 08:00 London", next.Format(testLayout))
	}

	if next.Day() != 19 {
		t.Fatalf("Next day = %d, want 19", next.Day())
	}
}

func TestWeeklyDue(t *testing.T) {
	w := Weekly{Day: time.Friday, Hour: 9}
	now := time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{"never run", time.Time{}, true},
		{"ran last week", time.Date(2026, 10, 9, 9, 1, 0, 0, time.UTC), true},
		{"ran this slot", time.Date(2026, 10, 16, 9, 2, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Due(now, tt.lastRun); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{in: "friday", want: time.Friday},
		{in: " Mon ", want: time.Monday},
		{in: "SUNDAY", want: time.Sunday},
		{in: "someday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekday(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}

			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWeekday(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.UTC {
		t.Fatalf("blank timezone = %v, %v; want UTC", loc, err)
	}

	if _, err := LoadLocation("Asia/Nicosia"); err != nil {
		t.Fatalf("alias: %v", err)
	}

	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	w := Weekly{Day: time.Friday, Hour: 24}
	if err := w.Validate(); err == nil {
		t.Fatal("expected hour validation error")
	}
}
