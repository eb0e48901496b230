// Package datequery turns free-form date phrases ("last week", "3 days ago",
// "since monday", "2024-01-05") into the start of a query range.
package datequery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
)

const (
	daysPerWeek  = 7
	maxDateWords = 4
	digits       = "0123456789"
)

// Result is a parsed date phrase.
type Result struct {
	// Since is the start of the day the query should begin at.
	Since time.Time
	// Matched is the phrase that produced Since; empty when the default was used.
	Matched string
	// Defaulted is set when no date phrase was found.
	Defaulted bool
}

var (
	agoRegex      = regexp.MustCompile(`\b(\d+|an?|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(day|week|month|year)s?\s+ago\b`)
	pastRegex     = regexp.MustCompile(`\b(?:past|last)\s+(\d+|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(day|week|month|year)s?\b`)
	relativeRegex = regexp.MustCompile(`\b(this|last|past)\s+(week|month|year)\b`)
	weekdayRegex  = regexp.MustCompile(`\b(?:(last|since|from|on)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	dayWordRegex  = regexp.MustCompile(`\b(today|yesterday)\b`)
	monthRegex    = regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*,?$`)
	slackTokenRe  = regexp.MustCompile(`<[^>]*>|:[a-z0-9_+\-']+:`)
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Parser resolves date phrases relative to a clock in a fixed location.
type Parser struct {
	loc         *time.Location
	defaultDays int
}

// NewParser creates a parser. defaultDays is the lookback used when the text
// holds no date phrase.
func NewParser(loc *time.Location, defaultDays int) *Parser {
	if loc == nil {
		loc = time.UTC
	}

	if defaultDays <= 0 {
		defaultDays = daysPerWeek
	}

	return &Parser{loc: loc, defaultDays: defaultDays}
}

// Parse finds the first date phrase in text. Slack markup (mentions, links,
// :emoji:) is ignored.
func (p *Parser) Parse(text string, now time.Time) (Result, error) {
	now = now.In(p.loc)
	today := startOfDay(now)

	clean := strings.Join(strings.Fields(slackTokenRe.ReplaceAllString(text, " ")), " ")

	res, ok, err := p.parseRelative(strings.ToLower(clean), today)
	if err != nil {
		return Result{}, err
	}

	if !ok {
		res, ok = p.parseAbsolute(clean)
	}

	if !ok {
		return Result{Since: today.AddDate(0, 0, -p.defaultDays), Defaulted: true}, nil
	}

	if res.Since.After(today) {
		return Result{}, fmt.Errorf("%w: %s", apperrors.ErrFutureDate, res.Since.Format(time.DateOnly))
	}

	return res, nil
}

func (p *Parser) parseRelative(text string, today time.Time) (Result, bool, error) {
	if m := agoRegex.FindStringSubmatch(text); m != nil {
		n, err := parseCount(m[1])
		if err != nil {
			return Result{}, false, err
		}

		return Result{Since: shift(today, m[2], n), Matched: m[0]}, true, nil
	}

	if m := pastRegex.FindStringSubmatch(text); m != nil {
		n, err := parseCount(m[1])
		if err != nil {
			return Result{}, false, err
		}

		return Result{Since: shift(today, m[2], n), Matched: m[0]}, true, nil
	}

	if m := relativeRegex.FindStringSubmatch(text); m != nil {
		return Result{Since: relativePeriod(today, m[1], m[2]), Matched: m[0]}, true, nil
	}

	if m := dayWordRegex.FindStringSubmatch(text); m != nil {
		since := today
		if m[1] == "yesterday" {
			since = today.AddDate(0, 0, -1)
		}

		return Result{Since: since, Matched: m[0]}, true, nil
	}

	if m := weekdayRegex.FindStringSubmatch(text); m != nil {
		return Result{Since: lastWeekday(today, weekdays[m[2]], m[1] == "last"), Matched: m[0]}, true, nil
	}

	return Result{}, false, nil
}

// parseAbsolute tries dateparse on the longest word windows that look like
// dates, so "articles since 2024-01-05 please" finds the date.
func (p *Parser) parseAbsolute(text string) (Result, bool) {
	words := strings.Fields(text)

	for size := min(maxDateWords, len(words)); size >= 1; size-- {
		for start := 0; start+size <= len(words); start++ {
			candidate := strings.Trim(strings.Join(words[start:start+size], " "), ",.?!")
			if !looksLikeDate(candidate) {
				continue
			}

			t, err := dateparse.ParseIn(candidate, p.loc)
			if err != nil {
				continue
			}

			return Result{Since: startOfDay(t.In(p.loc)), Matched: candidate}, true
		}
	}

	return Result{}, false
}

// looksLikeDate keeps windows that start with a digit or month name and end
// in a digit. Bare numbers are skipped, since dateparse reads them as
// timestamps or years.
func looksLikeDate(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}

	first, last := words[0], words[len(words)-1]
	if !strings.ContainsAny(last, digits) {
		return false
	}

	if monthRegex.MatchString(first) {
		return true
	}

	if !strings.ContainsAny(first[:1], digits) {
		return false
	}

	if strings.ContainsAny(s, "-/.") {
		return true
	}

	for _, w := range words[1:] {
		if monthRegex.MatchString(w) {
			return true
		}
	}

	return false
}

func parseCount(s string) (int, error) {
	if n, ok := numberWords[s]; ok {
		return n, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: count %q", apperrors.ErrInvalidInput, s)
	}

	return n, nil
}

func shift(today time.Time, unit string, n int) time.Time {
	switch unit {
	case "week":
		return today.AddDate(0, 0, -n*daysPerWeek)
	case "month":
		return today.AddDate(0, -n, 0)
	case "year":
		return today.AddDate(-n, 0, 0)
	default:
		return today.AddDate(0, 0, -n)
	}
}

func relativePeriod(today time.Time, which, unit string) time.Time {
	if which != "this" {
		return shift(today, unit, 1)
	}

	switch unit {
	case "week":
		offset := (int(today.Weekday()) + daysPerWeek - int(time.Monday)) % daysPerWeek
		return today.AddDate(0, 0, -offset)
	case "month":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	default:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	}
}

// lastWeekday returns the most recent day named wd on or before today.
// strict skips today itself ("last friday" said on a Friday).
func lastWeekday(today time.Time, wd time.Weekday, strict bool) time.Time {
	diff := (int(today.Weekday()) - int(wd) + daysPerWeek) % daysPerWeek
	if diff == 0 && strict {
		diff = daysPerWeek
	}

	return today.AddDate(0, 0, -diff)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
