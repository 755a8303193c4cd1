// Package temporal turns natural-language time expressions ("next week",
// "march", "fall semester") into concrete date ranges for scoping
// coursework queries.
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange is a concrete start/end pair with a human-readable label.
// Start is always at or before End.
type DateRange struct {
	Start       time.Time
	End         time.Time
	Description string
}

// Contains reports whether t falls within the range, inclusive.
func (r *DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

var (
	yearPattern     = regexp.MustCompile(`\b(20\d{2})\b`)
	nextDaysPattern = regexp.MustCompile(`next\s+(\d+)\s+days?`)
	monthAbbrevs    = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\b`)
	// "may" is also a modal verb ("when may I..."); only treat it as the
	// month when a preposition or a day number pins it down.
	mayAsMonth = regexp.MustCompile(`\b(in|by|until|during|before|of)\s+may\b|\bmay\s+\d`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// Extract parses text for a temporal expression and returns the matching
// range, or nil if none is found. Categories are tested in a fixed priority
// order and the first match wins; at most one range is ever returned.
// Extract is pure: now supplies the reference instant, and no shared state
// is touched, so it is safe to call from concurrent requests.
func Extract(text string, now time.Time) *DateRange {
	lower := strings.ToLower(text)

	if r := matchYear(lower, now); r != nil {
		return r
	}
	if r := matchRelativeDay(lower, now); r != nil {
		return r
	}
	if r := matchWeek(lower, now); r != nil {
		return r
	}
	if r := matchRelativeMonth(lower, now); r != nil {
		return r
	}
	if r := matchNamedMonth(lower, now); r != nil {
		return r
	}
	if r := matchSemester(lower, now); r != nil {
		return r
	}
	if r := matchNextDays(lower, now); r != nil {
		return r
	}
	return nil
}

func matchYear(lower string, now time.Time) *DateRange {
	m := yearPattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	loc := now.Location()
	return &DateRange{
		Start:       time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:         endOfDayOn(year, time.December, 31, loc),
		Description: m[1],
	}
}

func matchRelativeDay(lower string, now time.Time) *DateRange {
	var offset int
	var label string
	switch {
	case strings.Contains(lower, "today"):
		offset, label = 0, "today"
	case strings.Contains(lower, "tomorrow"):
		offset, label = 1, "tomorrow"
	case strings.Contains(lower, "yesterday"):
		offset, label = -1, "yesterday"
	default:
		return nil
	}
	day := now.AddDate(0, 0, offset)
	return &DateRange{
		Start:       startOfDay(day),
		End:         endOfDay(day),
		Description: label,
	}
}

// matchWeek computes Sunday-to-Saturday ranges from the current weekday.
func matchWeek(lower string, now time.Time) *DateRange {
	var weekOffset int
	var label string
	switch {
	case strings.Contains(lower, "this week"):
		weekOffset, label = 0, "this week"
	case strings.Contains(lower, "next week"):
		weekOffset, label = 1, "next week"
	case strings.Contains(lower, "last week"):
		weekOffset, label = -1, "last week"
	default:
		return nil
	}
	sunday := now.AddDate(0, 0, -int(now.Weekday())+7*weekOffset)
	saturday := sunday.AddDate(0, 0, 6)
	return &DateRange{
		Start:       startOfDay(sunday),
		End:         endOfDay(saturday),
		Description: label,
	}
}

func matchRelativeMonth(lower string, now time.Time) *DateRange {
	var monthOffset int
	var label string
	switch {
	case strings.Contains(lower, "this month"):
		monthOffset, label = 0, "this month"
	case strings.Contains(lower, "next month"):
		monthOffset, label = 1, "next month"
	default:
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	first = first.AddDate(0, monthOffset, 0)
	r := monthRange(first.Year(), first.Month(), now.Location())
	r.Description = label
	return r
}

// matchNamedMonth resolves a month name to that month in the current year,
// rolling to next year when the month has already fully elapsed.
func matchNamedMonth(lower string, now time.Time) *DateRange {
	name := ""
	for full := range monthNames {
		if len(full) > 3 && strings.Contains(lower, full) {
			if name == "" || strings.Index(lower, full) < strings.Index(lower, name) {
				name = full
			}
		}
	}
	if name == "" {
		if m := monthAbbrevs.FindStringSubmatch(lower); m != nil {
			name = m[1]
		}
	}
	if name == "may" && !mayAsMonth.MatchString(lower) {
		return nil
	}
	if name == "" {
		return nil
	}
	month := monthNames[name]
	year := now.Year()
	if month < now.Month() {
		year++
	}
	r := monthRange(year, month, now.Location())
	r.Description = fmt.Sprintf("%s %d", month.String(), year)
	return r
}

func matchSemester(lower string, now time.Time) *DateRange {
	loc := now.Location()
	switch {
	case strings.Contains(lower, "fall"):
		// Fall ends December 31, so the nearest current-or-future fall is
		// always in the current year.
		return fallSemester(now.Year(), loc)
	case strings.Contains(lower, "spring") && !strings.Contains(lower, "spring break"):
		year := now.Year()
		if now.Month() > time.May {
			year++
		}
		return springSemester(year, loc)
	case strings.Contains(lower, "this semester"):
		if now.Month() >= time.August {
			return fallSemester(now.Year(), loc)
		}
		year := now.Year()
		if now.Month() > time.May {
			year++
		}
		return springSemester(year, loc)
	case strings.Contains(lower, "last semester"):
		switch {
		case now.Month() >= time.August:
			return springSemester(now.Year(), loc)
		case now.Month() > time.May:
			return springSemester(now.Year(), loc)
		default:
			return fallSemester(now.Year()-1, loc)
		}
	}
	return nil
}

func matchNextDays(lower string, now time.Time) *DateRange {
	m := nextDaysPattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &DateRange{
		Start:       startOfDay(now),
		End:         endOfDay(now.AddDate(0, 0, n)),
		Description: fmt.Sprintf("the next %d days", n),
	}
}

func fallSemester(year int, loc *time.Location) *DateRange {
	return &DateRange{
		Start:       time.Date(year, time.August, 1, 0, 0, 0, 0, loc),
		End:         endOfDayOn(year, time.December, 31, loc),
		Description: fmt.Sprintf("Fall %d", year),
	}
}

func springSemester(year int, loc *time.Location) *DateRange {
	return &DateRange{
		Start:       time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:         endOfDayOn(year, time.May, 31, loc),
		Description: fmt.Sprintf("Spring %d", year),
	}
}

func monthRange(year int, month time.Month, loc *time.Location) *DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Day 0 of the following month normalizes to the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	return &DateRange{Start: start, End: endOfDay(last)}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return endOfDayOn(t.Year(), t.Month(), t.Day(), t.Location())
}

func endOfDayOn(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), loc)
}
