// Package timeparser implements booking.TimeParser with a deterministic
// resolver for UK spoken time phrases. Relative phrases ("in 20 minutes")
// need a reference instant; Parse uses the wall clock, while ParseAt takes
// an explicit reference time so callers that must stay deterministic (a
// Temporal workflow) can supply workflow.Now instead.
package timeparser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ridewire/voicebooking/booking"
)

var (
	inMinutes = regexp.MustCompile(`(?i)^in\s+(\d+)\s*min`)
	inHours   = regexp.MustCompile(`(?i)^in\s+(\d+)\s*hour`)
	atClock   = regexp.MustCompile(`(?i)^at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
	halfPast  = regexp.MustCompile(`(?i)^(?:at\s+)?half\s+past\s+(\d{1,2})`)
	quarterTo = regexp.MustCompile(`(?i)^(?:at\s+)?quarter\s+to\s+(\d{1,2})`)

	weekdays = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
)

// Parse resolves raw against the current wall-clock time.
func Parse(raw string) booking.ParsedTime {
	return ParseAt(raw, time.Now().UTC())
}

// ParseAt resolves raw against an explicit reference instant, so that
// callers needing reproducible results (the Temporal workflow) can pass
// workflow.Now(ctx) instead of the real clock.
func ParseAt(raw string, now time.Time) booking.ParsedTime {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return booking.ParsedTime{OK: false}
	}
	if trimmed == "asap" || trimmed == "as soon as possible" || trimmed == "now" {
		return booking.ParsedTime{OK: true, IsAsap: true, Normalized: "ASAP"}
	}

	if m := inMinutes.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		t := now.Add(time.Duration(n) * time.Minute)
		return absolute(t)
	}
	if m := inHours.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		t := now.Add(time.Duration(n) * time.Hour)
		return absolute(t)
	}
	if m := halfPast.FindStringSubmatch(trimmed); m != nil {
		hour, _ := strconv.Atoi(m[1])
		t := nextOccurrence(now, hour, 30)
		return absolute(t)
	}
	if m := quarterTo.FindStringSubmatch(trimmed); m != nil {
		hour, _ := strconv.Atoi(m[1])
		t := nextOccurrence(now, hour-1, 45)
		return absolute(t)
	}
	if m := atClock.FindStringSubmatch(trimmed); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if strings.EqualFold(m[3], "pm") && hour < 12 {
			hour += 12
		}
		t := nextOccurrence(now, hour, minute)
		return absolute(t)
	}
	for name, wd := range weekdays {
		if strings.Contains(trimmed, name) {
			t := nextWeekday(now, wd)
			return absolute(t)
		}
	}

	return booking.ParsedTime{OK: false}
}

func absolute(t time.Time) booking.ParsedTime {
	return booking.ParsedTime{OK: true, AbsoluteUTC: t, Normalized: t.Format(time.RFC3339)}
}

// nextOccurrence returns the next instant today or tomorrow at hour:minute,
// never in the past relative to now.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func nextWeekday(now time.Time, target time.Weekday) time.Time {
	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	d := now.AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, time.UTC)
}
