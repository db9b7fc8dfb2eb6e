package rules

import (
	"fmt"
	"time"

	"github.com/reoring/formstate/i18n"
)

const (
	dateLayout       = "2006-01-02"
	timeLayout       = "15:04"
	timeDisplayFmt   = "03:04 PM"
	minuteDateLayout = "2006-01-02T15:04"
	secondDateLayout = "2006-01-02T15:04:05"
)

// ParseDate parses an ISO date ("2006-01-02"), a local date-time with minute or
// second precision, or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, minuteDateLayout, secondDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("rules: invalid ISO date %q", s)
	}
	return t, nil
}

// ParseTimeOfDay parses an "HH:mm" string.
func ParseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("rules: invalid time %q, expected HH:mm", s)
	}
	return t, nil
}

// MinDate fails when the ISO date value is before minimum.
func MinDate(minimum time.Time, msg ...string) ValueRule {
	data := map[string]string{"min": minimum.Format(dateLayout)}
	return dateRule(func(t time.Time) bool { return t.Before(minimum) }, i18n.CodeMinDate, data, msg)
}

// MaxDate fails when the ISO date value is after maximum.
func MaxDate(maximum time.Time, msg ...string) ValueRule {
	data := map[string]string{"max": maximum.Format(dateLayout)}
	return dateRule(func(t time.Time) bool { return t.After(maximum) }, i18n.CodeMaxDate, data, msg)
}

func dateRule(violates func(time.Time) bool, code string, data map[string]string, msg []string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return i18n.T(i18n.CodeInvalidDate, nil)
		}
		t, err := ParseDate(s)
		if err != nil {
			return i18n.T(i18n.CodeInvalidDate, nil)
		}
		if violates(t) {
			return message(msg, code, data)
		}
		return ""
	}
}

// MinTime fails when the "HH:mm" value is before minimum. It panics if
// minimum is not a valid "HH:mm" string.
func MinTime(minimum string, msg ...string) ValueRule {
	bound := mustTimeOfDay("MinTime", minimum)
	data := map[string]string{"min": bound.Format(timeDisplayFmt)}
	return timeRule(func(t time.Time) bool { return t.Before(bound) }, i18n.CodeMinTime, data, msg)
}

// MaxTime fails when the "HH:mm" value is after maximum. It panics if
// maximum is not a valid "HH:mm" string.
func MaxTime(maximum string, msg ...string) ValueRule {
	bound := mustTimeOfDay("MaxTime", maximum)
	data := map[string]string{"max": bound.Format(timeDisplayFmt)}
	return timeRule(func(t time.Time) bool { return t.After(bound) }, i18n.CodeMaxTime, data, msg)
}

func timeRule(violates func(time.Time) bool, code string, data map[string]string, msg []string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return i18n.T(i18n.CodeInvalidTime, nil)
		}
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return i18n.T(i18n.CodeInvalidText, nil)
		}
		if violates(t) {
			return message(msg, code, data)
		}
		return ""
	}
}

func mustTimeOfDay(fn, s string) time.Time {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic("rules." + fn + ": " + err.Error())
	}
	return t
}

func (c *Chain) MinDate(minimum time.Time, msg ...string) *Chain {
	return c.push("minDate", map[string]any{"min": minimum.Format(dateLayout)}, msg, MinDate(minimum, msg...))
}

func (c *Chain) MaxDate(maximum time.Time, msg ...string) *Chain {
	return c.push("maxDate", map[string]any{"max": maximum.Format(dateLayout)}, msg, MaxDate(maximum, msg...))
}

func (c *Chain) MinTime(minimum string, msg ...string) *Chain {
	return c.push("minTime", map[string]any{"min": minimum}, msg, MinTime(minimum, msg...))
}

func (c *Chain) MaxTime(maximum string, msg ...string) *Chain {
	return c.push("maxTime", map[string]any{"max": maximum}, msg, MaxTime(maximum, msg...))
}
