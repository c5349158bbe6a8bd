// Package timetext normalizes the free-form time and date strings that come
// in from the booking UI before they are stored or compared.
package timetext

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime  = errors.New("invalid time")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
)

// Users type times with whatever separator is at hand.
var timeSeparators = strings.NewReplacer(".", ":", "-", ":", "/", ":")

// NormalizeTime converts inputs like "9", "9.30", "14-15" or " 14 : 15 " to
// canonical HH:MM. A bare number is taken as whole hours. Out-of-range or
// non-numeric components are rejected rather than clamped.
func NormalizeTime(raw string) (string, error) {
	t := strings.Join(strings.Fields(raw), "")
	if t == "" {
		return "", ErrInvalidTime
	}
	t = timeSeparators.Replace(t)
	if !strings.Contains(t, ":") {
		t += ":00"
	}

	parts := strings.Split(t, ":")
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", ErrInvalidTime
	}
	mm := 0
	if len(parts) > 1 && parts[1] != "" {
		if mm, err = strconv.Atoi(parts[1]); err != nil {
			return "", ErrInvalidTime
		}
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", ErrInvalidTime
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

// NormalizeDate accepts DD.MM.YYYY or YYYY-MM-DD and returns canonical
// YYYY-MM-DD. Impossible calendar dates are rejected.
func NormalizeDate(raw string) (string, error) {
	d := strings.TrimSpace(raw)
	if d == "" {
		return "", ErrInvalidDate
	}
	layout := "2006-01-02"
	if strings.Contains(d, ".") {
		layout = "02.01.2006"
	}
	parsed, err := time.Parse(layout, d)
	if err != nil {
		return "", ErrInvalidDate
	}
	return parsed.Format("2006-01-02"), nil
}

// NormalizeMonth validates a YYYY-MM month key and returns it in canonical
// form.
func NormalizeMonth(raw string) (string, error) {
	m := strings.TrimSpace(raw)
	if m == "" {
		return "", ErrInvalidMonth
	}
	parsed, err := time.Parse("2006-01", m)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return parsed.Format("2006-01"), nil
}

// Minutes returns an HH:MM string as minutes since midnight. ok is false for
// anything that does not parse; callers decide whether that is a warning or
// an error.
func Minutes(hhmm string) (int, bool) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hh*60 + mm, true
}

// SplitPriority strips the trailing "*" priority marker from a slot token and
// reports whether it was present.
func SplitPriority(token string) (base string, priority bool) {
	token = strings.TrimSpace(token)
	priority = strings.Contains(token, "*")
	base = strings.TrimSpace(strings.ReplaceAll(token, "*", ""))
	return base, priority
}

// DotTime renders HH:MM as HH.MM, the display form used in generated
// schedule text.
func DotTime(hhmm string) string {
	return strings.ReplaceAll(hhmm, ":", ".")
}

// FormatPrepayment renders a prepayment amount for display: 0 means none,
// 1 is shorthand for "prepaid", anything else is the amount itself.
func FormatPrepayment(amount float64) string {
	switch amount {
	case 0:
		return "✗"
	case 1:
		return "✓"
	default:
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
}
