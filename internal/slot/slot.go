package slot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Labels is the fixed slot calendar: six one-hour consultations per day.
var Labels = []string{"10:00 AM", "11:00 AM", "02:00 PM", "03:00 PM", "05:00 PM", "06:00 PM"}

const DateLayout = "2006-01-02"

// The payment processor caps reference ids around 40 chars; the worst case
// here is 10 (date) + 1 + canonical label, far below that, but reserving a
// slot with an unknown label must never produce an out-of-contract id.
const maxIDLen = 40

var (
	ErrBadDate  = errors.New("invalid date, want YYYY-MM-DD")
	ErrBadLabel = errors.New("unknown time slot")
)

// ID derives the deterministic slot identifier from a calendar date and a
// time-of-day label: "2024-12-25" + "10:00 AM" -> "2024-12-25_1000AM".
// The id doubles as the payment transaction reference, so the output stays
// within the processor's charset (alphanumeric, underscore, hyphen).
func ID(date, label string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil || d.Format(DateLayout) != date {
		return "", ErrBadDate
	}
	if !ValidLabel(label) {
		return "", ErrBadLabel
	}
	id := date + "_" + Canonical(label)
	if len(id) > maxIDLen {
		return "", fmt.Errorf("slot id %q exceeds %d chars", id, maxIDLen)
	}
	return id, nil
}

// Canonical strips whitespace and punctuation from a time label,
// "10:00 AM" -> "1000AM".
func Canonical(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			return r
		}
		return -1
	}, label)
}

func ValidLabel(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// MeetingLink derives the online meeting room for a slot. Using the slot id
// as the room name keeps the link reproducible from the booking alone.
func MeetingLink(id string) string {
	return "https://meet.jit.si/" + id
}
