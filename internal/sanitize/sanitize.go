// Package sanitize normalizes user-submitted booking details before they are
// written. Details are write-once, so anything that slips through here is
// permanent.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mannat244/AstroApp/internal/domain"
)

var (
	nameRe = regexp.MustCompile(`[^a-zA-Z\s'-]`)
	timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

// Name keeps letters, spaces, hyphens and apostrophes, capped at 100 chars.
func Name(s string) string {
	s = nameRe.ReplaceAllString(strings.TrimSpace(s), "")
	return truncate(s, 100)
}

// City shares the name rules.
func City(s string) string { return Name(s) }

// Date accepts only a real YYYY-MM-DD calendar date.
func Date(s string) string {
	d, err := time.Parse("2006-01-02", s)
	if err != nil || d.Format("2006-01-02") != s {
		return ""
	}
	return s
}

// Time accepts only HH:MM in 24h form.
func Time(s string) string {
	if !timeRe.MatchString(s) {
		return ""
	}
	return s
}

// PropertySize accepts a non-negative integer, capped at 999999.
func PropertySize(s string) string {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return ""
	}
	if n > 999999 {
		n = 999999
	}
	return strconv.Itoa(n)
}

// Details applies the per-field rules to a full details block.
func Details(d domain.Details) domain.Details {
	return domain.Details{
		BeneficiaryName: Name(d.BeneficiaryName),
		BirthPlace:      City(d.BirthPlace),
		BirthDate:       Date(d.BirthDate),
		BirthTime:       Time(d.BirthTime),
		PropertySize:    PropertySize(d.PropertySize),
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
