// Package clock holds the market-time helpers used to decide trading-day
// boundaries. Market time is a fixed UTC+8 offset regardless of the host zone.
package clock

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the layout of market dates
	DateLayout = "2006-01-02"
	// PriceTimeLayout is the layout of persisted price timestamps
	PriceTimeLayout = "2006-01-02 15:04"

	// marketCloseHour is the hour after which the day's net values are final
	marketCloseHour = 15
)

// Market is the fixed UTC+8 market time zone
var Market = time.FixedZone("UTC+8", 8*60*60)

// Clock abstracts the current instant so tests can pin it
type Clock interface {
	Now() time.Time
}

// System is the wall clock
type System struct{}

// Now returns the current instant
func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant
type Fixed time.Time

// Now returns the pinned instant
func (f Fixed) Now() time.Time { return time.Time(f) }

// Today returns the market date of t
func Today(t time.Time) string {
	return t.In(Market).Format(DateLayout)
}

// FormatPriceTime renders t as a persisted price timestamp in market time
func FormatPriceTime(t time.Time) string {
	return t.In(Market).Format(PriceTimeLayout)
}

// ParsePriceTime parses a persisted price timestamp as market time
func ParsePriceTime(s string) (time.Time, error) {
	return time.ParseInLocation(PriceTimeLayout, s, Market)
}

// isoLayouts are the ISO-8601 forms accepted with an explicit offset
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// localISOLayouts carry no offset and are read in market time
var localISOLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// NormalizePriceTime converts an ISO-8601 timestamp to the persisted price
// timestamp layout. Values already in that layout are returned unchanged and
// an empty value stays empty. A bare date is read as UTC midnight.
func NormalizePriceTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := ParsePriceTime(s); err == nil {
		return s, nil
	}

	t, err := parseISO(s)
	if err != nil {
		return "", fmt.Errorf("invalid price timestamp %q: %w", s, err)
	}
	return FormatPriceTime(t), nil
}

func parseISO(s string) (time.Time, error) {
	if !strings.Contains(s, "T") {
		return time.Parse(DateLayout, s)
	}
	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	for _, layout := range localISOLayouts {
		if t, err := time.ParseInLocation(layout, s, Market); err == nil {
			return t, nil
		}
	}
	return time.Time{}, firstErr
}

// DateOf extracts the market date of a price timestamp in either layout
func DateOf(s string) (string, error) {
	normalized, err := NormalizePriceTime(s)
	if err != nil {
		return "", err
	}
	if normalized == "" {
		return "", nil
	}
	return normalized[:len(DateLayout)], nil
}

// AfterMarketClose reports whether t is at or after 15:00 market time
func AfterMarketClose(t time.Time) bool {
	return t.In(Market).Hour() >= marketCloseHour
}
