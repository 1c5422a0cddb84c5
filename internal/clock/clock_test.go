package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday_UsesMarketOffset(t *testing.T) {
	// 2026-01-23 21:00 UTC is already 2026-01-24 in market time
	instant := time.Date(2026, 1, 23, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-01-24", Today(instant))
	assert.Equal(t, "2026-01-24 05:00", FormatPriceTime(instant))
}

func TestNormalizePriceTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already local layout", input: "2026-01-24 05:00", want: "2026-01-24 05:00"},
		{name: "utc iso with millis", input: "2026-01-23T21:00:00.000Z", want: "2026-01-24 05:00"},
		{name: "iso with market offset", input: "2026-01-23T15:00:00+08:00", want: "2026-01-23 15:00"},
		{name: "month rollover", input: "2026-01-31T20:30:00Z", want: "2026-02-01 04:30"},
		{name: "year rollover", input: "2025-12-31T16:00:00Z", want: "2026-01-01 00:00"},
		{name: "iso minutes with offset", input: "2026-01-23T15:00+08:00", want: "2026-01-23 15:00"},
		{name: "iso minutes utc", input: "2026-01-23T07:00Z", want: "2026-01-23 15:00"},
		{name: "iso without offset is market time", input: "2026-01-23T07:00:00", want: "2026-01-23 07:00"},
		{name: "iso without offset or seconds", input: "2026-01-23T07:00", want: "2026-01-23 07:00"},
		{name: "iso without offset with millis", input: "2026-01-23T07:00:00.500", want: "2026-01-23 07:00"},
		{name: "bare date is utc midnight", input: "2026-01-23", want: "2026-01-23 08:00"},
		{name: "empty stays empty", input: "", want: ""},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "broken iso", input: "2026-01-23T25:00:00Z", wantErr: true},
		{name: "broken local iso", input: "2026-01-23T25:00", wantErr: true},
		{name: "broken date", input: "2026-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePriceTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriceTime_RoundTrip(t *testing.T) {
	parsed, err := ParsePriceTime("2026-01-24 05:00")
	require.NoError(t, err)

	assert.True(t, parsed.Equal(time.Date(2026, 1, 23, 21, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-01-24 05:00", FormatPriceTime(parsed))
}

func TestDateOf(t *testing.T) {
	date, err := DateOf("2026-01-23T21:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-24", date)

	date, err = DateOf("2026-01-27 05:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-27", date)
}

func TestAfterMarketClose(t *testing.T) {
	before := time.Date(2026, 1, 23, 14, 59, 0, 0, Market)
	at := time.Date(2026, 1, 23, 15, 0, 0, 0, Market)
	// 07:30 UTC is 15:30 market time
	utc := time.Date(2026, 1, 23, 7, 30, 0, 0, time.UTC)

	assert.False(t, AfterMarketClose(before))
	assert.True(t, AfterMarketClose(at))
	assert.True(t, AfterMarketClose(utc))
}

func TestFixed(t *testing.T) {
	instant := time.Date(2026, 3, 1, 9, 30, 0, 0, Market)
	var c Clock = Fixed(instant)

	assert.True(t, c.Now().Equal(instant))
}
