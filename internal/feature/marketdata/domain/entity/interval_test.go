package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	t.Parallel()

	for _, iv := range AllIntervals() {
		parsed, err := ParseInterval(string(iv))
		require.NoError(t, err)
		assert.Equal(t, iv, parsed)
	}

	_, err := ParseInterval("2day")
	assert.Error(t, err)

	_, err = ParseInterval("")
	assert.Error(t, err)
}

func TestInterval_Normalize_Intraday(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 6, 14, 35, 12, 0, time.UTC)
	for _, iv := range []Interval{Interval1Min, Interval5Min, Interval15Min, Interval30Min, Interval60Min} {
		assert.Equal(t, ts, iv.Normalize(ts), "intraday must pass through unchanged for %s", iv)
	}
}

func TestInterval_Normalize_Daily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "afternoon sample snaps to market open",
			in:   time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "midnight sample snaps to market open same date",
			in:   time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "jittered samples of the same day collapse",
			in:   time.Date(2024, 3, 6, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interval1Day.Normalize(tt.in))
		})
	}
}

func TestInterval_Normalize_Weekly(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "wednesday maps to monday of the same week",
			in:   time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "thursday maps to the same monday",
			in:   time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "monday maps to itself at market open",
			in:   time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "friday maps to monday of the same week",
			in:   time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "saturday maps back to monday of the ending week",
			in:   time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
			want: monday,
		},
		{
			name: "sunday advances to the next monday",
			in:   time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
			want: monday,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interval1Week.Normalize(tt.in))
		})
	}
}

func TestInterval_Normalize_Monthly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "first of month is a weekday",
			in:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			// 2024-03-01 is a Friday
			want: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "first of month is a saturday, advance to monday",
			in:   time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC),
			// 2024-06-01 is a Saturday, first weekday is Monday the 3rd
			want: time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "first of month is a sunday, advance to monday",
			in:   time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
			// 2024-09-01 is a Sunday
			want: time.Date(2024, 9, 2, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "source reporting last day of month lands on the same anchor",
			in:   time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC),
			want: time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interval1Month.Normalize(tt.in))
		})
	}
}

// Normalizeは(タイムスタンプ, 時間足)の純粋関数でなければなりません。
func TestInterval_Normalize_Deterministic(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC)
	for _, iv := range AllIntervals() {
		first := iv.Normalize(ts)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, iv.Normalize(ts))
		}
	}
}
