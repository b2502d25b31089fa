package callers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalNext(t *testing.T) {
	tests := []struct {
		name      string
		interval  Interval
		reference time.Time
		want      time.Time
	}{
		{"daily", Daily, date(2024, 1, 10), date(2024, 1, 11)},
		{"daily across month end", Daily, date(2024, 1, 31), date(2024, 2, 1)},
		{"daily ignores time of day", Daily, time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC), date(2024, 1, 11)},
		{"weekly keeps the weekday", Weekly, date(2024, 1, 10), date(2024, 1, 17)},
		{"weekly across year end", Weekly, date(2023, 12, 27), date(2024, 1, 3)},
		{"monthly lands on the same weekday", Monthly, date(2024, 1, 10), date(2024, 2, 14)},
		{"monthly when the date already matches", Monthly, date(2024, 1, 1), date(2024, 2, 5)},
		{"yearly lands on the same weekday", Yearly, date(2024, 1, 10), date(2025, 1, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.interval.Next(tt.reference)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntervalNextSameWeekday(t *testing.T) {
	reference := date(2024, 3, 13)
	for _, interval := range []Interval{Weekly, Monthly, Yearly} {
		got, ok := interval.Next(reference)
		assert.True(t, ok)
		assert.Equal(t, reference.Weekday(), got.Weekday(), interval.String())
		assert.True(t, got.After(reference), interval.String())
	}
}

func TestIntervalNextUnset(t *testing.T) {
	_, ok := Interval("").Next(date(2024, 1, 10))
	assert.False(t, ok)

	_, ok = Interval("q").Next(date(2024, 1, 10))
	assert.False(t, ok)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    Interval
		wantErr bool
	}{
		{"d", Daily, false},
		{"Weekly", Weekly, false},
		{" monthly ", Monthly, false},
		{"y", Yearly, false},
		{"", "", false},
		{"fortnightly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
