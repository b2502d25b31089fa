package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "Valid date",
			input:    "2026-01-27",
			expected: time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC),
			wantErr:  false,
		},
		{
			name:    "Invalid format",
			input:   "27-01-2026",
			wantErr: true,
		},
		{
			name:    "Invalid day",
			input:   "2026-01-32",
			wantErr: true,
		},
		{
			name:    "Empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestParseDatetime(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)

	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "With seconds",
			input:    "2024-01-10 09:15:30",
			expected: time.Date(2024, 1, 10, 9, 15, 30, 0, loc),
		},
		{
			name:     "Without seconds",
			input:    " 2024-01-10 09:15 ",
			expected: time.Date(2024, 1, 10, 9, 15, 0, 0, loc),
		},
		{
			name:     "RFC3339 keeps its offset",
			input:    "2024-01-10T06:15:00Z",
			expected: time.Date(2024, 1, 10, 6, 15, 0, 0, time.UTC),
		},
		{
			name:    "Date only",
			input:   "2024-01-10",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatetime(tt.input, loc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.expected.Equal(got), "got %s", got)
			}
		})
	}
}
