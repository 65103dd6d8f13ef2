package parsers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-dashboard/internal/models"
)

func TestParseStrictDate(t *testing.T) {
	for _, s := range []string{"2025-01-05", "2024-02-29", "1999-12-31", "2025-03-04"} {
		t.Run(s, func(t *testing.T) {
			d, ok := ParseStrictDate(s)
			require.True(t, ok)
			assert.Equal(t, s, d.String())
		})
	}

	for _, s := range []string{"2025-1-5", "05/01/2025", "2025-02-30", "2025-01-05 00:00:00", ""} {
		t.Run("reject "+s, func(t *testing.T) {
			_, ok := ParseStrictDate(s)
			assert.False(t, ok)
		})
	}
}

func TestParseLenientDate(t *testing.T) {
	tests := []struct {
		in   string
		want models.NullDate
	}{
		{"03/04/2025", models.NewDate(2025, time.April, 3)},
		{"3/4/2025", models.NewDate(2025, time.April, 3)},
		{"13/01/2025", models.NewDate(2025, time.January, 13)},
		{"01/13/2025", models.NewDate(2025, time.January, 13)},
		{"03-04-2025", models.NewDate(2025, time.April, 3)},
		{"03.04.2025", models.NewDate(2025, time.April, 3)},
		{"3/4/25", models.NewDate(2025, time.April, 3)},
		{"2025-1-5", models.NewDate(2025, time.January, 5)},
		{"2025/01/05", models.NewDate(2025, time.January, 5)},
		{"2025-01-05 13:45:00", models.NewDate(2025, time.January, 5)},
		{"2025-01-05T13:45:00Z", models.NewDate(2025, time.January, 5)},
		{"20250105", models.NewDate(2025, time.January, 5)},
		{"5 March 2025", models.NewDate(2025, time.March, 5)},
		{"5 mar 2025", models.NewDate(2025, time.March, 5)},
		{"3rd March 2025", models.NewDate(2025, time.March, 3)},
		{"March 5, 2025", models.NewDate(2025, time.March, 5)},
		{"05-Mar-2025", models.NewDate(2025, time.March, 5)},
		{"Mar-25", models.NewDate(2025, time.March, 1)},
		{"March 2025", models.NewDate(2025, time.March, 1)},
		{"2025-07", models.NewDate(2025, time.July, 1)},
		{"2025", models.NewDate(2025, time.January, 1)},
		{"  03/04/2025  ", models.NewDate(2025, time.April, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLenientDate(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, s := range []string{"", "not a date", "45662", "2025-02-30", "32/01/2025", "Q1 2025", "FY2025", "202"} {
		t.Run("reject "+s, func(t *testing.T) {
			_, ok := ParseLenientDate(s)
			assert.False(t, ok)
		})
	}
}

func TestNormalizeDates(t *testing.T) {
	values := []any{
		"2025-01-05",
		" 2025-03-04 ",
		"03/04/2025",
		time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 20, 9, 30, 0, 0, time.UTC),
		nil,
		"",
		"garbage",
		45662.0,
	}

	got := NormalizeDates(values)
	require.Len(t, got, len(values))

	assert.Equal(t, models.NewDate(2025, time.January, 5), got[0])
	assert.Equal(t, models.NewDate(2025, time.March, 4), got[1], "ISO dates never go through day-first parsing")
	assert.Equal(t, models.NewDate(2025, time.April, 3), got[2])
	assert.Equal(t, models.NewDate(2025, time.February, 10), got[3])
	assert.Equal(t, models.NewDate(2025, time.February, 20), got[4])
	for i := 5; i < len(values); i++ {
		assert.False(t, got[i].Valid, "index %d", i)
	}
}

func TestNormalizeDatesEmpty(t *testing.T) {
	assert.Empty(t, NormalizeDates(nil))
}
