package workcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountWorkingDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single weekday", date(2025, time.June, 2), date(2025, time.June, 2), 1},
		{"full work week", date(2025, time.June, 2), date(2025, time.June, 6), 5},
		{"across a weekend", date(2025, time.July, 7), date(2025, time.July, 14), 6},
		{"weekend only", date(2025, time.June, 7), date(2025, time.June, 8), 0},
		{"full month June 2025", date(2025, time.June, 1), date(2025, time.June, 30), 21},
		{"full month February 2025", date(2025, time.February, 1), date(2025, time.February, 28), 20},
		{"end before start", date(2025, time.June, 6), date(2025, time.June, 2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWorkingDays(tt.start, tt.end))
		})
	}
}

func TestCountWorkingDaysIgnoresTimeOfDay(t *testing.T) {
	// Late start, early end on the same calendar days must not drop a day.
	start := time.Date(2025, time.June, 2, 23, 30, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 6, 0, 15, 0, 0, time.UTC)
	assert.Equal(t, 5, CountWorkingDays(start, end))
}

func TestIsWorkingDay(t *testing.T) {
	assert.True(t, IsWorkingDay(date(2025, time.June, 2)))  // Monday
	assert.True(t, IsWorkingDay(date(2025, time.June, 6)))  // Friday
	assert.False(t, IsWorkingDay(date(2025, time.June, 7))) // Saturday
	assert.False(t, IsWorkingDay(date(2025, time.June, 8))) // Sunday
}
