package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/internal/contracts"
)

func TestWeekdayCalendar_NextMarketOpen(t *testing.T) {
	cal, err := NewWeekdayCalendar("America/New_York", "09:30", []string{"2006-02-20"})
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	handle := contracts.SecurityHandle{Symbol: "AAPL", Market: "usa"}

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			name: "saturday rolls to monday",
			at:   time.Date(2006, 2, 4, 0, 0, 0, 0, ny),
			want: time.Date(2006, 2, 6, 9, 30, 0, 0, ny),
		},
		{
			name: "weekday midnight opens same day",
			at:   time.Date(2006, 2, 7, 0, 0, 0, 0, ny),
			want: time.Date(2006, 2, 7, 9, 30, 0, 0, ny),
		},
		{
			name: "after the open rolls to next day",
			at:   time.Date(2006, 2, 10, 10, 0, 0, 0, ny),
			want: time.Date(2006, 2, 13, 9, 30, 0, 0, ny),
		},
		{
			name: "holiday is skipped",
			at:   time.Date(2006, 2, 20, 0, 0, 0, 0, ny),
			want: time.Date(2006, 2, 21, 9, 30, 0, 0, ny),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.NextMarketOpen(handle, tt.at)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestNewWeekdayCalendar_Invalid(t *testing.T) {
	_, err := NewWeekdayCalendar("Mars/Olympus", "09:30", nil)
	assert.Error(t, err)

	_, err = NewWeekdayCalendar("UTC", "9h30", nil)
	assert.Error(t, err)

	_, err = NewWeekdayCalendar("UTC", "09:30", []string{"20060220"})
	assert.Error(t, err)
}
