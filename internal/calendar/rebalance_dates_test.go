package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRebalanceDates_OriginalBacktestRange(t *testing.T) {
	dates := RebalanceDates(date(2006, 2, 4), date(2018, 9, 10), Yearly)

	require.Len(t, dates, 13)
	assert.Equal(t, date(2006, 2, 4), dates[0])
	assert.Equal(t, date(2017, 2, 4), dates[11])
	assert.Equal(t, date(2018, 2, 4), dates[12])
}

func TestRebalanceDates_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		period Period
		want   []time.Time
	}{
		{
			name:   "end equal to generated date is excluded",
			start:  date(2010, 1, 1),
			end:    date(2012, 1, 1),
			period: Yearly,
			want:   []time.Time{date(2010, 1, 1), date(2011, 1, 1)},
		},
		{
			name:   "start equal to end is empty",
			start:  date(2010, 1, 1),
			end:    date(2010, 1, 1),
			period: Yearly,
			want:   []time.Time{},
		},
		{
			name:   "start after end is empty",
			start:  date(2012, 1, 1),
			end:    date(2010, 1, 1),
			period: Yearly,
			want:   []time.Time{},
		},
		{
			name:   "quarterly",
			start:  date(2020, 1, 15),
			end:    date(2020, 12, 31),
			period: Period{Months: 3},
			want:   []time.Time{date(2020, 1, 15), date(2020, 4, 15), date(2020, 7, 15), date(2020, 10, 15)},
		},
		{
			name:   "leap day start clamps to month end",
			start:  date(2008, 2, 29),
			end:    date(2013, 1, 1),
			period: Yearly,
			want: []time.Time{
				date(2008, 2, 29), date(2009, 2, 28), date(2010, 2, 28), date(2011, 2, 28), date(2012, 2, 29),
			},
		},
		{
			name:   "monthly from the 31st",
			start:  date(2006, 1, 31),
			end:    date(2006, 5, 1),
			period: Period{Months: 1},
			want:   []time.Time{date(2006, 1, 31), date(2006, 2, 28), date(2006, 3, 31), date(2006, 4, 30)},
		},
		{
			name:   "zero period is empty",
			start:  date(2010, 1, 1),
			end:    date(2020, 1, 1),
			period: Period{},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RebalanceDates(tt.start, tt.end, tt.period))
		})
	}
}

func TestRebalanceDates_CountAndOrder(t *testing.T) {
	start := date(2001, 3, 10)

	// 연 단위: ceil((end-start)/1y)
	for years := 0; years <= 15; years++ {
		for _, extraDays := range []int{0, 1, 200} {
			end := start.AddDate(years, 0, extraDays)
			want := years
			if extraDays > 0 {
				want++
			}

			dates := RebalanceDates(start, end, Yearly)
			require.Len(t, dates, want, "end=%s", end.Format("2006-01-02"))

			for i, d := range dates {
				assert.False(t, d.Before(start))
				assert.True(t, d.Before(end))
				if i > 0 {
					assert.True(t, d.After(dates[i-1]), "dates must be strictly increasing")
				}
			}
		}
	}
}

func TestRebalanceDates_Restartable(t *testing.T) {
	first := RebalanceDates(date(2006, 2, 4), date(2010, 1, 1), Yearly)
	first[0] = date(1999, 1, 1)

	second := RebalanceDates(date(2006, 2, 4), date(2010, 1, 1), Yearly)
	assert.Equal(t, date(2006, 2, 4), second[0])
}

func TestPeriod_IsPositive(t *testing.T) {
	assert.True(t, Yearly.IsPositive())
	assert.True(t, Period{Days: 1}.IsPositive())
	assert.False(t, Period{}.IsPositive())
	assert.False(t, Period{Years: -1}.IsPositive())
}
