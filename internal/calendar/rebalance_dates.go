package calendar

import "time"

// Period is the spacing between two rebalancing dates
type Period struct {
	Years  int `yaml:"years" json:"years"`
	Months int `yaml:"months" json:"months"`
	Days   int `yaml:"days" json:"days"`
}

// Yearly is the default rebalancing period
var Yearly = Period{Years: 1}

// IsPositive reports whether stepping by p moves strictly forward
func (p Period) IsPositive() bool {
	probe := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return p.step(probe, 1).After(probe)
}

// step returns start advanced by n periods
// Years and months clamp to the last day of the month (2/29 + 1y = 2/28), then days are added.
// Computed from start each time so the clamping does not accumulate.
func (p Period) step(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	hh, mm, ss := start.Clock()

	first := time.Date(y+n*p.Years, m+time.Month(n*p.Months), 1, hh, mm, ss, start.Nanosecond(), start.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1+n*p.Days)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RebalanceDates returns start, start+p, start+2p, ... while strictly before end
// ⭐ SSOT: 리밸런싱 일정 생성은 여기서만
// start after end or a non-positive period yields an empty sequence.
func RebalanceDates(start, end time.Time, p Period) []time.Time {
	if !p.IsPositive() {
		return nil
	}

	dates := make([]time.Time, 0)
	for i := 0; ; i++ {
		current := p.step(start, i)
		if !current.Before(end) {
			break
		}
		dates = append(dates, current)
	}

	return dates
}
