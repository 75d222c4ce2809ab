package forecast

import (
	"sort"
	"time"
)

// DailyPoint is one calendar day of aggregated cashflow.
type DailyPoint struct {
	Date         time.Time
	Net          float64
	Cumulative   float64
	Count        int
	NetDirection int
}

// DailySeries is a gap-free, strictly increasing run of calendar days.
type DailySeries struct {
	Points []DailyPoint
}

func (s DailySeries) Len() int {
	return len(s.Points)
}

// Last returns the final day. It panics on an empty series.
func (s DailySeries) Last() DailyPoint {
	return s.Points[len(s.Points)-1]
}

func (s DailySeries) Net() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Net
	}
	return out
}

func (s DailySeries) Cumulative() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Cumulative
	}
	return out
}

func (s DailySeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildDailySeries aggregates transactions into a zero-filled daily series spanning the
// earliest to the latest transaction date. Fewer than two distinct days is an error.
func BuildDailySeries(txns []Transaction) (DailySeries, error) {
	series := aggregateDays(txns)
	if series.Len() < 2 {
		return series, insufficient(ModelEnsemble, "need at least 2 distinct days, got %d", series.Len())
	}
	return series, nil
}

// aggregateDays is BuildDailySeries without the minimum-length check, so the fallback can
// still see a single day of history.
func aggregateDays(txns []Transaction) DailySeries {
	if len(txns) == 0 {
		return DailySeries{}
	}

	byDay := make(map[time.Time]*DailyPoint)
	for _, tx := range txns {
		day := calendarDay(tx.Date)
		point, ok := byDay[day]
		if !ok {
			point = &DailyPoint{Date: day}
			byDay[day] = point
		}
		amount := tx.SignedAmount()
		point.Net += amount
		point.Count++
		switch {
		case amount > 0:
			point.NetDirection++
		case amount < 0:
			point.NetDirection--
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	span := int(last.Sub(first).Hours()/24) + 1

	points := make([]DailyPoint, span)
	var cumulative float64
	for i := range points {
		day := first.AddDate(0, 0, i)
		point := DailyPoint{Date: day}
		if observed, ok := byDay[day]; ok {
			point = *observed
		}
		cumulative += point.Net
		point.Cumulative = cumulative
		points[i] = point
	}

	return DailySeries{Points: points}
}
