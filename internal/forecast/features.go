package forecast

import (
	"sort"
	"strings"
	"time"
)

// Base feature columns, in frame order. Category and currency columns follow them.
const (
	colTotalAmount = iota
	colAvgAmount
	colTransactionCount
	colNetDirection
	colDayOfWeek
	colDayOfMonth
	colMonth
	colQuarter
	colIsWeekend
	colIsMonthEnd
	colAmount7dAvg
	colAmount30dAvg
	colCount7dAvg
	colAmountLag1
	colAmountLag7
	colAmountLag30
	baseColumnCount
)

var baseColumns = [baseColumnCount]string{
	"total_amount",
	"avg_amount",
	"transaction_count",
	"net_direction",
	"day_of_week",
	"day_of_month",
	"month",
	"quarter",
	"is_weekend",
	"is_month_end",
	"amount_7d_avg",
	"amount_30d_avg",
	"count_7d_avg",
	"amount_lag_1",
	"amount_lag_7",
	"amount_lag_30",
}

// featureWarmup is the number of leading days without a full 30-day window and lag.
const featureWarmup = 30

const (
	categoryPrefix = "category:"
	currencyPrefix = "currency:"
)

// FeatureRow is the feature vector for one calendar day.
type FeatureRow struct {
	Date   time.Time
	Values []float64
}

// FeatureFrame holds the engineered rows with their cumulative-cashflow targets. Rows
// inside the rolling and lag warm-up are already dropped.
type FeatureFrame struct {
	Columns []string
	Rows    []FeatureRow
	Target  []float64
}

// BuildFeatures engineers one row per calendar day of series.
func BuildFeatures(txns []Transaction, series DailySeries) FeatureFrame {
	categories, currencies := labelSets(txns)
	columns := append([]string(nil), baseColumns[:]...)
	extra := make(map[string]int, len(categories)+len(currencies))
	for _, c := range categories {
		extra[categoryPrefix+c] = len(columns)
		columns = append(columns, categoryPrefix+c)
	}
	for _, c := range currencies {
		extra[currencyPrefix+c] = len(columns)
		columns = append(columns, currencyPrefix+c)
	}

	frame := FeatureFrame{Columns: columns}
	n := series.Len()
	if n <= featureWarmup {
		return frame
	}

	dayIndex := make(map[time.Time]int, n)
	for i, p := range series.Points {
		dayIndex[p.Date] = i
	}
	labelled := make([][]float64, n)
	for _, tx := range txns {
		i, ok := dayIndex[calendarDay(tx.Date)]
		if !ok {
			continue
		}
		if labelled[i] == nil {
			labelled[i] = make([]float64, len(columns)-baseColumnCount)
		}
		amount := tx.SignedAmount()
		if c := normaliseLabel(tx.Category); c != "" {
			labelled[i][extra[categoryPrefix+c]-baseColumnCount] += amount
		}
		if c := strings.ToUpper(normaliseLabel(tx.Currency)); c != "" {
			labelled[i][extra[currencyPrefix+c]-baseColumnCount] += amount
		}
	}

	net := series.Net()
	for i := featureWarmup; i < n; i++ {
		p := series.Points[i]
		values := make([]float64, len(columns))
		values[colTotalAmount] = p.Net
		if p.Count > 0 {
			values[colAvgAmount] = p.Net / float64(p.Count)
		}
		values[colTransactionCount] = float64(p.Count)
		values[colNetDirection] = float64(p.NetDirection)
		setCalendar(values, p.Date)
		values[colAmount7dAvg] = windowMean(net, i, 7)
		values[colAmount30dAvg] = windowMean(net, i, 30)
		values[colCount7dAvg] = countMean(series.Points, i, 7)
		values[colAmountLag1] = net[i-1]
		values[colAmountLag7] = net[i-7]
		values[colAmountLag30] = net[i-30]
		if labelled[i] != nil {
			copy(values[baseColumnCount:], labelled[i])
		}

		frame.Rows = append(frame.Rows, FeatureRow{Date: p.Date, Values: values})
		frame.Target = append(frame.Target, p.Cumulative)
	}
	return frame
}

// AdvanceFeatures returns a copy of prev with every calendar column moved to next. Amount,
// rolling and lag columns keep their last observed values; they are not re-derived from
// earlier predictions.
func AdvanceFeatures(prev FeatureRow, next time.Time) FeatureRow {
	values := append([]float64(nil), prev.Values...)
	setCalendar(values, next)
	return FeatureRow{Date: calendarDay(next), Values: values}
}

func setCalendar(values []float64, day time.Time) {
	weekday := (int(day.Weekday()) + 6) % 7
	values[colDayOfWeek] = float64(weekday)
	values[colDayOfMonth] = float64(day.Day())
	values[colMonth] = float64(day.Month())
	values[colQuarter] = float64((int(day.Month())-1)/3 + 1)
	values[colIsWeekend] = boolFeature(weekday >= 5)
	values[colIsMonthEnd] = boolFeature(day.Day() >= 28)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// windowMean averages xs over the window of size ending at i inclusive.
func windowMean(xs []float64, i, size int) float64 {
	var sum float64
	for j := i - size + 1; j <= i; j++ {
		sum += xs[j]
	}
	return sum / float64(size)
}

func countMean(points []DailyPoint, i, size int) float64 {
	var sum int
	for j := i - size + 1; j <= i; j++ {
		sum += points[j].Count
	}
	return float64(sum) / float64(size)
}

func normaliseLabel(s string) string {
	return strings.TrimSpace(s)
}

func labelSets(txns []Transaction) ([]string, []string) {
	cats := make(map[string]struct{})
	curs := make(map[string]struct{})
	for _, tx := range txns {
		if c := normaliseLabel(tx.Category); c != "" {
			cats[c] = struct{}{}
		}
		if c := strings.ToUpper(normaliseLabel(tx.Currency)); c != "" {
			curs[c] = struct{}{}
		}
	}
	return sortedKeys(cats), sortedKeys(curs)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
