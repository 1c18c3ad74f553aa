package core

import "time"

// CategoryAmount is an amount aggregated under a category.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Amount     Money
}

// MonthSummary is the dashboard view of a single year+month: period totals
// plus the expense breakdown by category, sorted by amount descending.
type MonthSummary struct {
	Year         int
	Month        int // 1-12
	TotalIncome  Money
	TotalExpense Money
	Balance      Money // TotalIncome - TotalExpense, may be negative
	ByCategory   []CategoryAmount
}

// CategoryLabels returns the breakdown names, index-aligned with
// CategoryTotals.
func (s MonthSummary) CategoryLabels() []string {
	labels := make([]string, len(s.ByCategory))
	for i, c := range s.ByCategory {
		labels[i] = c.Name
	}
	return labels
}

// CategoryTotals returns the breakdown amounts in cents, index-aligned with
// CategoryLabels.
func (s MonthSummary) CategoryTotals() []int64 {
	totals := make([]int64, len(s.ByCategory))
	for i, c := range s.ByCategory {
		totals[i] = c.Amount.Cents
	}
	return totals
}

// MonthRange returns the inclusive boundaries of a calendar month:
// the first instant of its first day and the first instant of the next
// month. Callers treat the end as exclusive.
func MonthRange(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}
