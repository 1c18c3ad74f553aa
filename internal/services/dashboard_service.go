package services

import (
	"context"
	"fmt"

	"despesas/internal/core"
	"despesas/internal/storage"
)

// DashboardService computes the monthly summary: total income, total
// expense, the resulting balance and the per-category expense breakdown.
// All arithmetic is integer cents, exact to the cent.
type DashboardService struct {
	repo *storage.SQLiteRepository
}

func NewDashboardService(repo *storage.SQLiteRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// Summary aggregates the given calendar month. A month without data yields
// zero totals and an empty breakdown.
func (s *DashboardService) Summary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}
	start, end := core.MonthRange(year, month)

	income, err := s.repo.SumByType(ctx, core.Income, start, end)
	if err != nil {
		return summary, fmt.Errorf("total income (year=%d, month=%d): %w", year, month, err)
	}
	expense, err := s.repo.SumByType(ctx, core.Expense, start, end)
	if err != nil {
		return summary, fmt.Errorf("total expense (year=%d, month=%d): %w", year, month, err)
	}

	summary.TotalIncome = core.Money{Cents: income}
	summary.TotalExpense = core.Money{Cents: expense}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)

	byCategory, err := s.repo.ExpenseTotalsByCategory(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("expense breakdown (year=%d, month=%d): %w", year, month, err)
	}
	summary.ByCategory = byCategory

	return summary, nil
}
