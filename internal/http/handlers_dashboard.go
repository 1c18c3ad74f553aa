package http

import (
	"log/slog"
	"net/http"

	"despesas/internal/core"
)

// handleDashboard renders the monthly summary. The current month is the
// default; mes/ano query parameters override it.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	mes, ano := parseMonthYear(r.URL.Query(), "mes", "ano")

	summary, err := s.summaries.Summary(r.Context(), ano, mes)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary error", "error", err, "year", ano, "month", mes)
		http.Error(w, "Não foi possível calcular o resumo do mês.", http.StatusInternalServerError)
		return
	}

	type row struct {
		Nome  string
		Total core.Money
		// Width is the bar width percentage relative to the largest
		// category, floored at 2 for visibility.
		Width int
	}

	var maxCents int64
	for _, c := range summary.ByCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}

	data := struct {
		Ano          int
		Mes          int
		ReceitaTotal core.Money
		DespesaTotal core.Money
		SaldoFinal   core.Money
		Negativo     bool
		Rows         []row
	}{
		Ano:          summary.Year,
		Mes:          summary.Month,
		ReceitaTotal: summary.TotalIncome,
		DespesaTotal: summary.TotalExpense,
		SaldoFinal:   summary.Balance,
		Negativo:     summary.Balance.Cents < 0,
	}

	for _, c := range summary.ByCategory {
		width := 0
		if maxCents > 0 && c.Amount.Cents > 0 {
			width = int((c.Amount.Cents*100 + maxCents/2) / maxCents)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, row{Nome: c.Name, Total: c.Amount, Width: width})
	}

	s.render(w, r, "dashboard.html", data)
}
