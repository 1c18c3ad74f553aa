package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"despesas/internal/core"
)

// formLayouts are accepted by the transaction date field: a browser
// datetime-local value or a plain date (midnight).
var formLayouts = []string{"2006-01-02T15:04", "2006-01-02"}

// parseFormDate parses a transaction date from a form value.
func parseFormDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range formLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.ErrInvalidDate
}

// parseID extracts the {id} path value as a positive integer.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// parseMonthYear reads the given query keys, defaulting to the current
// month. Out-of-range months fall back to the current one.
func parseMonthYear(query url.Values, monthKey, yearKey string) (month, year int) {
	now := time.Now()
	month = int(now.Month())
	year = now.Year()

	if v := strings.TrimSpace(query.Get(monthKey)); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	if v := strings.TrimSpace(query.Get(yearKey)); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			year = y
		}
	}
	return month, year
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// formatReais formats cents as Brazilian currency, e.g. "R$ 1500,00".
func formatReais(cents int64) string {
	m := core.Money{Cents: cents}
	return "R$ " + m.String()
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// userMessage maps domain errors to the messages shown inline on forms.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "O campo Nome é obrigatório."
	case errors.Is(err, core.ErrNameTooLong):
		return "O nome da categoria deve ter no máximo 60 caracteres."
	case errors.Is(err, core.ErrDuplicateCategory):
		return "Já existe uma categoria com esse nome para esse tipo."
	case errors.Is(err, core.ErrCategoryInUse):
		return "Não é possível excluir uma categoria associada a transações existentes."
	case errors.Is(err, core.ErrEmptyDescription):
		return "O campo Descrição é obrigatório."
	case errors.Is(err, core.ErrInvalidAmount):
		return "O Valor deve ser maior que zero."
	case errors.Is(err, core.ErrInvalidType):
		return "O campo Tipo é obrigatório."
	case errors.Is(err, core.ErrInvalidDate):
		return "O campo Data é obrigatório."
	case errors.Is(err, core.ErrUnknownCategory):
		return "Selecione uma categoria existente."
	case errors.Is(err, core.ErrNotFound):
		return "Registro não encontrado."
	}
	return "Não foi possível salvar os dados."
}

// httpStatus maps domain errors to response codes for the JSON endpoints.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateCategory), errors.Is(err, core.ErrCategoryInUse):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrUnknownCategory):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// render executes a template, falling back to a 500 when templates failed to
// load or execution fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
