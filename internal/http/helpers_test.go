package http

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"despesas/internal/core"
)

func TestParseFormDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"datetime-local", "2026-08-10T14:30", time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC), false},
		{"plain date", "2026-08-10", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), false},
		{"trimmed", "  2026-08-10  ", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "10/08/2026", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFormDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMonthYearDefaultsToCurrentMonth(t *testing.T) {
	now := time.Now()

	month, year := parseMonthYear(url.Values{}, "mes", "ano")
	if month != int(now.Month()) || year != now.Year() {
		t.Fatalf("got %d/%d, want %d/%d", month, year, now.Month(), now.Year())
	}

	month, year = parseMonthYear(url.Values{"mes": {"2"}, "ano": {"2025"}}, "mes", "ano")
	if month != 2 || year != 2025 {
		t.Fatalf("got %d/%d, want 2/2025", month, year)
	}

	// Out-of-range month falls back to the current one.
	month, _ = parseMonthYear(url.Values{"mes": {"13"}}, "mes", "ano")
	if month != int(now.Month()) {
		t.Fatalf("month=%d, want current %d", month, now.Month())
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Mercado  ", "Mercado"},
		{"a\x00b", "ab"},
		{"linha1\nlinha2", "linha1\nlinha2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q)=%q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatReais(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{15075, "R$ 150,75"},
		{150000, "R$ 1500,00"},
		{5, "R$ 0,05"},
		{0, "R$ 0,00"},
	}
	for _, tt := range tests {
		if got := formatReais(tt.cents); got != tt.want {
			t.Errorf("formatReais(%d)=%q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrDuplicateCategory, http.StatusConflict},
		{core.ErrCategoryInUse, http.StatusConflict},
		{core.ErrEmptyName, http.StatusBadRequest},
		{core.ErrInvalidAmount, http.StatusBadRequest},
		{core.ErrUnknownCategory, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := httpStatus(tt.err); got != tt.want {
			t.Errorf("httpStatus(%v)=%d, want %d", tt.err, got, tt.want)
		}
	}
}
