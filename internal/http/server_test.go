package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"despesas/internal/core"
	"despesas/internal/services"
)

type fakeCategories struct {
	cats      []core.Category
	createErr error
	updateErr error
	deleteErr error
}

func (f *fakeCategories) List(ctx context.Context) ([]core.Category, error) {
	return f.cats, nil
}

func (f *fakeCategories) ListByType(ctx context.Context, t *core.TransactionType) ([]core.Category, error) {
	if t == nil {
		return f.cats, nil
	}
	var out []core.Category
	for _, c := range f.cats {
		if c.Type == *t {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) Get(ctx context.Context, id int64) (core.Category, error) {
	for _, c := range f.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (f *fakeCategories) Create(ctx context.Context, name string, t core.TransactionType) (core.Category, error) {
	if f.createErr != nil {
		return core.Category{}, f.createErr
	}
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	cat := core.Category{ID: int64(len(f.cats) + 1), Name: name, Type: t}
	f.cats = append(f.cats, cat)
	return cat, nil
}

func (f *fakeCategories) Update(ctx context.Context, id int64, name string, t core.TransactionType) (core.Category, error) {
	if f.updateErr != nil {
		return core.Category{}, f.updateErr
	}
	for i, c := range f.cats {
		if c.ID == id {
			f.cats[i].Name = name
			f.cats[i].Type = t
			return f.cats[i], nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (f *fakeCategories) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, c := range f.cats {
		if c.ID == id {
			f.cats = append(f.cats[:i], f.cats[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

type fakeTransactions struct {
	txs       []core.Transaction
	createErr error
	updateErr error
	deleteErr error
	deleted   []int64
}

func (f *fakeTransactions) List(ctx context.Context, _ services.Filter) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeTransactions) Get(ctx context.Context, id int64) (core.Transaction, error) {
	for _, tx := range f.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (f *fakeTransactions) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	tx.ID = int64(len(f.txs) + 1)
	f.txs = append(f.txs, tx)
	return tx, nil
}

func (f *fakeTransactions) Update(ctx context.Context, tx core.Transaction) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, existing := range f.txs {
		if existing.ID == tx.ID {
			f.txs[i] = tx
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeTransactions) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	// Absent ids are a silent no-op, mirroring the service.
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSummaries struct {
	summary core.MonthSummary
	err     error
}

func (f *fakeSummaries) Summary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	if f.err != nil {
		return core.MonthSummary{}, f.err
	}
	s := f.summary
	s.Year = year
	s.Month = month
	return s, nil
}

func newTestServer(cats *fakeCategories, txs *fakeTransactions, sums *fakeSummaries) *Server {
	if cats == nil {
		cats = &fakeCategories{}
	}
	if txs == nil {
		txs = &fakeTransactions{}
	}
	if sums == nil {
		sums = &fakeSummaries{}
	}
	return NewServer(":0", cats, txs, sums)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestRootRedirectsToDashboard(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rr := get(t, srv, "/")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("location=%q, want /dashboard", loc)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d, want 200", path, rr.Code)
		}
	}
}

func TestCategoryListHTML(t *testing.T) {
	cats := &fakeCategories{cats: []core.Category{
		{ID: 1, Name: "Mercado", Type: core.Expense},
		{ID: 2, Name: "Salário", Type: core.Income},
	}}
	srv := newTestServer(cats, nil, nil)

	rr := get(t, srv, "/categorias")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Mercado", "Salário", "Despesa", "Receita"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestCategoryListJSONFormat(t *testing.T) {
	cats := &fakeCategories{cats: []core.Category{
		{ID: 1, Name: "Mercado", Type: core.Expense},
	}}
	srv := newTestServer(cats, nil, nil)

	rr := get(t, srv, "/categorias?format=json")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	var items []struct {
		ID   int64  `json:"id"`
		Nome string `json:"nome"`
		Tipo string `json:"tipo"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Nome != "Mercado" || items[0].Tipo != "Despesa" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCategoryCreateSuccessRedirects(t *testing.T) {
	cats := &fakeCategories{}
	srv := newTestServer(cats, nil, nil)

	rr := postForm(t, srv, "/categorias", url.Values{"nome": {"Transporte"}, "tipo": {"Despesa"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303, body=%s", rr.Code, rr.Body.String())
	}
	if len(cats.cats) != 1 || cats.cats[0].Name != "Transporte" {
		t.Fatalf("category not stored: %+v", cats.cats)
	}
}

func TestCategoryCreateDuplicateRendersError(t *testing.T) {
	cats := &fakeCategories{createErr: core.ErrDuplicateCategory}
	srv := newTestServer(cats, nil, nil)

	rr := postForm(t, srv, "/categorias", url.Values{"nome": {"Mercado"}, "tipo": {"Despesa"}})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d, want 409", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Já existe uma categoria") {
		t.Fatalf("body missing duplicate message: %s", rr.Body.String())
	}
}

func TestCategoryCreateEmptyNameRendersError(t *testing.T) {
	srv := newTestServer(&fakeCategories{}, nil, nil)

	rr := postForm(t, srv, "/categorias", url.Values{"nome": {"   "}, "tipo": {"Despesa"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "obrigatório") {
		t.Fatalf("body missing validation message: %s", rr.Body.String())
	}
}

func TestCategoryDeleteInUseShowsConflict(t *testing.T) {
	cats := &fakeCategories{
		cats:      []core.Category{{ID: 1, Name: "Mercado", Type: core.Expense}},
		deleteErr: core.ErrCategoryInUse,
	}
	srv := newTestServer(cats, nil, nil)

	rr := postForm(t, srv, "/categorias/1/excluir", url.Values{})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d, want 409", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "associada a transações") {
		t.Fatalf("body missing in-use message: %s", rr.Body.String())
	}
}

func TestCategoryDeleteMissingIs404(t *testing.T) {
	srv := newTestServer(&fakeCategories{}, nil, nil)
	rr := postForm(t, srv, "/categorias/99/excluir", url.Values{})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rr.Code)
	}
}

func TestCategoryJSONEndpoints(t *testing.T) {
	cats := &fakeCategories{cats: []core.Category{
		{ID: 1, Name: "Mercado", Type: core.Expense},
		{ID: 2, Name: "Salário", Type: core.Income},
	}}
	srv := newTestServer(cats, nil, nil)

	rr := get(t, srv, "/categorias.json?tipo=Receita")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	var items []struct {
		ID   int64  `json:"id"`
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Nome != "Salário" {
		t.Fatalf("unexpected items: %+v", items)
	}

	// Empty name is a 400.
	rr = postForm(t, srv, "/categorias.json", url.Values{"nome": {""}, "tipo": {"Despesa"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}

	// Success returns id and name.
	rr = postForm(t, srv, "/categorias.json", url.Values{"nome": {"Lazer"}, "tipo": {"Despesa"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200, body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID   int64  `json:"id"`
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 || created.Nome != "Lazer" {
		t.Fatalf("unexpected response: %+v", created)
	}

	// Duplicate is a 409.
	cats.createErr = core.ErrDuplicateCategory
	rr = postForm(t, srv, "/categorias.json", url.Values{"nome": {"Lazer"}, "tipo": {"Despesa"}})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d, want 409", rr.Code)
	}
}

func TestTransactionListRenders(t *testing.T) {
	txs := &fakeTransactions{txs: []core.Transaction{
		{
			ID:           1,
			Description:  "Feira da semana",
			Amount:       core.Money{Cents: 15075},
			Type:         core.Expense,
			Date:         time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC),
			CategoryID:   1,
			CategoryName: "Mercado",
		},
	}}
	srv := newTestServer(nil, txs, nil)

	rr := get(t, srv, "/transacoes?mes=8&ano=2026")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Feira da semana", "R$ 150,75", "Mercado", "10/08/2026 14:30"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestTransactionCreateSuccess(t *testing.T) {
	cats := &fakeCategories{cats: []core.Category{{ID: 1, Name: "Mercado", Type: core.Expense}}}
	txs := &fakeTransactions{}
	srv := newTestServer(cats, txs, nil)

	rr := postForm(t, srv, "/transacoes", url.Values{
		"descricao":    {"Feira"},
		"valor":        {"150,75"},
		"tipo":         {"Despesa"},
		"data":         {"2026-08-10T14:30"},
		"categoria_id": {"1"},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303, body=%s", rr.Code, rr.Body.String())
	}
	if len(txs.txs) != 1 {
		t.Fatalf("transaction not stored")
	}
	if txs.txs[0].Amount.Cents != 15075 {
		t.Fatalf("cents=%d, want 15075", txs.txs[0].Amount.Cents)
	}
}

func TestTransactionCreateInvalidAmount(t *testing.T) {
	srv := newTestServer(nil, &fakeTransactions{}, nil)

	rr := postForm(t, srv, "/transacoes", url.Values{
		"descricao":    {"Feira"},
		"valor":        {"abc"},
		"tipo":         {"Despesa"},
		"data":         {"2026-08-10T14:30"},
		"categoria_id": {"1"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Valor") {
		t.Fatalf("body missing amount message: %s", rr.Body.String())
	}
}

func TestTransactionCreateMissingCategory(t *testing.T) {
	srv := newTestServer(nil, &fakeTransactions{}, nil)

	rr := postForm(t, srv, "/transacoes", url.Values{
		"descricao": {"Feira"},
		"valor":     {"10,00"},
		"tipo":      {"Despesa"},
		"data":      {"2026-08-10T14:30"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "categoria") {
		t.Fatalf("body missing category message: %s", rr.Body.String())
	}
}

func TestTransactionDeleteAbsentRedirects(t *testing.T) {
	txs := &fakeTransactions{}
	srv := newTestServer(nil, txs, nil)

	rr := postForm(t, srv, "/transacoes/42/excluir", url.Values{})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303", rr.Code)
	}
	if len(txs.deleted) != 1 || txs.deleted[0] != 42 {
		t.Fatalf("delete not forwarded: %+v", txs.deleted)
	}
}

func TestDashboardRendersSummary(t *testing.T) {
	sums := &fakeSummaries{summary: core.MonthSummary{
		TotalIncome:  core.Money{Cents: 150000},
		TotalExpense: core.Money{Cents: 42050},
		Balance:      core.Money{Cents: 107950},
		ByCategory: []core.CategoryAmount{
			{CategoryID: 1, Name: "Mercado", Amount: core.Money{Cents: 30000}},
			{CategoryID: 2, Name: "Transporte", Amount: core.Money{Cents: 12050}},
		},
	}}
	srv := newTestServer(nil, nil, sums)

	rr := get(t, srv, "/dashboard?mes=8&ano=2026")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"R$ 1500,00", "R$ 420,50", "R$ 1079,50", "Mercado", "Transporte"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestDashboardNegativeBalance(t *testing.T) {
	sums := &fakeSummaries{summary: core.MonthSummary{
		TotalIncome:  core.Money{Cents: 10000},
		TotalExpense: core.Money{Cents: 25000},
		Balance:      core.Money{Cents: -15000},
	}}
	srv := newTestServer(nil, nil, sums)

	rr := get(t, srv, "/dashboard")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "negativo") {
		t.Fatalf("body missing negative styling hook")
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	rr := get(t, srv, "/categorias")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options=%q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options=%q", got)
	}
}
