package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"despesas/internal/core"
	"despesas/internal/services"
)

type transactionFormData struct {
	ID         int64
	Descricao  string
	Valor      string
	Tipo       string
	Data       string
	CategoryID int64
	Categorias []core.Category
	Editing    bool
	Erro       string
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mes, ano := parseMonthYear(query, "mes", "ano")

	filter := services.Filter{
		Month:       mes,
		Year:        ano,
		Description: query.Get("descricao"),
	}
	if v := query.Get("tipo"); v != "" {
		if t, err := core.ParseTransactionType(v); err == nil {
			filter.Type = t
		}
	}

	txs, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list error", "error", err)
		http.Error(w, "Não foi possível carregar as transações.", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "transactions_list.html", struct {
		Transacoes []core.Transaction
		Mes        int
		Ano        int
		Tipo       string
		Descricao  string
	}{
		Transacoes: txs,
		Mes:        mes,
		Ano:        ano,
		Tipo:       string(filter.Type),
		Descricao:  filter.Description,
	})
}

func (s *Server) handleTransactionNew(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.ListByType(r.Context(), nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
	}
	s.render(w, r, "transaction_form.html", transactionFormData{
		Tipo:       string(core.Expense),
		Data:       time.Now().Format("2006-01-02T15:04"),
		Categorias: cats,
	})
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formato de requisição inválido.", http.StatusBadRequest)
		return
	}

	tx, form, err := s.transactionFromForm(r)
	if err != nil {
		form.Categorias = s.categoriesForForm(r)
		form.Erro = userMessage(err)
		w.WriteHeader(httpStatus(err))
		s.render(w, r, "transaction_form.html", form)
		return
	}

	if _, err := s.transactions.Create(r.Context(), tx); err != nil {
		form.Categorias = s.categoriesForForm(r)
		form.Erro = userMessage(err)
		w.WriteHeader(httpStatus(err))
		s.render(w, r, "transaction_form.html", form)
		return
	}

	http.Redirect(w, r, "/transacoes", http.StatusSeeOther)
}

func (s *Server) handleTransactionEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tx, err := s.transactions.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction load error", "error", err, "id", id)
		http.Error(w, "Não foi possível carregar a transação.", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "transaction_form.html", transactionFormData{
		ID:         tx.ID,
		Descricao:  tx.Description,
		Valor:      tx.Amount.String(),
		Tipo:       string(tx.Type),
		Data:       tx.Date.Format("2006-01-02T15:04"),
		CategoryID: tx.CategoryID,
		Categorias: s.categoriesForForm(r),
		Editing:    true,
	})
}

func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formato de requisição inválido.", http.StatusBadRequest)
		return
	}

	tx, form, err := s.transactionFromForm(r)
	form.ID = id
	form.Editing = true
	if err == nil {
		tx.ID = id
		err = s.transactions.Update(r.Context(), tx)
	}
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		form.Categorias = s.categoriesForForm(r)
		form.Erro = userMessage(err)
		w.WriteHeader(httpStatus(err))
		s.render(w, r, "transaction_form.html", form)
		return
	}

	http.Redirect(w, r, "/transacoes", http.StatusSeeOther)
}

func (s *Server) handleTransactionDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	tx, err := s.transactions.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction load error", "error", err, "id", id)
		http.Error(w, "Não foi possível carregar a transação.", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "transaction_delete.html", struct {
		Transacao core.Transaction
	}{Transacao: tx})
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Deleting an absent transaction is a silent no-op.
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Transaction delete error", "error", err, "id", id)
		http.Error(w, "Ocorreu um erro ao tentar excluir a transação.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/transacoes", http.StatusSeeOther)
}

// transactionFromForm builds a transaction from the submitted form, also
// returning the form echo used to re-render on error.
func (s *Server) transactionFromForm(r *http.Request) (core.Transaction, transactionFormData, error) {
	form := transactionFormData{
		Descricao: sanitizeInput(r.Form.Get("descricao")),
		Valor:     strings.TrimSpace(r.Form.Get("valor")),
		Tipo:      r.Form.Get("tipo"),
		Data:      strings.TrimSpace(r.Form.Get("data")),
	}

	tipo, err := core.ParseTransactionType(form.Tipo)
	if err != nil {
		return core.Transaction{}, form, err
	}

	cents, err := core.ParseDecimalToCents(form.Valor)
	if err != nil {
		return core.Transaction{}, form, err
	}

	date, err := parseFormDate(form.Data)
	if err != nil {
		return core.Transaction{}, form, err
	}

	categoryID, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("categoria_id")), 10, 64)
	if err != nil || categoryID <= 0 {
		return core.Transaction{}, form, core.ErrUnknownCategory
	}
	form.CategoryID = categoryID

	return core.Transaction{
		Description: form.Descricao,
		Amount:      core.Money{Cents: cents},
		Type:        tipo,
		Date:        date,
		CategoryID:  categoryID,
	}, form, nil
}

// categoriesForForm loads the dropdown options, tolerating load failures so
// the form still renders with its error message.
func (s *Server) categoriesForForm(r *http.Request) []core.Category {
	cats, err := s.categories.ListByType(r.Context(), nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
		return nil
	}
	return cats
}
