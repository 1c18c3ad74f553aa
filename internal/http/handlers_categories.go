package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"despesas/internal/core"
)

type categoryFormData struct {
	ID      int64
	Nome    string
	Tipo    string
	Editing bool
	Erro    string
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
		http.Error(w, "Não foi possível carregar as categorias.", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeCategoriesJSON(w, cats, true)
		return
	}

	s.render(w, r, "categories_list.html", struct {
		Categorias []core.Category
		Erro       string
	}{Categorias: cats, Erro: r.URL.Query().Get("erro")})
}

func (s *Server) handleCategoryNew(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "category_form.html", categoryFormData{Tipo: string(core.Expense)})
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formato de requisição inválido.", http.StatusBadRequest)
		return
	}

	nome := sanitizeInput(r.Form.Get("nome"))
	tipoStr := r.Form.Get("tipo")

	form := categoryFormData{Nome: nome, Tipo: tipoStr}

	tipo, err := core.ParseTransactionType(tipoStr)
	if err == nil {
		_, err = s.categories.Create(r.Context(), nome, tipo)
	}
	if err != nil {
		form.Erro = userMessage(err)
		w.WriteHeader(httpStatus(err))
		s.render(w, r, "category_form.html", form)
		return
	}

	http.Redirect(w, r, "/categorias", http.StatusSeeOther)
}

func (s *Server) handleCategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	cat, err := s.categories.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Category load error", "error", err, "id", id)
		http.Error(w, "Não foi possível carregar a categoria.", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "category_form.html", categoryFormData{
		ID:      cat.ID,
		Nome:    cat.Name,
		Tipo:    string(cat.Type),
		Editing: true,
	})
}

func (s *Server) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formato de requisição inválido.", http.StatusBadRequest)
		return
	}

	nome := sanitizeInput(r.Form.Get("nome"))
	tipoStr := r.Form.Get("tipo")

	form := categoryFormData{ID: id, Nome: nome, Tipo: tipoStr, Editing: true}

	tipo, err := core.ParseTransactionType(tipoStr)
	if err == nil {
		_, err = s.categories.Update(r.Context(), id, nome, tipo)
	}
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		form.Erro = userMessage(err)
		w.WriteHeader(httpStatus(err))
		s.render(w, r, "category_form.html", form)
		return
	}

	http.Redirect(w, r, "/categorias", http.StatusSeeOther)
}

func (s *Server) handleCategoryDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	cat, err := s.categories.Get(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Category load error", "error", err, "id", id)
		http.Error(w, "Não foi possível carregar a categoria.", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "category_delete.html", struct {
		Categoria core.Category
		Erro      string
	}{Categoria: cat})
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = s.categories.Delete(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if errors.Is(err, core.ErrCategoryInUse) {
		cat, getErr := s.categories.Get(r.Context(), id)
		if getErr != nil {
			http.Error(w, userMessage(err), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusConflict)
		s.render(w, r, "category_delete.html", struct {
			Categoria core.Category
			Erro      string
		}{Categoria: cat, Erro: userMessage(err)})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Category delete error", "error", err, "id", id)
		http.Error(w, "Ocorreu um erro ao tentar excluir a categoria.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/categorias", http.StatusSeeOther)
}

// handleCategoryListJSON serves GET /categorias.json?tipo= for selection
// lists: id and name only, ordered by name.
func (s *Server) handleCategoryListJSON(w http.ResponseWriter, r *http.Request) {
	var filter *core.TransactionType
	if v := r.URL.Query().Get("tipo"); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Tipo inválido.")
			return
		}
		filter = &t
	}

	cats, err := s.categories.ListByType(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category list error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Não foi possível carregar as categorias.")
		return
	}
	writeCategoriesJSON(w, cats, false)
}

// handleCategoryCreateJSON serves POST /categorias.json for AJAX creation.
func (s *Server) handleCategoryCreateJSON(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Formato de requisição inválido.")
		return
	}

	nome := sanitizeInput(r.Form.Get("nome"))
	tipo, err := core.ParseTransactionType(r.Form.Get("tipo"))
	if err == nil {
		var cat core.Category
		cat, err = s.categories.Create(r.Context(), nome, tipo)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"id": cat.ID, "nome": cat.Name})
			return
		}
	}

	writeJSONError(w, httpStatus(err), userMessage(err))
}

func writeCategoriesJSON(w http.ResponseWriter, cats []core.Category, includeType bool) {
	type item struct {
		ID   int64  `json:"id"`
		Nome string `json:"nome"`
		Tipo string `json:"tipo,omitempty"`
	}
	items := make([]item, 0, len(cats))
	for _, c := range cats {
		it := item{ID: c.ID, Nome: c.Name}
		if includeType {
			it.Tipo = string(c.Type)
		}
		items = append(items, it)
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"erro": msg})
}
