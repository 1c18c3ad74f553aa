// Package http wires the HTTP surface: routing, templates, middleware and
// the handlers for categories, transactions and the dashboard.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"despesas/internal/core"
	applog "despesas/internal/log"
	"despesas/internal/services"
	appweb "despesas/web"
)

// CategoryStore is the category port consumed by the handlers.
type CategoryStore interface {
	List(ctx context.Context) ([]core.Category, error)
	ListByType(ctx context.Context, t *core.TransactionType) ([]core.Category, error)
	Get(ctx context.Context, id int64) (core.Category, error)
	Create(ctx context.Context, name string, t core.TransactionType) (core.Category, error)
	Update(ctx context.Context, id int64, name string, t core.TransactionType) (core.Category, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionStore is the transaction port consumed by the handlers.
type TransactionStore interface {
	List(ctx context.Context, f services.Filter) ([]core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, tx core.Transaction) error
	Delete(ctx context.Context, id int64) error
}

// SummaryReader is the aggregation port consumed by the dashboard handler.
type SummaryReader interface {
	Summary(ctx context.Context, year, month int) (core.MonthSummary, error)
}

type Server struct {
	http.Server
	templates    *template.Template
	categories   CategoryStore
	transactions TransactionStore
	summaries    SummaryReader
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, categories CategoryStore, transactions TransactionStore, summaries SummaryReader) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		categories:   categories,
		transactions: transactions,
		summaries:    summaries,
		rateLimiter:  newRateLimiter(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(template.FuncMap{
		"money":   formatReais,
		"fmtdate": formatDate,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets served from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /categorias", s.withMiddleware(s.handleCategoryList))
	mux.HandleFunc("GET /categorias/novo", s.withMiddleware(s.handleCategoryNew))
	mux.HandleFunc("POST /categorias", s.withMiddleware(s.handleCategoryCreate))
	mux.HandleFunc("GET /categorias/{id}/editar", s.withMiddleware(s.handleCategoryEdit))
	mux.HandleFunc("POST /categorias/{id}", s.withMiddleware(s.handleCategoryUpdate))
	mux.HandleFunc("GET /categorias/{id}/excluir", s.withMiddleware(s.handleCategoryDeleteConfirm))
	mux.HandleFunc("POST /categorias/{id}/excluir", s.withMiddleware(s.handleCategoryDelete))
	mux.HandleFunc("GET /categorias.json", s.withMiddleware(s.handleCategoryListJSON))
	mux.HandleFunc("POST /categorias.json", s.withMiddleware(s.handleCategoryCreateJSON))

	mux.HandleFunc("GET /transacoes", s.withMiddleware(s.handleTransactionList))
	mux.HandleFunc("GET /transacoes/novo", s.withMiddleware(s.handleTransactionNew))
	mux.HandleFunc("POST /transacoes", s.withMiddleware(s.handleTransactionCreate))
	mux.HandleFunc("GET /transacoes/{id}/editar", s.withMiddleware(s.handleTransactionEdit))
	mux.HandleFunc("POST /transacoes/{id}", s.withMiddleware(s.handleTransactionUpdate))
	mux.HandleFunc("GET /transacoes/{id}/excluir", s.withMiddleware(s.handleTransactionDeleteConfirm))
	mux.HandleFunc("POST /transacoes/{id}/excluir", s.withMiddleware(s.handleTransactionDelete))

	mux.HandleFunc("GET /dashboard", s.withMiddleware(s.handleDashboard))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()

		fields := applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
			WithClientIP(clientIP)
		fields[applog.FieldRequestID] = requestID
		slog.InfoContext(ctx, "Request started", fields.ToSlice()...)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		done := applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds()).
			WithClientIP(clientIP)
		done[applog.FieldRequestID] = requestID
		done[applog.FieldMethod] = r.Method
		done[applog.FieldPath] = r.URL.Path
		slog.InfoContext(ctx, "Request completed", done.ToSlice()...)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
