// Package storage implements persistence on SQLite. All monetary values are
// stored as integer cents and transaction types as their text labels.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"despesas/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is the stored representation of transaction dates. Lexicographic
// order on this layout matches chronological order, so range queries compare
// strings directly.
const timeLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is the driver's UNIQUE constraint
// failure. The modernc driver exposes it only through the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Categories ---

// ListCategories returns all categories ordered by type then name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nome, tipo FROM categorias ORDER BY tipo, nome`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

// ListCategoriesByType returns categories ordered by name, optionally
// restricted to a single type when t is non-nil.
func (r *SQLiteRepository) ListCategoriesByType(ctx context.Context, t *core.TransactionType) ([]core.Category, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if t != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, nome, tipo FROM categorias WHERE tipo = ? ORDER BY nome`, string(*t))
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, nome, tipo FROM categorias ORDER BY nome`)
	}
	if err != nil {
		return nil, fmt.Errorf("list categories by type: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]core.Category, error) {
	var out []core.Category
	for rows.Next() {
		var c core.Category
		var tipo string
		if err := rows.Scan(&c.ID, &c.Name, &tipo); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(tipo)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var tipo string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, nome, tipo FROM categorias WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &tipo)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.TransactionType(tipo)
	return c, nil
}

// CategoryExists reports whether a category with the given id exists.
func (r *SQLiteRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categorias WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return exists, nil
}

// CategoryNameTaken reports whether another category (excluding excludeID)
// already uses the exact (name, type) pair.
func (r *SQLiteRepository) CategoryNameTaken(ctx context.Context, name string, t core.TransactionType, excludeID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categorias WHERE nome = ? AND tipo = ? AND id <> ?)`,
		name, string(t), excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("category name taken: %w", err)
	}
	return taken, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categorias (nome, tipo) VALUES (?, ?)`, c.Name, string(c.Type))
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categorias SET nome = ?, tipo = ? WHERE id = ?`, c.Name, string(c.Type), c.ID)
	if isUniqueViolation(err) {
		return core.ErrDuplicateCategory
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category. It reports core.ErrNotFound for a
// missing id and core.ErrCategoryInUse while transactions still reference it.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.CountTransactionsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.ErrCategoryInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categorias WHERE id = ?`, id)
	if err != nil {
		// The FK constraint is the backstop for a reference created between
		// the count above and this delete.
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return core.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

// CountTransactionsByCategory returns how many transactions reference the
// category.
func (r *SQLiteRepository) CountTransactionsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transacoes WHERE categoria_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by category: %w", err)
	}
	return n, nil
}

// --- Transactions ---

// TransactionFilter narrows ListTransactions. Start/End bound the date range
// (end exclusive); Type and Description are applied only when non-empty.
// Description matching is a case-sensitive substring match.
type TransactionFilter struct {
	Start       time.Time
	End         time.Time
	Type        core.TransactionType
	Description string
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transacoes (descricao, valor_centavos, tipo, data, categoria_id)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.Description, tx.Amount.Cents, string(tx.Type), tx.Date.Format(timeLayout), tx.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction created",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"type", tx.Type,
		"category_id", tx.CategoryID)
	return tx, nil
}

// UpdateTransaction overwrites all mutable fields. A vanished row reports
// core.ErrNotFound.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transacoes SET descricao = ?, valor_centavos = ?, tipo = ?, data = ?, categoria_id = ?
		 WHERE id = ?`,
		tx.Description, tx.Amount.Cents, string(tx.Type), tx.Date.Format(timeLayout), tx.CategoryID, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction and reports whether a row was
// actually deleted. Deleting an absent id is not an error.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transacoes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete transaction rows: %w", err)
	}
	return n > 0, nil
}

// GetTransaction returns the transaction joined with its category name.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		tx    core.Transaction
		tipo  string
		cents int64
		data  string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.descricao, t.valor_centavos, t.tipo, t.data, t.categoria_id, c.nome
		 FROM transacoes t
		 JOIN categorias c ON c.id = t.categoria_id
		 WHERE t.id = ?`, id).
		Scan(&tx.ID, &tx.Description, &cents, &tipo, &data, &tx.CategoryID, &tx.CategoryName)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	tx.Amount = core.Money{Cents: cents}
	tx.Type = core.TransactionType(tipo)
	tx.Date, err = time.Parse(timeLayout, data)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", data, err)
	}
	return tx, nil
}

// ListTransactions returns transactions matching the filter ordered by date
// descending, then id descending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT t.id, t.descricao, t.valor_centavos, t.tipo, t.data, t.categoria_id, c.nome
		 FROM transacoes t
		 JOIN categorias c ON c.id = t.categoria_id
		 WHERE t.data >= ? AND t.data < ?`
	args := []any{f.Start.Format(timeLayout), f.End.Format(timeLayout)}

	if f.Type != "" {
		query += ` AND t.tipo = ?`
		args = append(args, string(f.Type))
	}
	if f.Description != "" {
		// instr keeps the match case-sensitive; LIKE folds ASCII case.
		query += ` AND instr(t.descricao, ?) > 0`
		args = append(args, f.Description)
	}
	query += ` ORDER BY t.data DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx    core.Transaction
			tipo  string
			cents int64
			data  string
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &cents, &tipo, &data, &tx.CategoryID, &tx.CategoryName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Type = core.TransactionType(tipo)
		tx.Date, err = time.Parse(timeLayout, data)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", data, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// SumByType returns the total cents of all transactions of the given type
// with date in [start, end).
func (r *SQLiteRepository) SumByType(ctx context.Context, t core.TransactionType, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(valor_centavos), 0) FROM transacoes
		 WHERE tipo = ? AND data >= ? AND data < ?`,
		string(t), start.Format(timeLayout), end.Format(timeLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum by type: %w", err)
	}
	return total, nil
}

// ExpenseTotalsByCategory groups expense transactions in [start, end) by
// category and sums cents per group, sorted by total descending with
// categoria_id as the deterministic tie-break.
func (r *SQLiteRepository) ExpenseTotalsByCategory(ctx context.Context, start, end time.Time) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.categoria_id, c.nome, SUM(t.valor_centavos) AS total
		 FROM transacoes t
		 JOIN categorias c ON c.id = t.categoria_id
		 WHERE t.tipo = ? AND t.data >= ? AND t.data < ?
		 GROUP BY t.categoria_id, c.nome
		 ORDER BY total DESC, t.categoria_id`,
		string(core.Expense), start.Format(timeLayout), end.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		var total int64
		if err := rows.Scan(&ca.CategoryID, &ca.Name, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ca.Amount = core.Money{Cents: total}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}
