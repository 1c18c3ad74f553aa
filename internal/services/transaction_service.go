package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/storage"
)

// Filter narrows the transaction listing. Month and Year fall back to the
// current month when zero; Type and Description apply only when non-empty.
// Description matching is a case-sensitive substring match.
type Filter struct {
	Month       int // 1-12
	Year        int
	Type        core.TransactionType
	Description string
}

// TransactionService implements the transaction operations plus the
// filtered listing.
type TransactionService struct {
	repo   *storage.SQLiteRepository
	events EventPublisher

	// now is swappable in tests for stable current-month defaults.
	now func() time.Time
}

func NewTransactionService(repo *storage.SQLiteRepository, events EventPublisher) *TransactionService {
	return &TransactionService{repo: repo, events: events, now: time.Now}
}

// Create validates and persists a new transaction. The referenced category
// must exist.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, tx.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.ActionCreated, created.ID)
	return created, nil
}

// Update overwrites all mutable fields after the same validations as Create.
// A vanished row reports core.ErrNotFound.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) error {
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, tx.CategoryID); err != nil {
		return err
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return err
	}

	s.publish(ctx, amqp.ActionUpdated, tx.ID)
	return nil
}

// Get returns the transaction joined with its category name.
func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// Delete removes a transaction. Deleting an absent id is a silent no-op.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteTransaction(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		slog.DebugContext(ctx, "Delete of absent transaction ignored", "id", id)
		return nil
	}
	s.publish(ctx, amqp.ActionDeleted, id)
	return nil
}

// List returns transactions inside the filter's calendar month ordered by
// date descending, id descending. An empty result is not an error.
func (s *TransactionService) List(ctx context.Context, f Filter) ([]core.Transaction, error) {
	year, month := s.normalizePeriod(f.Year, f.Month)
	start, end := core.MonthRange(year, month)
	return s.repo.ListTransactions(ctx, storage.TransactionFilter{
		Start:       start,
		End:         end,
		Type:        f.Type,
		Description: f.Description,
	})
}

func (s *TransactionService) normalizePeriod(year, month int) (int, int) {
	now := s.now()
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, month
}

func (s *TransactionService) checkCategory(ctx context.Context, categoryID int64) error {
	exists, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return core.ErrUnknownCategory
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, action string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, amqp.EntityTransaction, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action, "id", id, "error", err)
	}
}
