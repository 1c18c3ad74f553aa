// Package services holds the business rules on top of the storage layer:
// validation, uniqueness and referential-integrity checks, monthly
// aggregation, and lifecycle-event publishing.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/storage"
)

// EventPublisher publishes record-lifecycle events. A nil publisher disables
// publishing; failures are logged and never fail the request.
type EventPublisher interface {
	PublishEvent(ctx context.Context, entity, action string, id int64) error
}

// CategoryService implements the category operations: CRUD with trimming,
// (name, type) uniqueness and the delete guard against dependent
// transactions.
type CategoryService struct {
	repo   *storage.SQLiteRepository
	events EventPublisher
}

func NewCategoryService(repo *storage.SQLiteRepository, events EventPublisher) *CategoryService {
	return &CategoryService{repo: repo, events: events}
}

// List returns all categories ordered by type then name.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListByType returns categories ordered by name, optionally filtered by
// type. Used to populate selection lists.
func (s *CategoryService) ListByType(ctx context.Context, t *core.TransactionType) ([]core.Category, error) {
	return s.repo.ListCategoriesByType(ctx, t)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// Create validates and persists a new category. The name is trimmed before
// validation and the duplicate check.
func (s *CategoryService) Create(ctx context.Context, name string, t core.TransactionType) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name), Type: t}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	taken, err := s.repo.CategoryNameTaken(ctx, c.Name, c.Type, 0)
	if err != nil {
		return core.Category{}, fmt.Errorf("check duplicate category: %w", err)
	}
	if taken {
		return core.Category{}, core.ErrDuplicateCategory
	}

	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}

	s.publish(ctx, amqp.ActionCreated, created.ID)
	return created, nil
}

// Update applies the same validations as Create, excluding the record itself
// from the duplicate check.
func (s *CategoryService) Update(ctx context.Context, id int64, name string, t core.TransactionType) (core.Category, error) {
	c := core.Category{ID: id, Name: strings.TrimSpace(name), Type: t}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	taken, err := s.repo.CategoryNameTaken(ctx, c.Name, c.Type, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("check duplicate category: %w", err)
	}
	if taken {
		return core.Category{}, core.ErrDuplicateCategory
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}

	s.publish(ctx, amqp.ActionUpdated, id)
	return c, nil
}

// Delete removes a category. Absent ids report core.ErrNotFound; categories
// still referenced by transactions report core.ErrCategoryInUse.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.ActionDeleted, id)
	return nil
}

func (s *CategoryService) publish(ctx context.Context, action string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, amqp.EntityCategory, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish category event",
			"action", action, "id", id, "error", err)
	}
}
