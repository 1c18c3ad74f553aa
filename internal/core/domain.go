package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Income marks money coming in (salary, sales).
	Income TransactionType = "Receita"
	// Expense marks money going out (purchases, bills).
	Expense TransactionType = "Despesa"
)

// MaxCategoryNameLen is the longest accepted category name after trimming.
const MaxCategoryNameLen = 60

type (
	// TransactionType is a closed enum stored as its human-readable label.
	TransactionType string

	// Category groups transactions under a name, typed as income or expense.
	Category struct {
		ID   int64
		Name string
		Type TransactionType
	}

	// Transaction is a single dated financial movement.
	Transaction struct {
		ID          int64
		Description string
		Amount      Money
		Type        TransactionType
		Date        time.Time
		CategoryID  int64

		// CategoryName is filled on reads joined with the category table.
		CategoryName string
	}
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateCategory = errors.New("category with this name and type already exists")
	ErrCategoryInUse     = errors.New("category has dependent transactions")

	ErrEmptyName        = errors.New("empty category name")
	ErrNameTooLong      = errors.New("category name too long")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrUnknownCategory  = errors.New("category does not exist")
)

// ParseTransactionType accepts the stored labels and rejects everything else.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.TrimSpace(s)) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidType
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// String returns the stored label.
func (t TransactionType) String() string { return string(t) }

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxCategoryNameLen {
		return ErrNameTooLong
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.Description) == "" {
		return ErrEmptyDescription
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	if tx.CategoryID <= 0 {
		return ErrUnknownCategory
	}
	return nil
}
