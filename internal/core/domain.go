package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Outcome Kind = "outcome"
)

type (
	// Kind tags the direction of a transaction: money in or money out.
	Kind string

	// Category groups transactions under a title unique across the store.
	Category struct {
		ID        uuid.UUID `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Transaction is a single financial movement. The amount carries no
	// sign; direction comes from Kind.
	Transaction struct {
		ID         uuid.UUID       `json:"id"`
		Title      string          `json:"title"`
		Kind       Kind            `json:"kind"`
		Amount     decimal.Decimal `json:"amount"`
		CategoryID uuid.UUID       `json:"category_id"`
		CreatedAt  time.Time       `json:"created_at"`
		UpdatedAt  time.Time       `json:"updated_at"`
	}

	// Balance is the aggregate of all persisted transactions at a point
	// in time: total = income - outcome.
	Balance struct {
		Income  decimal.Decimal `json:"income"`
		Outcome decimal.Decimal `json:"outcome"`
		Total   decimal.Decimal `json:"total"`
	}
)

var (
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyTitle          = errors.New("empty title")
	ErrEmptyCategoryTitle  = errors.New("empty category title")
)

// Valid reports whether k is one of the two allowed kinds. Comparison is
// case-sensitive, as entered.
func (k Kind) Valid() bool {
	return k == Income || k == Outcome
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyCategoryTitle
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidOperation
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
