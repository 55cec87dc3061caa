package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	"gofinances/internal/storage"
)

// TransactionService creates single transactions, enforcing the balance
// invariant and resolving categories by title.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	categories *CategoryResolver
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, categories *CategoryResolver, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		categories: categories,
		amqpClient: amqpClient,
	}
}

// CreateTransactionInput carries one ad hoc transaction request.
type CreateTransactionInput struct {
	Title    string
	Kind     core.Kind
	Amount   decimal.Decimal
	Category string
}

// CreateTransaction validates and persists one transaction. Failures are
// terminal for the call: the first violated rule wins and nothing is
// written.
//
// An outcome larger than the current balance fails before the category is
// resolved. The balance is re-checked inside the insert's SQL transaction,
// so concurrent outcomes racing past the first read still cannot overdraw.
func (s *TransactionService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (core.Transaction, error) {
	if !in.Kind.Valid() {
		return core.Transaction{}, core.ErrInvalidOperation
	}
	if in.Amount.IsNegative() {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	if strings.TrimSpace(in.Title) == "" {
		return core.Transaction{}, core.ErrEmptyTitle
	}
	if strings.TrimSpace(in.Category) == "" {
		return core.Transaction{}, core.ErrEmptyCategoryTitle
	}

	if in.Kind == core.Outcome {
		balance, err := s.storage.GetBalance(ctx)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("get balance: %w", err)
		}
		if balance.Total.LessThan(in.Amount) {
			return core.Transaction{}, core.ErrInsufficientBalance
		}
	}

	category, err := s.categories.Resolve(ctx, in.Category)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.CreateTransaction(ctx, core.Transaction{
		Title:      in.Title,
		Kind:       in.Kind,
		Amount:     in.Amount,
		CategoryID: category.ID,
	})
	if err != nil {
		return core.Transaction{}, err
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishTransactionCreated(ctx, saved.ID.String(), string(saved.Kind), core.Cents(saved.Amount)); err != nil {
			// The transaction is persisted; event delivery must not
			// fail the request.
			slog.ErrorContext(ctx, "Failed to publish transaction created event",
				"id", saved.ID, "error", err)
		}
	}

	return saved, nil
}

// ListTransactions returns all transactions together with the current
// balance aggregate.
func (s *TransactionService) ListTransactions(ctx context.Context) ([]core.Transaction, core.Balance, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, core.Balance{}, fmt.Errorf("list transactions: %w", err)
	}
	balance, err := s.storage.GetBalance(ctx)
	if err != nil {
		return nil, core.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return transactions, balance, nil
}
