package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	"gofinances/internal/storage"
)

// ImportService loads transactions in bulk from a delimited file. Rows are
// collected first, categories are reconciled once over the whole set, and
// everything is persisted in two batch writes.
type ImportService struct {
	storage    *storage.SQLiteRepository
	categories *CategoryResolver
	amqpClient *amqp.Client
	delimiter  rune
}

func NewImportService(storage *storage.SQLiteRepository, categories *CategoryResolver, amqpClient *amqp.Client, delimiter rune) *ImportService {
	if delimiter == 0 {
		delimiter = ','
	}
	return &ImportService{
		storage:    storage,
		categories: categories,
		amqpClient: amqpClient,
		delimiter:  delimiter,
	}
}

// pendingTransaction is one accepted CSV row waiting for its category to be
// reconciled. Buffers of these are local to a single import call, so
// concurrent imports stay independent.
type pendingTransaction struct {
	Title         string
	Kind          core.Kind
	Amount        decimal.Decimal
	CategoryTitle string
}

// ImportFromFile reads the whole file, reconciles the referenced categories
// against the store and persists every accepted row as a transaction, in
// row order. The source file is removed on every exit path.
//
// Unlike CreateTransaction, this path applies no balance check: imported
// outcome rows are accepted regardless of the running balance. That is the
// existing contract, not an oversight.
func (s *ImportService) ImportFromFile(ctx context.Context, path string) ([]core.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer func() {
		file.Close()
		if err := os.Remove(path); err != nil {
			slog.WarnContext(ctx, "Failed to remove import file", "path", path, "error", err)
		}
	}()

	// Full read before any reconciliation: the batch category lookup needs
	// the complete set of referenced titles.
	pending, categoryTitles, err := s.readRows(ctx, file)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "Import file contained no usable rows", "path", path)
		return []core.Transaction{}, nil
	}

	categories, err := s.categories.ResolveAll(ctx, categoryTitles)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byTitle[c.Title] = c
	}

	transactions := make([]core.Transaction, 0, len(pending))
	for _, p := range pending {
		t := core.Transaction{
			Title:  p.Title,
			Kind:   p.Kind,
			Amount: p.Amount,
		}
		// Exact title match against the union of pre-existing and newly
		// created categories. A miss leaves the reference unresolved; the
		// row is still imported.
		if c, ok := byTitle[p.CategoryTitle]; ok {
			t.CategoryID = c.ID
		}
		transactions = append(transactions, t)
	}

	saved, err := s.storage.SaveTransactions(ctx, transactions)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Import completed",
		"path", path,
		"imported", len(saved),
		"categories", len(categories))

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishImportCompleted(ctx, path, len(saved)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish import completed event",
				"path", path, "error", err)
		}
	}

	return saved, nil
}

// readRows streams the CSV until end of input, skipping the header line and
// silently dropping malformed or incomplete rows. It returns the accepted
// rows in arrival order plus every referenced category title, duplicates
// included.
func (s *ImportService) readRows(ctx context.Context, r io.Reader) ([]pendingTransaction, []string, error) {
	reader := csv.NewReader(r)
	reader.Comma = s.delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		pending        []pendingTransaction
		categoryTitles []string
		headerSkipped  bool
		line           int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				slog.DebugContext(ctx, "Dropping malformed row", "line", line, "error", err)
				continue
			}
			return nil, nil, fmt.Errorf("read import file: %w", err)
		}
		if !headerSkipped {
			// Header is the first row that parses, not the first
			// physical line.
			headerSkipped = true
			continue
		}

		row := make([]string, 4)
		for i := 0; i < len(record) && i < 4; i++ {
			row[i] = strings.TrimSpace(record[i])
		}
		title, kindCell, amountCell, categoryTitle := row[0], row[1], row[2], row[3]

		if title == "" || kindCell == "" || amountCell == "" {
			slog.DebugContext(ctx, "Dropping incomplete row", "line", line)
			continue
		}
		kind := core.Kind(kindCell)
		if !kind.Valid() {
			slog.DebugContext(ctx, "Dropping row with invalid kind",
				"line", line, "kind", kindCell)
			continue
		}
		amount, err := core.ParseAmount(amountCell)
		if err != nil {
			slog.DebugContext(ctx, "Dropping row with unparseable amount",
				"line", line, "amount", amountCell)
			continue
		}

		if categoryTitle != "" {
			categoryTitles = append(categoryTitles, categoryTitle)
		}
		pending = append(pending, pendingTransaction{
			Title:         title,
			Kind:          kind,
			Amount:        amount,
			CategoryTitle: categoryTitle,
		})
	}

	return pending, categoryTitles, nil
}
