package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofinances/internal/core"
)

func writeImportFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportDeduplicatesCategories(t *testing.T) {
	repo, _, imp := newTestServices(t)
	ctx := context.Background()

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Loan, income, 1500.00, Food\n"+
			"Website Hosting, outcome, 50.00, Food\n"+
			"Rent payment, outcome, 1200.00, Rent\n")

	saved, err := imp.ImportFromFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	// "Food" appears twice but is created exactly once.
	categories, err := repo.GetCategoriesByTitles(ctx, []string{"Food", "Rent"})
	require.NoError(t, err)
	require.Len(t, categories, 2)

	byTitle := map[string]uuid.UUID{}
	for _, c := range categories {
		byTitle[c.Title] = c.ID
	}
	assert.Equal(t, byTitle["Food"], saved[0].CategoryID)
	assert.Equal(t, byTitle["Food"], saved[1].CategoryID)
	assert.Equal(t, byTitle["Rent"], saved[2].CategoryID)
}

func TestImportPreservesRowOrderAndValues(t *testing.T) {
	_, _, imp := newTestServices(t)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"First, income, 10.50, Misc\n"+
			"Second, outcome, 3.25, Misc\n"+
			"Third, income, 7, Misc\n")

	saved, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, saved, 3)

	wantTitles := []string{"First", "Second", "Third"}
	wantAmounts := []string{"10.50", "3.25", "7"}
	for i, tx := range saved {
		assert.Equal(t, wantTitles[i], tx.Title)
		assert.True(t, tx.Amount.Equal(decimal.RequireFromString(wantAmounts[i])),
			"row %d amount = %s, want %s", i, tx.Amount, wantAmounts[i])
		assert.True(t, tx.Kind.Valid())
		assert.NotEqual(t, uuid.Nil, tx.CategoryID)
	}
}

func TestImportDropsIncompleteRows(t *testing.T) {
	_, _, imp := newTestServices(t)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Valid, income, 100.00, Misc\n"+
			"Missing amount, outcome, , Misc\n"+
			", income, 50.00, Misc\n"+
			"Short row, income\n"+
			"Bad amount, income, twelve, Misc\n"+
			"Bad kind, transfer, 10.00, Misc\n"+
			"Also valid, outcome, 25.00, Misc\n")

	saved, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Valid", saved[0].Title)
	assert.Equal(t, "Also valid", saved[1].Title)
}

func TestImportDropsInvalidKindRows(t *testing.T) {
	// An invalid kind is a row-level defect like an unparseable amount:
	// the row is dropped, the rest of the file still imports, and no
	// partial state is left behind for the dropped row.
	repo, _, imp := newTestServices(t)
	ctx := context.Background()

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Salary, income, 100.00, Food\n"+
			"Shuffle, transfer, 10.00, Savings\n")

	saved, err := imp.ImportFromFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Salary", saved[0].Title)

	// The accepted row's category exists and is referenced; the dropped
	// row's category was never created.
	food, err := repo.GetCategoryByTitle(ctx, "Food")
	require.NoError(t, err)
	require.NotNil(t, food)
	assert.Equal(t, food.ID, saved[0].CategoryID)

	savings, err := repo.GetCategoryByTitle(ctx, "Savings")
	require.NoError(t, err)
	assert.Nil(t, savings)
}

func TestImportHeaderAfterMalformedFirstLine(t *testing.T) {
	// When the physical first line fails to parse, the header is the
	// first line that does parse; the first data row must not be eaten
	// in its place.
	_, _, imp := newTestServices(t)

	path := writeImportFile(t,
		"\"stray\" quote garbage\n"+
			"title, kind, amount, category\n"+
			"Real row, income, 5.00, Misc\n")

	saved, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Real row", saved[0].Title)
}

func TestImportReusesExistingCategories(t *testing.T) {
	repo, svc, imp := newTestServices(t)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Title:    "Seed",
		Kind:     core.Income,
		Amount:   decimal.NewFromInt(1),
		Category: "Food",
	})
	require.NoError(t, err)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Groceries, outcome, 1.00, Food\n"+
			"Flight, outcome, 300.00, Travel\n")

	saved, err := imp.ImportFromFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	categories, err := repo.GetCategoriesByTitles(ctx, []string{"Food", "Travel"})
	require.NoError(t, err)
	assert.Len(t, categories, 2, "Food must not be duplicated")
}

func TestImportSkipsBalanceCheck(t *testing.T) {
	// The bulk path accepts outcome rows unconditionally; only the
	// single-transaction path enforces balance sufficiency.
	_, _, imp := newTestServices(t)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Big spend, outcome, 9999.00, Misc\n")

	saved, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
}

func TestImportBalanceAggregation(t *testing.T) {
	repo, svc, imp := newTestServices(t)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Title:    "Opening",
		Kind:     core.Income,
		Amount:   decimal.RequireFromString("1000.00"),
		Category: "Misc",
	})
	require.NoError(t, err)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Furniture, outcome, 500.00, Home\n")

	_, err = imp.ImportFromFile(ctx, path)
	require.NoError(t, err)

	balance, err := repo.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Total.Equal(decimal.RequireFromString("500.00")),
		"total = %s, want 500.00", balance.Total)
}

func TestImportRemovesSourceFile(t *testing.T) {
	_, _, imp := newTestServices(t)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Row, income, 1.00, Misc\n")

	_, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "import file should be deleted")
}

func TestImportEmptyCategoryLeftUnresolved(t *testing.T) {
	_, _, imp := newTestServices(t)

	path := writeImportFile(t,
		"title, kind, amount, category\n"+
			"Unfiled, income, 42.00,\n")

	saved, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, uuid.Nil, saved[0].CategoryID)
}

func TestImportHeaderOnlyFile(t *testing.T) {
	_, _, imp := newTestServices(t)

	path := writeImportFile(t, "title, kind, amount, category\n")

	saved, err := imp.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, saved)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "file is deleted even when nothing was imported")
}

func TestImportMissingFile(t *testing.T) {
	_, _, imp := newTestServices(t)

	_, err := imp.ImportFromFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
