package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"gofinances/internal/core"
	"gofinances/internal/storage"
)

// CategoryResolver matches category titles to existing records, creating
// missing ones. Both services share it so the reconciliation rules live in
// one place.
type CategoryResolver struct {
	storage *storage.SQLiteRepository
	group   singleflight.Group
}

func NewCategoryResolver(storage *storage.SQLiteRepository) *CategoryResolver {
	return &CategoryResolver{storage: storage}
}

// Resolve is the single-form find-or-create. Concurrent calls for the same
// unseen title are collapsed into one lookup+create, so only one category
// row is ever written per title. If a writer in another process wins the
// race anyway, the unique index rejects the insert and the existing row is
// fetched instead.
func (r *CategoryResolver) Resolve(ctx context.Context, title string) (core.Category, error) {
	v, err, _ := r.group.Do(title, func() (any, error) {
		existing, err := r.storage.GetCategoryByTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return *existing, nil
		}

		created, err := r.storage.CreateCategory(ctx, title)
		if err != nil {
			// Lost the race against a concurrent writer: the unique
			// title index fired, so the row exists now.
			again, ferr := r.storage.GetCategoryByTitle(ctx, title)
			if ferr == nil && again != nil {
				return *again, nil
			}
			return nil, err
		}
		return created, nil
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("resolve category %q: %w", title, err)
	}
	return v.(core.Category), nil
}

// ResolveAll is the batch form: one membership query over the whole title
// set, then one bulk insert for the deduplicated complement. It returns the
// union of pre-existing and newly created categories.
//
// The dedup step is load-bearing: mapping every row to a create call would
// try to insert the same title twice within one import.
func (r *CategoryResolver) ResolveAll(ctx context.Context, titles []string) ([]core.Category, error) {
	existing, err := r.storage.GetCategoriesByTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("look up existing categories: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.Title] = true
	}

	var newTitles []string
	for _, title := range titles {
		if title == "" || known[title] {
			continue
		}
		known[title] = true
		newTitles = append(newTitles, title)
	}

	created, err := r.storage.SaveCategories(ctx, newTitles)
	if err != nil {
		return nil, fmt.Errorf("save new categories: %w", err)
	}

	return append(existing, created...), nil
}
