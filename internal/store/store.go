// Package store holds the record-store boundary behind the query engine
// plus its two adapters: a full-scan in-memory store and a SQLite store.
// Both evaluate the same predicate AST; callers never see which one is
// wired in.
package store

import (
	"context"
	"errors"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/query"
)

// ErrNotFound is returned by FindByID when no transaction has the id.
// Not an error condition for callers, a defined empty result.
var ErrNotFound = errors.New("transaction not found")

// Store is the capability the query executor and statistics aggregator
// consume. The dataset behind it is read-only for the process lifetime,
// so every method is safe for concurrent use.
type Store interface {
	// Count returns how many transactions satisfy the predicate.
	Count(ctx context.Context, p query.Predicate) (int, error)

	// Find returns the sorted, predicate-filtered slice [skip, skip+limit).
	Find(ctx context.Context, p query.Predicate, s query.Sort, skip, limit int) ([]models.Transaction, error)

	// FindByID returns the transaction with the id, or ErrNotFound.
	FindByID(ctx context.Context, id int) (models.Transaction, error)

	// DistinctValues returns the sorted distinct non-empty values of a
	// field across the whole dataset. For the tags field the individual
	// tags are returned, not tag sets.
	DistinctValues(ctx context.Context, f query.Field) ([]string, error)

	// AggregateSum sums a numeric field over the matching subset.
	AggregateSum(ctx context.Context, p query.Predicate, f query.Field) (float64, error)

	// AggregateGroupSum sums sumField per distinct groupField value over
	// the matching subset.
	AggregateGroupSum(ctx context.Context, p query.Predicate, groupField, sumField query.Field) (map[string]float64, error)

	// AggregateGroupCount counts matching records per distinct groupField
	// value.
	AggregateGroupCount(ctx context.Context, p query.Predicate, groupField query.Field) (map[string]int, error)

	// DistinctCount counts distinct non-empty values of a field within
	// the matching subset.
	DistinctCount(ctx context.Context, p query.Predicate, f query.Field) (int, error)
}
