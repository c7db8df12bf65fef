// Package services holds the query orchestration between the HTTP
// handlers and the store.
package services

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/query"
	"retail-dashboard/internal/store"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// TransactionService answers the browsing, search, statistics, and
// filter-option queries. Unfiltered statistics and the filter options
// never change after startup, so both are computed once and cached;
// filtered statistics are computed per request.
type TransactionService struct {
	store  store.Store
	logger *slog.Logger

	mu         sync.Mutex
	stats      *models.Statistics
	filterOpts *models.FilterOptions
}

func NewTransactionService(s store.Store, logger *slog.Logger) *TransactionService {
	return &TransactionService{store: s, logger: logger}
}

// ListPage returns one unfiltered page, newest transactions first.
func (s *TransactionService) ListPage(ctx context.Context, page, limit int) (models.PageResult, error) {
	sort := query.Sort{Field: query.FieldDate, Descending: true}
	return s.executePage(ctx, query.Predicate{}, sort, page, limit)
}

// Search compiles the criteria and returns the matching page.
func (s *TransactionService) Search(ctx context.Context, c query.Criteria, page, limit int) (models.PageResult, error) {
	p := query.Compile(c)
	sort := query.ResolveSort(c.SortBy, c.SortOrder)
	return s.executePage(ctx, p, sort, page, limit)
}

// executePage runs the count-clamp-fetch sequence shared by listing and
// search. An absent or garbage limit falls back to the default, an
// oversized one clamps to the maximum, and pages past the end are clamped
// to the last page rather than returning an empty one.
func (s *TransactionService) executePage(ctx context.Context, p query.Predicate, srt query.Sort, page, limit int) (models.PageResult, error) {
	if limit < 1 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	if page < 1 {
		page = 1
	}

	total, err := s.store.Count(ctx, p)
	if err != nil {
		return models.PageResult{}, err
	}

	totalPages := max(1, (total+limit-1)/limit)
	if page > totalPages {
		page = totalPages
	}

	data, err := s.store.Find(ctx, p, srt, (page-1)*limit, limit)
	if err != nil {
		return models.PageResult{}, err
	}

	return models.PageResult{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetByID returns a single transaction, or store.ErrNotFound.
func (s *TransactionService) GetByID(ctx context.Context, id int) (models.Transaction, error) {
	return s.store.FindByID(ctx, id)
}

// GetStatistics summarizes the subset matching the criteria. The
// unfiltered summary is served from cache after the first computation.
func (s *TransactionService) GetStatistics(ctx context.Context, c query.Criteria) (models.Statistics, error) {
	if c.HasFilters() {
		return s.computeStatistics(ctx, query.Compile(c))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats != nil {
		return *s.stats, nil
	}

	stats, err := s.computeStatistics(ctx, query.Predicate{})
	if err != nil {
		return models.Statistics{}, err
	}
	s.stats = &stats
	return stats, nil
}

// computeStatistics fans the independent aggregations out over the store
// and assembles the summary. Currency figures are rounded once, at the
// end, so averages derive from unrounded sums.
func (s *TransactionService) computeStatistics(ctx context.Context, p query.Predicate) (models.Statistics, error) {
	var (
		total                       int
		revenue, gross, quantity    float64
		customers, products, stores int
		byRegion, byCategory        map[string]float64
		statusCounts                map[string]int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.store.Count(ctx, p)
		return
	})
	g.Go(func() (err error) {
		revenue, err = s.store.AggregateSum(ctx, p, query.FieldFinalAmount)
		return
	})
	g.Go(func() (err error) {
		gross, err = s.store.AggregateSum(ctx, p, query.FieldTotalAmount)
		return
	})
	g.Go(func() (err error) {
		quantity, err = s.store.AggregateSum(ctx, p, query.FieldQuantity)
		return
	})
	g.Go(func() (err error) {
		customers, err = s.store.DistinctCount(ctx, p, query.FieldCustomerID)
		return
	})
	g.Go(func() (err error) {
		products, err = s.store.DistinctCount(ctx, p, query.FieldProductID)
		return
	})
	g.Go(func() (err error) {
		stores, err = s.store.DistinctCount(ctx, p, query.FieldStoreID)
		return
	})
	g.Go(func() (err error) {
		byRegion, err = s.store.AggregateGroupSum(ctx, p, query.FieldCustomerRegion, query.FieldFinalAmount)
		return
	})
	g.Go(func() (err error) {
		byCategory, err = s.store.AggregateGroupSum(ctx, p, query.FieldProductCategory, query.FieldFinalAmount)
		return
	})
	g.Go(func() (err error) {
		statusCounts, err = s.store.AggregateGroupCount(ctx, p, query.FieldOrderStatus)
		return
	})
	if err := g.Wait(); err != nil {
		return models.Statistics{}, err
	}

	average := 0.0
	if total > 0 {
		average = revenue / float64(total)
	}

	stats := models.Statistics{
		TotalTransactions: total,
		TotalRevenue:      round2(revenue),
		TotalAmount:       round2(gross),
		TotalQuantity:     int(quantity),
		UniqueCustomers:   customers,
		UniqueProducts:    products,
		UniqueStores:      stores,
		RevenueByRegion:   roundMap(byRegion),
		RevenueByCategory: roundMap(byCategory),
		OrderStatusCounts: statusCounts,
		AverageOrderValue: round2(average),
	}
	if stats.OrderStatusCounts == nil {
		stats.OrderStatusCounts = map[string]int{}
	}
	return stats, nil
}

// GetFilterOptions returns the distinct dropdown values, cached after the
// first computation.
func (s *TransactionService) GetFilterOptions(ctx context.Context) (models.FilterOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filterOpts != nil {
		return *s.filterOpts, nil
	}

	var opts models.FilterOptions
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		opts.ProductCategories, err = s.store.DistinctValues(ctx, query.FieldProductCategory)
		return
	})
	g.Go(func() (err error) {
		opts.CustomerRegions, err = s.store.DistinctValues(ctx, query.FieldCustomerRegion)
		return
	})
	g.Go(func() (err error) {
		opts.Genders, err = s.store.DistinctValues(ctx, query.FieldGender)
		return
	})
	g.Go(func() (err error) {
		opts.PaymentMethods, err = s.store.DistinctValues(ctx, query.FieldPaymentMethod)
		return
	})
	g.Go(func() (err error) {
		opts.Tags, err = s.store.DistinctValues(ctx, query.FieldTags)
		return
	})
	if err := g.Wait(); err != nil {
		return models.FilterOptions{}, err
	}

	s.filterOpts = &opts
	return opts, nil
}

// Warm precomputes the cached summaries so the first request does not
// pay for them.
func (s *TransactionService) Warm(ctx context.Context) error {
	start := time.Now()
	if _, err := s.GetStatistics(ctx, query.Criteria{}); err != nil {
		return err
	}
	if _, err := s.GetFilterOptions(ctx); err != nil {
		return err
	}
	s.logger.Info("caches warmed", "duration", time.Since(start))
	return nil
}

// Count reports the dataset size for the health endpoint.
func (s *TransactionService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx, query.Predicate{})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = round2(v)
	}
	return out
}
