package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/query"
)

// shadow carries lowercase copies of the substring-searched fields,
// precomputed once at load so case-insensitive matching does not
// re-lower every row on every request. Shadows never leave the store.
type shadow struct {
	customerName string
	brand        string
	phoneNumber  string
}

// MemoryStore evaluates predicates by scanning the full dataset. The
// worst case is bounded by dataset size, and the slices are never
// mutated after construction, so all methods are lock-free and safe for
// concurrent use.
type MemoryStore struct {
	transactions []models.Transaction
	shadows      []shadow
	byID         map[int]int
}

func NewMemoryStore(transactions []models.Transaction) *MemoryStore {
	s := &MemoryStore{
		transactions: transactions,
		shadows:      make([]shadow, len(transactions)),
		byID:         make(map[int]int, len(transactions)),
	}
	for i, tx := range transactions {
		s.shadows[i] = shadow{
			customerName: strings.ToLower(tx.CustomerName),
			brand:        strings.ToLower(tx.Brand),
			phoneNumber:  strings.ToLower(tx.PhoneNumber),
		}
		s.byID[tx.TransactionID] = i
	}
	return s
}

// Len returns the dataset size.
func (s *MemoryStore) Len() int {
	return len(s.transactions)
}

func (s *MemoryStore) Count(_ context.Context, p query.Predicate) (int, error) {
	match := s.compileMatch(p)
	n := 0
	for i := range s.transactions {
		if match(i) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Find(_ context.Context, p query.Predicate, srt query.Sort, skip, limit int) ([]models.Transaction, error) {
	match := s.compileMatch(p)
	var idx []int
	for i := range s.transactions {
		if match(i) {
			idx = append(idx, i)
		}
	}
	s.sortIndexes(idx, srt)

	if skip < 0 {
		skip = 0
	}
	if skip >= len(idx) {
		return []models.Transaction{}, nil
	}
	end := min(skip+limit, len(idx))

	out := make([]models.Transaction, 0, end-skip)
	for _, i := range idx[skip:end] {
		out = append(out, s.transactions[i])
	}
	return out, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (models.Transaction, error) {
	i, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	return s.transactions[i], nil
}

func (s *MemoryStore) DistinctValues(_ context.Context, f query.Field) ([]string, error) {
	seen := make(map[string]struct{})
	for i := range s.transactions {
		if f == query.FieldTags {
			for _, tag := range s.transactions[i].Tags {
				if tag != "" {
					seen[tag] = struct{}{}
				}
			}
			continue
		}
		if v := fieldString(&s.transactions[i], f); v != "" {
			seen[v] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemoryStore) AggregateSum(_ context.Context, p query.Predicate, f query.Field) (float64, error) {
	match := s.compileMatch(p)
	sum := 0.0
	for i := range s.transactions {
		if match(i) {
			sum += fieldNumber(&s.transactions[i], f)
		}
	}
	return sum, nil
}

func (s *MemoryStore) AggregateGroupSum(_ context.Context, p query.Predicate, groupField, sumField query.Field) (map[string]float64, error) {
	match := s.compileMatch(p)
	groups := make(map[string]float64)
	for i := range s.transactions {
		if match(i) {
			key := fieldString(&s.transactions[i], groupField)
			groups[key] += fieldNumber(&s.transactions[i], sumField)
		}
	}
	return groups, nil
}

func (s *MemoryStore) AggregateGroupCount(_ context.Context, p query.Predicate, groupField query.Field) (map[string]int, error) {
	match := s.compileMatch(p)
	groups := make(map[string]int)
	for i := range s.transactions {
		if match(i) {
			groups[fieldString(&s.transactions[i], groupField)]++
		}
	}
	return groups, nil
}

func (s *MemoryStore) DistinctCount(_ context.Context, p query.Predicate, f query.Field) (int, error) {
	match := s.compileMatch(p)
	seen := make(map[string]struct{})
	for i := range s.transactions {
		if match(i) {
			if v := fieldString(&s.transactions[i], f); v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	return len(seen), nil
}

// compileMatch lowers the predicate AST to a closure over a row index.
// Constraint values are normalized once here, not per row.
func (s *MemoryStore) compileMatch(p query.Predicate) func(int) bool {
	if p.Empty() {
		return func(int) bool { return true }
	}
	tests := make([]func(int) bool, 0, len(p.Constraints))
	for _, c := range p.Constraints {
		tests = append(tests, s.compileConstraint(c))
	}
	return func(i int) bool {
		for _, t := range tests {
			if !t(i) {
				return false
			}
		}
		return true
	}
}

func (s *MemoryStore) compileConstraint(c query.Constraint) func(int) bool {
	switch c := c.(type) {
	case query.Equals:
		return func(i int) bool {
			return fieldString(&s.transactions[i], c.Field) == c.Value
		}
	case query.In:
		return func(i int) bool {
			return slices.Contains(c.Values, fieldString(&s.transactions[i], c.Field))
		}
	case query.Contains:
		needle := strings.ToLower(c.Value)
		return func(i int) bool {
			return strings.Contains(s.shadowValue(i, c.Field), needle)
		}
	case query.NumberRange:
		return func(i int) bool {
			v := fieldNumber(&s.transactions[i], c.Field)
			if c.Min != nil && v < *c.Min {
				return false
			}
			if c.Max != nil && v > *c.Max {
				return false
			}
			return true
		}
	case query.DateRange:
		var end time.Time
		if c.To != nil {
			// To is inclusive of the whole day.
			end = c.To.AddDate(0, 0, 1)
		}
		return func(i int) bool {
			d := s.transactions[i].Date.Time
			if c.From != nil && d.Before(*c.From) {
				return false
			}
			if c.To != nil && !d.Before(end) {
				return false
			}
			return true
		}
	case query.HasAnyTag:
		return func(i int) bool {
			for _, tag := range s.transactions[i].Tags {
				if slices.Contains(c.Values, tag) {
					return true
				}
			}
			return false
		}
	case query.AnyOf:
		subs := make([]func(int) bool, 0, len(c.Constraints))
		for _, sub := range c.Constraints {
			subs = append(subs, s.compileConstraint(sub))
		}
		return func(i int) bool {
			for _, t := range subs {
				if t(i) {
					return true
				}
			}
			return false
		}
	default:
		return func(int) bool { return true }
	}
}

func (s *MemoryStore) shadowValue(i int, f query.Field) string {
	switch f {
	case query.FieldCustomerName:
		return s.shadows[i].customerName
	case query.FieldBrand:
		return s.shadows[i].brand
	case query.FieldPhoneNumber:
		return s.shadows[i].phoneNumber
	}
	return strings.ToLower(fieldString(&s.transactions[i], f))
}

func (s *MemoryStore) sortIndexes(idx []int, srt query.Sort) {
	slices.SortFunc(idx, func(a, b int) int {
		c := s.compareField(a, b, srt.Field)
		if srt.Descending {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(s.transactions[a].TransactionID, s.transactions[b].TransactionID)
		}
		return c
	})
}

func (s *MemoryStore) compareField(a, b int, f query.Field) int {
	ta, tb := &s.transactions[a], &s.transactions[b]
	switch f {
	case query.FieldDate:
		return ta.Date.Compare(tb.Date.Time)
	case query.FieldFinalAmount:
		return cmp.Compare(ta.FinalAmount, tb.FinalAmount)
	case query.FieldQuantity:
		return cmp.Compare(ta.Quantity, tb.Quantity)
	case query.FieldAge:
		return cmp.Compare(ta.Age, tb.Age)
	case query.FieldTransactionID:
		return cmp.Compare(ta.TransactionID, tb.TransactionID)
	default:
		return strings.Compare(s.shadows[a].customerName, s.shadows[b].customerName)
	}
}

func fieldString(tx *models.Transaction, f query.Field) string {
	switch f {
	case query.FieldCustomerID:
		return tx.CustomerID
	case query.FieldCustomerName:
		return tx.CustomerName
	case query.FieldPhoneNumber:
		return tx.PhoneNumber
	case query.FieldGender:
		return tx.Gender
	case query.FieldCustomerRegion:
		return tx.CustomerRegion
	case query.FieldProductID:
		return tx.ProductID
	case query.FieldBrand:
		return tx.Brand
	case query.FieldProductCategory:
		return tx.ProductCategory
	case query.FieldPaymentMethod:
		return tx.PaymentMethod
	case query.FieldOrderStatus:
		return tx.OrderStatus
	case query.FieldStoreID:
		return tx.StoreID
	}
	return ""
}

func fieldNumber(tx *models.Transaction, f query.Field) float64 {
	switch f {
	case query.FieldAge:
		return float64(tx.Age)
	case query.FieldQuantity:
		return float64(tx.Quantity)
	case query.FieldTotalAmount:
		return tx.TotalAmount
	case query.FieldFinalAmount:
		return tx.FinalAmount
	case query.FieldTransactionID:
		return float64(tx.TransactionID)
	}
	return 0
}
