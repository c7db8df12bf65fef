package store

import (
	"context"
	"reflect"
	"testing"

	"retail-dashboard/internal/query"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.ReplaceAll(context.Background(), testTransactions(t)); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	return s
}

// TestSQLiteStore_MatchesMemoryStore runs the same queries against both
// adapters and requires identical results, id-for-id.
func TestSQLiteStore_MatchesMemoryStore(t *testing.T) {
	sqlite := openTestSQLite(t)
	memory := NewMemoryStore(testTransactions(t))

	tests := []struct {
		name     string
		criteria query.Criteria
	}{
		{"unfiltered", query.Criteria{}},
		{"name substring", query.Criteria{CustomerName: "O'BRIEN"}},
		{"name or phone", query.Criteria{CustomerName: "jones", PhoneNumber: "444"}},
		{"region membership", query.Criteria{CustomerRegion: []string{"North", "West"}}},
		{"tags", query.Criteria{Tags: []string{"sale,new"}}},
		{"brand substring", query.Criteria{Brand: "acme"}},
		{"amount range", query.Criteria{MinAmount: "100", MaxAmount: "300"}},
		{"date range", query.Criteria{DateFrom: "2024-01-10", DateTo: "2024-02-15"}},
		{"exact date", query.Criteria{Date: "2024-02-15"}},
		{"age band", query.Criteria{AgeRange: "30-50"}},
		{"open age", query.Criteria{AgeRange: "35+"}},
		{"status and store", query.Criteria{OrderStatus: "Delivered", StoreID: "S1"}},
		{"payment multi", query.Criteria{PaymentMethod: []string{"Cash", "UPI"}}},
	}

	sorts := []query.Sort{
		{Field: query.FieldTransactionID},
		{Field: query.FieldDate},
		{Field: query.FieldFinalAmount, Descending: true},
		{Field: query.FieldCustomerName},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := query.Compile(tt.criteria)

			wantCount, err := memory.Count(ctx, p)
			if err != nil {
				t.Fatalf("memory Count failed: %v", err)
			}
			gotCount, err := sqlite.Count(ctx, p)
			if err != nil {
				t.Fatalf("sqlite Count failed: %v", err)
			}
			if gotCount != wantCount {
				t.Errorf("count = %d, memory says %d", gotCount, wantCount)
			}

			for _, srt := range sorts {
				want := findIDs(t, memory, p, srt)
				got := findIDs(t, sqlite, p, srt)
				if !reflect.DeepEqual(got, want) {
					t.Errorf("sort %v: ids = %v, memory says %v", srt, got, want)
				}
			}
		})
	}
}

func TestSQLiteStore_FindByID(t *testing.T) {
	s := openTestSQLite(t)

	tx, err := s.FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if tx.CustomerName != "Alice O'Brien" {
		t.Errorf("customer = %q, want Alice O'Brien", tx.CustomerName)
	}
	if !reflect.DeepEqual(tx.Tags, []string{"wireless", "sale"}) {
		t.Errorf("tags should round-trip through storage, got %v", tx.Tags)
	}
	if tx.Date.String() != "2024-01-10" {
		t.Errorf("date = %s, want 2024-01-10", tx.Date)
	}

	if _, err := s.FindByID(context.Background(), 999); err != ErrNotFound {
		t.Errorf("missing id should return ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_DistinctTags(t *testing.T) {
	s := openTestSQLite(t)

	tags, err := s.DistinctValues(context.Background(), query.FieldTags)
	if err != nil {
		t.Fatalf("DistinctValues failed: %v", err)
	}
	want := []string{"clearance", "new", "sale", "wireless"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestSQLiteStore_Aggregates(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	sum, err := s.AggregateSum(ctx, query.Predicate{}, query.FieldFinalAmount)
	if err != nil {
		t.Fatalf("AggregateSum failed: %v", err)
	}
	if sum != 1030 {
		t.Errorf("total final amount = %v, want 1030", sum)
	}

	byCategory, err := s.AggregateGroupSum(ctx, query.Predicate{}, query.FieldProductCategory, query.FieldFinalAmount)
	if err != nil {
		t.Fatalf("AggregateGroupSum failed: %v", err)
	}
	want := map[string]float64{"Electronics": 450, "Clothing": 500, "Home": 80}
	if !reflect.DeepEqual(byCategory, want) {
		t.Errorf("revenue by category = %v, want %v", byCategory, want)
	}

	customers, err := s.DistinctCount(ctx, query.Predicate{}, query.FieldCustomerID)
	if err != nil {
		t.Fatalf("DistinctCount failed: %v", err)
	}
	if customers != 4 {
		t.Errorf("distinct customers = %d, want 4", customers)
	}
}

func TestSQLiteStore_ReplaceAllSwapsData(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	fresh := testTransactions(t)[:2]
	if err := s.ReplaceAll(ctx, fresh); err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	n, err := s.Count(ctx, query.Predicate{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count after replace = %d, want 2", n)
	}
}
