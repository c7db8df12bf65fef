package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/query"
)

// SQLiteStore lowers the predicate AST to SQL and lets the database do
// the filtering, sorting, and aggregation. Tags are stored comma-joined
// in a single column; dates are stored as YYYY-MM-DD text, which makes
// range comparisons plain string comparisons.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id      INTEGER PRIMARY KEY,
	date                TEXT NOT NULL,
	customer_id         TEXT NOT NULL,
	customer_name       TEXT NOT NULL,
	phone_number        TEXT NOT NULL,
	gender              TEXT NOT NULL,
	age                 INTEGER NOT NULL,
	customer_region     TEXT NOT NULL,
	customer_type       TEXT NOT NULL,
	product_id          TEXT NOT NULL,
	product_name        TEXT NOT NULL,
	brand               TEXT NOT NULL,
	product_category    TEXT NOT NULL,
	tags                TEXT NOT NULL DEFAULT '',
	quantity            INTEGER NOT NULL,
	price_per_unit      REAL NOT NULL,
	discount_percentage REAL NOT NULL,
	total_amount        REAL NOT NULL,
	final_amount        REAL NOT NULL,
	payment_method      TEXT NOT NULL,
	order_status        TEXT NOT NULL,
	delivery_type       TEXT NOT NULL,
	store_id            TEXT NOT NULL,
	store_location      TEXT NOT NULL,
	salesperson_id      TEXT NOT NULL,
	employee_name       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_region ON transactions(customer_region);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(product_category);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(order_status);
CREATE INDEX IF NOT EXISTS idx_transactions_date_region ON transactions(date, customer_region);
CREATE INDEX IF NOT EXISTS idx_transactions_category_status ON transactions(product_category, order_status);
CREATE INDEX IF NOT EXISTS idx_transactions_store_date ON transactions(store_id, date);
`

const selectColumns = `transaction_id, date, customer_id, customer_name, phone_number,
	gender, age, customer_region, customer_type, product_id, product_name, brand,
	product_category, tags, quantity, price_per_unit, discount_percentage,
	total_amount, final_amount, payment_method, order_status, delivery_type,
	store_id, store_location, salesperson_id, employee_name`

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceAll swaps the dataset for the given transactions in a single
// database transaction. It is the ingestion path; nothing else writes.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, transactions []models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range transactions {
		_, err := stmt.ExecContext(ctx,
			t.TransactionID,
			t.Date.String(),
			t.CustomerID,
			t.CustomerName,
			t.PhoneNumber,
			t.Gender,
			t.Age,
			t.CustomerRegion,
			t.CustomerType,
			t.ProductID,
			t.ProductName,
			t.Brand,
			t.ProductCategory,
			strings.Join(t.Tags, ","),
			t.Quantity,
			t.PricePerUnit,
			t.DiscountPercentage,
			t.TotalAmount,
			t.FinalAmount,
			t.PaymentMethod,
			t.OrderStatus,
			t.DeliveryType,
			t.StoreID,
			t.StoreLocation,
			t.SalespersonID,
			t.EmployeeName,
		)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.TransactionID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Count(ctx context.Context, p query.Predicate) (int, error) {
	where, args := whereSQL(p, "")
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Find(ctx context.Context, p query.Predicate, srt query.Sort, skip, limit int) ([]models.Transaction, error) {
	where, args := whereSQL(p, "")
	q := `SELECT ` + selectColumns + ` FROM transactions` + where + orderSQL(srt) + ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(skip, 0))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindByID(ctx context.Context, id int) (models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE transaction_id = ?`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return models.Transaction{}, ErrNotFound
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (s *SQLiteStore) DistinctValues(ctx context.Context, f query.Field) ([]string, error) {
	if f == query.FieldTags {
		return s.distinctTags(ctx)
	}

	col, err := columnFor(f)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT `+col+` FROM transactions WHERE `+col+` != '' ORDER BY `+col)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", f, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", f, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) distinctTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM transactions WHERE tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]struct{})
	for rows.Next() {
		var joined string
		if err := rows.Scan(&joined); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		for _, tag := range strings.Split(joined, ",") {
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out, nil
}

func (s *SQLiteStore) AggregateSum(ctx context.Context, p query.Predicate, f query.Field) (float64, error) {
	col, err := columnFor(f)
	if err != nil {
		return 0, err
	}
	where, args := whereSQL(p, "")
	var sum float64
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(`+col+`), 0) FROM transactions`+where, args...).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum %s: %w", f, err)
	}
	return sum, nil
}

func (s *SQLiteStore) AggregateGroupSum(ctx context.Context, p query.Predicate, groupField, sumField query.Field) (map[string]float64, error) {
	groupCol, err := columnFor(groupField)
	if err != nil {
		return nil, err
	}
	sumCol, err := columnFor(sumField)
	if err != nil {
		return nil, err
	}
	where, args := whereSQL(p, "")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groupCol+`, COALESCE(SUM(`+sumCol+`), 0) FROM transactions`+where+` GROUP BY `+groupCol, args...)
	if err != nil {
		return nil, fmt.Errorf("group sum %s by %s: %w", sumField, groupField, err)
	}
	defer func() { _ = rows.Close() }()

	groups := make(map[string]float64)
	for rows.Next() {
		var key string
		var sum float64
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, fmt.Errorf("scan group sum: %w", err)
		}
		groups[key] = sum
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) AggregateGroupCount(ctx context.Context, p query.Predicate, groupField query.Field) (map[string]int, error) {
	groupCol, err := columnFor(groupField)
	if err != nil {
		return nil, err
	}
	where, args := whereSQL(p, "")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groupCol+`, COUNT(*) FROM transactions`+where+` GROUP BY `+groupCol, args...)
	if err != nil {
		return nil, fmt.Errorf("group count by %s: %w", groupField, err)
	}
	defer func() { _ = rows.Close() }()

	groups := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan group count: %w", err)
		}
		groups[key] = n
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) DistinctCount(ctx context.Context, p query.Predicate, f query.Field) (int, error) {
	col, err := columnFor(f)
	if err != nil {
		return 0, err
	}
	where, args := whereSQL(p, col+" != ''")
	var n int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT `+col+`) FROM transactions`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("distinct count %s: %w", f, err)
	}
	return n, nil
}

// whereSQL lowers a predicate to a WHERE clause. The extra condition, if
// any, is AND-ed in.
func whereSQL(p query.Predicate, extra string) (string, []any) {
	var conds []string
	var args []any
	for _, c := range p.Constraints {
		cond, condArgs := constraintSQL(c)
		if cond == "" {
			continue
		}
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}
	if extra != "" {
		conds = append(conds, extra)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func constraintSQL(c query.Constraint) (string, []any) {
	switch c := c.(type) {
	case query.Equals:
		col, err := columnFor(c.Field)
		if err != nil {
			return "", nil
		}
		return col + " = ?", []any{c.Value}

	case query.In:
		col, err := columnFor(c.Field)
		if err != nil {
			return "", nil
		}
		placeholders := strings.Repeat("?,", len(c.Values))
		args := make([]any, len(c.Values))
		for i, v := range c.Values {
			args[i] = v
		}
		return col + " IN (" + placeholders[:len(placeholders)-1] + ")", args

	case query.Contains:
		col, err := columnFor(c.Field)
		if err != nil {
			return "", nil
		}
		// instr keeps the search text literal; no LIKE metacharacters to
		// escape.
		return "instr(lower(" + col + "), lower(?)) > 0", []any{c.Value}

	case query.NumberRange:
		col, err := columnFor(c.Field)
		if err != nil {
			return "", nil
		}
		var conds []string
		var args []any
		if c.Min != nil {
			conds = append(conds, col+" >= ?")
			args = append(args, *c.Min)
		}
		if c.Max != nil {
			conds = append(conds, col+" <= ?")
			args = append(args, *c.Max)
		}
		return strings.Join(conds, " AND "), args

	case query.DateRange:
		// Day-string comparison; <= the To day covers the whole day.
		var conds []string
		var args []any
		if c.From != nil {
			conds = append(conds, "date >= ?")
			args = append(args, c.From.Format("2006-01-02"))
		}
		if c.To != nil {
			conds = append(conds, "date <= ?")
			args = append(args, c.To.Format("2006-01-02"))
		}
		return strings.Join(conds, " AND "), args

	case query.HasAnyTag:
		conds := make([]string, len(c.Values))
		args := make([]any, len(c.Values))
		for i, tag := range c.Values {
			conds[i] = "instr(',' || tags || ',', ?) > 0"
			args[i] = "," + tag + ","
		}
		return "(" + strings.Join(conds, " OR ") + ")", args

	case query.AnyOf:
		var conds []string
		var args []any
		for _, sub := range c.Constraints {
			cond, condArgs := constraintSQL(sub)
			if cond == "" {
				continue
			}
			conds = append(conds, cond)
			args = append(args, condArgs...)
		}
		if len(conds) == 0 {
			return "", nil
		}
		return "(" + strings.Join(conds, " OR ") + ")", args
	}
	return "", nil
}

func orderSQL(srt query.Sort) string {
	dir := " ASC"
	if srt.Descending {
		dir = " DESC"
	}

	col := "lower(customer_name)"
	switch srt.Field {
	case query.FieldDate:
		col = "date"
	case query.FieldFinalAmount:
		col = "final_amount"
	case query.FieldQuantity:
		col = "quantity"
	case query.FieldAge:
		col = "age"
	case query.FieldTransactionID:
		return " ORDER BY transaction_id" + dir
	}
	return " ORDER BY " + col + dir + ", transaction_id ASC"
}

func columnFor(f query.Field) (string, error) {
	switch f {
	case query.FieldTransactionID:
		return "transaction_id", nil
	case query.FieldDate:
		return "date", nil
	case query.FieldCustomerID:
		return "customer_id", nil
	case query.FieldCustomerName:
		return "customer_name", nil
	case query.FieldPhoneNumber:
		return "phone_number", nil
	case query.FieldGender:
		return "gender", nil
	case query.FieldAge:
		return "age", nil
	case query.FieldCustomerRegion:
		return "customer_region", nil
	case query.FieldProductID:
		return "product_id", nil
	case query.FieldBrand:
		return "brand", nil
	case query.FieldProductCategory:
		return "product_category", nil
	case query.FieldQuantity:
		return "quantity", nil
	case query.FieldTotalAmount:
		return "total_amount", nil
	case query.FieldFinalAmount:
		return "final_amount", nil
	case query.FieldPaymentMethod:
		return "payment_method", nil
	case query.FieldOrderStatus:
		return "order_status", nil
	case query.FieldStoreID:
		return "store_id", nil
	}
	return "", fmt.Errorf("no column for field %q", f)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	var date, tags string

	err := row.Scan(
		&t.TransactionID,
		&date,
		&t.CustomerID,
		&t.CustomerName,
		&t.PhoneNumber,
		&t.Gender,
		&t.Age,
		&t.CustomerRegion,
		&t.CustomerType,
		&t.ProductID,
		&t.ProductName,
		&t.Brand,
		&t.ProductCategory,
		&tags,
		&t.Quantity,
		&t.PricePerUnit,
		&t.DiscountPercentage,
		&t.TotalAmount,
		&t.FinalAmount,
		&t.PaymentMethod,
		&t.OrderStatus,
		&t.DeliveryType,
		&t.StoreID,
		&t.StoreLocation,
		&t.SalespersonID,
		&t.EmployeeName,
	)
	if err != nil {
		return models.Transaction{}, err
	}

	t.Date, err = models.ParseDate(date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("parse stored date: %w", err)
	}
	if tags != "" {
		t.Tags = strings.Split(tags, ",")
	}
	return t, nil
}
