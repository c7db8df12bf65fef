// Package ingest loads the transaction dataset from CSV. Loading happens
// once at startup; everything downstream treats the result as immutable.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// columns maps CSV header names to positions once the header row is read.
type columns map[string]int

var requiredColumns = []string{
	"Transaction ID", "Date", "Customer ID", "Customer Name", "Phone Number",
	"Gender", "Age", "Customer Region", "Customer Type", "Product ID",
	"Product Name", "Brand", "Product Category", "Tags", "Quantity",
	"Price per Unit", "Discount Percentage", "Total Amount", "Final Amount",
	"Payment Method", "Order Status", "Delivery Type", "Store ID",
	"Store Location", "Salesperson ID", "Employee Name",
}

// LoadCSV reads and parses the whole file. Rows that fail to parse are
// skipped and counted rather than failing the load; a file that yields
// zero valid rows is an error.
func LoadCSV(ctx context.Context, filename string, logger *slog.Logger) ([]models.Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	logger.Info("loading transactions", "filename", filename)

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		transactions []models.Transaction
		skipped      int
		batch        = make([][]string, 0, batchSize)
	)

	flush := func() error {
		parsed, bad, err := parseBatch(ctx, cols, batch)
		if err != nil {
			return err
		}
		transactions = append(transactions, parsed...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row; csv.Reader recovers on the next line.
			skipped++
			continue
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("no valid records in %s", filename)
	}

	duration := time.Since(start)
	logger.Info("transactions loaded",
		"records", len(transactions),
		"skipped", skipped,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(transactions))/duration.Seconds()))

	return transactions, nil
}

// parseBatch parses records concurrently, each goroutine writing its own
// slot, then compacts out the failures in order.
func parseBatch(ctx context.Context, cols columns, batch [][]string) ([]models.Transaction, int, error) {
	parsed := make([]*models.Transaction, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, record := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tx, err := parseTransaction(cols, record)
			if err != nil {
				return nil // Skip invalid records
			}
			parsed[i] = &tx
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]models.Transaction, 0, len(batch))
	skipped := 0
	for _, tx := range parsed {
		if tx == nil {
			skipped++
			continue
		}
		out = append(out, *tx)
	}
	return out, skipped, nil
}

func mapColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func parseTransaction(cols columns, record []string) (models.Transaction, error) {
	get := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id, err := strconv.Atoi(get("Transaction ID"))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	date, err := models.ParseDate(get("Date"))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("date: %w", err)
	}
	age, err := strconv.Atoi(get("Age"))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("age: %w", err)
	}
	quantity, err := strconv.Atoi(get("Quantity"))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("quantity: %w", err)
	}
	pricePerUnit, err := strconv.ParseFloat(get("Price per Unit"), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("price per unit: %w", err)
	}
	discount, err := strconv.ParseFloat(get("Discount Percentage"), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("discount percentage: %w", err)
	}
	totalAmount, err := strconv.ParseFloat(get("Total Amount"), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("total amount: %w", err)
	}
	finalAmount, err := strconv.ParseFloat(get("Final Amount"), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("final amount: %w", err)
	}

	return models.Transaction{
		TransactionID:      id,
		Date:               date,
		CustomerID:         get("Customer ID"),
		CustomerName:       get("Customer Name"),
		PhoneNumber:        get("Phone Number"),
		Gender:             get("Gender"),
		Age:                age,
		CustomerRegion:     get("Customer Region"),
		CustomerType:       get("Customer Type"),
		ProductID:          get("Product ID"),
		ProductName:        get("Product Name"),
		Brand:              get("Brand"),
		ProductCategory:    get("Product Category"),
		Tags:               splitTags(get("Tags")),
		Quantity:           quantity,
		PricePerUnit:       pricePerUnit,
		DiscountPercentage: discount,
		TotalAmount:        totalAmount,
		FinalAmount:        finalAmount,
		PaymentMethod:      get("Payment Method"),
		OrderStatus:        get("Order Status"),
		DeliveryType:       get("Delivery Type"),
		StoreID:            get("Store ID"),
		StoreLocation:      get("Store Location"),
		SalespersonID:      get("Salesperson ID"),
		EmployeeName:       get("Employee Name"),
	}, nil
}

// splitTags splits a comma-joined tags cell, dropping empties.
func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
