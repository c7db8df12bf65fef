package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/store"
)

func testHandlers() *TransactionHandlers {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	transactions := []models.Transaction{
		testTx(1, "2024-01-10", "Alice O'Brien", "5551234567", "North", "Electronics", "Delivered", 180),
		testTx(2, "2024-01-11", "bob smith", "5559876543", "South", "Clothing", "Pending", 50),
		testTx(3, "2024-02-15", "Carol Jones", "5550001111", "North", "Electronics", "Delivered", 270),
		testTx(4, "2024-03-01", "Dana Brown", "4440002222", "West", "Home", "Cancelled", 80),
	}

	svc := services.NewTransactionService(store.NewMemoryStore(transactions), logger)
	return NewTransactionHandlers(svc, logger)
}

func testTx(id int, date, name, phone, region, category, status string, amount float64) models.Transaction {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.Transaction{
		TransactionID:   id,
		Date:            d,
		CustomerID:      name,
		CustomerName:    name,
		PhoneNumber:     phone,
		Gender:          "Female",
		Age:             30,
		CustomerRegion:  region,
		ProductID:       "P01",
		ProductCategory: category,
		Quantity:        1,
		TotalAmount:     amount,
		FinalAmount:     amount,
		PaymentMethod:   "Card",
		OrderStatus:     status,
		StoreID:         "S1",
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return body
}

func TestHandleList(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}

	body := decodeBody(t, w)
	if success, ok := body["success"].(bool); !ok || !success {
		t.Error("expected success=true")
	}
	if total, ok := body["total"].(float64); !ok || total != 4 {
		t.Errorf("total = %v, want 4", body["total"])
	}
	data, ok := body["data"].([]any)
	if !ok || len(data) != 4 {
		t.Fatalf("expected 4 rows, got %v", body["data"])
	}

	// Newest first.
	first := data[0].(map[string]any)
	if first["transactionId"].(float64) != 4 {
		t.Errorf("first row id = %v, want 4", first["transactionId"])
	}
	if first["date"] != "2024-03-01" {
		t.Errorf("date should render as plain day string, got %v", first["date"])
	}
}

func TestHandleList_GarbagePagingIsLenient(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?page=banana&limit=-9", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("listing should tolerate garbage paging, got status %d", w.Code)
	}
	body := decodeBody(t, w)
	if page, _ := body["page"].(float64); page != 1 {
		t.Errorf("page = %v, want 1", body["page"])
	}
}

func TestHandleSearch_NameWithApostrophe(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/search?customerName=o%27brien", nil)
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	data := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected 1 match, got %d", len(data))
	}
	row := data[0].(map[string]any)
	if row["customerName"] != "Alice O'Brien" {
		t.Errorf("matched %v, want Alice O'Brien", row["customerName"])
	}

	// The applied filters are echoed back.
	filters, ok := body["filters"].(map[string]any)
	if !ok {
		t.Fatal("expected filters echo in response")
	}
	if filters["customerName"] != "o'brien" {
		t.Errorf("filters echo = %v, want the raw input", filters["customerName"])
	}
}

func TestHandleSearch_MultiSelectUnion(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet,
		"/api/transactions/search?customerRegion=North&customerRegion=West&sortBy=finalAmount&sortOrder=desc", nil)
	w := httptest.NewRecorder()
	h.HandleSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	data := body["data"].([]any)
	if len(data) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(data))
	}
	if data[0].(map[string]any)["transactionId"].(float64) != 3 {
		t.Errorf("highest amount should come first, got %v", data[0])
	}
}

func TestHandleSearch_ValidationFailures(t *testing.T) {
	h := testHandlers()

	tests := []struct {
		name       string
		url        string
		wantReason string
	}{
		{"bad page", "/api/transactions/search?page=abc", "page must be a number"},
		{"page zero", "/api/transactions/search?page=0", "page must be at least 1"},
		{"limit too large", "/api/transactions/search?limit=5000", "limit must be between 1 and 1000"},
		{"bad amount", "/api/transactions/search?minAmount=lots", "minAmount must be a number"},
		{"inverted dates", "/api/transactions/search?dateFrom=2024-06-01&dateTo=2024-01-01", "dateFrom cannot be after dateTo"},
		{"inverted ages", "/api/transactions/search?ageRange=70-60", "ageRange lower bound cannot exceed upper bound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			h.HandleSearch(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			body := decodeBody(t, w)
			if success, _ := body["success"].(bool); success {
				t.Error("expected success=false")
			}
			errObj, ok := body["error"].(map[string]any)
			if !ok {
				t.Fatal("expected error object in response")
			}
			msg, _ := errObj["message"].(string)
			if !strings.Contains(msg, tt.wantReason) {
				t.Errorf("message = %q, want it to contain %q", msg, tt.wantReason)
			}
		})
	}
}

func TestHandleStatistics(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/statistics", nil)
	w := httptest.NewRecorder()
	h.HandleStatistics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data envelope")
	}
	if data["totalTransactions"].(float64) != 4 {
		t.Errorf("totalTransactions = %v, want 4", data["totalTransactions"])
	}
	if data["totalRevenue"].(float64) != 580 {
		t.Errorf("totalRevenue = %v, want 580", data["totalRevenue"])
	}
}

func TestHandleStatistics_Filtered(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/statistics?orderStatus=Delivered", nil)
	w := httptest.NewRecorder()
	h.HandleStatistics(w, req)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	if data["totalTransactions"].(float64) != 2 {
		t.Errorf("delivered count = %v, want 2", data["totalTransactions"])
	}
}

func TestHandleStatistics_BadFilter(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/statistics?ageRange=old", nil)
	w := httptest.NewRecorder()
	h.HandleStatistics(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleFilterOptions(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/filter-options", nil)
	w := httptest.NewRecorder()
	h.HandleFilterOptions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	categories, ok := data["productCategories"].([]any)
	if !ok || len(categories) != 3 {
		t.Errorf("productCategories = %v, want 3 entries", data["productCategories"])
	}
}

func TestHandleGetByID(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/3", nil)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	h.HandleGetByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	if data["customerName"] != "Carol Jones" {
		t.Errorf("customerName = %v, want Carol Jones", data["customerName"])
	}
}

func TestHandleGetByID_Errors(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/999", nil)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()
	h.HandleGetByID(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions/abc", nil)
	req.SetPathValue("id", "abc")
	w = httptest.NewRecorder()
	h.HandleGetByID(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
	if loaded, _ := data["dataLoaded"].(bool); !loaded {
		t.Error("expected dataLoaded=true")
	}
	if data["dataCount"].(float64) != 4 {
		t.Errorf("dataCount = %v, want 4", data["dataCount"])
	}
}
