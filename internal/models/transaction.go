package models

// Transaction is one retail sale record. Records are immutable once
// ingested; the dataset is loaded once at startup and never written to
// for the lifetime of the process.
type Transaction struct {
	TransactionID      int      `json:"transactionId"`
	Date               Date     `json:"date"`
	CustomerID         string   `json:"customerId"`
	CustomerName       string   `json:"customerName"`
	PhoneNumber        string   `json:"phoneNumber"`
	Gender             string   `json:"gender"`
	Age                int      `json:"age"`
	CustomerRegion     string   `json:"customerRegion"`
	CustomerType       string   `json:"customerType"`
	ProductID          string   `json:"productId"`
	ProductName        string   `json:"productName"`
	Brand              string   `json:"brand"`
	ProductCategory    string   `json:"productCategory"`
	Tags               []string `json:"tags"`
	Quantity           int      `json:"quantity"`
	PricePerUnit       float64  `json:"pricePerUnit"`
	DiscountPercentage float64  `json:"discountPercentage"`
	TotalAmount        float64  `json:"totalAmount"`
	FinalAmount        float64  `json:"finalAmount"`
	PaymentMethod      string   `json:"paymentMethod"`
	OrderStatus        string   `json:"orderStatus"`
	DeliveryType       string   `json:"deliveryType"`
	StoreID            string   `json:"storeId"`
	StoreLocation      string   `json:"storeLocation"`
	SalespersonID      string   `json:"salespersonId"`
	EmployeeName       string   `json:"employeeName"`
}

// PageResult is one page of transactions plus the pagination bookkeeping
// the table UI needs. Page carries the page actually served, which may be
// lower than the page requested (out-of-range pages are clamped, never
// rejected).
type PageResult struct {
	Data       []Transaction `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// EmptyPage returns a zero PageResult with a non-nil data slice.
func EmptyPage(limit int) PageResult {
	return PageResult{Data: []Transaction{}, Page: 1, Limit: limit, TotalPages: 1}
}

// Statistics summarizes a transaction subset. All currency figures are
// rounded to two decimal places.
type Statistics struct {
	TotalTransactions int                `json:"totalTransactions"`
	TotalRevenue      float64            `json:"totalRevenue"`
	TotalAmount       float64            `json:"totalAmount"`
	TotalQuantity     int                `json:"totalQuantity"`
	UniqueCustomers   int                `json:"uniqueCustomers"`
	UniqueProducts    int                `json:"uniqueProducts"`
	UniqueStores      int                `json:"uniqueStores"`
	RevenueByRegion   map[string]float64 `json:"revenueByRegion"`
	RevenueByCategory map[string]float64 `json:"revenueByCategory"`
	OrderStatusCounts map[string]int     `json:"orderStatusCounts"`
	AverageOrderValue float64            `json:"averageOrderValue"`
}

// EmptyStatistics returns a zero Statistics with initialized maps, so
// callers rendering a "no data" state always get a well-formed shape.
func EmptyStatistics() Statistics {
	return Statistics{
		RevenueByRegion:   map[string]float64{},
		RevenueByCategory: map[string]float64{},
		OrderStatusCounts: map[string]int{},
	}
}

// FilterOptions holds the distinct values available for the dropdown
// filters, each list sorted ascending.
type FilterOptions struct {
	ProductCategories []string `json:"productCategories"`
	CustomerRegions   []string `json:"customerRegions"`
	Genders           []string `json:"genders"`
	PaymentMethods    []string `json:"paymentMethods"`
	Tags              []string `json:"tags"`
}
