// Package query turns the loosely-typed filter selections coming off the
// dashboard UI into a normalized, store-agnostic predicate, a total
// ordering, and (on the strict path) validation failures. It holds all of
// the filter semantics; the store adapters only decide how to evaluate
// the predicate efficiently.
package query

// Criteria is the sparse bag of filter selections for one request.
// Zero-valued fields impose no constraint. Multi-select fields accept one
// value (exact match) or several (membership, OR across the values).
// Range fields stay raw strings here: Compile parses them leniently,
// Validate parses them strictly.
type Criteria struct {
	CustomerID      string   `json:"customerId,omitempty"`
	CustomerName    string   `json:"customerName,omitempty"`
	PhoneNumber     string   `json:"phoneNumber,omitempty"`
	Gender          []string `json:"gender,omitempty"`
	AgeRange        string   `json:"ageRange,omitempty"`
	CustomerRegion  []string `json:"customerRegion,omitempty"`
	ProductCategory []string `json:"productCategory,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	OrderStatus     string   `json:"orderStatus,omitempty"`
	StoreID         string   `json:"storeId,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	PaymentMethod   []string `json:"paymentMethod,omitempty"`
	Date            string   `json:"date,omitempty"`
	DateFrom        string   `json:"dateFrom,omitempty"`
	DateTo          string   `json:"dateTo,omitempty"`
	MinAmount       string   `json:"minAmount,omitempty"`
	MaxAmount       string   `json:"maxAmount,omitempty"`
	SortBy          string   `json:"sortBy,omitempty"`
	SortOrder       string   `json:"sortOrder,omitempty"`
}

// HasFilters reports whether any filter field is set. Sort selections are
// not filters; a criteria bag carrying only sortBy/sortOrder still
// qualifies for the cached unfiltered statistics.
func (c Criteria) HasFilters() bool {
	return c.CustomerID != "" ||
		c.CustomerName != "" ||
		c.PhoneNumber != "" ||
		len(c.Gender) > 0 ||
		c.AgeRange != "" ||
		len(c.CustomerRegion) > 0 ||
		len(c.ProductCategory) > 0 ||
		len(c.Tags) > 0 ||
		c.OrderStatus != "" ||
		c.StoreID != "" ||
		c.Brand != "" ||
		len(c.PaymentMethod) > 0 ||
		c.Date != "" ||
		c.DateFrom != "" ||
		c.DateTo != "" ||
		c.MinAmount != "" ||
		c.MaxAmount != ""
}
