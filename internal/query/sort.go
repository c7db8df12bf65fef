package query

// Sort is a total ordering over transactions. Ties on the primary field
// always break by transactionId ascending, so equal-key rows come back in
// the same order on every call regardless of backend. Name ordering uses
// lower-cased comparison for a single consistent collation.
type Sort struct {
	Field      Field
	Descending bool
}

var sortableFields = map[string]Field{
	"date":          FieldDate,
	"finalAmount":   FieldFinalAmount,
	"quantity":      FieldQuantity,
	"age":           FieldAge,
	"transactionId": FieldTransactionID,
	"customerName":  FieldCustomerName,
}

// ResolveSort maps a requested sort key and direction to a Sort. An
// unrecognized or absent key falls back to customerName ascending, the
// requested direction included.
func ResolveSort(by, order string) Sort {
	f, ok := sortableFields[by]
	if !ok {
		return Sort{Field: FieldCustomerName}
	}
	return Sort{Field: f, Descending: order == "desc"}
}
