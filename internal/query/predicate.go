package query

import "time"

// Field identifies a transaction attribute a constraint or sort applies to.
type Field string

const (
	FieldTransactionID   Field = "transactionId"
	FieldDate            Field = "date"
	FieldCustomerID      Field = "customerId"
	FieldCustomerName    Field = "customerName"
	FieldPhoneNumber     Field = "phoneNumber"
	FieldGender          Field = "gender"
	FieldAge             Field = "age"
	FieldCustomerRegion  Field = "customerRegion"
	FieldProductID       Field = "productId"
	FieldBrand           Field = "brand"
	FieldProductCategory Field = "productCategory"
	FieldTags            Field = "tags"
	FieldQuantity        Field = "quantity"
	FieldTotalAmount     Field = "totalAmount"
	FieldFinalAmount     Field = "finalAmount"
	FieldPaymentMethod   Field = "paymentMethod"
	FieldOrderStatus     Field = "orderStatus"
	FieldStoreID         Field = "storeId"
)

// Constraint is one node of the predicate AST. Store adapters lower each
// node to whatever their backend evaluates: an in-memory comparison or a
// SQL fragment.
type Constraint interface {
	constraint()
}

// Equals matches records whose field equals Value exactly,
// case-sensitive as stored.
type Equals struct {
	Field Field
	Value string
}

// In matches records whose field equals any of Values (multi-select OR).
type In struct {
	Field  Field
	Values []string
}

// Contains matches records whose field contains Value as a
// case-insensitive literal substring. The value is never interpreted as
// pattern syntax.
type Contains struct {
	Field Field
	Value string
}

// NumberRange matches records whose numeric field lies within the
// inclusive [Min, Max] bounds; a nil bound is open.
type NumberRange struct {
	Field Field
	Min   *float64
	Max   *float64
}

// DateRange matches records whose date falls on any day from From through
// To inclusive. Bounds are midnight-normalized calendar days; a nil bound
// is open. An exact-day filter is a DateRange with From == To.
type DateRange struct {
	Field Field
	From  *time.Time
	To    *time.Time
}

// HasAnyTag matches records whose tag set intersects Values.
type HasAnyTag struct {
	Values []string
}

// AnyOf matches records satisfying at least one of its constraints
// (OR group).
type AnyOf struct {
	Constraints []Constraint
}

func (Equals) constraint()      {}
func (In) constraint()          {}
func (Contains) constraint()    {}
func (NumberRange) constraint() {}
func (DateRange) constraint()   {}
func (HasAnyTag) constraint()   {}
func (AnyOf) constraint()       {}

// Predicate is the conjunction of its constraints. An empty predicate
// matches every record.
type Predicate struct {
	Constraints []Constraint
}

// Empty reports whether the predicate matches everything.
func (p Predicate) Empty() bool {
	return len(p.Constraints) == 0
}

func (p *Predicate) add(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}
