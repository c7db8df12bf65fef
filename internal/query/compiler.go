package query

import (
	"strconv"
	"strings"
	"time"
)

const (
	dayLayout = "2006-01-02"

	// maxMembershipValues bounds the size of any multi-select value set so
	// a hostile query string cannot inflate query cost.
	maxMembershipValues = 100

	minAge = 0
	maxAge = 150
)

// Compile translates validated-or-raw criteria into a predicate. It is
// pure: the same criteria always produce the same predicate, and nothing
// is mutated or remembered between calls.
//
// Compile never fails. Individual values that do not parse (a non-numeric
// amount, a malformed age range, an unparseable date) are treated as
// absent filters; the strict rejection path is Validate. Callers that
// skip Validate get this lenient behavior by design.
func Compile(c Criteria) Predicate {
	var p Predicate

	if v := strings.TrimSpace(c.CustomerID); v != "" {
		p.add(Equals{FieldCustomerID, v})
	}
	compileNamePhone(&p, c.CustomerName, c.PhoneNumber)

	p.addMembership(FieldGender, c.Gender)
	p.addMembership(FieldCustomerRegion, c.CustomerRegion)
	p.addMembership(FieldProductCategory, c.ProductCategory)
	p.addMembership(FieldPaymentMethod, c.PaymentMethod)

	if v := strings.TrimSpace(c.OrderStatus); v != "" {
		p.add(Equals{FieldOrderStatus, v})
	}
	if v := strings.TrimSpace(c.StoreID); v != "" {
		p.add(Equals{FieldStoreID, v})
	}
	if v := strings.TrimSpace(c.Brand); v != "" {
		p.add(Contains{FieldBrand, v})
	}

	if tags := splitTags(c.Tags); len(tags) > 0 {
		p.add(HasAnyTag{tags})
	}

	compileDates(&p, c.Date, c.DateFrom, c.DateTo)
	compileAmounts(&p, c.MinAmount, c.MaxAmount)
	compileAgeRange(&p, c.AgeRange)

	return p
}

// compileNamePhone handles the free-text search pair. With both name and
// phone present the single search box is expected to match either field,
// so the two become an OR group. The phone value is reduced to its digits
// first; if nothing remains, the search falls back to name only.
func compileNamePhone(p *Predicate, name, phone string) {
	name = strings.TrimSpace(name)
	digits := digitsOnly(phone)

	switch {
	case name != "" && digits != "":
		p.add(AnyOf{[]Constraint{
			Contains{FieldCustomerName, name},
			Contains{FieldPhoneNumber, digits},
		}})
	case name != "":
		p.add(Contains{FieldCustomerName, name})
	case digits != "":
		p.add(Contains{FieldPhoneNumber, digits})
	}
}

// compileDates applies the date-range-over-exact-date precedence: the
// presence of either range bound, parseable or not, disables the
// exact-day filter entirely.
func compileDates(p *Predicate, exact, from, to string) {
	if from != "" || to != "" {
		var lo, hi *time.Time
		if d, err := time.Parse(dayLayout, strings.TrimSpace(from)); err == nil {
			lo = &d
		}
		if d, err := time.Parse(dayLayout, strings.TrimSpace(to)); err == nil {
			hi = &d
		}
		if lo != nil || hi != nil {
			p.add(DateRange{FieldDate, lo, hi})
		}
		return
	}
	if exact != "" {
		if d, err := time.Parse(dayLayout, strings.TrimSpace(exact)); err == nil {
			p.add(DateRange{FieldDate, &d, &d})
		}
	}
}

func compileAmounts(p *Predicate, minStr, maxStr string) {
	lo := parseAmount(minStr)
	hi := parseAmount(maxStr)
	if lo == nil && hi == nil {
		return
	}
	p.add(NumberRange{FieldFinalAmount, lo, hi})
}

// parseAmount returns nil for absent, non-numeric, or negative values so
// garbage UI input degrades to "no filter" instead of an error.
func parseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func compileAgeRange(p *Predicate, s string) {
	lo, hi, err := parseAgeRange(s)
	if err != nil || (lo == nil && hi == nil) {
		return
	}
	p.add(NumberRange{FieldAge, lo, hi})
}

// parseAgeRange understands "N+" (age >= N) and "N-M" (N <= age <= M)
// with both bounds in [0,150]. It reports malformed input as an error;
// Compile discards the error, Validate surfaces it.
func parseAgeRange(s string) (lo, hi *float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, nil
	}

	if after, ok := strings.CutSuffix(s, "+"); ok {
		n, perr := parseAge(after)
		if perr != nil {
			return nil, nil, perr
		}
		return n, nil, nil
	}

	low, high, ok := strings.Cut(s, "-")
	if !ok {
		return nil, nil, errMalformedAgeRange
	}
	lo, err = parseAge(low)
	if err != nil {
		return nil, nil, err
	}
	hi, err = parseAge(high)
	if err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

func parseAge(s string) (*float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, errMalformedAgeRange
	}
	if n < minAge || n > maxAge {
		return nil, errAgeOutOfBounds
	}
	v := float64(n)
	return &v, nil
}

func (p *Predicate) addMembership(f Field, values []string) {
	vals := cleanValues(values)
	switch len(vals) {
	case 0:
	case 1:
		p.add(Equals{f, vals[0]})
	default:
		p.add(In{f, vals})
	}
}

// cleanValues trims, drops empties, and caps the membership set size.
func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == maxMembershipValues {
			break
		}
	}
	return out
}

// splitTags accepts tag lists in either form the UI sends: an array of
// tags or comma-separated strings inside the array elements.
func splitTags(values []string) []string {
	var out []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			out = append(out, tag)
			if len(out) == maxMembershipValues {
				return out
			}
		}
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
