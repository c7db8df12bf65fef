package query

import (
	"reflect"
	"testing"
	"time"
)

func TestCompile_EmptyCriteria(t *testing.T) {
	p := Compile(Criteria{})
	if !p.Empty() {
		t.Errorf("expected empty predicate, got %d constraints", len(p.Constraints))
	}
}

func TestCompile_NameOnly(t *testing.T) {
	p := Compile(Criteria{CustomerName: "  O'Brien  "})

	if len(p.Constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(p.Constraints))
	}
	c, ok := p.Constraints[0].(Contains)
	if !ok {
		t.Fatalf("expected Contains, got %T", p.Constraints[0])
	}
	if c.Field != FieldCustomerName || c.Value != "O'Brien" {
		t.Errorf("unexpected constraint: %+v", c)
	}
}

func TestCompile_NameAndPhoneBecomeOrGroup(t *testing.T) {
	p := Compile(Criteria{CustomerName: "Smith", PhoneNumber: "(555) 123-4567"})

	if len(p.Constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(p.Constraints))
	}
	group, ok := p.Constraints[0].(AnyOf)
	if !ok {
		t.Fatalf("expected AnyOf, got %T", p.Constraints[0])
	}
	if len(group.Constraints) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(group.Constraints))
	}

	name := group.Constraints[0].(Contains)
	if name.Field != FieldCustomerName || name.Value != "Smith" {
		t.Errorf("unexpected name alternative: %+v", name)
	}
	phone := group.Constraints[1].(Contains)
	if phone.Field != FieldPhoneNumber || phone.Value != "5551234567" {
		t.Errorf("phone should be reduced to digits, got %+v", phone)
	}
}

func TestCompile_PhoneWithoutDigitsFallsBackToName(t *testing.T) {
	p := Compile(Criteria{CustomerName: "Smith", PhoneNumber: "---"})

	if len(p.Constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(p.Constraints))
	}
	c, ok := p.Constraints[0].(Contains)
	if !ok || c.Field != FieldCustomerName {
		t.Errorf("expected name-only Contains, got %#v", p.Constraints[0])
	}
}

func TestCompile_PhoneWithoutDigitsAlone(t *testing.T) {
	p := Compile(Criteria{PhoneNumber: "abc-def"})
	if !p.Empty() {
		t.Errorf("digit-free phone alone should impose no constraint, got %#v", p.Constraints)
	}
}

func TestCompile_Membership(t *testing.T) {
	p := Compile(Criteria{Gender: []string{"Female"}})
	if eq, ok := p.Constraints[0].(Equals); !ok || eq.Field != FieldGender || eq.Value != "Female" {
		t.Errorf("single value should compile to Equals, got %#v", p.Constraints[0])
	}

	p = Compile(Criteria{CustomerRegion: []string{"North", " South ", ""}})
	in, ok := p.Constraints[0].(In)
	if !ok {
		t.Fatalf("multiple values should compile to In, got %T", p.Constraints[0])
	}
	if !reflect.DeepEqual(in.Values, []string{"North", "South"}) {
		t.Errorf("values should be trimmed with empties dropped, got %v", in.Values)
	}
}

func TestCompile_MembershipCap(t *testing.T) {
	values := make([]string, 150)
	for i := range values {
		values[i] = string(rune('a' + i%26))
	}
	p := Compile(Criteria{ProductCategory: values})

	in := p.Constraints[0].(In)
	if len(in.Values) != maxMembershipValues {
		t.Errorf("membership set should be capped at %d, got %d", maxMembershipValues, len(in.Values))
	}
}

func TestCompile_TagsSplitOnCommas(t *testing.T) {
	p := Compile(Criteria{Tags: []string{"wireless, sale ", "new"}})

	tags, ok := p.Constraints[0].(HasAnyTag)
	if !ok {
		t.Fatalf("expected HasAnyTag, got %T", p.Constraints[0])
	}
	want := []string{"wireless", "sale", "new"}
	if !reflect.DeepEqual(tags.Values, want) {
		t.Errorf("tags = %v, want %v", tags.Values, want)
	}
}

func TestCompile_ExactDate(t *testing.T) {
	p := Compile(Criteria{Date: "2024-03-15"})

	dr, ok := p.Constraints[0].(DateRange)
	if !ok {
		t.Fatalf("expected DateRange, got %T", p.Constraints[0])
	}
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if dr.From == nil || dr.To == nil || !dr.From.Equal(day) || !dr.To.Equal(day) {
		t.Errorf("exact date should pin both bounds to the day, got %+v", dr)
	}
}

func TestCompile_RangePresenceDisablesExactDate(t *testing.T) {
	p := Compile(Criteria{Date: "2024-03-15", DateFrom: "2024-01-01", DateTo: "2024-06-30"})

	if len(p.Constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(p.Constraints))
	}
	dr := p.Constraints[0].(DateRange)
	if dr.From.Day() != 1 || dr.To.Month() != time.June {
		t.Errorf("range bounds should win over the exact date, got %+v", dr)
	}

	// Even an unparseable range bound suppresses the exact-day filter.
	p = Compile(Criteria{Date: "2024-03-15", DateFrom: "not-a-date"})
	if !p.Empty() {
		t.Errorf("malformed range should yield no date constraint at all, got %#v", p.Constraints)
	}
}

func TestCompile_PartialDateRange(t *testing.T) {
	p := Compile(Criteria{DateFrom: "bogus", DateTo: "2024-06-30"})

	dr, ok := p.Constraints[0].(DateRange)
	if !ok {
		t.Fatalf("expected DateRange, got %T", p.Constraints[0])
	}
	if dr.From != nil {
		t.Error("unparseable lower bound should be open")
	}
	if dr.To == nil || dr.To.Month() != time.June {
		t.Errorf("parseable upper bound should be kept, got %+v", dr.To)
	}
}

func TestCompile_Amounts(t *testing.T) {
	p := Compile(Criteria{MinAmount: "10.5", MaxAmount: "200"})

	nr, ok := p.Constraints[0].(NumberRange)
	if !ok || nr.Field != FieldFinalAmount {
		t.Fatalf("expected NumberRange on finalAmount, got %#v", p.Constraints[0])
	}
	if *nr.Min != 10.5 || *nr.Max != 200 {
		t.Errorf("bounds = [%v, %v], want [10.5, 200]", *nr.Min, *nr.Max)
	}
}

func TestCompile_GarbageAmountsAreDropped(t *testing.T) {
	p := Compile(Criteria{MinAmount: "abc", MaxAmount: "-5"})
	if !p.Empty() {
		t.Errorf("non-numeric and negative amounts should be ignored, got %#v", p.Constraints)
	}

	p = Compile(Criteria{MinAmount: "abc", MaxAmount: "100"})
	nr := p.Constraints[0].(NumberRange)
	if nr.Min != nil || nr.Max == nil {
		t.Errorf("the good bound should survive alone, got %+v", nr)
	}
}

func TestCompile_AgeRange(t *testing.T) {
	p := Compile(Criteria{AgeRange: "25-34"})
	nr := p.Constraints[0].(NumberRange)
	if nr.Field != FieldAge || *nr.Min != 25 || *nr.Max != 34 {
		t.Errorf("unexpected age constraint: %+v", nr)
	}

	p = Compile(Criteria{AgeRange: "65+"})
	nr = p.Constraints[0].(NumberRange)
	if *nr.Min != 65 || nr.Max != nil {
		t.Errorf(`"65+" should be an open-topped range, got %+v`, nr)
	}

	p = Compile(Criteria{AgeRange: "old"})
	if !p.Empty() {
		t.Errorf("malformed age range should be ignored, got %#v", p.Constraints)
	}
}

func TestCompile_IsPure(t *testing.T) {
	c := Criteria{
		CustomerName:    "Smith",
		PhoneNumber:     "555-0001",
		Gender:          []string{"Male", "Female"},
		Tags:            []string{"sale,new"},
		DateFrom:        "2024-01-01",
		MinAmount:       "10",
		AgeRange:        "18-30",
		ProductCategory: []string{"Electronics"},
	}

	first := Compile(c)
	second := Compile(c)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated compilation of identical criteria should be identical")
	}
}
