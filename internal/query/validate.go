package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	errMalformedAgeRange = errors.New(`ageRange must be "N+" or "N-M" with integer ages`)
	errAgeOutOfBounds    = fmt.Errorf("ageRange values must be between %d and %d", minAge, maxAge)
)

// Validate rejects structurally invalid criteria before compilation. It
// is the strict counterpart to Compile's leniency: the search and
// statistics paths call it to turn bad input into a 400-class rejection,
// while the plain listing path skips it and silently ignores garbage.
// The returned error message is the user-facing reason.
func Validate(c Criteria) error {
	minAmt, err := validateAmount("minAmount", c.MinAmount)
	if err != nil {
		return err
	}
	maxAmt, err := validateAmount("maxAmount", c.MaxAmount)
	if err != nil {
		return err
	}
	if minAmt != nil && maxAmt != nil && *minAmt > *maxAmt {
		return errors.New("minAmount cannot be greater than maxAmount")
	}

	from, err := validateDay("dateFrom", c.DateFrom)
	if err != nil {
		return err
	}
	to, err := validateDay("dateTo", c.DateTo)
	if err != nil {
		return err
	}
	if from != nil && to != nil && from.After(*to) {
		return errors.New("dateFrom cannot be after dateTo")
	}

	lo, hi, err := parseAgeRange(c.AgeRange)
	if err != nil {
		return err
	}
	if lo != nil && hi != nil && *lo > *hi {
		return errors.New("ageRange lower bound cannot exceed upper bound")
	}

	return nil
}

// ValidatePage enforces the strict page/limit bounds for callers that
// reject rather than clamp.
func ValidatePage(page, limit int) error {
	if page < 1 {
		return errors.New("page must be at least 1")
	}
	if limit < 1 || limit > 1000 {
		return errors.New("limit must be between 1 and 1000")
	}
	return nil
}

func validateAmount(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	if v < 0 {
		return nil, fmt.Errorf("%s must not be negative", name)
	}
	return &v, nil
}

func validateDay(name, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid date in YYYY-MM-DD format", name)
	}
	return &d, nil
}
