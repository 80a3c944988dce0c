// Package core provides the record types, input validation and error
// taxonomy shared by storage, services and the HTTP layer.
//
// This file contains the parsing helpers for amounts and identifiers.
package core

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidID     = errors.New("invalid id")
)

// maxAmountDigits bounds the digits ParseAmount accepts, so that no
// amount is too large to format or bind cheaply.
const maxAmountDigits = 30

// ParseAmount converts user input to a decimal amount.
//
// Input is plain decimal notation with an optional sign. A comma is accepted
// as the decimal separator only when it is the single separator and is
// followed by one or two digits, so "1,234" is rejected rather than read as
// a thousands separator. Exponent notation is rejected.
//
// Examples:
//
//	ParseAmount("12.50") -> 12.5, nil
//	ParseAmount("12,50") -> 12.5, nil
//	ParseAmount("1,234") -> 0, ErrInvalidAmount
//	ParseAmount("1e3")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	if strings.Contains(s, ",") {
		intPart, frac, _ := strings.Cut(s, ",")
		if strings.Contains(intPart, ".") || strings.ContainsAny(frac, ".,") || len(frac) == 0 || len(frac) > 2 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = intPart + "." + frac
	}
	if !isPlainDecimal(s) {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// isPlainDecimal reports whether s is [+-]digits[.digits] with at least one
// digit and at most maxAmountDigits of them.
func isPlainDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && digits <= maxAmountDigits && dots <= 1
}

// ParseID parses a positive record identifier.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// FormatID is the inverse of ParseID.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
