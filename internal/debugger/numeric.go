// Package debugger parses numeric tokens typed at a debugger prompt.
//
// Every parser accepts the whole token or nothing: a token with stray
// characters, or one whose value does not fit the result type, is reported
// as no match instead of a partial value.
package debugger

import (
	"math"
	"strconv"
)

// ParseNatural accepts a non-empty run of ASCII digits.
func ParseNatural(text string) (uint64, bool) {
	if !allDigits(text) {
		return 0, false
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInteger accepts digits with an optional leading minus sign. The most
// negative int64 is accepted.
func ParseInteger(text string) (int64, bool) {
	digits := text
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if !allDigits(digits) {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseFloat accepts an integer token followed by an optional fraction
// written as '.' and at least one digit. Exponents, signs other than a
// leading minus, and the special values are not accepted.
func ParseFloat(text string) (float64, bool) {
	body := text
	if len(body) > 0 && body[0] == '-' {
		body = body[1:]
	}
	whole, frac := body, ""
	for i := 0; i < len(body); i++ {
		if body[i] == '.' {
			whole, frac = body[:i], body[i+1:]
			if !allDigits(frac) {
				return 0, false
			}
			break
		}
	}
	if !allDigits(whole) {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseIndex parses a natural number below limit, e.g. a primary tag.
func ParseIndex(text string, limit int) (int, bool) {
	v, ok := ParseNatural(text)
	if !ok || limit <= 0 || v >= uint64(limit) {
		return 0, false
	}
	return int(v), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
