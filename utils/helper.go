package utils

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// Today returns the current local calendar date as YYYY-MM-DD.
func Today() string {
	return time.Now().Format(DateLayout)
}

// GenerateSku builds "<CAT>-<BRA>-<suffix>" from the first three letters/digits of
// category and brand plus a random base-36 suffix. Collisions are possible and
// tolerated; callers never rely on sku uniqueness.
func GenerateSku(category string, brand string) string {
	parts := []string{skuSegment(category, "GEN"), skuSegment(brand, "NA")}
	suffix := strings.ToUpper(strconv.FormatInt(36*36*36+rand.Int63n(35*36*36*36), 36))
	parts = append(parts, suffix)
	return strings.Join(parts, "-")
}

func skuSegment(s string, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= 3 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	return decimal.NewFromString(value)
}

// ParseFormattedDecimal accepts user-formatted numbers such as "1,250", "₹ 1,250.50",
// "Rs. -20" or "  450 ". Only digits, '.' and a leading '-' are kept.
func ParseFormattedDecimal(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	neg := false
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			// a '.' before any digit only counts when a digit follows ("Rs." is a prefix)
			if b.Len() > 0 || (i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9') {
				b.WriteRune(r)
			}
		case r == '-' && b.Len() == 0:
			neg = true
		}
	}
	clean := b.String()
	if clean == "" || clean == "." {
		return decimal.Zero, fmt.Errorf("invalid value %q", value)
	}
	if neg {
		clean = "-" + clean
	}
	return decimal.NewFromString(clean)
}
