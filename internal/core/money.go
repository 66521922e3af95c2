// Package core holds the ledger domain: transactions, dates and money.
//
// Amounts are carried as integer cents so that sums over many transactions
// stay exact; conversion to and from decimal strings lives in this file.
package core

import (
	"strconv"
	"strings"
)

// ParseDecimalToCents converts a signed decimal string to cents.
//
// It accepts an optional leading sign, and both dot (12.34) and comma (12,34)
// decimal separators, and rounds half away from zero on the third decimal.
//
// Examples:
//
//	ParseDecimalToCents("12.34")   -> 1234, nil
//	ParseDecimalToCents("-200")    -> -20000, nil
//	ParseDecimalToCents("12,345")  -> 1235, nil
//	ParseDecimalToCents("12.344")  -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv >= maxSafe {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	cents := iv*100 + frac
	if neg {
		cents = -cents
	}
	return cents, nil
}

// ParseMoney parses a decimal string into Money.
func ParseMoney(s string) (Money, error) {
	c, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// MoneyFromFloat converts a decimal amount to cents, rounding half away from zero.
func MoneyFromFloat(v float64) Money {
	c, err := ParseDecimalToCents(strconv.FormatFloat(v, 'f', 3, 64))
	if err != nil {
		return Money{}
	}
	return Money{Cents: c}
}

// Float returns the amount in currency units, for display and JSON.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats m with two decimals, e.g. "-200.00".
func (m Money) String() string {
	neg := m.Cents < 0
	c := m.Cents
	if neg {
		c = -c
	}
	s := strconv.FormatInt(c/100, 10) + "." + leftPad2(c%100)
	if neg {
		return "-" + s
	}
	return s
}

func leftPad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
