package core

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire format of a transaction date.
const DateLayout = "2006-01-02"

// MaxDescriptionLength bounds Transaction.Description.
const MaxDescriptionLength = 200

type (
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Debits are negative.
	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Date        Date
		Amount      Money
		Description string
	}
)

var (
	ErrZeroDate            = errors.New("date cannot be zero")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrZeroAmount          = errors.New("amount cannot be zero")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidAmountBounds = errors.New("minimum amount is greater than maximum amount")
	ErrAmountOverflow      = errors.New("amount total out of range")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrZeroAmount
	}
	return nil
}

// Add returns m + o, or ErrAmountOverflow when the sum does not fit in int64 cents.
func (m Money) Add(o Money) (Money, error) {
	if (o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents) ||
		(o.Cents < 0 && m.Cents < math.MinInt64-o.Cents) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: m.Cents + o.Cents}, nil
}

// Between reports whether min <= m <= max.
func (m Money) Between(min, max Money) bool {
	return min.Cents <= m.Cents && m.Cents <= max.Cents
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// AmountRange is an inclusive filter on transaction amounts.
type AmountRange struct {
	Min Money
	Max Money
}

func (r AmountRange) Validate() error {
	if r.Min.Cents > r.Max.Cents {
		return ErrInvalidAmountBounds
	}
	return nil
}

// Contains reports whether t's amount falls inside r.
func (r AmountRange) Contains(t Transaction) bool {
	return t.Amount.Between(r.Min, r.Max)
}
