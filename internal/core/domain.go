package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// Categories is the fixed enumeration every transaction must use.
// Order matters: analytics rely on it for stable tie-breaking.
var Categories = []Category{
	"Food",
	"Transport",
	"Housing",
	"Entertainment",
	"Health",
	"Shopping",
	"Salary",
	"Freelance",
	"Other",
}

type (
	Kind     string
	Category string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record owned by one user.
	// ID, OwnerID and CreatedAt are write-once; the rest is editable.
	Transaction struct {
		ID        string    `json:"id"`
		OwnerID   int64     `json:"owner_id"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount"`
		Category  Category  `json:"category"`
		Kind      Kind      `json:"kind"`
		Date      string    `json:"date"` // ISO YYYY-MM-DD, user supplied
		CreatedAt time.Time `json:"created_at"`
	}

	// TransactionFields carries the editable fields for create and update.
	TransactionFields struct {
		Title    string
		Amount   Money
		Category Category
		Kind     Kind
		Date     string
	}
)

var ErrInvalidAmount = errors.New("invalid amount")

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryIndex returns the enumeration position, or len(Categories)
// for unknown values so they sort last.
func CategoryIndex(c Category) int {
	for i, known := range Categories {
		if c == known {
			return i
		}
	}
	return len(Categories)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidationError collects per-field messages for a rejected submission.
// It never reaches the store; callers surface Fields inline.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// Validate checks the editable fields and returns a *ValidationError
// listing every problem, or nil when the fields are acceptable.
func (f TransactionFields) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(f.Title) == "" {
		ve.Add("title", "Title is required")
	}
	if f.Amount.Cents <= 0 {
		ve.Add("amount", "Enter a valid amount")
	}
	if strings.TrimSpace(f.Date) == "" {
		ve.Add("date", "Date is required")
	} else if _, err := time.Parse("2006-01-02", f.Date); err != nil {
		ve.Add("date", "Enter a valid date")
	}
	if !f.Kind.Valid() {
		ve.Add("kind", fmt.Sprintf("unknown transaction kind %q", string(f.Kind)))
	}
	if !f.Category.Valid() {
		ve.Add("category", fmt.Sprintf("unknown category %q", string(f.Category)))
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
