package core

import (
	"errors"
	"testing"
)

func validFields() TransactionFields {
	return TransactionFields{
		Title:    "Grocery Run",
		Amount:   Money{Cents: 1234},
		Category: "Food",
		Kind:     Expense,
		Date:     "2025-08-15",
	}
}

func TestTransactionFieldsValidate(t *testing.T) {
	if err := validFields().Validate(); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionFields)
		field  string
		msg    string
	}{
		{"empty title", func(f *TransactionFields) { f.Title = "  " }, "title", "Title is required"},
		{"zero amount", func(f *TransactionFields) { f.Amount.Cents = 0 }, "amount", "Enter a valid amount"},
		{"negative amount", func(f *TransactionFields) { f.Amount.Cents = -5 }, "amount", "Enter a valid amount"},
		{"missing date", func(f *TransactionFields) { f.Date = "" }, "date", "Date is required"},
		{"malformed date", func(f *TransactionFields) { f.Date = "15/08/2025" }, "date", "Enter a valid date"},
		{"unknown kind", func(f *TransactionFields) { f.Kind = "transfer" }, "kind", ""},
		{"unknown category", func(f *TransactionFields) { f.Category = "Crypto" }, "category", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validFields()
			tc.mutate(&f)
			err := f.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			msg, ok := ve.Fields[tc.field]
			if !ok {
				t.Fatalf("expected error on field %q, got %v", tc.field, ve.Fields)
			}
			if tc.msg != "" && msg != tc.msg {
				t.Fatalf("field %q message = %q, want %q", tc.field, msg, tc.msg)
			}
		})
	}
}

func TestValidateCollectsAllFields(t *testing.T) {
	err := TransactionFields{}.Validate()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "amount", "date", "kind", "category"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("missing error for field %q: %v", field, ve.Fields)
		}
	}
}

func TestCategoryIndex(t *testing.T) {
	if got := CategoryIndex("Food"); got != 0 {
		t.Errorf("Food index = %d, want 0", got)
	}
	if got := CategoryIndex("Other"); got != len(Categories)-1 {
		t.Errorf("Other index = %d, want %d", got, len(Categories)-1)
	}
	if got := CategoryIndex("Nope"); got != len(Categories) {
		t.Errorf("unknown category index = %d, want %d", got, len(Categories))
	}
}
