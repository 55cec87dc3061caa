package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKindValid(t *testing.T) {
	cases := []struct {
		k  Kind
		ok bool
	}{
		{Income, true},
		{Outcome, true},
		{Kind("transfer"), false},
		{Kind("INCOME"), false}, // case-sensitive
		{Kind(""), false},
	}
	for i, tc := range cases {
		if got := tc.k.Valid(); got != tc.ok {
			t.Fatalf("case %d: Valid(%q) = %v, want %v", i, tc.k, got, tc.ok)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Title:  "Salary",
		Kind:   Income,
		Amount: decimal.NewFromInt(1200),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"bad kind", Transaction{Title: "x", Kind: "transfer", Amount: decimal.NewFromInt(1)}, ErrInvalidOperation},
		{"empty title", Transaction{Title: "  ", Kind: Income, Amount: decimal.NewFromInt(1)}, ErrEmptyTitle},
		{"negative amount", Transaction{Title: "x", Kind: Outcome, Amount: decimal.NewFromInt(-5)}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Title: "Food"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Title: " "}).Validate(); !errors.Is(err, ErrEmptyCategoryTitle) {
		t.Fatalf("expected ErrEmptyCategoryTitle")
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 500.00 ", "500", true},
		{"12.345", "12.35", true}, // rounds half-up
		{"0", "0", true},
		{"", "", false},
		{"-3.50", "", false},
		{"abc", "", false},
	}
	for i, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d: expected ok, got %v", i, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("case %d: expected error", i)
			}
			continue
		}
		if got.String() != tc.want {
			t.Fatalf("case %d: ParseAmount(%q) = %s, want %s", i, tc.in, got, tc.want)
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("1234.56")
	cents := Cents(d)
	if cents != 123456 {
		t.Fatalf("Cents = %d, want 123456", cents)
	}
	if back := FromCents(cents); !back.Equal(d) {
		t.Fatalf("FromCents(%d) = %s, want %s", cents, back, d)
	}
}
