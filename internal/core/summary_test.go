package core

import (
	"testing"
	"time"
)

func rec(day int, cents int64, note, cat string) Record {
	return Record{
		Date:     time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
		Amount:   Money{Cents: cents},
		Note:     note,
		Category: cat,
	}
}

func TestBalance(t *testing.T) {
	records := []Record{
		rec(1, 1000, "allowance", "allowance accrual"),
		rec(2, -350, "sweets", "Snacks"),
		rec(3, 125, "found coin", ""),
	}
	if got := Balance(records); got.Cents != 775 {
		t.Errorf("Balance = %d cents, want 775", got.Cents)
	}
}

func TestBalance_Empty(t *testing.T) {
	if got := Balance(nil); got.Cents != 0 {
		t.Errorf("Balance(nil) = %d, want 0", got.Cents)
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		rec(1, 1000, "allowance", "allowance accrual"),
		rec(2, -350, "sweets", "Snacks"),
		rec(3, 125, "found coin", ""),
	}
	b := Summarize(records)

	if b.Earned.Cents != 1125 {
		t.Errorf("Earned = %d, want 1125", b.Earned.Cents)
	}
	if b.Spent.Cents != 350 {
		t.Errorf("Spent = %d, want 350 (absolute)", b.Spent.Cents)
	}
	if len(b.Spending) != 1 || b.Spending[0].Name != "Snacks" || b.Spending[0].Amount.Cents != 350 {
		t.Errorf("Spending buckets = %+v, want [Snacks 350]", b.Spending)
	}
	wantEarnings := map[string]int64{"Allowance Accrual": 1000, "Others": 125}
	if len(b.Earnings) != len(wantEarnings) {
		t.Fatalf("Earnings buckets = %+v, want %v", b.Earnings, wantEarnings)
	}
	for _, ca := range b.Earnings {
		if wantEarnings[ca.Name] != ca.Amount.Cents {
			t.Errorf("earnings bucket %q = %d, want %d", ca.Name, ca.Amount.Cents, wantEarnings[ca.Name])
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	b := Summarize(nil)
	if b.Earned.Cents != 0 || b.Spent.Cents != 0 {
		t.Errorf("empty summarize totals = %+v, want zeros", b)
	}
	if len(b.Earnings) != 0 || len(b.Spending) != 0 {
		t.Errorf("empty summarize buckets = %+v, want empty", b)
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  groceries ", want: "Groceries"},
		{in: "", want: "Others"},
		{in: "   ", want: "Others"},
		{in: "allowance accrual", want: "Allowance Accrual"},
		{in: "sNACKS", want: "Snacks"},
		{in: "toys-and-games", want: "Toys-And-Games"},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.in); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAvailableMonths(t *testing.T) {
	records := []Record{
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)},
	}
	got := AvailableMonths(records)
	want := []string{"2024-03", "2024-01", "2023-12"}
	if len(got) != len(want) {
		t.Fatalf("AvailableMonths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AvailableMonths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAvailableMonths_Empty(t *testing.T) {
	if got := AvailableMonths(nil); len(got) != 0 {
		t.Errorf("AvailableMonths(nil) = %v, want empty", got)
	}
}

func TestFilterMonth(t *testing.T) {
	records := []Record{
		rec(5, 100, "a", ""),
		{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Amount: Money{Cents: 200}},
	}
	got := FilterMonth(records, 2024, time.March)
	if len(got) != 1 || got[0].Amount.Cents != 100 {
		t.Errorf("FilterMonth kept %d records, want the single March one", len(got))
	}
}

func TestFilterRange_EndInclusiveThroughDay(t *testing.T) {
	records := []Record{
		{Date: time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC), Amount: Money{Cents: 1}},
		{Date: time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC), Amount: Money{Cents: 2}},
	}
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	got := FilterRange(records, from, to)
	if len(got) != 1 || got[0].Amount.Cents != 1 {
		t.Errorf("FilterRange = %+v, want only the record on the end date", got)
	}
}

func TestFilterRange_OpenBounds(t *testing.T) {
	records := []Record{rec(1, 1, "a", ""), rec(2, 2, "b", "")}
	if got := FilterRange(records, time.Time{}, time.Time{}); len(got) != 2 {
		t.Errorf("open range kept %d records, want all", len(got))
	}
}

func TestSortByDateDesc(t *testing.T) {
	records := []Record{
		{ID: 1, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	SortByDateDesc(records)
	if records[0].ID != 3 || records[1].ID != 2 || records[2].ID != 1 {
		t.Errorf("order after sort = %d,%d,%d; want 3,2,1", records[0].ID, records[1].ID, records[2].ID)
	}
}
