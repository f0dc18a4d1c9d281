package core

import (
	"sort"
	"time"
)

// CategoryAmount is an amount aggregated under a normalized category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Breakdown splits an account's records into earnings and spending buckets
// per normalized category. Spent amounts are absolute values.
type Breakdown struct {
	Earned   Money
	Spent    Money
	Earnings []CategoryAmount
	Spending []CategoryAmount
}

// Balance derives the account balance as the sum of all signed amounts.
// There is no stored running total anywhere, so the balance can never
// drift from the record set.
func Balance(records []Record) Money {
	var total Money
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Summarize buckets records into earnings (amount >= 0) and spending
// (amount < 0) per category. Category labels are normalized before
// bucketing; buckets come back sorted by name for stable output.
func Summarize(records []Record) Breakdown {
	earnings := map[string]int64{}
	spending := map[string]int64{}
	var b Breakdown

	for _, r := range records {
		cat := NormalizeCategory(r.Category)
		if r.Amount.IsNegative() {
			abs := r.Amount.Abs()
			b.Spent = b.Spent.Add(abs)
			spending[cat] += abs.Cents
		} else {
			b.Earned = b.Earned.Add(r.Amount)
			earnings[cat] += r.Amount.Cents
		}
	}

	b.Earnings = sortedBuckets(earnings)
	b.Spending = sortedBuckets(spending)
	return b
}

func sortedBuckets(m map[string]int64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for name, cents := range m {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AvailableMonths lists the distinct YYYY-MM months containing at least one
// record, most recent first.
func AvailableMonths(records []Record) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		seen[r.Date.Format("2006-01")] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// FilterMonth keeps records falling in the given calendar month.
func FilterMonth(records []Record, year int, month time.Month) []Record {
	var out []Record
	for _, r := range records {
		if r.Date.Year() == year && r.Date.Month() == month {
			out = append(out, r)
		}
	}
	return out
}

// FilterRange keeps records between from and to. A zero bound is open; a
// non-zero to is inclusive through the end of its calendar day, so a
// record timestamped anytime on the end date is captured.
func FilterRange(records []Record, from, to time.Time) []Record {
	var out []Record
	for _, r := range records {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && afterDay(r.Date, to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortByDateDesc orders records newest first, in place. Ties break on ID so
// same-instant records keep a stable order.
func SortByDateDesc(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
}
