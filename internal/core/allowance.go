package core

import "time"

// DefaultAccrualWeekday is the canonical accrual day when none is configured.
const DefaultAccrualWeekday = time.Monday

// SameDay reports whether two instants fall on the same calendar day,
// ignoring time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// afterDay reports whether a's calendar day is strictly after b's.
func afterDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}

// DueBoundaries returns the accrual boundaries strictly after paidThrough
// and no later than now, in order. Comparison is at day granularity; the
// returned instants keep paidThrough's time of day so emitted records are
// stamped consistently with the watermark they advance.
//
// A zero paidThrough means the account has never been settled; no
// boundaries are due (the caller absorbs the watermark instead of
// back-paying). A paidThrough that does not fall on the accrual weekday is
// handled by advancing day by day until the weekday is reached, so an
// off-boundary watermark never produces a missed or doubled week.
func DueBoundaries(paidThrough, now time.Time, accrualDay time.Weekday) []time.Time {
	if paidThrough.IsZero() {
		return nil
	}

	// First candidate is the earliest accrual weekday strictly after the
	// watermark's day.
	cursor := paidThrough.AddDate(0, 0, 1)
	for cursor.Weekday() != accrualDay {
		cursor = cursor.AddDate(0, 0, 1)
	}

	var due []time.Time
	for !afterDay(cursor, now) {
		due = append(due, cursor)
		cursor = cursor.AddDate(0, 0, 7)
	}
	return due
}
