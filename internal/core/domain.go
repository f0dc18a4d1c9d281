package core

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

const (
	RoleGuardian  Role = "guardian"
	RoleDependent Role = "dependent"
)

const (
	// DefaultCategory is the sentinel bucket for records without a category.
	DefaultCategory = "Others"

	// AccrualCategory marks records emitted by allowance settlement.
	AccrualCategory = "allowance accrual"

	// AccrualNote is stamped on every settlement-emitted record.
	AccrualNote = "Weekly allowance"
)

type (
	Role string

	// Account is the aggregate root for a ledger. PaidThrough is the
	// settlement watermark: the last accrual boundary already paid, or the
	// zero time for an account that has never been settled. It is mutated
	// only through settlement and provisioning, never ad hoc.
	Account struct {
		ID           int64
		Username     string
		PasswordHash string
		Role         Role
		WeeklyRate   Money
		PaidThrough  time.Time
	}

	// Record is a single signed entry on an account's ledger. Records are
	// immutable once written; corrections are offsetting records or a
	// delete plus re-entry.
	Record struct {
		ID        int64
		AccountID int64
		Date      time.Time
		Amount    Money
		Note      string
		Category  string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRate   = errors.New("weekly rate must not be negative")
	ErrEmptyNote     = errors.New("empty note")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrDuplicate     = errors.New("duplicate record")
)

func (r Role) Valid() bool {
	return r == RoleGuardian || r == RoleDependent
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Username) == "" {
		return errors.New("empty username")
	}
	if !a.Role.Valid() {
		return errors.New("invalid role: " + string(a.Role))
	}
	if a.WeeklyRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

func (r Record) Validate() error {
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(r.Note) == "" {
		return ErrEmptyNote
	}
	if len(r.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

// NormalizeCategory trims the label and title-cases each word; empty or
// blank labels map to the sentinel DefaultCategory. Bucketing in reports
// always goes through this, so "  groceries " and "Groceries" land in the
// same bucket.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory
	}
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
