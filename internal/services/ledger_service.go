// Package services orchestrates ledger operations across storage and the
// AMQP mirror queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paghetta/internal/core"
	applog "paghetta/internal/log"
)

// LedgerStore is the storage surface the services need. Implemented by
// storage.SQLiteRepository; tests substitute an in-memory fake.
type LedgerStore interface {
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	AppendRecord(ctx context.Context, rec core.Record) (core.Record, error)
	GetRecord(ctx context.Context, id int64) (core.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	HasDuplicate(ctx context.Context, accountID int64, day time.Time, amount core.Money, note string) (bool, error)
	ApplyAccruals(ctx context.Context, accountID int64, accruals []core.Record, paidThrough time.Time) ([]core.Record, error)
	SetPaidThrough(ctx context.Context, accountID int64, t time.Time) error
	UpdateWeeklyRate(ctx context.Context, accountID int64, rate core.Money) error
}

// RecordPublisher pushes record changes onto the mirror queue. A nil
// publisher disables mirroring; every publish failure is logged and
// swallowed because the local write already succeeded.
type RecordPublisher interface {
	PublishRecordSync(ctx context.Context, id int64) error
	PublishRecordDelete(ctx context.Context, rec core.Record) error
}

// LedgerService handles the guarded write paths: manual entry, deletion
// and the weekly-rate update. Every append goes through the duplicate
// guard first.
type LedgerService struct {
	store     LedgerStore
	publisher RecordPublisher
}

func NewLedgerService(store LedgerStore, publisher RecordPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// RecordTransaction appends a signed entry to an account's ledger. A
// blank category falls back to the sentinel one. Returns core.ErrDuplicate
// when the duplicate guard matches an existing same-day record; the entry
// is skipped, never overwritten.
func (s *LedgerService) RecordTransaction(ctx context.Context, accountID int64, date time.Time, amount core.Money, note, category string) (core.Record, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = core.DefaultCategory
	}

	rec := core.Record{
		AccountID: accountID,
		Date:      date,
		Amount:    amount,
		Note:      strings.TrimSpace(note),
		Category:  category,
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("validate transaction: %w", err)
	}

	dup, err := s.store.HasDuplicate(ctx, accountID, rec.Date, rec.Amount, rec.Note)
	if err != nil {
		return core.Record{}, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		fields := applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithRecord(accountID, rec.Amount.Cents, rec.Note, rec.Category)
		slog.InfoContext(ctx, "Skipping duplicate transaction", fields.ToSlice()...)
		return core.Record{}, core.ErrDuplicate
	}

	saved, err := s.store.AppendRecord(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("append record: %w", err)
	}

	s.publishSync(ctx, saved.ID)
	return saved, nil
}

// DeleteRecord removes a ledger entry by id. Returns core.ErrNotFound for
// an unknown id with no partial effect.
func (s *LedgerService) DeleteRecord(ctx context.Context, id int64) error {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("load record %d: %w", id, err)
	}

	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}

	s.publishDelete(ctx, rec)
	return nil
}

// UpdateWeeklyRate changes the per-period accrual amount. Already-emitted
// accruals are never touched; the new rate only applies from the next
// settlement on.
func (s *LedgerService) UpdateWeeklyRate(ctx context.Context, accountID int64, rate core.Money) error {
	if rate.IsNegative() {
		return core.ErrInvalidRate
	}
	if err := s.store.UpdateWeeklyRate(ctx, accountID, rate); err != nil {
		return fmt.Errorf("update weekly rate: %w", err)
	}
	return nil
}

func (s *LedgerService) publishSync(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, id); err != nil {
		// Record is saved locally; the periodic pending sweep catches up.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *LedgerService) publishDelete(ctx context.Context, rec core.Record) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordDelete(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", rec.ID, "error", err)
	}
}

// IsDuplicate reports whether err is the duplicate-guard outcome.
func IsDuplicate(err error) bool {
	return errors.Is(err, core.ErrDuplicate)
}
