package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paghetta/internal/core"
	applog "paghetta/internal/log"
)

// AllowanceProcessor runs the weekly settlement for a dependent account.
// It is the only component that moves the paid-through watermark.
type AllowanceProcessor struct {
	store      LedgerStore
	publisher  RecordPublisher
	accrualDay time.Weekday
}

func NewAllowanceProcessor(store LedgerStore, publisher RecordPublisher, accrualDay time.Weekday) *AllowanceProcessor {
	return &AllowanceProcessor{
		store:      store,
		publisher:  publisher,
		accrualDay: accrualDay,
	}
}

// Settle brings the account's ledger up to date with every allowance
// boundary that elapsed since the last settlement, one record per missed
// week. Returns the number of records emitted.
//
// An account that has never been settled gets its watermark initialized
// to now and accrues nothing, so a freshly provisioned account never
// receives back-pay. Guardian accounts never accrue.
func (p *AllowanceProcessor) Settle(ctx context.Context, accountID int64, now time.Time) (int, error) {
	acct, err := p.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if acct.Role != core.RoleDependent {
		return 0, nil
	}

	if acct.PaidThrough.IsZero() {
		if err := p.store.SetPaidThrough(ctx, accountID, now); err != nil {
			return 0, fmt.Errorf("initialize watermark: %w", err)
		}
		slog.InfoContext(ctx, "Initialized allowance watermark",
			applog.FieldComponent, applog.ComponentAllowance,
			applog.FieldAccountID, accountID,
			applog.FieldPaidThrough, now)
		return 0, nil
	}

	boundaries := core.DueBoundaries(acct.PaidThrough, now, p.accrualDay)
	if len(boundaries) == 0 {
		return 0, nil
	}
	last := boundaries[len(boundaries)-1]

	// A zero rate still advances the watermark; zero-valued records are
	// never written to the ledger.
	if acct.WeeklyRate.Cents == 0 {
		if err := p.store.SetPaidThrough(ctx, accountID, last); err != nil {
			return 0, fmt.Errorf("advance watermark: %w", err)
		}
		return 0, nil
	}

	accruals := make([]core.Record, 0, len(boundaries))
	for _, b := range boundaries {
		accruals = append(accruals, core.Record{
			AccountID: accountID,
			Date:      b,
			Amount:    acct.WeeklyRate,
			Note:      core.AccrualNote,
			Category:  core.AccrualCategory,
		})
	}

	applied, err := p.store.ApplyAccruals(ctx, accountID, accruals, last)
	if err != nil {
		return 0, fmt.Errorf("apply accruals: %w", err)
	}

	slog.InfoContext(ctx, "Settled allowance",
		applog.FieldComponent, applog.ComponentAllowance,
		applog.FieldAccountID, accountID,
		applog.FieldWeeks, len(applied),
		applog.FieldAmountCents, acct.WeeklyRate.Cents,
		applog.FieldPaidThrough, last)

	if p.publisher != nil {
		for _, rec := range applied {
			if err := p.publisher.PublishRecordSync(ctx, rec.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to publish sync message", "id", rec.ID, "error", err)
			}
		}
	}

	return len(applied), nil
}
