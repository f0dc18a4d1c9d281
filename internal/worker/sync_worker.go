// Package worker mirrors ledger records from SQLite into the family
// spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paghetta/internal/amqp"
	"paghetta/internal/core"
	"paghetta/internal/sheets"
)

// SyncStore is the slice of storage the worker needs.
type SyncStore interface {
	GetRecord(ctx context.Context, id int64) (core.Record, error)
	ListPendingSyncRecords(ctx context.Context, limit int) ([]core.Record, error)
	MarkRecordSynced(ctx context.Context, id int64) error
	MarkRecordSyncError(ctx context.Context, id int64) error
}

// SyncWorker applies queue messages and sweeps unsynced rows as a backup
// in case messages are lost.
type SyncWorker struct {
	store     SyncStore
	writer    sheets.RecordWriter
	deleter   sheets.RecordDeleter
	batchSize int
}

func NewSyncWorker(store SyncStore, writer sheets.RecordWriter, deleter sheets.RecordDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage mirrors one record by id. A record deleted between
// publish and consume is skipped, not retried.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	rec, err := w.store.GetRecord(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Record gone before sync, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get record from storage: %w", err)
	}

	return w.mirrorRecord(ctx, rec)
}

// HandleDeleteMessage drops the mirrored spreadsheet row. The record is
// already gone locally, so the row is rebuilt from the message payload.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.RecordDeleteMessage) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No deleter configured, skipping spreadsheet deletion", "id", msg.ID)
		return nil
	}

	rec := core.Record{
		ID:       msg.ID,
		Date:     msg.Date,
		Amount:   core.Money{Cents: msg.AmountCent},
		Note:     msg.Note,
		Category: msg.Category,
	}

	if err := w.deleter.Delete(ctx, rec); err != nil {
		return fmt.Errorf("delete spreadsheet row: %w", err)
	}

	slog.InfoContext(ctx, "Deleted mirrored record", "id", msg.ID)
	return nil
}

// ProcessPendingRecords mirrors rows still marked pending. This is the
// backup path for lost queue messages.
func (w *SyncWorker) ProcessPendingRecords(ctx context.Context) error {
	return w.sweepPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger pending sweep once at worker start to
// recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.sweepPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) sweepPending(ctx context.Context, limit int) error {
	pending, err := w.store.ListPendingSyncRecords(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending records: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	synced := 0
	failed := 0
	for _, rec := range pending {
		if err := w.mirrorRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to sync record", "id", rec.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sweep completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) mirrorRecord(ctx context.Context, rec core.Record) error {
	// Tag the note so identical rows stay distinguishable in the sheet,
	// allowance accruals in consecutive weeks would otherwise collide.
	tagged := rec
	tagged.Note = fmt.Sprintf("%s [ts:%d]", rec.Note, time.Now().UnixMilli())

	ref, err := w.writer.Append(ctx, tagged)
	if err != nil {
		if markErr := w.store.MarkRecordSyncError(ctx, rec.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", rec.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkRecordSynced(ctx, rec.ID); err != nil {
		// The mirror write itself worked; keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", rec.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced record",
		"id", rec.ID,
		"sheets_ref", ref,
		"amount_cents", rec.Amount.Cents)
	return nil
}
