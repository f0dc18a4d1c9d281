package http

import (
	"context"
	"io"
	"time"

	"paghetta/internal/core"
	"paghetta/internal/services"
)

// Ports for the services the server drives. Implemented by the services
// and storage packages; tests substitute fakes.
type (
	Ledger interface {
		RecordTransaction(ctx context.Context, accountID int64, date time.Time, amount core.Money, note, category string) (core.Record, error)
		DeleteRecord(ctx context.Context, id int64) error
		UpdateWeeklyRate(ctx context.Context, accountID int64, rate core.Money) error
		ImportCSV(ctx context.Context, accountID int64, r io.Reader) (services.ImportSummary, error)
	}

	Settler interface {
		Settle(ctx context.Context, accountID int64, now time.Time) (int, error)
	}

	ReadStore interface {
		GetAccountByUsername(ctx context.Context, username string) (core.Account, error)
		GetDependentAccount(ctx context.Context) (core.Account, error)
		ListRecords(ctx context.Context, accountID int64) ([]core.Record, error)
		ListRecordsBetween(ctx context.Context, accountID int64, from, to time.Time) ([]core.Record, error)
	}
)
