// Package sheets defines the ports for the family spreadsheet mirror.
package sheets

import (
	"context"

	"paghetta/internal/core"
)

// Ports for outbound adapters.
type (
	RecordWriter interface {
		Append(ctx context.Context, rec core.Record) (rowRef string, err error)
	}

	// RecordDeleter removes the mirrored row matching a record that no
	// longer exists locally.
	RecordDeleter interface {
		Delete(ctx context.Context, rec core.Record) error
	}
)
