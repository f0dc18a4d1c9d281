package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"paghetta/internal/core"
)

// ImportSummary reports the outcome of a CSV import row by row.
type ImportSummary struct {
	Imported          int `json:"imported"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	Failed            int `json:"failed"`
}

// dateLayouts accepted for the date column, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	time.RFC3339,
}

// ImportCSV reads transactions from r and appends them through the same
// guarded path as manual entry. The header row must name date, amount and
// note columns; category is optional. Bad rows are counted and skipped,
// never aborting the rest of the file.
func (s *LedgerService) ImportCSV(ctx context.Context, accountID int64, r io.Reader) (ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "amount", "note"} {
		if _, ok := cols[required]; !ok {
			return ImportSummary{}, fmt.Errorf("csv header missing %q column", required)
		}
	}
	catIdx, hasCategory := cols["category"]

	var summary ImportSummary
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.Failed++
			slog.WarnContext(ctx, "Skipping malformed csv row", "line", line, "error", err)
			continue
		}

		date, err := parseImportDate(field(row, cols["date"]))
		if err != nil {
			summary.Failed++
			slog.WarnContext(ctx, "Skipping csv row with bad date", "line", line, "error", err)
			continue
		}
		cents, err := core.ParseDecimalToCents(field(row, cols["amount"]))
		if err != nil {
			summary.Failed++
			slog.WarnContext(ctx, "Skipping csv row with bad amount", "line", line, "error", err)
			continue
		}

		category := ""
		if hasCategory {
			category = field(row, catIdx)
		}

		_, err = s.RecordTransaction(ctx, accountID, date, core.Money{Cents: cents}, field(row, cols["note"]), category)
		switch {
		case err == nil:
			summary.Imported++
		case errors.Is(err, core.ErrDuplicate):
			summary.SkippedDuplicates++
		default:
			summary.Failed++
			slog.WarnContext(ctx, "Failed to import csv row", "line", line, "error", err)
		}
	}

	slog.InfoContext(ctx, "Finished csv import",
		"account_id", accountID,
		"imported", summary.Imported,
		"skipped_duplicates", summary.SkippedDuplicates,
		"failed", summary.Failed)
	return summary, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseImportDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
