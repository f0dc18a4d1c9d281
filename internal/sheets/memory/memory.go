// Package memory is an in-process stand-in for the spreadsheet mirror,
// used in tests and when no Google credentials are configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"paghetta/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Record
}

func New() *Store {
	return &Store{}
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, rec core.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Delete removes the first stored record matching on day, amount and note.
// Missing rows are not an error, matching the real mirror's retry behavior.
func (s *Store) Delete(_ context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if core.SameDay(item.Date, rec.Date) && item.Amount == rec.Amount && noteMatches(item.Note, rec.Note) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// noteMatches accepts both the plain note and the timestamp-tagged form
// the sync worker writes.
func noteMatches(stored, want string) bool {
	return stored == want || strings.HasPrefix(stored, want+" [ts:")
}

// Records returns a copy of the mirrored rows.
func (s *Store) Records() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items...)
}
