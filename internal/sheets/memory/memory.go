// Package memory is an in-process journal used when no spreadsheet is
// configured, and by tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"cmoney/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.JournalRow
	// fail, when set, is returned by the next AppendRows call.
	fail error
}

// Ensure interface conformance
var _ sheets.JournalWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendRows stores the rows and returns a synthetic reference to the last
// one. A failure set with FailNext is returned instead, once.
func (s *Store) AppendRows(_ context.Context, rows []sheets.JournalRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail; err != nil {
		s.fail = nil
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	s.rows = append(s.rows, rows...)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// FailNext makes the next AppendRows return err without storing anything.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.JournalRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.JournalRow(nil), s.rows...)
}
