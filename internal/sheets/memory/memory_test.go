package memory

import (
	"context"
	"errors"
	"testing"

	"cmoney/internal/core"
	"cmoney/internal/sheets"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendRows(ctx, []sheets.JournalRow{
		{TransactionID: 1, Amount: core.NewMoney(123)},
		{TransactionID: 2, Amount: core.NewMoney(45)},
	})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ref, err = s.AppendRows(ctx, nil)
	if err != nil || ref != "" {
		t.Fatalf("empty append: ref=%q err=%v", ref, err)
	}

	if got := s.Rows(); len(got) != 2 || got[1].TransactionID != 2 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestMemoryStoreFailNext(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	s.FailNext(boom)

	if _, err := s.AppendRows(ctx, []sheets.JournalRow{{TransactionID: 1}}); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if len(s.Rows()) != 0 {
		t.Fatalf("failed append must not store rows")
	}

	ref, err := s.AppendRows(ctx, []sheets.JournalRow{{TransactionID: 1}})
	if err != nil || ref != "mem:1" {
		t.Fatalf("failure should clear after one call: ref=%q err=%v", ref, err)
	}
}
