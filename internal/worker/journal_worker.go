package worker

import (
	"context"
	"fmt"

	"cmoney/internal/amqp"
	"cmoney/internal/core"
	applog "cmoney/internal/log"
	"cmoney/internal/sheets"
)

// Store is the read side the worker needs from the repository.
type Store interface {
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
}

// JournalWorker mirrors newly created transactions into the spreadsheet
// journal.
type JournalWorker struct {
	store  Store
	writer sheets.JournalWriter
}

func NewJournalWorker(store Store, writer sheets.JournalWriter) *JournalWorker {
	return &JournalWorker{store: store, writer: writer}
}

// HandleBatch appends one row per created transaction in events. Other
// actions are ignored, as are transactions deleted before the batch ran.
// Any other error fails the whole batch so it can be redelivered.
func (w *JournalWorker) HandleBatch(ctx context.Context, events []*amqp.TransactionEvent) error {
	seen := make(map[int64]bool, len(events))
	usernames := make(map[int64]string)
	rows := make([]sheets.JournalRow, 0, len(events))

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentWorker)
	for _, ev := range events {
		if ev == nil || ev.Action != amqp.ActionCreated || seen[ev.TransactionID] {
			continue
		}
		seen[ev.TransactionID] = true

		tx, err := w.store.GetTransaction(ctx, ev.UserID, ev.TransactionID)
		if core.KindOf(err) == core.KindNotFound {
			logger.WarnContext(ctx, "Transaction gone before journaling, skipping",
				applog.FieldTransactionID, ev.TransactionID,
				applog.FieldUserID, ev.UserID)
			continue
		}
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", ev.TransactionID, err)
		}

		name, ok := usernames[tx.UserID]
		if !ok {
			u, err := w.store.GetUser(ctx, tx.UserID)
			if err != nil {
				return fmt.Errorf("load user %d: %w", tx.UserID, err)
			}
			name = u.Username
			usernames[tx.UserID] = name
		}
		rows = append(rows, sheets.JournalRowFrom(tx, name))
	}

	if len(rows) == 0 {
		return nil
	}

	ref, err := w.writer.AppendRows(ctx, rows)
	if err != nil {
		return fmt.Errorf("append journal rows: %w", err)
	}

	logger.InfoContext(ctx, "Journaled transactions",
		applog.FieldOperation, applog.OpAppend,
		"events", len(events),
		"rows", len(rows),
		"sheets_ref", ref)
	return nil
}
