package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmoney/internal/amqp"
	"cmoney/internal/core"
	"cmoney/internal/sheets/memory"
)

type fakeStore struct {
	txs       map[int64]core.Transaction
	users     map[int64]core.User
	userCalls int
	txErr     error
}

func (f *fakeStore) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	if f.txErr != nil {
		return core.Transaction{}, f.txErr
	}
	tx, ok := f.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.NotFound("transaction")
	}
	return tx, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (core.User, error) {
	f.userCalls++
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.NotFound("user")
	}
	return u, nil
}

func newFakeStore() *fakeStore {
	date, _ := core.ParseDate("2025-10-01")
	created := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	return &fakeStore{
		txs: map[int64]core.Transaction{
			1: {ID: 1, UserID: 7, Amount: core.NewMoney(1250), Date: date, CategoryName: "Food", CategoryType: core.Expense, Description: "lunch", CreatedAt: created},
			2: {ID: 2, UserID: 7, Amount: core.NewMoney(5000), Date: date, CategoryName: "Salary", CategoryType: core.Income, CreatedAt: created},
		},
		users: map[int64]core.User{7: {ID: 7, Username: "alice"}},
	}
}

func TestHandleBatch_AppendsCreatedTransactions(t *testing.T) {
	store := newFakeStore()
	journal := memory.New()
	w := NewJournalWorker(store, journal)

	err := w.HandleBatch(context.Background(), []*amqp.TransactionEvent{
		amqp.NewTransactionEvent(amqp.ActionCreated, 1, 7),
		amqp.NewTransactionEvent(amqp.ActionUpdated, 1, 7),
		amqp.NewTransactionEvent(amqp.ActionCreated, 2, 7),
		amqp.NewTransactionEvent(amqp.ActionCreated, 1, 7),
		amqp.NewTransactionEvent(amqp.ActionDeleted, 2, 7),
	})
	require.NoError(t, err)

	rows := journal.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].TransactionID)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, "Food", rows[0].Category)
	assert.Equal(t, core.Expense, rows[0].Type)
	assert.Equal(t, int64(1250), rows[0].Amount.Cents)
	assert.Equal(t, int64(2), rows[1].TransactionID)
	assert.Equal(t, 1, store.userCalls, "usernames are looked up once per batch")
}

func TestHandleBatch_SkipsMissingTransactions(t *testing.T) {
	store := newFakeStore()
	journal := memory.New()
	w := NewJournalWorker(store, journal)

	err := w.HandleBatch(context.Background(), []*amqp.TransactionEvent{
		amqp.NewTransactionEvent(amqp.ActionCreated, 99, 7),
		amqp.NewTransactionEvent(amqp.ActionCreated, 1, 8),
	})
	require.NoError(t, err)
	assert.Empty(t, journal.Rows())
}

func TestHandleBatch_FailsWholeBatch(t *testing.T) {
	t.Run("store error", func(t *testing.T) {
		store := newFakeStore()
		store.txErr = errors.New("database is locked")
		journal := memory.New()

		err := NewJournalWorker(store, journal).HandleBatch(context.Background(), []*amqp.TransactionEvent{
			amqp.NewTransactionEvent(amqp.ActionCreated, 1, 7),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
		assert.Empty(t, journal.Rows())
	})

	t.Run("writer error", func(t *testing.T) {
		journal := memory.New()
		journal.FailNext(errors.New("quota exceeded"))

		err := NewJournalWorker(newFakeStore(), journal).HandleBatch(context.Background(), []*amqp.TransactionEvent{
			amqp.NewTransactionEvent(amqp.ActionCreated, 1, 7),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "append journal rows")
	})

	t.Run("missing user", func(t *testing.T) {
		store := newFakeStore()
		delete(store.users, 7)

		err := NewJournalWorker(store, memory.New()).HandleBatch(context.Background(), []*amqp.TransactionEvent{
			amqp.NewTransactionEvent(amqp.ActionCreated, 1, 7),
		})
		require.Error(t, err)
	})
}
