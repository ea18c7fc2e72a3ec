package services

import (
	"context"
	"fmt"

	"cmoney/internal/amqp"
	"cmoney/internal/core"
	"cmoney/internal/middleware/trace"
	"cmoney/internal/storage"
)

// TransactionService records transactions and announces every change on the
// event stream.
type TransactionService struct {
	repo      *storage.Repository
	publisher EventPublisher
}

func NewTransactionService(repo *storage.Repository, publisher EventPublisher) *TransactionService {
	return &TransactionService{repo: repo, publisher: publisher}
}

func (s *TransactionService) List(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Type != "" && !f.Type.IsValid() {
		return nil, core.InvalidField("type", core.ErrInvalidCategoryType)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(f.EndDate.Time) {
		return nil, core.Validation("start_date", "start_date must not be after end_date")
	}
	return s.repo.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) Create(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	t.OrganizationID = nil
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, userID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, created)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if u.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *u.CategoryID); err != nil {
			return core.Transaction{}, err
		}
		t.CategoryID = *u.CategoryID
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.repo.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.ActionUpdated, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.ActionDeleted, core.Transaction{ID: id, UserID: userID})
	return nil
}

func (s *TransactionService) checkCategory(ctx context.Context, userID, categoryID int64) error {
	if _, err := s.repo.GetCategory(ctx, userID, categoryID); err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.Validation("category_id", "category does not exist")
		}
		return err
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, action amqp.EventAction, t core.Transaction) {
	ev := amqp.NewTransactionEvent(action, t.ID, t.UserID)
	ev.RequestID = trace.GetRequestID(ctx)
	publishEvent(ctx, s.publisher, ev)
}
