// Package services holds the business operations behind the HTTP API and
// the admin CLI. Every operation takes the acting user's id explicitly.
package services

import (
	"context"
	"time"

	"cmoney/internal/amqp"
	applog "cmoney/internal/log"
	"cmoney/internal/storage"
)

// EventPublisher is the outbound side of the transaction event stream.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

// Services bundles every service over one repository.
type Services struct {
	Categories    *CategoryService
	Transactions  *TransactionService
	Budgets       *BudgetService
	Reports       *ReportService
	Organizations *OrganizationService
	Claims        *ClaimService
}

// New wires all services. publisher may be nil.
func New(repo *storage.Repository, publisher EventPublisher, clock Clock) *Services {
	if clock == nil {
		clock = time.Now
	}
	return &Services{
		Categories:    NewCategoryService(repo),
		Transactions:  NewTransactionService(repo, publisher),
		Budgets:       NewBudgetService(repo, clock),
		Reports:       NewReportService(repo, clock),
		Organizations: NewOrganizationService(repo),
		Claims:        NewClaimService(repo, publisher, clock),
	}
}

// publishEvent sends ev without failing the caller; the database write has
// already succeeded.
func publishEvent(ctx context.Context, p EventPublisher, ev *amqp.TransactionEvent) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentEvents)
	fields := applog.NewFields().
		WithTransaction(ev.TransactionID, 0, 0).
		WithUser(ev.UserID).
		WithOperation(applog.OpPublish).
		With("action", ev.Action)
	if p == nil {
		logger.DebugContext(ctx, "No event publisher configured, skipping transaction event", fields.ToSlice()...)
		return
	}
	if err := p.PublishTransactionEvent(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction event", fields.WithError(err).ToSlice()...)
	}
}
