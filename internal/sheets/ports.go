// Package sheets defines the outbound port for mirroring the transaction
// journal into a spreadsheet.
package sheets

import (
	"context"
	"strconv"
	"time"

	"cmoney/internal/core"
)

// JournalRow is one transaction as written to the spreadsheet.
type JournalRow struct {
	TransactionID  int64
	Username       string
	Date           core.Date
	Type           core.CategoryType
	Category       string
	Amount         core.Money
	Description    string
	OrganizationID *int64
	RecordedAt     time.Time
}

// Header names the columns of Values, in order.
var Header = []any{"Recorded at", "Date", "Type", "Category", "Amount", "Description", "User", "Organization", "Transaction"}

// Values renders the row in Header order.
func (r JournalRow) Values() []any {
	org := ""
	if r.OrganizationID != nil {
		org = strconv.FormatInt(*r.OrganizationID, 10)
	}
	return []any{
		r.RecordedAt.UTC().Format(time.RFC3339),
		r.Date.String(),
		string(r.Type),
		r.Category,
		r.Amount.String(),
		r.Description,
		r.Username,
		org,
		r.TransactionID,
	}
}

// JournalRowFrom builds the row for a stored transaction.
func JournalRowFrom(t core.Transaction, username string) JournalRow {
	return JournalRow{
		TransactionID:  t.ID,
		Username:       username,
		Date:           t.Date,
		Type:           t.CategoryType,
		Category:       t.CategoryName,
		Amount:         t.Amount,
		Description:    t.Description,
		OrganizationID: t.OrganizationID,
		RecordedAt:     t.CreatedAt,
	}
}

// JournalWriter appends rows in order and reports where they landed.
type JournalWriter interface {
	AppendRows(ctx context.Context, rows []JournalRow) (ref string, err error)
}
