package core

import "github.com/shopspring/decimal"

// BudgetUsage holds the values derived from a budget and the expenses that
// fall inside it. Nothing here is persisted.
type BudgetUsage struct {
	SpentAmount     Money   `json:"spent_amount"`
	RemainingAmount Money   `json:"remaining_amount"`
	UsagePercentage Percent `json:"usage_percentage"`
	IsExceeded      bool    `json:"is_exceeded"`
	IsAlert         bool    `json:"is_alert"`
}

// BudgetStatus is a budget together with its derived usage.
type BudgetStatus struct {
	Budget
	BudgetUsage
}

// ComputeUsage derives usage metrics for a budget given the expense total of
// its month (and category, when set).
func ComputeUsage(amount, spent Money, alertThreshold int) BudgetUsage {
	u := BudgetUsage{
		SpentAmount:     spent,
		RemainingAmount: amount.Sub(spent),
		UsagePercentage: Percentage(spent, amount),
		IsExceeded:      spent.Cents > amount.Cents,
	}
	u.IsAlert = u.UsagePercentage.GreaterThanOrEqual(decimal.NewFromInt(int64(alertThreshold)))
	return u
}

// NewBudgetStatus pairs b with the usage derived from spent.
func NewBudgetStatus(b Budget, spent Money) BudgetStatus {
	return BudgetStatus{Budget: b, BudgetUsage: ComputeUsage(b.Amount, spent, b.AlertThreshold)}
}

// NeedsAttention reports whether the budget is alerting or exceeded.
func (s BudgetStatus) NeedsAttention() bool {
	return s.IsAlert || s.IsExceeded
}

// FilterAlerts keeps the budgets that are alerting or exceeded.
func FilterAlerts(in []BudgetStatus) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(in))
	for _, s := range in {
		if s.NeedsAttention() {
			out = append(out, s)
		}
	}
	return out
}
