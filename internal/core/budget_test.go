package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeUsage(t *testing.T) {
	t.Run("exceeded food budget", func(t *testing.T) {
		// expenses of 100 and 50 against a budget of 120
		u := ComputeUsage(Money{Cents: 12000}, Money{Cents: 15000}, 80)
		assert.Equal(t, int64(15000), u.SpentAmount.Cents)
		assert.Equal(t, int64(-3000), u.RemainingAmount.Cents)
		assert.Equal(t, "125.00", u.UsagePercentage.String())
		assert.True(t, u.IsExceeded)
		assert.True(t, u.IsAlert)
	})

	t.Run("zero amount", func(t *testing.T) {
		u := ComputeUsage(Money{}, Money{Cents: 500}, 80)
		assert.Equal(t, "0.00", u.UsagePercentage.String())
		assert.Equal(t, int64(-500), u.RemainingAmount.Cents)
		assert.True(t, u.IsExceeded)
		assert.False(t, u.IsAlert)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		u := ComputeUsage(Money{Cents: 10000}, Money{Cents: 8000}, 80)
		assert.True(t, u.IsAlert)
		assert.False(t, u.IsExceeded)

		u = ComputeUsage(Money{Cents: 10000}, Money{Cents: 7999}, 80)
		assert.Equal(t, "79.99", u.UsagePercentage.String())
		assert.False(t, u.IsAlert)
	})

	t.Run("spent equal to amount is not exceeded", func(t *testing.T) {
		u := ComputeUsage(Money{Cents: 10000}, Money{Cents: 10000}, 100)
		assert.False(t, u.IsExceeded)
		assert.True(t, u.IsAlert)
	})

	t.Run("nothing spent", func(t *testing.T) {
		u := ComputeUsage(Money{Cents: 10000}, Money{}, 80)
		assert.Equal(t, int64(10000), u.RemainingAmount.Cents)
		assert.Equal(t, "0.00", u.UsagePercentage.String())
		assert.False(t, u.IsAlert)
	})
}

func TestRemainingIsExact(t *testing.T) {
	for _, tc := range []struct{ amount, spent int64 }{
		{1, 0}, {100, 333}, {999999, 1}, {12345, 12345},
	} {
		u := ComputeUsage(Money{Cents: tc.amount}, Money{Cents: tc.spent}, 80)
		assert.Equal(t, tc.amount-tc.spent, u.RemainingAmount.Cents)
	}
}

func TestFilterAlerts(t *testing.T) {
	in := []BudgetStatus{
		NewBudgetStatus(Budget{ID: 1, Amount: Money{Cents: 100}, AlertThreshold: 80}, Money{Cents: 10}),
		NewBudgetStatus(Budget{ID: 2, Amount: Money{Cents: 100}, AlertThreshold: 80}, Money{Cents: 85}),
		NewBudgetStatus(Budget{ID: 3, Amount: Money{Cents: 100}, AlertThreshold: 100}, Money{Cents: 101}),
	}
	out := FilterAlerts(in)
	if assert.Len(t, out, 2) {
		assert.Equal(t, int64(2), out[0].ID)
		assert.Equal(t, int64(3), out[1].ID)
	}
}
