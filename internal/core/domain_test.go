package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseYearMonth(t *testing.T) {
	ym, err := ParseYearMonth("2025-09")
	require.NoError(t, err)
	assert.Equal(t, 2025, ym.Year)
	assert.Equal(t, time.September, ym.Month)
	assert.Equal(t, "2025-09", ym.String())

	for _, bad := range []string{"2025-9", "2025-13", "2025-00", "25-09", "2025/09", "2025-09-01", ""} {
		_, err := ParseYearMonth(bad)
		assert.ErrorIs(t, err, ErrInvalidYearMonth, bad)
	}
}

func TestYearMonthCalendar(t *testing.T) {
	cases := []struct {
		in   string
		next string
		days int
	}{
		{"2025-01", "2025-02", 31},
		{"2025-02", "2025-03", 28},
		{"2024-02", "2024-03", 29},
		{"2025-04", "2025-05", 30},
		{"2025-12", "2026-01", 31},
	}
	for _, tc := range cases {
		ym, err := ParseYearMonth(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.next, ym.Next().String(), tc.in)
		assert.Equal(t, tc.days, ym.DaysInMonth(), tc.in)
	}

	ym, _ := ParseYearMonth("2024-02")
	assert.Equal(t, "2024-02-01", ym.FirstDay().String())
	assert.Equal(t, "2024-02-29", ym.LastDay().String())
}

func TestDateDaysUntil(t *testing.T) {
	end := NewDate(2025, 10, 31)
	assert.Equal(t, 31, end.AddDays(-30).DaysUntil(end))
	assert.Equal(t, 1, end.DaysUntil(end))
	assert.Equal(t, 366, NewDate(2024, 1, 1).DaysUntil(NewDate(2024, 12, 31)))
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{YearMonth: "2025-09", Amount: Money{Cents: 12000}, AlertThreshold: 80}
	require.NoError(t, good.Validate())

	bads := map[string]Budget{
		"amount":          {YearMonth: "2025-09", Amount: Money{}, AlertThreshold: 80},
		"year_month":      {YearMonth: "2025-9", Amount: Money{Cents: 1}, AlertThreshold: 80},
		"alert_threshold": {YearMonth: "2025-09", Amount: Money{Cents: 1}, AlertThreshold: 0},
	}
	for field, b := range bads {
		err := b.Validate()
		require.Error(t, err, field)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Contains(t, FieldsOf(err), field)
	}
}

func TestCategoryValidate(t *testing.T) {
	assert.NoError(t, Category{Name: "Food", Type: Expense}.Validate())
	assert.Error(t, Category{Name: " ", Type: Expense}.Validate())
	assert.Error(t, Category{Name: "Food", Type: "transfer"}.Validate())

	// limits count characters, not bytes
	assert.NoError(t, Category{Name: strings.Repeat("餐", 20), Type: Expense}.Validate())
	assert.NoError(t, Category{Name: strings.Repeat("é", 50), Type: Expense}.Validate())
	err := Category{Name: strings.Repeat("餐", 51), Type: Expense}.Validate()
	assert.ErrorIs(t, err, ErrNameTooLong)
	assert.Equal(t, map[string]string{"name": ErrNameTooLong.Error()}, FieldsOf(err))
}

func TestTextLimitsCountRunes(t *testing.T) {
	tx := Transaction{CategoryID: 1, Amount: Money{Cents: 100}, Date: Date{Time: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}}
	tx.Description = strings.Repeat("ü", 200)
	assert.NoError(t, tx.Validate())
	tx.Description = strings.Repeat("ü", 201)
	assert.ErrorIs(t, tx.Validate(), ErrDescriptionTooLong)

	org := Organization{Name: strings.Repeat("協", 100), Type: OrgClub}
	assert.NoError(t, org.Validate())
	org.Name = strings.Repeat("協", 101)
	assert.Error(t, org.Validate())
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("budget")))
	assert.Equal(t, KindConflict, KindOf(Conflict("exists")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("nope")))
	assert.Equal(t, KindValidation, KindOf(ErrInvalidAmount))
	assert.Equal(t, KindNotFound, KindOf(errors.Join(errors.New("get budget"), ErrNotFound)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, errors.Is(NotFound("claim"), ErrNotFound))
}

func TestInvalidFieldMessage(t *testing.T) {
	err := InvalidField("amount", ErrInvalidAmount)
	assert.Equal(t, ErrInvalidAmount.Error(), err.Error())
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, map[string]string{"amount": ErrInvalidAmount.Error()}, FieldsOf(err))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRoleCanReview(t *testing.T) {
	assert.True(t, RoleAdmin.CanReview())
	assert.True(t, RoleTreasurer.CanReview())
	assert.False(t, RoleMember.CanReview())
}
