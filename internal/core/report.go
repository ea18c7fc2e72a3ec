package core

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryTotal is one row of a grouped sum over transactions.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Type       CategoryType
	Color      string
	Icon       string
	Total      Money
	Count      int64
}

// MonthTypeTotal is one row of a (month, category type) grouped sum.
type MonthTypeTotal struct {
	Month string
	Type  CategoryType
	Total Money
	Count int64
}

// TypeTotal is the sum and count of one category type over a period.
type TypeTotal struct {
	Total Money `json:"total"`
	Count int64 `json:"count"`
}

type CategoryShare struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Icon       string  `json:"icon"`
	Amount     Money   `json:"amount"`
	Count      int64   `json:"count"`
	Percentage Percent `json:"percentage"`
}

type CategoryDetail struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Icon       string `json:"icon"`
	Total      Money  `json:"total"`
	Count      int64  `json:"count"`
	Average    Money  `json:"average"`
}

type MonthBalance struct {
	Month   string `json:"month"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
	Balance Money  `json:"balance"`
}

type TrendPoint struct {
	Month          string `json:"month"`
	Income         Money  `json:"income"`
	Expense        Money  `json:"expense"`
	Balance        Money  `json:"balance"`
	IncomeCount    int64  `json:"income_count"`
	ExpenseCount   int64  `json:"expense_count"`
	IncomeAverage  Money  `json:"income_average"`
	ExpenseAverage Money  `json:"expense_average"`
}

// MaxExpense describes the largest single expense of a range. Date is nil
// when the range holds no expenses.
type MaxExpense struct {
	Amount      Money  `json:"amount"`
	Category    string `json:"category"`
	Date        *Date  `json:"date"`
	Description string `json:"description"`
}

type Summary struct {
	YearMonth            string          `json:"year_month"`
	Income               TypeTotal       `json:"income"`
	Expense              TypeTotal       `json:"expense"`
	Balance              Money           `json:"balance"`
	Budget               *BudgetStatus   `json:"budget"`
	CategoryDistribution []CategoryShare `json:"category_distribution"`
}

type MonthlyReport struct {
	YearMonth           string           `json:"year_month"`
	TotalIncome         Money            `json:"total_income"`
	TotalExpense        Money            `json:"total_expense"`
	Balance             Money            `json:"balance"`
	IncomeDetail        []CategoryDetail `json:"income_detail"`
	ExpenseDetail       []CategoryDetail `json:"expense_detail"`
	DailyAverageExpense Money            `json:"daily_average_expense"`
	DaysInMonth         int              `json:"days_in_month"`
	BudgetUsage         []BudgetStatus   `json:"budget_usage"`
}

type CategorySummary struct {
	Income  []CategoryDetail `json:"income"`
	Expense []CategoryDetail `json:"expense"`
}

type YearlyReport struct {
	Year            int             `json:"year"`
	TotalIncome     Money           `json:"total_income"`
	TotalExpense    Money           `json:"total_expense"`
	Balance         Money           `json:"balance"`
	MonthlyTrend    []MonthBalance  `json:"monthly_trend"`
	CategorySummary CategorySummary `json:"category_summary"`
}

type ExpenseAnalysis struct {
	StartDate     Date            `json:"start_date"`
	EndDate       Date            `json:"end_date"`
	DaysCount     int             `json:"days_count"`
	TotalExpense  Money           `json:"total_expense"`
	DailyAverage  Money           `json:"daily_average"`
	MaxExpense    MaxExpense      `json:"max_expense"`
	TopCategories []CategoryShare `json:"top_categories"`
	AllCategories []CategoryShare `json:"all_categories"`
}

type TrendReport struct {
	Months    int          `json:"months"`
	StartDate Date         `json:"start_date"`
	EndDate   Date         `json:"end_date"`
	Series    []TrendPoint `json:"series"`
}

// SplitByType separates grouped rows into income and expense.
func SplitByType(rows []CategoryTotal) (income, expense []CategoryTotal) {
	for _, r := range rows {
		switch r.Type {
		case Income:
			income = append(income, r)
		case Expense:
			expense = append(expense, r)
		}
	}
	return income, expense
}

// SumTotals adds up totals and counts.
func SumTotals(rows []CategoryTotal) TypeTotal {
	var t TypeTotal
	for _, r := range rows {
		t.Total = t.Total.Add(r.Total)
		t.Count += r.Count
	}
	return t
}

// Distribution converts rows into shares of total, largest first.
// When the rows add up to total the shares are allocated by largest
// remainder and sum to exactly 100.00; otherwise each share is floored to
// the hundredth of a percent so the sum never exceeds 100.
func Distribution(rows []CategoryTotal, total Money) []CategoryShare {
	out := make([]CategoryShare, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryShare{
			CategoryID: r.CategoryID,
			Name:       r.Name,
			Color:      r.Color,
			Icon:       r.Icon,
			Amount:     r.Total,
			Count:      r.Count,
			Percentage: Percent{Decimal: decimal.Zero},
		})
	}
	allocateShares(out, total)
	slices.SortStableFunc(out, func(a, b CategoryShare) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryID, b.CategoryID)
	})
	return out
}

// fullShare is 100% expressed in hundredths of a percent.
const fullShare = 10000

func allocateShares(out []CategoryShare, total Money) {
	if total.Cents <= 0 {
		return
	}
	whole := decimal.NewFromInt(total.Cents)
	type remainder struct {
		idx  int
		frac decimal.Decimal
	}
	rems := make([]remainder, 0, len(out))
	units := make([]int64, len(out))
	var allocated, sum int64
	exact := true
	for i, s := range out {
		if s.Amount.Cents < 0 {
			exact = false
			continue
		}
		q, r := decimal.NewFromInt(s.Amount.Cents).Mul(decimal.NewFromInt(fullShare)).QuoRem(whole, 0)
		units[i] = q.IntPart()
		allocated += units[i]
		sum += s.Amount.Cents
		rems = append(rems, remainder{idx: i, frac: r})
	}
	if exact && sum == total.Cents {
		slices.SortStableFunc(rems, func(a, b remainder) int {
			if c := b.frac.Cmp(a.frac); c != 0 {
				return c
			}
			return cmp.Compare(out[b.idx].Amount.Cents, out[a.idx].Amount.Cents)
		})
		for k := 0; allocated < fullShare && k < len(rems); k++ {
			units[rems[k].idx]++
			allocated++
		}
	}
	for i := range out {
		out[i].Percentage = Percent{Decimal: decimal.New(units[i], -2)}
	}
}

// Details converts rows into per-category sum/count/average, largest first.
func Details(rows []CategoryTotal) []CategoryDetail {
	out := make([]CategoryDetail, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryDetail{
			CategoryID: r.CategoryID,
			Name:       r.Name,
			Color:      r.Color,
			Icon:       r.Icon,
			Total:      r.Total,
			Count:      r.Count,
			Average:    r.Total.DivRound(r.Count),
		})
	}
	slices.SortStableFunc(out, func(a, b CategoryDetail) int {
		if c := cmp.Compare(b.Total.Cents, a.Total.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryID, b.CategoryID)
	})
	return out
}

// MonthlyBalances folds (month, type) rows into one balance per month in
// chronological order. Months without rows are not produced.
func MonthlyBalances(rows []MonthTypeTotal) []MonthBalance {
	points := TrendSeries(rows)
	out := make([]MonthBalance, len(points))
	for i, p := range points {
		out[i] = MonthBalance{Month: p.Month, Income: p.Income, Expense: p.Expense, Balance: p.Balance}
	}
	return out
}

// TrendSeries folds (month, type) rows into trend points in chronological
// order.
func TrendSeries(rows []MonthTypeTotal) []TrendPoint {
	byMonth := make(map[string]*TrendPoint)
	var months []string
	for _, r := range rows {
		p, ok := byMonth[r.Month]
		if !ok {
			p = &TrendPoint{Month: r.Month}
			byMonth[r.Month] = p
			months = append(months, r.Month)
		}
		switch r.Type {
		case Income:
			p.Income = p.Income.Add(r.Total)
			p.IncomeCount += r.Count
		case Expense:
			p.Expense = p.Expense.Add(r.Total)
			p.ExpenseCount += r.Count
		}
	}
	slices.Sort(months)

	out := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		p := byMonth[m]
		p.Balance = p.Income.Sub(p.Expense)
		p.IncomeAverage = p.Income.DivRound(p.IncomeCount)
		p.ExpenseAverage = p.Expense.DivRound(p.ExpenseCount)
		out = append(out, *p)
	}
	return out
}
