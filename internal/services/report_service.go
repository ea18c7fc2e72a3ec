package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cmoney/internal/core"
	"cmoney/internal/storage"
)

const (
	defaultTrendMonths  = 12
	maxTrendMonths      = 60
	defaultAnalysisDays = 30
	topCategoryCount    = 5
)

// ReportService builds read-only aggregate views. Nothing is cached; each
// call recomputes from transaction rows. Independent queries of one report
// run concurrently.
type ReportService struct {
	repo  *storage.Repository
	clock Clock
}

func NewReportService(repo *storage.Repository, clock Clock) *ReportService {
	return &ReportService{repo: repo, clock: clock}
}

func (s *ReportService) today() core.Date {
	return core.DateOf(s.clock())
}

// resolveMonth parses month, defaulting to the current month when empty.
func (s *ReportService) resolveMonth(month string) (core.YearMonth, error) {
	if month == "" {
		return core.CurrentYearMonth(s.clock()), nil
	}
	ym, err := core.ParseYearMonth(month)
	if err != nil {
		return core.YearMonth{}, core.InvalidField("month", err)
	}
	return ym, nil
}

// Summary is the dashboard view of one month.
func (s *ReportService) Summary(ctx context.Context, userID int64, month string) (core.Summary, error) {
	ym, err := s.resolveMonth(month)
	if err != nil {
		return core.Summary{}, err
	}
	start, end := ym.FirstDay(), ym.LastDay()

	var (
		totals   map[core.CategoryType]core.TypeTotal
		expenses []core.CategoryTotal
		budget   *core.BudgetStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.repo.TypeTotals(gctx, userID, start, end)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.repo.CategoryTotals(gctx, userID, start, end, core.Expense)
		return err
	})
	g.Go(func() error {
		b, err := s.repo.FindBudget(gctx, userID, ym.String(), nil)
		if core.KindOf(err) == core.KindNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if !b.IsActive {
			return nil
		}
		spent, err := s.repo.SpentInMonth(gctx, userID, ym, nil)
		if err != nil {
			return err
		}
		st := core.NewBudgetStatus(b, spent)
		budget = &st
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}

	income, expense := totals[core.Income], totals[core.Expense]
	return core.Summary{
		YearMonth:            ym.String(),
		Income:               income,
		Expense:              expense,
		Balance:              income.Total.Sub(expense.Total),
		Budget:               budget,
		CategoryDistribution: core.Distribution(expenses, expense.Total),
	}, nil
}

// Monthly breaks one month down per category and per active budget.
func (s *ReportService) Monthly(ctx context.Context, userID int64, month string) (core.MonthlyReport, error) {
	ym, err := s.resolveMonth(month)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	start, end := ym.FirstDay(), ym.LastDay()

	var (
		rows    []core.CategoryTotal
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = s.repo.CategoryTotals(gctx, userID, start, end, "")
		return err
	})
	g.Go(func() (err error) {
		active := true
		budgets, err = s.repo.ListBudgets(gctx, userID, core.BudgetFilter{YearMonth: ym.String(), IsActive: &active})
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyReport{}, err
	}

	usage := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.repo.SpentInMonth(ctx, userID, ym, b.CategoryID)
		if err != nil {
			return core.MonthlyReport{}, err
		}
		if b.CategoryID == nil {
			b.CategoryName = core.TotalBudgetLabel
		}
		usage = append(usage, core.NewBudgetStatus(b, spent))
	}

	incomeRows, expenseRows := core.SplitByType(rows)
	income, expense := core.SumTotals(incomeRows), core.SumTotals(expenseRows)
	days := ym.DaysInMonth()

	return core.MonthlyReport{
		YearMonth:           ym.String(),
		TotalIncome:         income.Total,
		TotalExpense:        expense.Total,
		Balance:             income.Total.Sub(expense.Total),
		IncomeDetail:        core.Details(incomeRows),
		ExpenseDetail:       core.Details(expenseRows),
		DailyAverageExpense: expense.Total.DivRound(int64(days)),
		DaysInMonth:         days,
		BudgetUsage:         usage,
	}, nil
}

// Yearly summarizes a calendar year. year 0 means the current year.
func (s *ReportService) Yearly(ctx context.Context, userID int64, year int) (core.YearlyReport, error) {
	if year == 0 {
		year = s.clock().Year()
	}
	if year < 1900 || year > 9999 {
		return core.YearlyReport{}, core.Validation("year", "year must be between 1900 and 9999")
	}
	start, end := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)

	var (
		months []core.MonthTypeTotal
		rows   []core.CategoryTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		months, err = s.repo.MonthTypeTotals(gctx, userID, start, end)
		return err
	})
	g.Go(func() (err error) {
		rows, err = s.repo.CategoryTotals(gctx, userID, start, end, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return core.YearlyReport{}, err
	}

	incomeRows, expenseRows := core.SplitByType(rows)
	income, expense := core.SumTotals(incomeRows), core.SumTotals(expenseRows)

	return core.YearlyReport{
		Year:         year,
		TotalIncome:  income.Total,
		TotalExpense: expense.Total,
		Balance:      income.Total.Sub(expense.Total),
		MonthlyTrend: core.MonthlyBalances(months),
		CategorySummary: core.CategorySummary{
			Income:  core.Details(incomeRows),
			Expense: core.Details(expenseRows),
		},
	}, nil
}

// ExpenseAnalysis examines spending in [start, end]. Missing bounds default
// to the 30 days before today through today.
func (s *ReportService) ExpenseAnalysis(ctx context.Context, userID int64, startDate, endDate string) (core.ExpenseAnalysis, error) {
	end := s.today()
	if endDate != "" {
		d, err := core.ParseDate(endDate)
		if err != nil {
			return core.ExpenseAnalysis{}, core.InvalidField("end_date", err)
		}
		end = d
	}
	start := end.AddDays(-defaultAnalysisDays)
	if startDate != "" {
		d, err := core.ParseDate(startDate)
		if err != nil {
			return core.ExpenseAnalysis{}, core.InvalidField("start_date", err)
		}
		start = d
	}
	if start.After(end.Time) {
		return core.ExpenseAnalysis{}, core.Validation("start_date", "start_date must not be after end_date")
	}

	var (
		rows    []core.CategoryTotal
		largest core.MaxExpense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = s.repo.CategoryTotals(gctx, userID, start, end, core.Expense)
		return err
	})
	g.Go(func() (err error) {
		largest, err = s.repo.LargestExpense(gctx, userID, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ExpenseAnalysis{}, err
	}

	total := core.SumTotals(rows).Total
	days := start.DaysUntil(end)
	all := core.Distribution(rows, total)
	top := all[:min(topCategoryCount, len(all))]

	return core.ExpenseAnalysis{
		StartDate:     start,
		EndDate:       end,
		DaysCount:     days,
		TotalExpense:  total,
		DailyAverage:  total.DivRound(int64(days)),
		MaxExpense:    largest,
		TopCategories: top,
		AllCategories: all,
	}, nil
}

// Trend returns month buckets over the last months*30 days. The window is an
// approximation; calendar reports use exact month bounds.
func (s *ReportService) Trend(ctx context.Context, userID int64, months int) (core.TrendReport, error) {
	if months == 0 {
		months = defaultTrendMonths
	}
	if months < 1 || months > maxTrendMonths {
		return core.TrendReport{}, core.Validation("months", "months must be between 1 and 60")
	}
	end := s.today()
	start := end.AddDays(-months * 30)

	rows, err := s.repo.MonthTypeTotals(ctx, userID, start, end)
	if err != nil {
		return core.TrendReport{}, err
	}
	return core.TrendReport{
		Months:    months,
		StartDate: start,
		EndDate:   end,
		Series:    core.TrendSeries(rows),
	}, nil
}
