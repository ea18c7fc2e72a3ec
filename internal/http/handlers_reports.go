package http

import "net/http"

// GET /reports/summary?month=YYYY-MM
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	summary, err := s.svc.Reports.Summary(r.Context(), userFrom(r.Context()).ID, q.String("month"))
	s.respond(w, r, http.StatusOK, summary, err)
}

// GET /reports/monthly?month=YYYY-MM
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	report, err := s.svc.Reports.Monthly(r.Context(), userFrom(r.Context()).ID, q.String("month"))
	s.respond(w, r, http.StatusOK, report, err)
}

// GET /reports/yearly?year=YYYY
func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	year := q.Int("year", 0)
	if err := q.Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.svc.Reports.Yearly(r.Context(), userFrom(r.Context()).ID, year)
	s.respond(w, r, http.StatusOK, report, err)
}

// GET /reports/expense-analysis?start_date=&end_date=
func (s *Server) handleExpenseAnalysis(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	analysis, err := s.svc.Reports.ExpenseAnalysis(r.Context(), userFrom(r.Context()).ID,
		q.String("start_date"), q.String("end_date"))
	s.respond(w, r, http.StatusOK, analysis, err)
}

// GET /reports/trend?months=N covers the last N*30 days, not N calendar months.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParser(r)
	months := q.Int("months", 0)
	if err := q.Err(); err != nil {
		s.fail(w, r, err)
		return
	}
	trend, err := s.svc.Reports.Trend(r.Context(), userFrom(r.Context()).ID, months)
	s.respond(w, r, http.StatusOK, trend, err)
}
