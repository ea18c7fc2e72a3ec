package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
	"cmoney/internal/services"
	"cmoney/internal/storage"
)

var testNow = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv  *Server
	repo *storage.Repository
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	o := Options{
		Services:           services.New(repo, nil, func() time.Time { return testNow }),
		Repository:         repo,
		Logger:             applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}),
		RateLimitPerMinute: 1000,
		AuthCacheSize:      10,
	}
	for _, opt := range opts {
		opt(&o)
	}
	srv := NewServer(o)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		_ = repo.Close()
	})
	return &testEnv{srv: srv, repo: repo}
}

func (e *testEnv) user(t *testing.T, name string) core.User {
	t.Helper()
	u, err := e.repo.CreateUser(context.Background(), core.User{Username: name, APIToken: "tok-" + name})
	require.NoError(t, err)
	return u
}

func (e *testEnv) do(t *testing.T, u *core.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+u.APIToken)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[healthResponse](t, rr).Status)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = env.do(t, nil, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	ready := decode[readyResponse](t, rr)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Database)
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-abc.1")
	rr := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, "client-abc.1", rr.Header().Get("X-Request-ID"))
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	rr := env.do(t, nil, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")

	stranger := core.User{APIToken: "nope"}
	rr = env.do(t, &stranger, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid token", decode[ErrorBody](t, rr).Error)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, env.srv.authCache.Size())

}

func TestRotateTokenRevokesOldToken(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	rr := env.do(t, &alice, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, env.srv.authCache.Size())

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/me/token", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	fresh := decode[tokenResponse](t, rr).APIToken
	require.NotEmpty(t, fresh)
	assert.NotEqual(t, alice.APIToken, fresh)
	assert.Equal(t, 0, env.srv.authCache.Size())

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rotated := alice
	rotated.APIToken = fresh
	rr = env.do(t, &rotated, http.MethodGet, "/api/v1/categories", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProbeRequestsAreRejected(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, nil, http.MethodGet, "/.env", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, int64(1), env.srv.detector.GetMetrics().BlockedRequests)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, nil, http.MethodGet, "/api/v2/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route not found", decode[ErrorBody](t, rr).Error)
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	rr := env.do(t, &alice, http.MethodPost, "/api/v1/categories/init-defaults", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, len(core.DefaultCategories), decode[map[string]int](t, rr)["created"])

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/categories/init-defaults", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[map[string]int](t, rr)["created"])

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/categories?type=income", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, c := range decode[[]core.CategoryUsage](t, rr) {
		assert.Equal(t, core.Income, c.Type)
	}

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/categories?type=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Books", "type": "expense"})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[core.Category](t, rr)
	assert.Equal(t, "Books", created.Name)

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Books", "type": "expense"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	path := "/api/v1/categories/" + strconv.FormatInt(created.ID, 10)
	rr = env.do(t, &alice, http.MethodPut, path, map[string]any{"color": "#000000"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "#000000", decode[core.Category](t, rr).Color)

	bob := env.user(t, "bob")
	rr = env.do(t, &bob, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/categories/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, &alice, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = env.do(t, &alice, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	rr := env.do(t, &alice, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Food", "type": "expense"})
	require.Equal(t, http.StatusCreated, rr.Code)
	food := decode[core.Category](t, rr)

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/transactions", map[string]any{
		"category_id": food.ID, "amount": "0", "transaction_date": "2025-10-01",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[ErrorBody](t, rr).Fields, "amount")

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/transactions", map[string]any{
		"category_id": food.ID, "amount": "12.50", "transaction_date": "2025-10-01", "description": "lunch",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	tx := decode[core.Transaction](t, rr)
	assert.Equal(t, int64(1250), tx.Amount.Cents)
	assert.Equal(t, core.Expense, tx.CategoryType)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/transactions?type=expense&start_date=2025-10-01&end_date=2025-10-31", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Transaction](t, rr), 1)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/transactions?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	path := "/api/v1/transactions/" + strconv.FormatInt(tx.ID, 10)
	rr = env.do(t, &alice, http.MethodPut, path, map[string]any{"amount": "20"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2000), decode[core.Transaction](t, rr).Amount.Cents)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/transactions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, &alice, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestBudgetEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	rr := env.do(t, &alice, http.MethodPost, "/api/v1/budgets", map[string]any{"year_month": "2025-10", "amount": "1000"})
	require.Equal(t, http.StatusCreated, rr.Code)
	b := decode[core.BudgetStatus](t, rr)
	assert.True(t, b.IsActive)
	assert.Equal(t, core.DefaultAlertThreshold, b.AlertThreshold)

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/budgets", map[string]any{"year_month": "2025-10", "amount": "500"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/budgets/batch-create", map[string]any{
		"year_months": []string{"2025-10", "2025-11", "2025-12"}, "amount": "800",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 2, decode[services.BatchCreateResult](t, rr).Created)

	rr = env.do(t, &alice, http.MethodPost, "/api/v1/budgets/"+strconv.FormatInt(b.ID, 10)+"/copy-to-next-month", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/budgets/current-month", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.BudgetStatus](t, rr), 1)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/budgets?is_active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, &alice, http.MethodGet, "/api/v1/budgets/alerts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]core.BudgetStatus](t, rr))
}

func TestReportEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	for _, path := range []string{
		"/api/v1/reports/summary",
		"/api/v1/reports/monthly?month=2025-10",
		"/api/v1/reports/yearly?year=2025",
		"/api/v1/reports/expense-analysis",
		"/api/v1/reports/trend?months=6",
	} {
		rr := env.do(t, &alice, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	rr := env.do(t, &alice, http.MethodGet, "/api/v1/reports/summary?month=2025-13", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, &alice, http.MethodGet, "/api/v1/reports/trend?months=x", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClaimReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, "admin")
	member := env.user(t, "member")
	outsider := env.user(t, "outsider")

	rr := env.do(t, &admin, http.MethodPost, "/api/v1/organizations", map[string]any{"name": "Chess club", "type": "club"})
	require.Equal(t, http.StatusCreated, rr.Code)
	org := decode[core.Organization](t, rr)
	orgPath := "/api/v1/organizations/" + strconv.FormatInt(org.ID, 10)

	rr = env.do(t, &member, http.MethodPost, orgPath+"/members", map[string]any{"user_id": outsider.ID})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, &admin, http.MethodPost, orgPath+"/members", map[string]any{"user_id": member.ID})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, core.RoleMember, decode[core.Membership](t, rr).Role)

	rr = env.do(t, &admin, http.MethodDelete, orgPath+"/members/"+strconv.FormatInt(admin.ID, 10), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, &outsider, http.MethodPost, "/api/v1/claims", map[string]any{
		"organization": org.ID, "amount": "30", "title": "Boards",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, &member, http.MethodPost, "/api/v1/claims", map[string]any{
		"organization": org.ID, "amount": "30", "title": "Boards",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	claim := decode[core.Claim](t, rr)
	assert.Equal(t, core.ClaimPending, claim.Status)
	reviewPath := "/api/v1/claims/" + strconv.FormatInt(claim.ID, 10) + "/review"

	rr = env.do(t, &admin, http.MethodGet, "/api/v1/claims/pending", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Claim](t, rr), 1)

	rr = env.do(t, &member, http.MethodPost, reviewPath, map[string]any{"action": "approve"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, &admin, http.MethodPost, reviewPath, map[string]any{"action": "reject"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[ErrorBody](t, rr).Fields, "comment")

	rr = env.do(t, &admin, http.MethodPost, reviewPath, map[string]any{"action": "approve", "comment": "ok"})
	require.Equal(t, http.StatusOK, rr.Code)
	approved := decode[core.Claim](t, rr)
	assert.Equal(t, core.ClaimApproved, approved.Status)
	require.NotNil(t, approved.TransactionID)

	rr = env.do(t, &admin, http.MethodPost, reviewPath, map[string]any{"action": "approve"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "claim is already approved", decode[ErrorBody](t, rr).Error)

	rr = env.do(t, &member, http.MethodGet, "/api/v1/transactions/"+strconv.FormatInt(*approved.TransactionID, 10), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	tx := decode[core.Transaction](t, rr)
	assert.Equal(t, core.Income, tx.CategoryType)
	assert.Equal(t, core.ReimbursementPrefix+"Boards", tx.Description)
	assert.Equal(t, int64(3000), tx.Amount.Cents)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, nil, http.MethodGet, "/healthz", nil).Code)
	}
	rr := env.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}
