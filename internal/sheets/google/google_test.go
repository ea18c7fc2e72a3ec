package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cmoney/internal/core"
	ports "cmoney/internal/sheets"
)

type fakeSheets struct {
	mu       sync.Mutex
	calls    []string
	appended map[string][][]any
	headers  map[string]bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rest, _ := strings.Cut(r.URL.Path, "/values/")
	f.calls = append(f.calls, r.Method+" "+rest)
	sheet, _, _ := strings.Cut(rest, "!")

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		values := [][]any{}
		if f.headers[sheet] {
			values = append(values, ports.Header)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rest, "values": values})
	case r.Method == http.MethodPut:
		f.headers[sheet] = true
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(rest, ":append"):
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended[sheet] = append(f.appended[sheet], vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": sheet + "!A2:I9"},
		})
	default:
		http.Error(w, "unexpected", http.StatusBadRequest)
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{appended: map[string][][]any{}, headers: map[string]bool{"2024 Transactions": true}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-1", ""), fake
}

func row(id int64, date string, cents int64) ports.JournalRow {
	d, _ := core.ParseDate(date)
	return ports.JournalRow{
		TransactionID: id,
		Username:      "alice",
		Date:          d,
		Type:          core.Expense,
		Category:      "Food",
		Amount:        core.NewMoney(cents),
		Description:   "lunch",
		RecordedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAppendRows_GroupsByYearAndWritesHeaderOnce(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	ref, err := c.AppendRows(ctx, []ports.JournalRow{
		row(1, "2025-03-01", 1250),
		row(2, "2024-12-31", 300),
		row(3, "2025-03-02", 99),
	})
	require.NoError(t, err)
	assert.Contains(t, ref, "2024 Transactions!")
	assert.Contains(t, ref, "2025 Transactions!")

	require.Len(t, fake.appended["2025 Transactions"], 2)
	require.Len(t, fake.appended["2024 Transactions"], 1)
	first := fake.appended["2025 Transactions"][0]
	assert.Equal(t, "2025-03-01", first[1])
	assert.Equal(t, "12.50", first[4])
	assert.Equal(t, float64(1), first[8])

	assert.True(t, fake.headers["2025 Transactions"], "empty tab gets a header")

	_, err = c.AppendRows(ctx, []ports.JournalRow{row(4, "2025-04-01", 100)})
	require.NoError(t, err)

	var puts int
	for _, call := range fake.calls {
		if strings.HasPrefix(call, http.MethodPut) {
			puts++
		}
	}
	assert.Equal(t, 1, puts, "header written once")
}

func TestAppendRows_Empty(t *testing.T) {
	c, fake := newFakeClient(t)
	ref, err := c.AppendRows(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.Empty(t, fake.calls)
}

func TestAppendRows_Uninitialized(t *testing.T) {
	c := &Client{}
	_, err := c.AppendRows(context.Background(), []ports.JournalRow{row(1, "2025-01-01", 1)})
	assert.EqualError(t, err, "sheets service not initialized")
}

func TestNew_RequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.EqualError(t, err, "missing spreadsheet id")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = New(context.Background(), Config{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/does/not/exist.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2025, "2025 Transactions"},
		{"2024 Transactions", 2025, "2024 Transactions"},
		{"  Journal ", 2023, "2023 Journal"},
		{"", 2025, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, yearPrefixedName(tt.base, tt.year))
	}
}
