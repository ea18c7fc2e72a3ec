package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cmoney/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"created": 2}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q", got)
	}
	if w.Body.String() != "{\"created\":2}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Body("ignored").Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantField  string
	}{
		{
			name:       "validation with field",
			err:        core.InvalidField("amount", core.ErrInvalidAmount),
			wantStatus: http.StatusBadRequest,
			wantError:  core.ErrInvalidAmount.Error(),
			wantField:  "amount",
		},
		{
			name:       "wrapped field error prints the sentinel once",
			err:        fmt.Errorf("create budget: %w", core.InvalidField("year_month", core.ErrInvalidYearMonth)),
			wantStatus: http.StatusBadRequest,
			wantError:  core.ErrInvalidYearMonth.Error(),
			wantField:  "year_month",
		},
		{
			name:       "bare validation sentinel",
			err:        fmt.Errorf("parse: %w", core.ErrInvalidYearMonth),
			wantStatus: http.StatusBadRequest,
			wantError:  "parse: " + core.ErrInvalidYearMonth.Error(),
		},
		{
			name:       "forbidden",
			err:        core.Forbidden("only organization admins can manage members"),
			wantStatus: http.StatusForbidden,
			wantError:  "only organization admins can manage members",
		},
		{
			name:       "not found uses the message only",
			err:        fmt.Errorf("load: %w", core.NotFound("budget")),
			wantStatus: http.StatusNotFound,
			wantError:  "budget not found",
		},
		{
			name:       "conflict",
			err:        core.Conflict("claim is already approved"),
			wantStatus: http.StatusConflict,
			wantError:  "claim is already approved",
		},
		{
			name:       "internal detail is hidden",
			err:        errors.New("dial tcp 10.0.0.1:5432: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if tt.wantField != "" {
				if _, ok := body.Fields[tt.wantField]; !ok {
					t.Errorf("fields = %v, want %q", body.Fields, tt.wantField)
				}
			}
		})
	}
}

func TestUnauthorizedError(t *testing.T) {
	w := httptest.NewRecorder()
	UnauthorizedError("authentication required").Write(w)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}
