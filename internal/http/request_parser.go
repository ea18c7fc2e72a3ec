// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, path ids and typed query parameters. Every parse failure is a
// core validation error naming the offending field.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cmoney/internal/core"
)

// maxBodyBytes bounds request bodies; the API never needs more.
const maxBodyBytes = 1 << 20

// DecodeJSON reads a single JSON value from the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var de *core.Error
		if errors.As(err, &de) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return core.Validation("", "request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.Validation(typeErr.Field, fmt.Sprintf("invalid value for %s", typeErr.Field))
		}
		if core.KindOf(err) == core.KindValidation {
			return core.Validation("", err.Error())
		}
		return core.Validation("", "malformed JSON body")
	}
	return nil
}

// PathID parses the named path wildcard as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validation(name, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// QueryParser reads typed values from a query string, remembering the first
// problem so handlers can check once after reading every parameter.
type QueryParser struct {
	values url.Values
	err    error
}

func NewQueryParser(r *http.Request) *QueryParser {
	return &QueryParser{values: r.URL.Query()}
}

func (q *QueryParser) fail(field, msg string) {
	if q.err == nil {
		q.err = core.Validation(field, msg)
	}
}

// Err returns the first parse error, if any.
func (q *QueryParser) Err() error { return q.err }

// String returns the trimmed, sanitized value of key.
func (q *QueryParser) String(key string) string {
	return sanitizeInput(q.values.Get(key))
}

// Int returns key as an int, or def when absent.
func (q *QueryParser) Int(key string, def int) int {
	v := q.String(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.fail(key, fmt.Sprintf("%s must be an integer", key))
		return def
	}
	return n
}

// OptionalID returns key as a positive id, or nil when absent.
func (q *QueryParser) OptionalID(key string) *int64 {
	v := q.String(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		q.fail(key, fmt.Sprintf("invalid %s", key))
		return nil
	}
	return &n
}

// OptionalBool accepts true/false/1/0; nil when absent.
func (q *QueryParser) OptionalBool(key string) *bool {
	v := q.String(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(key, fmt.Sprintf("%s must be true or false", key))
		return nil
	}
	return &b
}

// OptionalDate parses key as YYYY-MM-DD; nil when absent.
func (q *QueryParser) OptionalDate(key string) *core.Date {
	v := q.String(key)
	if v == "" {
		return nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		q.fail(key, err.Error())
		return nil
	}
	return &d
}

// CategoryType parses key as income or expense; empty when absent.
func (q *QueryParser) CategoryType(key string) core.CategoryType {
	t := core.CategoryType(strings.ToLower(q.String(key)))
	if t != "" && !t.IsValid() {
		q.fail(key, core.ErrInvalidCategoryType.Error())
		return ""
	}
	return t
}

// TransactionFilter reads the list filter of GET /transactions.
func (q *QueryParser) TransactionFilter() core.TransactionFilter {
	return core.TransactionFilter{
		Type:           q.CategoryType("type"),
		CategoryID:     q.OptionalID("category_id"),
		OrganizationID: q.OptionalID("organization_id"),
		StartDate:      q.OptionalDate("start_date"),
		EndDate:        q.OptionalDate("end_date"),
		Limit:          q.Int("limit", 0),
		Offset:         q.Int("offset", 0),
	}
}

// BudgetFilter reads the list filter of GET /budgets.
func (q *QueryParser) BudgetFilter() core.BudgetFilter {
	return core.BudgetFilter{
		YearMonth:  q.String("year_month"),
		CategoryID: q.OptionalID("category"),
		IsActive:   q.OptionalBool("is_active"),
	}
}

// ClaimFilter reads the list filter of GET /claims.
func (q *QueryParser) ClaimFilter() core.ClaimFilter {
	return core.ClaimFilter{
		OrganizationID: q.OptionalID("organization"),
		Status:         core.ClaimStatus(strings.ToLower(q.String("status"))),
	}
}
