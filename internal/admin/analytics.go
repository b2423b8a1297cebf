// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/validate"
)

const pathAnalytics = "/analytics"

// Aggregation periods understood by the backend.
const (
	PeriodDay   = "DAY"
	PeriodWeek  = "WEEK"
	PeriodMonth = "MONTH"
)

// dateLayout is the ISO date the backend parses.
const dateLayout = "2006-01-02"

// Range bounds a report. Empty bounds let the backend pick its default window.
type Range struct {
	Start string
	End   string
}

// Analytics reads the backend's reports.
//
// Aggregation is owned by the backend; payloads are passed through untouched.
type Analytics struct {
	requester Requester
}

// NewAnalytics constructs an [Analytics] service.
func NewAnalytics(requester Requester) *Analytics {
	return &Analytics{requester: requester}
}

// Dashboard returns the headline counters.
func (analytics *Analytics) Dashboard(ctx context.Context) (json.RawMessage, error) {
	return analytics.report(ctx, "/dashboard", nil)
}

// Sales returns revenue grouped by period.
func (analytics *Analytics) Sales(ctx context.Context, period string, window Range) (json.RawMessage, error) {
	query, err := reportQuery(window)
	if err != nil {
		return nil, err
	}
	if query, err = withPeriod(query, period); err != nil {
		return nil, err
	}
	return analytics.report(ctx, "/sales", query)
}

// Products returns stock and catalog figures.
func (analytics *Analytics) Products(ctx context.Context) (json.RawMessage, error) {
	return analytics.report(ctx, "/products", nil)
}

// Customers returns customer activity figures.
func (analytics *Analytics) Customers(ctx context.Context) (json.RawMessage, error) {
	return analytics.report(ctx, "/customers", nil)
}

// Orders returns order counts by status and by day.
func (analytics *Analytics) Orders(ctx context.Context, window Range) (json.RawMessage, error) {
	query, err := reportQuery(window)
	if err != nil {
		return nil, err
	}
	return analytics.report(ctx, "/orders", query)
}

// RevenueChart returns the last limit periods of revenue.
func (analytics *Analytics) RevenueChart(ctx context.Context, period string, limit int) (json.RawMessage, error) {
	query, err := withPeriod(url.Values{}, period)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return analytics.report(ctx, "/revenue-chart", query)
}

// TopProducts returns the best sellers.
func (analytics *Analytics) TopProducts(ctx context.Context, limit int, window Range) (json.RawMessage, error) {
	query, err := reportQuery(window)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return analytics.report(ctx, "/top-products", query)
}

func (analytics *Analytics) report(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if err := analytics.requester.Current().RequireAdmin(); err != nil {
		return nil, err
	}

	payload, err := analytics.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathAnalytics + path,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	return payload, nil
}

// reportQuery validates and encodes a date window.
func reportQuery(window Range) (url.Values, error) {
	validator := &validate.Validator{}
	validator.Custom("startDate", !validDate(window.Start), "must be a YYYY-MM-DD date").
		Custom("endDate", !validDate(window.End), "must be a YYYY-MM-DD date")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	query := url.Values{}
	if window.Start != "" {
		query.Set("startDate", window.Start)
	}
	if window.End != "" {
		query.Set("endDate", window.End)
	}
	return query, nil
}

func validDate(raw string) bool {
	if raw == "" {
		return true
	}
	_, err := time.Parse(dateLayout, raw)
	return err == nil
}

// withPeriod adds a validated period, defaulting to MONTH.
func withPeriod(query url.Values, period string) (url.Values, error) {
	period = strings.ToUpper(strings.TrimSpace(period))
	if period == "" {
		period = PeriodMonth
	}

	err := (&validate.Validator{}).OneOf("period", period, PeriodDay, PeriodWeek, PeriodMonth).Err()
	if err != nil {
		return nil, err
	}

	query.Set("period", period)
	return query, nil
}
