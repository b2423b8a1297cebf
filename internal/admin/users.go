// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the store administration console: user accounts and
read-only sales analytics.

Every operation is refused locally with FORBIDDEN, without a backend call,
when the signed-in user is not an administrator. The backend enforces the
same rule; the local check only avoids a round trip that must fail.
*/
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/internal/session"
	"github.com/taibuivan/shopie/pkg/pagination"
	"github.com/taibuivan/shopie/pkg/pointer"
	"github.com/taibuivan/shopie/pkg/textnorm"
)

const pathUsers = "/admin/users"

// Requester sends calls with the session's credential.
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
	Current() session.Session
}

// # Entities

// Account is a user record as seen by administrators.
type Account struct {
	session.User
	TotalOrders int     `json:"totalOrders"`
	TotalSpent  float64 `json:"totalSpent"`
}

// AccountUpdate is the body of an account edit.
type AccountUpdate struct {
	Name        string  `json:"nom"`
	Email       string  `json:"email"`
	NewPassword *string `json:"nouveauMotDePasse,omitempty"`
}

// UserStats is the account breakdown shown on the dashboard.
type UserStats struct {
	TotalUsers int64 `json:"totalUsers"`
	AdminCount int64 `json:"adminCount"`
	UserCount  int64 `json:"userCount"`
}

// ListQuery selects a page of accounts.
type ListQuery struct {
	pagination.Params
	Search  string
	SortBy  string
	SortDir string
}

// # Users Service

// Users administers accounts.
type Users struct {
	requester Requester
	logger    *slog.Logger
}

// NewUsers constructs a [Users] service.
func NewUsers(requester Requester, logger *slog.Logger) *Users {
	return &Users{requester: requester, logger: logger}
}

/*
List returns one page of accounts.

Description: The agent's 1-indexed page is translated to the backend's
0-indexed Spring page; accounts are sorted by name ascending unless asked
otherwise.

Returns:
  - []Account: The page content
  - pagination.Meta: 1-indexed page metadata
*/
func (users *Users) List(ctx context.Context, query ListQuery) ([]Account, pagination.Meta, error) {
	if err := users.requester.Current().RequireAdmin(); err != nil {
		return nil, pagination.Meta{}, err
	}

	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = "nom"
	}
	sortDir := strings.ToLower(query.SortDir)
	if sortDir != "desc" {
		sortDir = "asc"
	}

	values := url.Values{
		"page":    {strconv.Itoa(query.BackendPage())},
		"size":    {strconv.Itoa(query.Limit)},
		"sortBy":  {sortBy},
		"sortDir": {sortDir},
	}
	if search := textnorm.Query(query.Search); search != "" {
		values.Set("search", search)
	}

	payload, err := users.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathUsers,
		Query:  values,
	})
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	page, err := backend.Decode[pagination.SpringPage[Account]](payload)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if page.Content == nil {
		page.Content = []Account{}
	}
	if page.Size == 0 {
		page.Size = query.Limit
	}

	return page.Content, page.Meta(), nil
}

// Get returns one account.
func (users *Users) Get(ctx context.Context, id int64) (Account, error) {
	return users.account(ctx, http.MethodGet, userPath(id), nil, nil)
}

// Update edits an account's name, email and optionally its password.
func (users *Users) Update(ctx context.Context, id int64, update AccountUpdate) (Account, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.TrimSpace(update.Email)
	if update.NewPassword != nil && strings.TrimSpace(*update.NewPassword) == "" {
		update.NewPassword = nil
	}

	validator := (&validate.Validator{}).
		Required("nom", update.Name).
		Required("email", update.Email).
		Email("email", update.Email)
	if update.NewPassword != nil {
		validator.MinLen("nouveauMotDePasse", pointer.Val(update.NewPassword), 6)
	}
	if err := validator.Err(); err != nil {
		return Account{}, err
	}

	return users.account(ctx, http.MethodPut, userPath(id), nil, update)
}

// ChangeRole grants or revokes administration.
func (users *Users) ChangeRole(ctx context.Context, id int64, role sec.Role) (Account, error) {
	err := (&validate.Validator{}).
		OneOf("role", string(role), string(sec.RoleCustomer), string(sec.RoleAdmin)).
		Err()
	if err != nil {
		return Account{}, err
	}

	return users.account(ctx, http.MethodPut, userPath(id)+"/role", url.Values{"role": {string(role)}}, nil)
}

// ToggleStatus enables a disabled account or disables an enabled one.
func (users *Users) ToggleStatus(ctx context.Context, id int64) (Account, error) {
	return users.account(ctx, http.MethodPut, userPath(id)+"/toggle-status", nil, nil)
}

// Delete removes an account permanently.
func (users *Users) Delete(ctx context.Context, id int64) error {
	if err := users.requester.Current().RequireAdmin(); err != nil {
		return err
	}

	_, err := users.requester.AuthenticatedRequest(ctx, backend.Request{Method: http.MethodDelete, Path: userPath(id)})
	if err != nil {
		return err
	}

	users.logger.InfoContext(ctx, "account_deleted", slog.Int64("account_id", id))
	return nil
}

// Stats returns the account breakdown.
func (users *Users) Stats(ctx context.Context) (UserStats, error) {
	if err := users.requester.Current().RequireAdmin(); err != nil {
		return UserStats{}, err
	}

	payload, err := users.requester.AuthenticatedRequest(ctx, backend.Request{Method: http.MethodGet, Path: pathUsers + "/stats"})
	if err != nil {
		return UserStats{}, err
	}
	return backend.Decode[UserStats](payload)
}

func (users *Users) account(ctx context.Context, method, path string, query url.Values, body any) (Account, error) {
	if err := users.requester.Current().RequireAdmin(); err != nil {
		return Account{}, err
	}

	payload, err := users.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return Account{}, err
	}

	if method != http.MethodGet {
		users.logger.InfoContext(ctx, "account_changed", slog.String("path", path))
	}
	return backend.Decode[Account](payload)
}

func userPath(id int64) string { return pathUsers + "/" + strconv.FormatInt(id, 10) }
