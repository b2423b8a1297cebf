// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopie/internal/platform/middleware"
	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the administration endpoints.
type Handler struct {
	users     *Users
	analytics *Analytics
	roles     middleware.RoleSource
}

// NewHandler constructs a new [Handler].
func NewHandler(users *Users, analytics *Analytics, roles middleware.RoleSource) *Handler {
	return &Handler{users: users, analytics: analytics, roles: roles}
}

// Routes returns a [chi.Router] with the administration endpoints.
//
// # Endpoints
//   - GET    /users                        : Paged accounts (page, limit, search, sortBy, sortDir).
//   - GET    /users/stats                  : Account breakdown.
//   - GET    /users/{userID}               : One account.
//   - PUT    /users/{userID}               : Edit name, email, password.
//   - PUT    /users/{userID}/role          : Change role.
//   - PUT    /users/{userID}/toggle-status : Enable or disable.
//   - DELETE /users/{userID}               : Delete.
//   - GET    /analytics/...                : Reports.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(handler.roles, sec.RoleAdmin))

	router.Route("/users", func(r chi.Router) {
		r.Get("/", handler.listUsers)
		r.Get("/stats", handler.userStats)
		r.Get("/{userID}", handler.getUser)
		r.Put("/{userID}", handler.updateUser)
		r.Put("/{userID}/role", handler.changeRole)
		r.Put("/{userID}/toggle-status", handler.toggleStatus)
		r.Delete("/{userID}", handler.deleteUser)
	})

	router.Route("/analytics", func(r chi.Router) {
		r.Get("/dashboard", handler.report(handler.analytics.Dashboard))
		r.Get("/products", handler.report(handler.analytics.Products))
		r.Get("/customers", handler.report(handler.analytics.Customers))
		r.Get("/sales", handler.sales)
		r.Get("/orders", handler.orders)
		r.Get("/revenue-chart", handler.revenueChart)
		r.Get("/top-products", handler.topProducts)
	})

	return router
}

// # Users

/*
GET /api/v1/admin/users

Response:
  - 200: []Account with pagination meta
  - 403: FORBIDDEN
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	accounts, meta, err := handler.users.List(request.Context(), ListQuery{
		Params:  pagination.FromRequest(request),
		Search:  query.Get("search"),
		SortBy:  query.Get("sortBy"),
		SortDir: query.Get("sortDir"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, accounts, meta)
}

func (handler *Handler) userStats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.users.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	handler.withUser(writer, request, func(ctx context.Context, id int64) (Account, error) {
		return handler.users.Get(ctx, id)
	})
}

func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	var input AccountUpdate
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	handler.withUser(writer, request, func(ctx context.Context, id int64) (Account, error) {
		return handler.users.Update(ctx, id, input)
	})
}

type roleInput struct {
	Role sec.Role `json:"role"`
}

func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	var input roleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	handler.withUser(writer, request, func(ctx context.Context, id int64) (Account, error) {
		return handler.users.ChangeRole(ctx, id, input.Role)
	})
}

func (handler *Handler) toggleStatus(writer http.ResponseWriter, request *http.Request) {
	handler.withUser(writer, request, handler.users.ToggleStatus)
}

func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "userID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.users.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// withUser resolves {userID} and answers with the account returned by action.
func (handler *Handler) withUser(writer http.ResponseWriter, request *http.Request, action func(context.Context, int64) (Account, error)) {
	id, err := requestutil.ID(request, "userID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := action(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, account)
}

// # Analytics

// report adapts a parameterless report to a handler.
func (handler *Handler) report(read func(context.Context) (json.RawMessage, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		handler.writeReport(writer, request, func() (json.RawMessage, error) { return read(request.Context()) })
	}
}

func (handler *Handler) sales(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	handler.writeReport(writer, request, func() (json.RawMessage, error) {
		return handler.analytics.Sales(request.Context(), query.Get("period"), rangeOf(request))
	})
}

func (handler *Handler) orders(writer http.ResponseWriter, request *http.Request) {
	handler.writeReport(writer, request, func() (json.RawMessage, error) {
		return handler.analytics.Orders(request.Context(), rangeOf(request))
	})
}

func (handler *Handler) revenueChart(writer http.ResponseWriter, request *http.Request) {
	handler.writeReport(writer, request, func() (json.RawMessage, error) {
		return handler.analytics.RevenueChart(request.Context(),
			request.URL.Query().Get("period"),
			requestutil.QueryInt(request, "limit", 12),
		)
	})
}

func (handler *Handler) topProducts(writer http.ResponseWriter, request *http.Request) {
	handler.writeReport(writer, request, func() (json.RawMessage, error) {
		return handler.analytics.TopProducts(request.Context(), requestutil.QueryInt(request, "limit", 5), rangeOf(request))
	})
}

func (handler *Handler) writeReport(writer http.ResponseWriter, request *http.Request, read func() (json.RawMessage, error)) {
	payload, err := read()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, payload)
}

func rangeOf(request *http.Request) Range {
	query := request.URL.Query()
	return Range{Start: query.Get("startDate"), End: query.Get("endDate")}
}
