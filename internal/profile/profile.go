// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package profile reads and updates the signed-in user's contact details.
//
// A confirmed update is pushed into the session so the cached identity, and
// its persisted copy, never lag behind the backend.
package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopie/internal/backend"
	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/internal/session"
)

const pathProfile = "/users/profile"

// Backend limits on contact fields.
const (
	maxPhoneLength   = 15
	maxAddressLength = 255
)

// Profile is the user record with the backend's order aggregates.
type Profile struct {
	session.User
	TotalOrders int     `json:"totalOrders"`
	TotalSpent  float64 `json:"totalSpent"`
}

// Update carries the editable contact fields.
type Update struct {
	Phone   string `json:"telephone"`
	Address string `json:"adresse"`
}

// Requester is the slice of [*session.Manager] the profile needs.
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
	UpdateLocalUser(ctx context.Context, user session.User) bool
}

// # Service

// Service reads and updates the profile.
type Service struct {
	requester Requester
	logger    *slog.Logger
}

// NewService constructs a profile [Service].
func NewService(requester Requester, logger *slog.Logger) *Service {
	return &Service{requester: requester, logger: logger}
}

// Get returns the signed-in user's profile.
func (service *Service) Get(ctx context.Context) (Profile, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{Method: http.MethodGet, Path: pathProfile})
	if err != nil {
		return Profile{}, err
	}
	return backend.Decode[Profile](payload)
}

/*
Update changes the phone number and address.

Description: On success the session's cached user is replaced with the
backend's answer (or re-read when the answer is empty).

Returns:
  - Profile: The updated profile
  - error: VALIDATION_ERROR (phone > 15 or address > 255 characters) or backend failures
*/
func (service *Service) Update(ctx context.Context, update Update) (Profile, error) {
	update.Phone = strings.TrimSpace(update.Phone)
	update.Address = strings.TrimSpace(update.Address)

	err := (&validate.Validator{}).
		MaxLen("telephone", update.Phone, maxPhoneLength).
		MaxLen("adresse", update.Address, maxAddressLength).
		Err()
	if err != nil {
		return Profile{}, err
	}

	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodPut,
		Path:   pathProfile,
		Body:   update,
	})
	if err != nil {
		return Profile{}, err
	}

	var updated Profile
	if payload == nil {
		updated, err = service.Get(ctx)
	} else {
		updated, err = backend.Decode[Profile](payload)
	}
	if err != nil {
		return Profile{}, err
	}

	if !service.requester.UpdateLocalUser(ctx, updated.User) {
		service.logger.WarnContext(ctx, "profile_cache_not_updated", slog.Int64("user_id", updated.ID))
	}
	return updated, nil
}

// # HTTP

// Handler exposes the profile endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with GET / and PUT /.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.get)
	router.Put("/", handler.update)
	return router
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	current, err := handler.service.Get(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, current)
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input Update
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updated, err := handler.service.Update(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}
