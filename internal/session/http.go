// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/validate"
)

// # Definitions & Constructors

// Handler exposes the session lifecycle to the UI shell.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a new [Handler].
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Routes returns a [chi.Router] with the session endpoints.
//
// # Endpoints
//   - GET  /          : Current session status.
//   - POST /login     : Exchanges credentials for a session.
//   - POST /register  : Creates an account and signs it in.
//   - POST /logout    : Drops the session. Always succeeds.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.status)
	router.Post("/login", handler.login)
	router.Post("/register", handler.register)
	router.Post("/logout", handler.logout)

	return router
}

// # Request Payloads

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// statusView is the session as shown to the shell. The token never leaves the agent.
type statusView struct {
	Status    Status     `json:"status"`
	User      *User      `json:"user,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (handler *Handler) view(current Session) statusView {
	view := statusView{Status: current.Status, User: current.User}
	if current.Authenticated() {
		if info, ok := handler.manager.TokenInfo(); ok && info.HasExpiry() {
			expiresAt := info.ExpiresAt
			view.ExpiresAt = &expiresAt
		}
	}
	return view
}

/*
GET /api/v1/session

Response:
  - 200: statusView
*/
func (handler *Handler) status(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.view(handler.manager.Current()))
}

/*
POST /api/v1/session/login

Request:
  - Body: loginInput (Email, Password)

Response:
  - 200: statusView
  - 400: VALIDATION_ERROR
  - 401: AUTH_ERROR: Invalid credentials
  - 502: NETWORK_ERROR / SERVER_ERROR
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	committed, err := handler.manager.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.view(committed))
}

/*
POST /api/v1/session/register

Request:
  - Body: registerInput (Name, Email, Password)

Response:
  - 201: statusView
  - 400: VALIDATION_ERROR
  - 409: DUPLICATE_EMAIL
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	committed, err := handler.manager.Register(request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, handler.view(committed))
}

/*
POST /api/v1/session/logout

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.manager.Logout(request.Context())
	respond.NoContent(writer)
}
