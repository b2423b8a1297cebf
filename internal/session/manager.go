// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/platform/validate"
)

// Backend paths owned by the authentication flow.
const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
)

// minPasswordLength mirrors the registration rule of the mobile client.
const minPasswordLength = 6

// # Contracts

// Transport is the backend capability the manager gates.
//
// It is satisfied by [*backend.Client].
type Transport interface {
	Do(ctx context.Context, req backend.Request, token string) (json.RawMessage, error)
	Upload(ctx context.Context, path string, part backend.FilePart, token string) (json.RawMessage, error)
}

// Requester is the authenticated-request capability handed to other components.
//
// Components depend on this interface rather than on [*Manager] so their tests
// can substitute a scripted backend.
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
	AuthenticatedUpload(ctx context.Context, path string, part backend.FilePart) (json.RawMessage, error)
	Current() Session
}

// Listener observes committed session transitions.
type Listener func(Session)

// # Manager

// Manager owns the session for the process lifetime.
//
// # Concurrency
//
// The committed session is replaced whole under mu and never mutated in place,
// so readers only observe complete snapshots. persistMu serializes the
// memory-then-store transitions so the persisted copy never lags behind a
// logout. Neither lock is held across a backend call.
type Manager struct {
	transport Transport
	store     Store
	logger    *slog.Logger
	now       func() time.Time

	persistMu sync.Mutex
	mu        sync.RWMutex
	current   Session
	// epoch advances on every sign-out so an in-flight login started before
	// the sign-out cannot commit afterwards.
	epoch     uint64
	listeners []Listener
}

// NewManager constructs an unauthenticated [Manager].
func NewManager(transport Transport, store Store, logger *slog.Logger) *Manager {
	return &Manager{
		transport: transport,
		store:     store,
		logger:    logger,
		now:       time.Now,
		current:   unauthenticated(),
	}
}

// OnChange registers a listener called after every committed transition.
//
// Listeners run synchronously on the goroutine that caused the transition,
// outside the manager's locks.
func (manager *Manager) OnChange(listener Listener) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.listeners = append(manager.listeners, listener)
}

// Current returns a copy of the committed session.
func (manager *Manager) Current() Session {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.current.clone()
}

// CurrentRole returns the signed-in user's role, false when signed out.
func (manager *Manager) CurrentRole() (sec.Role, bool) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.current.User == nil {
		return "", false
	}
	return manager.current.User.Role, true
}

// TokenInfo returns the unverified claims of the current token, if it is a JWT.
func (manager *Manager) TokenInfo() (sec.TokenInfo, bool) {
	manager.mu.RLock()
	token := manager.current.Token
	manager.mu.RUnlock()
	if token == "" {
		return sec.TokenInfo{}, false
	}
	return sec.InspectToken(token)
}

// # Credential Exchange

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"motDePasse"`
}

type registerRequest struct {
	Name     string `json:"nom"`
	Email    string `json:"email"`
	Password string `json:"motDePasse"`
}

/*
Login exchanges credentials for a session.

Description: On success the session is persisted, then committed as
AUTHENTICATED and listeners are notified. On any failure the previous session
is left exactly as it was and nothing is persisted.

Parameters:
  - ctx: context.Context
  - email: string (required, a valid address)
  - password: string (required)

Returns:
  - Session: The committed session
  - error: VALIDATION_ERROR, AUTH_ERROR (bad credentials), NETWORK_ERROR or SERVER_ERROR
*/
func (manager *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)

	// Fail fast before any network call
	if err := credentials(email, password).Err(); err != nil {
		return Session{}, err
	}

	return manager.exchange(ctx, pathLogin, loginRequest{Email: email, Password: password}, false)
}

/*
Register creates an account and signs it in.

Description: Same contract as [Manager.Login]. A duplicate email surfaces as
DUPLICATE_EMAIL so the UI can point at the email field.

Parameters:
  - ctx: context.Context
  - name, email, password: string (required; password at least 6 characters)

Returns:
  - Session: The committed session
  - error: VALIDATION_ERROR, DUPLICATE_EMAIL, NETWORK_ERROR or SERVER_ERROR
*/
func (manager *Manager) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	err := credentials(email, password).
		Required("nom", name).
		MinLen("password", password, minPasswordLength).
		Err()
	if err != nil {
		return Session{}, err
	}

	return manager.exchange(ctx, pathRegister, registerRequest{Name: name, Email: email, Password: password}, true)
}

// credentials checks the fields shared by login and registration. The email
// format is only checked once the field is present.
func credentials(email, password string) *validate.Validator {
	validator := (&validate.Validator{}).
		Required("email", email).
		Required("password", password)
	if email != "" {
		validator.Email("email", email)
	}
	return validator
}

// exchange runs one credential call and commits its result.
func (manager *Manager) exchange(ctx context.Context, path string, body any, registering bool) (Session, error) {

	// ── 1. Mark the attempt ───────────────────────────────────────────────

	manager.mu.Lock()
	startEpoch := manager.epoch
	markedAuthenticating := false
	if manager.current.Status == StatusUnauthenticated {
		manager.current = Session{Status: StatusAuthenticating}
		markedAuthenticating = true
	}
	manager.mu.Unlock()

	// ── 2. Credential call (no bearer, never forces logout) ──────────────

	payload, err := manager.transport.Do(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	}, "")

	var next Session
	if err == nil {
		next, err = decodeAuthResponse(payload)
	}

	if err != nil {
		manager.abandonAttempt(markedAuthenticating)
		return Session{}, credentialError(err, registering)
	}

	// ── 3. Persist, then commit ──────────────────────────────────────────

	manager.persistMu.Lock()
	defer manager.persistMu.Unlock()

	manager.mu.RLock()
	cancelled := manager.epoch != startEpoch
	manager.mu.RUnlock()
	if cancelled {
		manager.abandonAttempt(markedAuthenticating)
		return Session{}, apperr.NotAuthenticated()
	}

	if saveErr := manager.store.Save(ctx, Persisted{Token: next.Token, User: *next.User}); saveErr != nil {
		// The sign-in stands; only the next restart will ask for credentials again.
		manager.logger.WarnContext(ctx, "session_persist_failed", slog.Any("error", saveErr))
	}

	listeners := manager.commit(next)
	manager.notify(listeners, next)

	manager.logger.InfoContext(ctx, "session_authenticated",
		slog.Int64("user_id", next.User.ID),
		slog.String("role", string(next.User.Role)),
		slog.Bool("registered", registering),
	)

	return next.clone(), nil
}

// abandonAttempt reverts AUTHENTICATING if this attempt set it.
func (manager *Manager) abandonAttempt(markedAuthenticating bool) {
	if !markedAuthenticating {
		return
	}
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.current.Status == StatusAuthenticating {
		manager.current = unauthenticated()
	}
}

// credentialError rewrites backend failures of the credential endpoints.
func credentialError(err error, registering bool) error {
	ae := apperr.As(err)
	if ae == nil {
		return apperr.Network(err)
	}

	switch {
	case registering && (ae.Code == apperr.CodeConflict || (ae.Code == apperr.CodeValidation && mentionsExistingEmail(ae.Message))):
		return apperr.DuplicateEmail(ae.Message).WithUpstream(ae.UpstreamStatus)
	case !registering && ae.Code == apperr.CodeAuth:
		return apperr.Auth("Invalid email or password").WithUpstream(ae.UpstreamStatus)
	}
	return ae
}

// mentionsExistingEmail recognises the backend's duplicate-email messages.
func mentionsExistingEmail(message string) bool {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "email") {
		return false
	}
	for _, marker := range []string{"existe", "utilisé", "utilise", "already", "exists", "taken"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// authResponse accepts both {token, user} and a flattened {token, id, nom, ...}.
type authResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
}

// decodeAuthResponse builds the session carried by a credential answer.
func decodeAuthResponse(payload json.RawMessage) (Session, error) {
	response, err := backend.Decode[authResponse](payload)
	if err != nil {
		return Session{}, err
	}

	token := response.Token
	if token == "" {
		token = response.AccessToken
	}

	user := response.User
	if user == nil {
		flat, err := backend.Decode[User](payload)
		if err != nil {
			return Session{}, err
		}
		user = &flat
	}

	if token == "" || user.Email == "" {
		return Session{}, apperr.Network(errors.New("session: credential response without token or user"))
	}
	if !user.Role.Valid() {
		user.Role = sec.RoleCustomer
	}

	return Session{Token: token, User: user, Status: StatusAuthenticated}, nil
}

// # Sign-out

// Logout clears the session in memory and in the store.
//
// It never contacts the backend, always succeeds from the caller's point of
// view and is idempotent. A store failure is logged.
func (manager *Manager) Logout(ctx context.Context) {
	manager.signOut(ctx, "", "logout")
}

// signOut drops the session. A non-empty onlyToken restricts the sign-out to
// the session still holding that token.
func (manager *Manager) signOut(ctx context.Context, onlyToken, reason string) bool {
	manager.persistMu.Lock()
	defer manager.persistMu.Unlock()

	manager.mu.Lock()
	if onlyToken != "" && manager.current.Token != onlyToken {
		manager.mu.Unlock()
		return false
	}
	wasSignedIn := manager.current.Status != StatusUnauthenticated
	manager.epoch++
	manager.current = unauthenticated()
	listeners := append([]Listener(nil), manager.listeners...)
	manager.mu.Unlock()

	if err := manager.store.Clear(ctx); err != nil {
		manager.logger.WarnContext(ctx, "session_clear_failed", slog.Any("error", err))
	}

	if wasSignedIn {
		manager.logger.InfoContext(ctx, "session_signed_out", slog.String("reason", reason))
		manager.notify(listeners, unauthenticated())
	}
	return wasSignedIn
}

// # Startup Restore

/*
Restore loads the persisted session once at startup.

Description: The token is not checked against the backend; an invalid token is
discovered by the first authenticated call, which then signs out. Corrupt or
incomplete persisted data is cleared.

Returns:
  - Session: AUTHENTICATED with the persisted user, or UNAUTHENTICATED
*/
func (manager *Manager) Restore(ctx context.Context) Session {
	persisted, err := manager.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			manager.logger.WarnContext(ctx, "session_restore_failed", slog.Any("error", err))
			manager.clearStore(ctx)
		}
		return manager.Current()
	}

	restored := Session{Token: persisted.Token, User: &persisted.User, Status: StatusAuthenticated}
	if !restored.valid() || persisted.User.Email == "" || !persisted.User.Role.Valid() {
		manager.logger.WarnContext(ctx, "session_restore_discarded", slog.String("reason", "incomplete persisted session"))
		manager.clearStore(ctx)
		return manager.Current()
	}

	manager.persistMu.Lock()
	listeners := manager.commit(restored)
	manager.persistMu.Unlock()
	manager.notify(listeners, restored)

	attributes := []any{slog.Int64("user_id", persisted.User.ID)}
	if info, ok := sec.InspectToken(persisted.Token); ok && info.HasExpiry() {
		attributes = append(attributes,
			slog.Time("token_expires_at", info.ExpiresAt),
			slog.Bool("token_expired", info.ExpiredAt(manager.now())),
		)
	}
	manager.logger.InfoContext(ctx, "session_restored", attributes...)

	return restored.clone()
}

// clearStore removes persisted data, logging failures.
func (manager *Manager) clearStore(ctx context.Context) {
	if err := manager.store.Clear(ctx); err != nil {
		manager.logger.WarnContext(ctx, "session_clear_failed", slog.Any("error", err))
	}
}

// Ping reports whether the session store is usable.
func (manager *Manager) Ping(ctx context.Context) error {
	return manager.store.Ping(ctx)
}

// # Profile Cache

// UpdateLocalUser replaces the cached user after a confirmed profile change.
//
// It keeps the token, re-persists the session and reports false if the update
// does not concern the signed-in user.
func (manager *Manager) UpdateLocalUser(ctx context.Context, user User) bool {
	manager.persistMu.Lock()
	defer manager.persistMu.Unlock()

	manager.mu.Lock()
	if manager.current.User == nil || manager.current.User.ID != user.ID {
		manager.mu.Unlock()
		return false
	}
	if !user.Role.Valid() {
		user.Role = manager.current.User.Role
	}
	next := Session{Token: manager.current.Token, User: &user, Status: StatusAuthenticated}
	manager.current = next
	listeners := append([]Listener(nil), manager.listeners...)
	manager.mu.Unlock()

	if err := manager.store.Save(ctx, Persisted{Token: next.Token, User: user}); err != nil {
		manager.logger.WarnContext(ctx, "session_persist_failed", slog.Any("error", err))
	}
	manager.notify(listeners, next)
	return true
}

// # Authenticated Requests

/*
AuthenticatedRequest sends req with the session's bearer token.

Description: Without a token it fails immediately with NOT_AUTHENTICATED and
makes no network call. When the backend rejects the credential (401/403) the
manager signs out before returning, so every component observes the
unauthenticated state on its next read. The sign-out only applies if the
session still holds the token that was rejected.

Returns:
  - json.RawMessage: The backend payload (nil when empty)
  - error: NOT_AUTHENTICATED, AUTH_ERROR, VALIDATION_ERROR, NOT_FOUND, NETWORK_ERROR or SERVER_ERROR
*/
func (manager *Manager) AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error) {
	token, err := manager.bearer()
	if err != nil {
		return nil, err
	}

	payload, err := manager.transport.Do(ctx, req, token)
	return payload, manager.observe(ctx, token, err)
}

// AuthenticatedUpload is [Manager.AuthenticatedRequest] for multipart uploads.
func (manager *Manager) AuthenticatedUpload(ctx context.Context, path string, part backend.FilePart) (json.RawMessage, error) {
	token, err := manager.bearer()
	if err != nil {
		return nil, err
	}

	payload, err := manager.transport.Upload(ctx, path, part, token)
	return payload, manager.observe(ctx, token, err)
}

// bearer returns the current token or NOT_AUTHENTICATED.
func (manager *Manager) bearer() (string, error) {
	manager.mu.RLock()
	token := manager.current.Token
	manager.mu.RUnlock()

	if token == "" {
		return "", apperr.NotAuthenticated()
	}
	return token, nil
}

// observe applies the forced sign-out rule to the outcome of a call.
func (manager *Manager) observe(ctx context.Context, token string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsAuth(err) {
		if manager.signOut(ctx, token, "credential_rejected") {
			manager.logger.WarnContext(ctx, "session_expired", slog.String("reason", apperr.Reason(err)))
		}
		return err
	}
	if apperr.As(err) == nil {
		return apperr.Network(fmt.Errorf("session_request_failed: %w", err))
	}
	return err
}

// # Internal State

// commit replaces the session and returns the listeners to notify.
func (manager *Manager) commit(next Session) []Listener {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.current = next
	return append([]Listener(nil), manager.listeners...)
}

// notify calls listeners with a private copy of the session.
func (manager *Manager) notify(listeners []Listener, committed Session) {
	for _, listener := range listeners {
		listener(committed.clone())
	}
}
