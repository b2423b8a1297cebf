// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the agent's credential and identity.

Every backend call that needs authentication goes through [Manager], which
attaches the bearer token and, centrally, signs the user out when the backend
rejects the credential. Other components never hold the token themselves.

Architecture:

  - Session: Token, User and Status, replaced as a whole on every transition.
  - Manager: Login, Register, Logout, Restore and AuthenticatedRequest.
  - Store: Persisted copy of the session (Redis in production, memory in tests).
*/
package session

import (
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/sec"
)

// # Session Lifecycle

// Status is the authentication state of the agent.
type Status string

const (
	StatusUnauthenticated Status = "UNAUTHENTICATED"
	StatusAuthenticating  Status = "AUTHENTICATING"
	StatusAuthenticated   Status = "AUTHENTICATED"
)

// User is the identity record the backend returns for the signed-in account.
type User struct {
	ID      int64    `json:"id"`
	Name    string   `json:"nom"`
	Email   string   `json:"email"`
	Role    sec.Role `json:"role"`
	Phone   string   `json:"telephone,omitempty"`
	Address string   `json:"adresse,omitempty"`
	Enabled bool     `json:"enabled"`
}

// IsAdmin reports whether the user administers the store.
func (user User) IsAdmin() bool { return user.Role == sec.RoleAdmin }

// Session is a committed snapshot of the agent's authentication state.
//
// # Invariant
//
// User is non-nil if and only if Status is AUTHENTICATED, and Token is
// non-empty if and only if User is non-nil.
type Session struct {
	Token  string `json:"-"`
	User   *User  `json:"user,omitempty"`
	Status Status `json:"status"`
}

// Authenticated reports whether the session holds a credential.
func (s Session) Authenticated() bool { return s.Status == StatusAuthenticated }

// RequireAdmin refuses locally, before any backend call, unless s belongs
// to an administrator.
func (s Session) RequireAdmin() error {
	if !s.Authenticated() {
		return apperr.NotAuthenticated()
	}
	if !s.User.IsAdmin() {
		return apperr.Forbidden("Administrator access required")
	}
	return nil
}

// clone returns a copy that shares no memory with s.
func (s Session) clone() Session {
	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	return s
}

// valid reports whether the session satisfies its invariant.
func (s Session) valid() bool {
	switch s.Status {
	case StatusAuthenticated:
		return s.User != nil && s.Token != ""
	default:
		return s.User == nil && s.Token == ""
	}
}

// unauthenticated is the empty session the agent starts with.
func unauthenticated() Session {
	return Session{Status: StatusUnauthenticated}
}
