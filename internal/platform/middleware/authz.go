// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"

	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/sec"
)

// RoleSource exposes the role of the agent's current session.
//
// # Why an interface?
//
// Defining RoleSource here decouples the middleware from the session package,
// allowing tests to inject a fixed role.
type RoleSource interface {
	// CurrentRole returns the signed-in user's role and false when signed out.
	CurrentRole() (sec.Role, bool)
}

// RequireSession blocks requests while the agent holds no session.
//
// # Flow
//  1. Ask the [RoleSource] whether a user is signed in.
//  2. If not, abort with NOT_AUTHENTICATED before any backend call is made.
func RequireSession(source RoleSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if _, ok := source.CurrentRole(); !ok {
				respond.Error(writer, request, apperr.NotAuthenticated())
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// RequireRole blocks requests when the signed-in user lacks the required role.
//
// It implies [RequireSession] so you don't need to mount both.
func RequireRole(source RoleSource, role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current, ok := source.CurrentRole()

			// ── 1. Authentication Check ───────────────────────────────────────
			if !ok {
				respond.Error(writer, request, apperr.NotAuthenticated())
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !current.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Administrator access required"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
