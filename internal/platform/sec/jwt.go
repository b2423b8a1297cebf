// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides credential inspection and role primitives.
//
// # Architecture
//
// The agent never verifies bearer tokens: the backend is the only authority.
// This package reads the public claims of a JWT bearer for diagnostics (when
// does the restored credential claim to expire?) and models the role hierarchy
// used to refuse admin operations locally.
package sec

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the unverified public claims of a bearer token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// HasExpiry reports whether the token declared an 'exp' claim.
func (info TokenInfo) HasExpiry() bool { return !info.ExpiresAt.IsZero() }

// ExpiredAt reports whether the declared expiry is before now.
// Tokens without an expiry never report expired.
func (info TokenInfo) ExpiredAt(now time.Time) bool {
	return info.HasExpiry() && now.After(info.ExpiresAt)
}

// InspectToken decodes the registered claims of a JWT without checking its signature.
//
// # Returns
//   - The decoded [TokenInfo] and true when the token is a well-formed JWT.
//   - A zero [TokenInfo] and false for opaque or malformed tokens.
//
// The result is informational only. It must never gate a request: the backend
// decides whether a credential is valid.
func InspectToken(token string) (TokenInfo, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}
