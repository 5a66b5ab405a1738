// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the integration points the chat gateway
// exposes to deployments that bring their own infrastructure.
//
// The gateway core never issues credentials; it only verifies them.
// Token issuance (login endpoints, signing keys, refresh flows) belongs
// to the surrounding identity system. The AuthProvider interface is the
// seam between the two.
//
// # Open Source Behavior
//
// The default NopAuthProvider accepts every token and resolves it to
// "local-user". This keeps single-user local deployments working with
// zero identity infrastructure.
//
// # Enterprise Behavior
//
// Enterprise deployments implement AuthProvider against their identity
// provider (Okta, Auth0, Azure AD) or use the bundled JWT provider in
// services/gateway/auth.
package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when token validation fails.
// Implementations should wrap this error with additional context:
//
//	if !validSignature {
//	    return nil, fmt.Errorf("bad signature: %w", extensions.ErrUnauthorized)
//	}
//
// Callers must branch on errors.Is(err, ErrUnauthorized) rather than
// string matching, and must never forward the wrapped detail to clients.
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo contains the identity resolved from a validated token.
//
// The gateway holds an AuthInfo only for the lifetime of one session;
// it is never shared across connections.
//
// Required fields (always populated):
//   - UserID: Unique identifier for the principal
//
// Optional fields (may be empty):
//   - DisplayName: Human-readable name for logs and UI
//   - Email: Principal's email address
//   - Roles: Role memberships for authorization decisions
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated principal.
	// This is the only required field and must never be empty.
	UserID string

	// DisplayName is a human-readable name for the principal.
	// May be empty if the identity provider does not supply one.
	DisplayName string

	// Email is the principal's email address, if known.
	Email string

	// Roles contains the principal's role memberships.
	// Common roles: "admin", "user"
	Roles []string
}

// HasRole checks if the principal has a specific role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates bearer tokens and returns the principal identity.
//
// Implementations must be safe for concurrent use by many sessions, must
// be side-effect free, and must never panic on untrusted input. A failed
// validation returns an error wrapping ErrUnauthorized; the gateway maps
// that to a websocket close with code 4001 without leaking the reason.
type AuthProvider interface {
	// Validate checks the token and returns the principal's identity.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - token: The bearer token (JWT, API key, session ID, etc.)
	//
	// Returns:
	//   - *AuthInfo: Principal identity if the token is valid
	//   - error: ErrUnauthorized (or wrapped) if invalid
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider is the default provider for open source deployments.
//
// It accepts any token, including the empty string, and resolves it to
// a fixed local principal. Do not use it on a network-exposed gateway.
type NopAuthProvider struct{}

// Validate always succeeds and returns the local principal.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID:      "local-user",
		DisplayName: "Local User",
		Roles:       []string{"admin"},
	}, nil
}

// Compile-time interface check.
var _ AuthProvider = (*NopAuthProvider)(nil)
