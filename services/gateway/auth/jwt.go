// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package auth provides the bundled JWT credential validator.
//
// Token issuance lives in the surrounding identity system; this package
// only verifies. It implements extensions.AuthProvider over HS256 JWTs
// with a shared secret, the scheme the gateway's companion login
// service signs with.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AleutianAI/AleutianChat/pkg/extensions"
)

// Claims the provider reads from a validated token.
const (
	claimSubject     = "sub"  // principal id, required
	claimDisplayName = "name" // optional
	claimEmail       = "email"
)

// JWTProvider validates HS256 bearer tokens against a shared secret.
//
// # Validation Rules
//
//   - signature must verify under the configured secret
//   - alg must be HS256 (no algorithm negotiation with the client)
//   - exp is enforced; expired tokens are rejected
//   - sub must be present and non-empty
//
// Every failure mode, including unparseable garbage, returns an error
// wrapping extensions.ErrUnauthorized. No input can make Validate
// panic; the jwt library parses untrusted bytes defensively and we add
// nothing that indexes into them.
//
// # Thread Safety
//
// Immutable after construction; safe for concurrent use by many
// sessions.
type JWTProvider struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTProvider creates a validator for tokens signed with secret.
func NewJWTProvider(secret []byte) (*JWTProvider, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("auth: signing secret must not be empty")
	}
	return &JWTProvider{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Validate implements extensions.AuthProvider.
//
// The returned error wraps extensions.ErrUnauthorized for every
// rejection; the wrapped detail (malformed vs expired vs bad signature)
// is for server-side logs only and must not be forwarded to clients.
func (p *JWTProvider) Validate(_ context.Context, token string) (*extensions.AuthInfo, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", extensions.ErrUnauthorized)
	}

	claims := jwt.MapClaims{}
	parsed, err := p.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", extensions.ErrUnauthorized)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("expired token: %w", extensions.ErrUnauthorized)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid signature: %w", extensions.ErrUnauthorized)
		default:
			return nil, fmt.Errorf("token validation failed: %w", extensions.ErrUnauthorized)
		}
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", extensions.ErrUnauthorized)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token has no subject: %w", extensions.ErrUnauthorized)
	}

	info := &extensions.AuthInfo{UserID: sub}
	if name, ok := claims[claimDisplayName].(string); ok {
		info.DisplayName = name
	}
	if email, ok := claims[claimEmail].(string); ok {
		info.Email = email
	}
	return info, nil
}

var _ extensions.AuthProvider = (*JWTProvider)(nil)
