// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianChat/pkg/extensions"
)

var testSecret = []byte("test-signing-secret")

// signToken builds an HS256 token for test scenarios.
func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestNewJWTProvider_RequiresSecret(t *testing.T) {
	_, err := NewJWTProvider(nil)
	assert.Error(t, err)
}

func TestJWTProvider_Validate_Success(t *testing.T) {
	p, err := NewJWTProvider(testSecret)
	require.NoError(t, err)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-42",
		"name":  "Ada",
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	info, err := p.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", info.UserID)
	assert.Equal(t, "Ada", info.DisplayName)
	assert.Equal(t, "ada@example.com", info.Email)
}

// TestJWTProvider_Validate_Rejections covers the full rejection
// taxonomy. Every case must resolve to ErrUnauthorized — never a panic,
// never a distinct error type a caller could leak to the client.
func TestJWTProvider_Validate_Rejections(t *testing.T) {
	p, err := NewJWTProvider(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage", token: "not-a-jwt-at-all"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9"},
		{
			name: "wrong secret",
			token: signToken(t, []byte("other-secret"), jwt.MapClaims{
				"sub": "user-42",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "user-42",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "no expiry claim",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "user-42",
			}),
		},
		{
			name: "no subject",
			token: signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := p.Validate(context.Background(), tt.token)
			assert.Nil(t, info)
			assert.ErrorIs(t, err, extensions.ErrUnauthorized)
		})
	}
}

// TestJWTProvider_Validate_RejectsAlgorithmConfusion verifies a token
// claiming alg=none is rejected even with an otherwise valid payload.
func TestJWTProvider_Validate_RejectsAlgorithmConfusion(t *testing.T) {
	p, err := NewJWTProvider(testSecret)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = p.Validate(context.Background(), signed)
	assert.ErrorIs(t, err, extensions.ErrUnauthorized)
}
