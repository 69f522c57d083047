// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/scs/v2"
)

// TokenStore holds at most one bearer token per browser session. The
// token is opaque: it is never parsed or checked for expiry.
type TokenStore struct {
	sm *scs.SessionManager
}

// NewTokenStore creates a token store on top of a session manager.
func NewTokenStore(sm *scs.SessionManager) *TokenStore {
	return &TokenStore{sm: sm}
}

// Token returns the stored token, or "".
func (s *TokenStore) Token(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyToken)
}

// Authenticated reports whether a token is held.
func (s *TokenStore) Authenticated(ctx context.Context) bool {
	return strings.TrimSpace(s.Token(ctx)) != ""
}

// SetToken stores a token, renewing the session id first.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session: %w", err)
	}
	s.sm.Put(ctx, KeyToken, token)
	return nil
}

// Clear drops the token together with everything else in the session.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.sm.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}
