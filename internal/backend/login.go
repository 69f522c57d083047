// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// TokenMarker precedes the token inside the login response message.
const TokenMarker = "Token Gerado:"

// BearerScheme is the scheme tag every stored token carries.
const BearerScheme = "Bearer"

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// Login exchanges admin credentials for a bearer token. Rejected
// credentials return ErrInvalidCredentials; any other error means the
// backend could not be reached or answered garbage.
func (c *Client) Login(ctx context.Context, email, senha string) (string, error) {
	res, err := c.do(ctx, http.MethodPost, PathLogin, nil, "", loginRequest{Email: email, Senha: senha})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if res.decodeErr != nil {
		return "", fmt.Errorf("login: %w", res.decodeErr)
	}
	token, ok := ExtractToken(res.env)
	if !ok {
		return "", ErrInvalidCredentials
	}
	return token, nil
}

// ExtractToken pulls the token out of a login envelope and normalizes it
// to carry the Bearer scheme.
func ExtractToken(env Envelope) (string, bool) {
	if !env.OK() {
		return "", false
	}
	_, after, found := strings.Cut(env.Mensagem, TokenMarker)
	if !found {
		return "", false
	}
	token := strings.TrimSpace(after)
	if token == "" {
		return "", false
	}
	if !strings.HasPrefix(token, BearerScheme) {
		token = BearerScheme + " " + token
	}
	return token, true
}
