// Package session provides the admin session: an scs manager backed by
// process memory and the helpers that keep the bearer token and
// in-progress form state in it.
package session

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// Session keys.
const (
	KeyToken     = "admin_token"
	KeyNonces    = "form_nonces"
	KeyOriginals = "edit_originals"
)

// Config holds session settings.
type Config struct {
	IsDev       bool
	Lifetime    time.Duration
	IdleTimeout time.Duration
}

// New creates a session manager with an in-memory store. The cookie is
// never persisted, so closing the browser or restarting the server always
// ends the admin session.
func New(cfg Config) *scs.SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()

	sm.Lifetime = cfg.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = 12 * time.Hour
	}
	sm.IdleTimeout = cfg.IdleTimeout

	sm.Cookie.Persist = false
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !cfg.IsDev
	if !cfg.IsDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}
