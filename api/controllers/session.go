package controllers

import (
	"net/http"
	"time"

	"github.com/seojindev/idhub-backend/pkg/config"
)

// setSessionCookie writes the opaque session id. The cookie is the only
// credential the browser holds; the principal itself stays server-side.
func setSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.TTL() / time.Second),
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg config.SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
