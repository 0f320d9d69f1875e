package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seojindev/idhub-backend/api/responses"
	"github.com/seojindev/idhub-backend/internal/auth"
	"github.com/seojindev/idhub-backend/internal/oauth"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"github.com/seojindev/idhub-backend/pkg/logger"
)

func providerFromPath(r *http.Request) (enums.Provider, error) {
	raw := chi.URLParam(r, "provider")
	provider, err := enums.ParseProvider(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeUnsupportedProvider, "unsupported identity provider").
			WithDetails(map[string]any{"registration_id": raw})
	}
	return provider, nil
}

// OAuthAuthorize starts the provider consent flow: it mints a signed state
// token and redirects the browser to the provider.
func OAuthAuthorize(client *oauth.Client, oauthCfg config.OAuthConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := providerFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := oauth.MintState(oauthCfg, time.Now(), provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint state"))
			return
		}

		redirectURL, err := client.AuthCodeURL(provider, state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// OAuthCallback completes the provider flow: it validates the state, swaps
// the code for a token, pulls the profile, and signs the user in.
func OAuthCallback(svc auth.Service, client *oauth.Client, oauthCfg config.OAuthConfig, sessionCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := providerFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProvider(ctx, provider.String())
		}

		if denied := r.URL.Query().Get("error"); denied != "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider sign-in was not completed").
				WithDetails(map[string]any{"provider_error": denied}))
			return
		}

		claims, err := oauth.ParseState(oauthCfg, r.URL.Query().Get("state"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid state"))
			return
		}
		if claims.Provider != provider {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "state was issued for a different provider"))
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required"))
			return
		}

		token, err := client.Exchange(ctx, provider, code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		attrs, err := client.FetchProfile(ctx, provider, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.FederatedLogin(ctx, provider.String(), attrs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		setSessionCookie(w, sessionCfg, result.SessionID)
		responses.WriteSuccess(w, result.User)
	}
}
