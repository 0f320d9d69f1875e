package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

const userInfoTimeout = 10 * time.Second

// ProviderEndpoints carries the upstream URLs for one provider.
type ProviderEndpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// Google and Facebook endpoints come from x/oauth2; Naver is not shipped
// there, so its URLs live here.
var defaultEndpoints = map[enums.Provider]ProviderEndpoints{
	enums.ProviderGoogle: {
		AuthURL:     google.Endpoint.AuthURL,
		TokenURL:    google.Endpoint.TokenURL,
		UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
	},
	enums.ProviderFacebook: {
		AuthURL:     facebook.Endpoint.AuthURL,
		TokenURL:    facebook.Endpoint.TokenURL,
		UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
	},
	enums.ProviderNaver: {
		AuthURL:     "https://nid.naver.com/oauth2.0/authorize",
		TokenURL:    "https://nid.naver.com/oauth2.0/token",
		UserInfoURL: "https://openapi.naver.com/v1/nid/me",
	},
}

var providerScopes = map[enums.Provider][]string{
	enums.ProviderGoogle:   {"openid", "email", "profile"},
	enums.ProviderFacebook: {"email", "public_profile"},
	enums.ProviderNaver:    nil,
}

// Client performs the upstream half of the OAuth2 flow: consent URL
// construction, code exchange, and user-info retrieval. It hands back raw
// attribute maps; normalization is the caller's concern.
type Client struct {
	cfg        config.OAuthConfig
	endpoints  map[enums.Provider]ProviderEndpoints
	httpClient *http.Client
}

// NewClient constructs an OAuth client from the provider registrations.
func NewClient(cfg config.OAuthConfig) *Client {
	return NewClientWithEndpoints(cfg, nil)
}

// NewClientWithEndpoints allows overriding upstream URLs per provider.
// Unlisted providers keep their defaults.
func NewClientWithEndpoints(cfg config.OAuthConfig, overrides map[enums.Provider]ProviderEndpoints) *Client {
	endpoints := make(map[enums.Provider]ProviderEndpoints, len(defaultEndpoints))
	for provider, eps := range defaultEndpoints {
		endpoints[provider] = eps
	}
	for provider, eps := range overrides {
		endpoints[provider] = eps
	}
	return &Client{
		cfg:        cfg,
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: userInfoTimeout},
	}
}

// AuthCodeURL builds the provider consent URL carrying the signed state.
func (c *Client) AuthCodeURL(provider enums.Provider, state string) (string, error) {
	conf, err := c.providerConfig(provider)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state), nil
}

// Exchange swaps the authorization code for a provider token.
func (c *Client) Exchange(ctx context.Context, provider enums.Provider, code string) (*oauth2.Token, error) {
	conf, err := c.providerConfig(provider)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "exchange authorization code")
	}
	return token, nil
}

// FetchProfile retrieves the raw attribute map from the provider's user-info
// endpoint using the exchanged token.
func (c *Client) FetchProfile(ctx context.Context, provider enums.Provider, token *oauth2.Token) (map[string]any, error) {
	endpoints, ok := c.endpoints[provider]
	if !ok {
		return nil, unsupported(provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoints.UserInfoURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build user-info request")
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch provider profile")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read provider profile")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	var attrs map[string]any
	if err := json.Unmarshal(body, &attrs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode provider profile")
	}
	return attrs, nil
}

func (c *Client) providerConfig(provider enums.Provider) (*oauth2.Config, error) {
	registration := c.cfg.Provider(provider.String())
	if !registration.Configured() {
		return nil, unsupported(provider)
	}
	endpoints, ok := c.endpoints[provider]
	if !ok {
		return nil, unsupported(provider)
	}

	return &oauth2.Config{
		ClientID:     registration.ClientID,
		ClientSecret: registration.ClientSecret,
		RedirectURL:  registration.RedirectURL,
		Scopes:       providerScopes[provider],
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpoints.AuthURL,
			TokenURL: endpoints.TokenURL,
		},
	}, nil
}

func unsupported(provider enums.Provider) error {
	return pkgerrors.New(pkgerrors.CodeUnsupportedProvider, "unsupported identity provider").
		WithDetails(map[string]any{"registration_id": provider.String()})
}
