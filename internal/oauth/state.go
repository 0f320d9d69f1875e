package oauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/seojindev/idhub-backend/pkg/config"
	"github.com/seojindev/idhub-backend/pkg/enums"
)

const stateIssuer = "idhub"

var stateSigningMethod = jwt.SigningMethodHS256

// StateClaims is the signed payload carried in the OAuth state parameter. It
// binds the callback to the provider the flow started with.
type StateClaims struct {
	Provider enums.Provider `json:"provider"`
	jwt.RegisteredClaims
}

// MintState issues a short-lived signed state token for the provider.
func MintState(cfg config.OAuthConfig, now time.Time, provider enums.Provider) (string, error) {
	if cfg.StateSecret == "" {
		return "", fmt.Errorf("oauth state secret is required")
	}
	if !provider.IsValid() {
		return "", fmt.Errorf("invalid provider %q", provider)
	}

	claims := StateClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.StateTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(stateSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.StateSecret))
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return signed, nil
}

// ParseState validates the state token and returns its claims.
func ParseState(cfg config.OAuthConfig, tokenString string) (*StateClaims, error) {
	if cfg.StateSecret == "" {
		return nil, fmt.Errorf("oauth state secret is required")
	}

	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != stateSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.StateSecret), nil
		},
		jwt.WithValidMethods([]string{stateSigningMethod.Alg()}),
		jwt.WithIssuer(stateIssuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
