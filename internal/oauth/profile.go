package oauth

import (
	"fmt"
	"strconv"

	"github.com/seojindev/idhub-backend/pkg/enums"
	pkgerrors "github.com/seojindev/idhub-backend/pkg/errors"
)

// Profile is the canonical shape every provider payload normalizes into.
type Profile struct {
	Provider   enums.Provider
	ProviderID string
	Email      *string
}

// Username synthesizes the globally unique username for a federated account.
func (p Profile) Username() string {
	return p.Provider.String() + "_" + p.ProviderID
}

type normalizerFunc func(attrs map[string]any) (Profile, error)

// The closed set of supported providers, dispatched on the OAuth client
// registration id. Adding a provider means adding exactly one entry here
// plus its endpoint wiring in client.go.
var normalizers = map[enums.Provider]normalizerFunc{
	enums.ProviderGoogle:   normalizeGoogle,
	enums.ProviderFacebook: normalizeFacebook,
	enums.ProviderNaver:    normalizeNaver,
}

// Normalize translates a provider-specific attribute map into a Profile.
// Unrecognized registration ids are a hard error; the resolver never sees a
// partially-normalized profile.
func Normalize(registrationID string, attrs map[string]any) (Profile, error) {
	provider, err := enums.ParseProvider(registrationID)
	if err != nil {
		return Profile{}, pkgerrors.New(pkgerrors.CodeUnsupportedProvider, "unsupported identity provider").
			WithDetails(map[string]any{"registration_id": registrationID})
	}

	normalize := normalizers[provider]
	profile, err := normalize(attrs)
	if err != nil {
		return Profile{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "normalize provider profile")
	}
	return profile, nil
}

// Google delivers the subject identifier under "sub" with email at top level.
func normalizeGoogle(attrs map[string]any) (Profile, error) {
	id, ok := stringAttr(attrs, "sub")
	if !ok {
		return Profile{}, fmt.Errorf("google profile missing sub")
	}
	return Profile{
		Provider:   enums.ProviderGoogle,
		ProviderID: id,
		Email:      optionalStringAttr(attrs, "email"),
	}, nil
}

// Facebook delivers "id" at top level; email is absent when the user denied
// the email scope, which is tolerated.
func normalizeFacebook(attrs map[string]any) (Profile, error) {
	id, ok := stringAttr(attrs, "id")
	if !ok {
		return Profile{}, fmt.Errorf("facebook profile missing id")
	}
	return Profile{
		Provider:   enums.ProviderFacebook,
		ProviderID: id,
		Email:      optionalStringAttr(attrs, "email"),
	}, nil
}

// Naver nests the actual profile under a "response" key.
func normalizeNaver(attrs map[string]any) (Profile, error) {
	nested, ok := attrs["response"].(map[string]any)
	if !ok {
		return Profile{}, fmt.Errorf("naver payload missing response object")
	}
	id, ok := stringAttr(nested, "id")
	if !ok {
		return Profile{}, fmt.Errorf("naver profile missing id")
	}
	return Profile{
		Provider:   enums.ProviderNaver,
		ProviderID: id,
		Email:      optionalStringAttr(nested, "email"),
	}, nil
}

func stringAttr(attrs map[string]any, key string) (string, bool) {
	switch v := attrs[key].(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		// numeric ids arrive as float64 after generic JSON decoding
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func optionalStringAttr(attrs map[string]any, key string) *string {
	if v, ok := stringAttr(attrs, key); ok {
		return &v
	}
	return nil
}
