package enums

import "fmt"

// Provider identifies a supported third-party identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderNaver    Provider = "naver"
)

var validProviders = []Provider{
	ProviderGoogle,
	ProviderFacebook,
	ProviderNaver,
}

// String implements fmt.Stringer.
func (p Provider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Provider.
func (p Provider) IsValid() bool {
	for _, candidate := range validProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProvider converts a registration id into a Provider.
func ParseProvider(value string) (Provider, error) {
	for _, candidate := range validProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid provider %q", value)
}

// Providers returns the closed set of supported providers.
func Providers() []Provider {
	return append([]Provider(nil), validProviders...)
}
