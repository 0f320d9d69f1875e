package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "idhub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names shared with tests and deployment tooling.
const (
	EnvAppEnv           = "IDHUB_APP_ENV"
	EnvPort             = "IDHUB_APP_PORT"
	EnvDBDSN            = "IDHUB_DB_DSN"
	EnvRedisURL         = "IDHUB_REDIS_URL"
	EnvOAuthStateSecret = "IDHUB_OAUTH_STATE_SECRET"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	OAuth         OAuthConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"IDHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"IDHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"IDHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"IDHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"IDHUB_DB_DSN" required:"true"`
	Driver string `envconfig:"IDHUB_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"IDHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"IDHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"IDHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"IDHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"IDHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"IDHUB_REDIS_ADDR"`
	Password     string        `envconfig:"IDHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"IDHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"IDHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"IDHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"IDHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"IDHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"IDHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	TTLMinutes   int    `envconfig:"IDHUB_SESSION_TTL_MINUTES" default:"1440"`
	CookieName   string `envconfig:"IDHUB_SESSION_COOKIE_NAME" default:"idhub_session"`
	CookieSecure bool   `envconfig:"IDHUB_SESSION_COOKIE_SECURE" default:"true"`
	CookieDomain string `envconfig:"IDHUB_SESSION_COOKIE_DOMAIN"`
}

// TTL returns the session lifetime configured in minutes.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"IDHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"IDHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"IDHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"IDHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"IDHUB_ARGON_KEY_LEN" default:"32"`
}

// OAuthProviderConfig carries the client registration for one upstream provider.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether the registration is complete enough to use.
func (p OAuthProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURL != ""
}

type OAuthConfig struct {
	StateSecret     string `envconfig:"IDHUB_OAUTH_STATE_SECRET" required:"true"`
	StateTTLMinutes int    `envconfig:"IDHUB_OAUTH_STATE_TTL_MINUTES" default:"10"`

	GoogleClientID     string `envconfig:"IDHUB_OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"IDHUB_OAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"IDHUB_OAUTH_GOOGLE_REDIRECT_URL"`

	FacebookClientID     string `envconfig:"IDHUB_OAUTH_FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `envconfig:"IDHUB_OAUTH_FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURL  string `envconfig:"IDHUB_OAUTH_FACEBOOK_REDIRECT_URL"`

	NaverClientID     string `envconfig:"IDHUB_OAUTH_NAVER_CLIENT_ID"`
	NaverClientSecret string `envconfig:"IDHUB_OAUTH_NAVER_CLIENT_SECRET"`
	NaverRedirectURL  string `envconfig:"IDHUB_OAUTH_NAVER_REDIRECT_URL"`
}

// StateTTL returns the lifetime of the signed OAuth state parameter.
func (o OAuthConfig) StateTTL() time.Duration {
	if o.StateTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(o.StateTTLMinutes) * time.Minute
}

// Provider returns the registration for the named provider. Unknown names
// yield a zero registration that reports Configured() == false.
func (o OAuthConfig) Provider(name string) OAuthProviderConfig {
	switch name {
	case "google":
		return OAuthProviderConfig{
			ClientID:     o.GoogleClientID,
			ClientSecret: o.GoogleClientSecret,
			RedirectURL:  o.GoogleRedirectURL,
		}
	case "facebook":
		return OAuthProviderConfig{
			ClientID:     o.FacebookClientID,
			ClientSecret: o.FacebookClientSecret,
			RedirectURL:  o.FacebookRedirectURL,
		}
	case "naver":
		return OAuthProviderConfig{
			ClientID:     o.NaverClientID,
			ClientSecret: o.NaverClientSecret,
			RedirectURL:  o.NaverRedirectURL,
		}
	}
	return OAuthProviderConfig{}
}

// AuthRateLimitConfig throttles credential-guessing traffic on the auth
// endpoints. Zero windows or limits disable the corresponding counter.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"IDHUB_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"IDHUB_RL_LOGIN_IP_LIMIT" default:"30"`
	LoginUsernameLimit int           `envconfig:"IDHUB_RL_LOGIN_USERNAME_LIMIT" default:"10"`

	RegisterWindow  time.Duration `envconfig:"IDHUB_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit int           `envconfig:"IDHUB_RL_REGISTER_IP_LIMIT" default:"20"`

	// TrustProxyHeaders must only be set when the service sits behind a
	// proxy that strips client-supplied X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool `envconfig:"IDHUB_RL_TRUST_PROXY_HEADERS" default:"false"`
}

type CORSConfig struct {
	ExtraOrigins []string `envconfig:"IDHUB_CORS_EXTRA_ORIGINS"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"IDHUB_AUTO_MIGRATE" default:"false"`
}
