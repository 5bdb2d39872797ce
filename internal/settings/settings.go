// Package settings holds the login handler's signing and identity provider
// settings. They are read from a file (any format viper understands) with
// environment overrides, and hot reloaded when the file changes.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

const (
	KeyGoogleAPIURL   = "google_api_url"
	KeyTokenIssuer    = "token_issuer"
	KeyTokenAudience  = "token_audience"
	KeySignatureKey   = "signature_key"
	KeyExpirationTime = "expiration_time"
	KeyRequestTimeout = "request_timeout"

	EnvPrefix = "LOGIN_HANDLER"

	DefaultGoogleAPIURL   = "https://www.googleapis.com/oauth2/v1/tokeninfo"
	DefaultExpirationTime = 3600
)

var ErrInvalidSettings = errors.New("invalid settings")

var keys = []string{
	KeyGoogleAPIURL,
	KeyTokenIssuer,
	KeyTokenAudience,
	KeySignatureKey,
	KeyExpirationTime,
	KeyRequestTimeout,
}

// Settings is one immutable snapshot. Never mutate a Settings obtained from
// a Store; load a new one instead.
type Settings struct {
	GoogleAPIURL   string        `mapstructure:"google_api_url"`
	TokenIssuer    string        `mapstructure:"token_issuer"`
	TokenAudience  string        `mapstructure:"token_audience"`
	SignatureKey   string        `mapstructure:"signature_key"`
	ExpirationTime int64         `mapstructure:"expiration_time"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func (s *Settings) SigningConfig() tokens.SigningConfig {
	return tokens.SigningConfig{
		Secret:   s.SignatureKey,
		Issuer:   s.TokenIssuer,
		Audience: s.TokenAudience,
		Lifetime: time.Duration(s.ExpirationTime) * time.Second,
	}
}

func (s *Settings) Endpoint() identity.Endpoint {
	return identity.Endpoint{
		URL:     s.GoogleAPIURL,
		Timeout: s.RequestTimeout,
	}
}

// Check fails when the settings could only produce weak tokens or cannot
// reach a provider.
func (s *Settings) Check() error {
	if err := s.SigningConfig().Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	u, err := url.Parse(s.GoogleAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s is not an absolute url: %q", ErrInvalidSettings, KeyGoogleAPIURL, s.GoogleAPIURL)
	}
	return nil
}

// Load reads settings from path (optional) and LOGIN_HANDLER_* environment
// variables, environment taking precedence.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetDefault(KeyGoogleAPIURL, DefaultGoogleAPIURL)
	v.SetDefault(KeyExpirationTime, DefaultExpirationTime)
	v.SetDefault(KeyRequestTimeout, identity.DefaultTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("couldn't bind env for '%s': %v", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings '%s': %w", path, err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}
