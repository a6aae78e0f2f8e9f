// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - Errors wrap this package's sentinels so callers can use errors.Is.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PublicURL is the externally visible base URL of the service.
	PublicURL string `koanf:"public_url"`

	// OAuth client registration.
	OsuClientID     string `koanf:"osu_client_id"`
	OsuClientSecret string `koanf:"osu_client_secret"`
	OsuRedirectURI  string `koanf:"osu_redirect_uri"`

	// Provider endpoints. Overridable for tests and mirrors.
	OsuAuthorizeURL string `koanf:"osu_authorize_url"`
	OsuTokenURL     string `koanf:"osu_token_url"`
	OsuAPIURL       string `koanf:"osu_api_url"`

	// RecapYear is used when a request does not name a year.
	RecapYear int `koanf:"recap_year"`

	// Timezone is the reference location for year boundaries and display dates.
	Timezone string `koanf:"timezone"`

	// BestScoresLimit is the best-scores page size requested from the provider.
	BestScoresLimit int `koanf:"best_scores_limit"`

	// UpstreamTimeoutMS bounds each provider call.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// Session cookie settings.
	SessionSecret       string `koanf:"session_secret"`
	SessionCookieName   string `koanf:"session_cookie_name"`
	SessionCookieSecure bool   `koanf:"session_cookie_secure"`

	// OAuth state ledger bounds.
	StateTTLSeconds int `koanf:"state_ttl_seconds"`
	StateCapacity   int `koanf:"state_capacity"`

	// Image proxy policy.
	ProxyAllowedHosts []string `koanf:"proxy_allowed_hosts"`
	ProxyMaxBytes     int64    `koanf:"proxy_max_bytes"`

	// Per-IP rate limit on API routes.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// Metrics collection. MetricsInstance, when set, becomes a constant
	// "instance" label on every series.
	MetricsEnabled        bool   `koanf:"metrics_enabled"`
	MetricsRefreshSeconds int    `koanf:"metrics_refresh_seconds"`
	MetricsInstance       string `koanf:"metrics_instance"`
}

const (
	fixedBestScoresLimit = 100
	minSecretLen         = 16
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8080",
		PublicURL:           "http://localhost:8080",
		OsuRedirectURI:      "http://localhost:8080/api/auth/callback",
		OsuAuthorizeURL:     "https://osu.ppy.sh/oauth/authorize",
		OsuTokenURL:         "https://osu.ppy.sh/oauth/token",
		OsuAPIURL:           "https://osu.ppy.sh/api/v2",
		RecapYear:           2025,
		Timezone:            "UTC",
		BestScoresLimit:     fixedBestScoresLimit,
		UpstreamTimeoutMS:   10_000,
		SessionCookieName:   "osu_access_token",
		SessionCookieSecure: false,
		StateTTLSeconds:     600,
		StateCapacity:       10_000,
		ProxyAllowedHosts:   []string{"assets.ppy.sh", "a.ppy.sh", "osu.ppy.sh"},
		ProxyMaxBytes:       10 << 20,
		RateLimitRPS:        5,
		RateLimitBurst:      20,

		MetricsEnabled:        true,
		MetricsRefreshSeconds: 10,
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	for key, raw := range map[string]string{
		"osu_authorize_url": c.OsuAuthorizeURL,
		"osu_token_url":     c.OsuTokenURL,
		"osu_api_url":       c.OsuAPIURL,
		"osu_redirect_uri":  c.OsuRedirectURI,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q must be an absolute URL", key, raw))
		}
	}
	if strings.TrimSpace(c.OsuClientID) == "" {
		errs = append(errs, errors.New("osu_client_id must not be empty"))
	}
	if strings.TrimSpace(c.OsuClientSecret) == "" {
		errs = append(errs, errors.New("osu_client_secret must not be empty"))
	}
	if c.RecapYear < 1 || c.RecapYear > 9999 {
		errs = append(errs, fmt.Errorf("recap_year %d out of range", c.RecapYear))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.BestScoresLimit != fixedBestScoresLimit {
		errs = append(errs, fmt.Errorf("best_scores_limit must be %d", fixedBestScoresLimit))
	}
	if c.UpstreamTimeoutMS <= 0 {
		errs = append(errs, errors.New("upstream_timeout_ms must be positive"))
	}
	if len(c.SessionSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("session_secret must be at least %d bytes", minSecretLen))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("session_cookie_name must not be empty"))
	}
	if c.StateTTLSeconds <= 0 || c.StateCapacity <= 0 {
		errs = append(errs, errors.New("state_ttl_seconds and state_capacity must be positive"))
	}
	if c.ProxyMaxBytes <= 0 {
		errs = append(errs, errors.New("proxy_max_bytes must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate_limit_rps and rate_limit_burst must be positive"))
	}
	if c.MetricsRefreshSeconds <= 0 {
		errs = append(errs, errors.New("metrics_refresh_seconds must be positive"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Location returns the reference location, UTC when unset or unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshSeconds as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// StateTTL returns StateTTLSeconds as a duration.
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.StateTTLSeconds) * time.Second
}
