// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/osuwrapped/internal/adapters/http/site"
	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
	"github.com/okian/osuwrapped/internal/adapters/osu"
	"github.com/okian/osuwrapped/internal/adapters/session"
	service "github.com/okian/osuwrapped/internal/app"
	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/internal/domain/nonce"
	"github.com/okian/osuwrapped/pkg/logger"
)

// RecapService is the use-case layer behind the handlers.
type RecapService interface {
	Profile(ctx context.Context, token string) (model.ProfileSummary, error)
	Recap(ctx context.Context, cred service.Credential, year int) (model.YearlyRecap, error)
	DefaultYear() int
}

// Authenticator runs the OAuth authorization-code grant.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (osu.Credential, error)
}

// ImageFetcher loads allowlisted images.
type ImageFetcher interface {
	Parse(rawURL string) (*url.URL, error)
	Fetch(ctx context.Context, rawURL string) (imageproxy.Image, error)
}

// CardRenderer writes a recap as an image.
type CardRenderer interface {
	Render(ctx context.Context, w io.Writer, r model.YearlyRecap) error
}

// Dependencies bundles what the handlers need. Every field is required.
type Dependencies struct {
	Service  RecapService
	Auth     Authenticator
	Sessions *session.Codec
	States   nonce.Ledger
	Images   ImageFetcher
	Cards    CardRenderer
	Pages    *site.Presenter
}

// Server wires HTTP routes for the service.
type Server struct {
	healthHandler *HealthHandler
	authHandler   *AuthHandler
	dataHandler   *DataHandler
	proxyHandler  *ProxyHandler
	pageHandler   *PageHandler
	limiter       *RateLimiter
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimiter guards the API and auth routes with l.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		authHandler:   NewAuthHandler(deps.Auth, deps.Service, deps.Sessions, deps.States),
		dataHandler:   NewDataHandler(deps.Service, deps.Sessions),
		proxyHandler:  NewProxyHandler(deps.Images),
		pageHandler:   NewPageHandler(deps.Service, deps.Sessions, deps.Pages, deps.Cards),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	limited := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		if s.limiter == nil {
			return MetricsMiddleware(h, endpoint)
		}
		return MetricsMiddleware(s.limiter.Middleware(h, endpoint), endpoint)
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)

	mux.HandleFunc("GET /api/auth/login", limited(s.authHandler.HandleLogin, "auth_login"))
	mux.HandleFunc("GET /api/auth/callback", limited(s.authHandler.HandleCallback, "auth_callback"))
	mux.HandleFunc("GET /api/auth/logout", MetricsMiddleware(s.authHandler.HandleLogout, "auth_logout"))

	mux.HandleFunc("GET /api/me", limited(s.dataHandler.HandleMe, "me"))
	mux.HandleFunc("GET /api/recap", limited(s.dataHandler.HandleRecap, "recap"))
	mux.HandleFunc("GET /api/proxy-image", limited(s.proxyHandler.HandleProxyImage, "proxy_image"))

	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.pageHandler.HandleIndex, "index"))
	mux.HandleFunc("GET /dashboard", MetricsMiddleware(s.pageHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("GET /wrapped", limited(s.pageHandler.HandleWrapped, "wrapped"))
	mux.HandleFunc("GET /wrapped.png", limited(s.pageHandler.HandleWrappedPNG, "wrapped_png"))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage writes the plain {"error": msg} body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps err onto a status and a coded body.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	var apiErr *Error
	if status == http.StatusBadRequest && errors.As(err, &apiErr) && apiErr.Err != nil {
		msg = apiErr.Err.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// classify picks the HTTP status for an error kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, model.ErrAuth):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// parseYear reads ?year=, falling back to def when absent.
func parseYear(r *http.Request, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return def, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, WrapKind("parse year", ErrBadRequest, fmt.Errorf("invalid year %q", raw))
	}
	return year, nil
}

// credential turns a session into the service credential.
func credential(s session.Session) service.Credential {
	return service.Credential{AccessToken: s.AccessToken, UserID: s.UserID}
}
