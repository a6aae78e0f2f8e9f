// Package session stores the provider credential in a signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okian/osuwrapped/internal/domain/model"
)

const (
	defaultCookieName = "osu_access_token"
	defaultIssuer     = "osu-wrapped"
)

// Session is what a logged-in browser carries between requests.
type Session struct {
	AccessToken string
	UserID      int64
	Username    string
	Expiry      time.Time
}

type claims struct {
	AccessToken string `json:"tok"`
	Username    string `json:"usr,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs sessions as HS256 tokens and moves them in and out of cookies.
type Codec struct {
	secret     []byte
	issuer     string
	cookieName string
	secure     bool
	now        func() time.Time
}

// Option applies a configuration option to the Codec.
type Option func(*Codec)

// WithCookieName sets the cookie name.
func WithCookieName(name string) Option {
	return func(c *Codec) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithSecure marks the cookie Secure.
func WithSecure(secure bool) Option {
	return func(c *Codec) { c.secure = secure }
}

// WithIssuer sets the iss claim.
func WithIssuer(iss string) Option {
	return func(c *Codec) {
		if iss != "" {
			c.issuer = iss
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a Codec signing with secret.
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		cookieName: defaultCookieName,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CookieName returns the configured cookie name.
func (c *Codec) CookieName() string { return c.cookieName }

// Encode signs s. The expiry comes from s.Expiry.
func (c *Codec) Encode(s Session) (string, error) {
	if s.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrInvalidSession)
	}
	if !s.Expiry.After(c.now()) {
		return "", fmt.Errorf("%w: already expired", ErrInvalidSession)
	}
	cl := claims{
		AccessToken: s.AccessToken,
		Username:    s.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(s.Expiry),
		},
	}
	if s.UserID != 0 {
		cl.Subject = strconv.FormatInt(s.UserID, 10)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
}

// Decode verifies raw and returns the session it carries.
func (c *Codec) Decode(raw string) (Session, error) {
	if raw == "" {
		return Session{}, fmt.Errorf("%w: %w", model.ErrAuth, ErrNoSession)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	var cl claims
	if _, err := parser.ParseWithClaims(raw, &cl, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}); err != nil {
		return Session{}, fmt.Errorf("%w: %w: %w", model.ErrAuth, ErrInvalidSession, err)
	}
	if cl.AccessToken == "" {
		return Session{}, fmt.Errorf("%w: %w: no access token", model.ErrAuth, ErrInvalidSession)
	}

	s := Session{AccessToken: cl.AccessToken, Username: cl.Username}
	if cl.Subject != "" {
		id, err := strconv.ParseInt(cl.Subject, 10, 64)
		if err != nil {
			return Session{}, fmt.Errorf("%w: %w: subject: %w", model.ErrAuth, ErrInvalidSession, err)
		}
		s.UserID = id
	}
	if cl.ExpiresAt != nil {
		s.Expiry = cl.ExpiresAt.Time
	}
	return s, nil
}

// Write sets the session cookie. Max-Age follows the session expiry.
func (c *Codec) Write(w http.ResponseWriter, s Session) error {
	value, err := c.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.Expiry.Sub(c.now()).Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session carried by r. Every failure matches model.ErrAuth.
func (c *Codec) Read(r *http.Request) (Session, error) {
	ck, err := r.Cookie(c.cookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return Session{}, fmt.Errorf("%w: %w", model.ErrAuth, ErrNoSession)
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w: %w", model.ErrAuth, ErrInvalidSession, err)
	}
	return c.Decode(ck.Value)
}
