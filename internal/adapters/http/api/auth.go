package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/osuwrapped/internal/adapters/session"
	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/internal/domain/nonce"
	"github.com/okian/osuwrapped/pkg/logger"
	"github.com/okian/osuwrapped/pkg/metrics"
)

// fallbackSessionTTL applies when the provider omits the token lifetime.
const fallbackSessionTTL = 24 * time.Hour

var errTokenExpired = errors.New("access token already expired")

// AuthHandler drives the OAuth login flow.
type AuthHandler struct {
	auth     Authenticator
	profiles RecapService
	sessions *session.Codec
	states   nonce.Ledger
	now      func() time.Time
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth Authenticator, profiles RecapService, sessions *session.Codec, states nonce.Ledger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		profiles: profiles,
		sessions: sessions,
		states:   states,
		now:      time.Now,
	}
}

// HandleLogin issues a state and redirects to the provider.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := h.states.Issue(r.Context())
	metrics.UpdatePendingStates(h.states.Size())
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the grant and stores the session cookie.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		metrics.RecordOAuthCallbackFailure("missing_code")
		writeMessage(w, http.StatusBadRequest, "No code provided")
		return
	}
	ok := h.states.Consume(ctx, q.Get("state"))
	metrics.UpdatePendingStates(h.states.Size())
	if !ok {
		metrics.RecordOAuthCallbackFailure("invalid_state")
		writeMessage(w, http.StatusBadRequest, "Invalid state")
		return
	}

	s, err := h.login(r, code)
	if err != nil {
		reason := "exchange"
		switch {
		case errors.Is(err, errTokenExpired):
			reason = "expired_token"
		case errors.Is(err, model.ErrUpstream):
			reason = "upstream"
		}
		metrics.RecordOAuthCallbackFailure(reason)
		logger.FromContext(ctx).Error(ctx, "oauth callback failed", logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if err := h.sessions.Write(w, s); err != nil {
		metrics.RecordOAuthCallbackFailure("session")
		logger.FromContext(ctx).Error(ctx, "write session failed", logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	metrics.RecordOAuthLogin()
	logger.FromContext(ctx).Info(ctx, "user logged in",
		logger.Int64("user_id", s.UserID),
		logger.String("username", s.Username),
	)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *AuthHandler) login(r *http.Request, code string) (session.Session, error) {
	const op = "auth callback"
	ctx := r.Context()

	cred, err := h.auth.Exchange(ctx, code)
	if err != nil {
		return session.Session{}, Wrap(op, err)
	}
	now := h.now()
	ttl := cred.TTL(now)
	switch {
	case cred.Expiry.IsZero():
		ttl = fallbackSessionTTL
	case ttl <= 0:
		return session.Session{}, WrapKind(op, model.ErrAuth, errTokenExpired)
	}

	profile, err := h.profiles.Profile(ctx, cred.AccessToken)
	if err != nil {
		return session.Session{}, Wrap(op, err)
	}
	return session.Session{
		AccessToken: cred.AccessToken,
		UserID:      profile.ID,
		Username:    profile.Username,
		Expiry:      now.Add(ttl),
	}, nil
}

// HandleLogout clears the session and returns home.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
