package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/osuwrapped/internal/adapters/http/site"
	"github.com/okian/osuwrapped/internal/adapters/session"
	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/pkg/logger"
)

// PageHandler serves the HTML pages and the PNG export.
type PageHandler struct {
	service  RecapService
	sessions *session.Codec
	pages    *site.Presenter
	cards    CardRenderer
}

// NewPageHandler creates a new page handler.
func NewPageHandler(svc RecapService, sessions *session.Codec, pages *site.Presenter, cards CardRenderer) *PageHandler {
	return &PageHandler{service: svc, sessions: sessions, pages: pages, cards: cards}
}

// HandleIndex renders the landing page.
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	_, err := h.sessions.Read(r)
	h.render(r, h.pages.Index(w, site.IndexView{LoggedIn: err == nil}))
}

// HandleDashboard renders the profile page.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Profile(r.Context(), s.AccessToken)
	if err != nil {
		h.fail(w, r, Wrap("dashboard", err))
		return
	}
	h.render(r, h.pages.Dashboard(w, site.NewDashboardView(profile, h.service.DefaultYear())))
}

// HandleWrapped renders the recap card page.
func (h *PageHandler) HandleWrapped(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.recap(w, r, "wrapped")
	if !ok {
		return
	}
	h.render(r, h.pages.Wrapped(w, site.NewWrappedView(rc)))
}

// HandleWrappedPNG exports the recap card as a PNG download.
func (h *PageHandler) HandleWrappedPNG(w http.ResponseWriter, r *http.Request) {
	const op = "wrapped png"
	rc, ok := h.recap(w, r, op)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.cards.Render(r.Context(), &buf, rc); err != nil {
		h.fail(w, r, WrapKind(op, ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("osu-wrapped-%d.png", rc.Year)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) recap(w http.ResponseWriter, r *http.Request, op string) (model.YearlyRecap, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return model.YearlyRecap{}, false
	}
	year, err := parseYear(r, h.service.DefaultYear())
	if err != nil {
		h.fail(w, r, err)
		return model.YearlyRecap{}, false
	}
	rc, err := h.service.Recap(r.Context(), credential(s), year)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return model.YearlyRecap{}, false
	}
	return rc, true
}

// session redirects home when the request carries no usable session.
func (h *PageHandler) session(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	s, err := h.sessions.Read(r)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			h.sessions.Clear(w)
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return session.Session{}, false
	}
	return s, true
}

// fail maps err onto a redirect or an error page.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, model.ErrAuth) {
		h.sessions.Clear(w)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	status, _ := classify(err)
	msg := "Something went wrong while building your recap."
	switch status {
	case http.StatusBadRequest:
		msg = "That year does not look right."
	case http.StatusBadGateway:
		msg = "osu! is not answering right now. Try again in a moment."
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error(ctx, "page failed", logger.Error(err))
	}
	h.render(r, h.pages.Error(w, status, msg))
}

func (h *PageHandler) render(r *http.Request, err error) {
	if err != nil {
		ctx := r.Context()
		logger.FromContext(ctx).Error(ctx, "render page failed", logger.Error(err))
	}
}
