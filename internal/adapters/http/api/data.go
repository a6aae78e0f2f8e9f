package api

import (
	"errors"
	"net/http"

	"github.com/okian/osuwrapped/internal/adapters/session"
	"github.com/okian/osuwrapped/internal/domain/model"
)

// DataHandler serves the JSON views of the profile and recap.
type DataHandler struct {
	service  RecapService
	sessions *session.Codec
}

// NewDataHandler creates a new data handler.
func NewDataHandler(svc RecapService, sessions *session.Codec) *DataHandler {
	return &DataHandler{service: svc, sessions: sessions}
}

type gradeCountsResponse struct {
	SS  int `json:"ss"`
	SSH int `json:"ssh"`
	S   int `json:"s"`
	SH  int `json:"sh"`
	A   int `json:"a"`
}

type meResponse struct {
	ID          int64               `json:"id"`
	Username    string              `json:"username"`
	AvatarURL   string              `json:"avatar_url"`
	CountryCode string              `json:"country_code"`
	CountryName string              `json:"country_name"`
	GlobalRank  *int                `json:"global_rank"`
	PP          float64             `json:"pp"`
	PlayCount   int                 `json:"play_count"`
	HitAccuracy float64             `json:"hit_accuracy"`
	Level       int                 `json:"level"`
	GradeCounts gradeCountsResponse `json:"grade_counts"`
}

func newMeResponse(p model.ProfileSummary) meResponse {
	st := p.Statistics
	return meResponse{
		ID:          p.ID,
		Username:    p.Username,
		AvatarURL:   p.AvatarURL,
		CountryCode: p.CountryCode,
		CountryName: p.CountryName,
		GlobalRank:  st.GlobalRank,
		PP:          st.PP,
		PlayCount:   st.PlayCount,
		HitAccuracy: st.HitAccuracy,
		Level:       st.Level,
		GradeCounts: gradeCountsResponse{
			SS:  st.GradeCounts.SS,
			SSH: st.GradeCounts.SSH,
			S:   st.GradeCounts.S,
			SH:  st.GradeCounts.SH,
			A:   st.GradeCounts.A,
		},
	}
}

// HandleMe handles GET /api/me.
func (h *DataHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	const op = "get me"
	ctx := r.Context()

	s, err := h.sessions.Read(r)
	if err != nil {
		writeError(ctx, w, WrapKind(op, model.ErrAuth, err))
		return
	}
	profile, err := h.service.Profile(ctx, s.AccessToken)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newMeResponse(profile))
}

// HandleRecap handles GET /api/recap?year=.
func (h *DataHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	const op = "get recap"
	ctx := r.Context()

	s, err := h.sessions.Read(r)
	if err != nil {
		writeError(ctx, w, WrapKind(op, model.ErrAuth, err))
		return
	}
	year, err := parseYear(r, h.service.DefaultYear())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	rc, err := h.service.Recap(ctx, credential(s), year)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// fail drops a rejected session before writing the error.
func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrAuth) {
		h.sessions.Clear(w)
	}
	writeError(r.Context(), w, err)
}
