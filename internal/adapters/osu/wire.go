package osu

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/okian/osuwrapped/internal/domain/model"
)

// Wire shapes of the osu! API v2. Only fields the recap reads are decoded.

type wireUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	CountryCode string `json:"country_code"`
	Country     *struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"country"`
	Statistics *struct {
		GlobalRank  *int    `json:"global_rank"`
		PP          float64 `json:"pp"`
		PlayCount   int     `json:"play_count"`
		HitAccuracy float64 `json:"hit_accuracy"`
		Level       struct {
			Current int `json:"current"`
		} `json:"level"`
		GradeCounts struct {
			SS  int `json:"ss"`
			SSH int `json:"ssh"`
			S   int `json:"s"`
			SH  int `json:"sh"`
			A   int `json:"a"`
		} `json:"grade_counts"`
	} `json:"statistics"`
	MonthlyPlaycounts []struct {
		StartDate string `json:"start_date"`
		Count     int    `json:"count"`
	} `json:"monthly_playcounts"`
}

type wireBeatmapset struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Creator string `json:"creator"`
	Covers  struct {
		Cover string `json:"cover"`
		Card  string `json:"card"`
		List  string `json:"list"`
	} `json:"covers"`
}

type wireScore struct {
	CreatedAt string   `json:"created_at"`
	EndedAt   string   `json:"ended_at"`
	PP        *float64 `json:"pp"`
	Accuracy  float64  `json:"accuracy"`
	Rank      string   `json:"rank"`
	Beatmap   *struct {
		ID         int64           `json:"id"`
		Version    string          `json:"version"`
		Beatmapset *wireBeatmapset `json:"beatmapset"`
	} `json:"beatmap"`
	Beatmapset *wireBeatmapset `json:"beatmapset"`
}

const monthLayout = "2006-01-02"

// DecodeProfile reads a /me response body.
func DecodeProfile(r io.Reader) (model.ProfileSummary, error) {
	var w wireUser
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return model.ProfileSummary{}, fmt.Errorf("%w: decode profile: %w", model.ErrUpstream, err)
	}
	return w.toModel(), nil
}

// DecodeScores reads a best-scores response body.
func DecodeScores(r io.Reader) ([]model.ScoreRecord, error) {
	var ws []wireScore
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return nil, fmt.Errorf("%w: decode scores: %w", model.ErrUpstream, err)
	}
	out := make([]model.ScoreRecord, 0, len(ws))
	for i := range ws {
		out = append(out, ws[i].toModel())
	}
	return out, nil
}

func (w wireUser) toModel() model.ProfileSummary {
	p := model.ProfileSummary{
		ID:          w.ID,
		Username:    w.Username,
		AvatarURL:   w.AvatarURL,
		CountryCode: w.CountryCode,
	}
	if w.Country != nil {
		p.CountryName = w.Country.Name
		if p.CountryCode == "" {
			p.CountryCode = w.Country.Code
		}
	}
	if s := w.Statistics; s != nil {
		p.Statistics = model.Statistics{
			GlobalRank:  s.GlobalRank,
			PP:          s.PP,
			PlayCount:   s.PlayCount,
			HitAccuracy: s.HitAccuracy,
			Level:       s.Level.Current,
			GradeCounts: model.GradeCounts{
				SS:  s.GradeCounts.SS,
				SSH: s.GradeCounts.SSH,
				S:   s.GradeCounts.S,
				SH:  s.GradeCounts.SH,
				A:   s.GradeCounts.A,
			},
		}
	}
	p.MonthlyPlaycounts = make([]model.MonthlyCount, 0, len(w.MonthlyPlaycounts))
	for _, m := range w.MonthlyPlaycounts {
		start, err := time.Parse(monthLayout, m.StartDate)
		if err != nil {
			// unreadable month entries are dropped
			continue
		}
		p.MonthlyPlaycounts = append(p.MonthlyPlaycounts, model.MonthlyCount{PeriodStart: start, Count: m.Count})
	}
	return p
}

func (w wireScore) toModel() model.ScoreRecord {
	s := model.ScoreRecord{
		CreatedAt:  parseTimestamp(w.CreatedAt, w.EndedAt),
		PP:         w.PP,
		Accuracy:   w.Accuracy,
		Rank:       w.Rank,
		Beatmapset: w.Beatmapset.toModel(),
	}
	if w.Beatmap != nil {
		s.Beatmap = &model.Beatmap{
			ID:         w.Beatmap.ID,
			Version:    w.Beatmap.Version,
			Beatmapset: w.Beatmap.Beatmapset.toModel(),
		}
	}
	return s
}

func (w *wireBeatmapset) toModel() *model.Beatmapset {
	if w == nil {
		return nil
	}
	return &model.Beatmapset{
		ID:      w.ID,
		Title:   w.Title,
		Artist:  w.Artist,
		Creator: w.Creator,
		Covers: model.Covers{
			Cover: w.Covers.Cover,
			Card:  w.Covers.Card,
			List:  w.Covers.List,
		},
	}
}

// parseTimestamp returns the first parseable RFC 3339 value, or the zero time.
func parseTimestamp(candidates ...string) time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return t
		}
	}
	return time.Time{}
}
