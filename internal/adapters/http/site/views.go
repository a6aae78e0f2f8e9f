package site

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/okian/osuwrapped/internal/domain/model"
)

const proxyPath = "/api/proxy-image"

// DashboardView is the profile page model.
type DashboardView struct {
	Username    string
	AvatarURL   string
	CountryName string
	CountryCode string
	Rank        string
	PlayCount   string
	PP          string
	Accuracy    string
	Level       int
	SS          int
	S           int
	A           int
	Year        int
}

// NewDashboardView formats p for display.
func NewDashboardView(p model.ProfileSummary, year int) DashboardView {
	st := p.Statistics
	return DashboardView{
		Username:    p.Username,
		AvatarURL:   ProxiedImage(p.AvatarURL),
		CountryName: p.CountryName,
		CountryCode: p.CountryCode,
		Rank:        RankLabel(st.GlobalRank),
		PlayCount:   humanize.Comma(int64(st.PlayCount)),
		PP:          humanize.Comma(int64(st.PP + 0.5)),
		Accuracy:    fmt.Sprintf("%.2f%%", st.HitAccuracy),
		Level:       st.Level,
		SS:          st.GradeCounts.TotalSS(),
		S:           st.GradeCounts.TotalS(),
		A:           st.GradeCounts.A,
		Year:        year,
	}
}

// WrappedView is the recap card page model.
type WrappedView struct {
	model.YearlyRecap
	Rank            string
	PP              string
	TotalPlaysLabel string
	AccuracyLabel   string
	Background      string
	Avatar          string
	Covers          []string
	PNGPath         string
}

// NewWrappedView formats r for display. Image URLs go through the proxy so the
// client-side export can read their pixels.
func NewWrappedView(r model.YearlyRecap) WrappedView {
	covers := make([]string, len(r.TopPlays))
	for i, p := range r.TopPlays {
		covers[i] = ProxiedImage(p.CoverImage)
	}
	return WrappedView{
		YearlyRecap:     r,
		Rank:            RankLabel(r.CurrentRank),
		PP:              humanize.Comma(int64(r.CurrentPP + 0.5)),
		TotalPlaysLabel: humanize.Comma(int64(r.TotalPlays)),
		AccuracyLabel:   fmt.Sprintf("%.2f%%", r.AverageAccuracy*100),
		Background:      ProxiedImage(r.BackgroundImage),
		Avatar:          ProxiedImage(r.AvatarURL),
		Covers:          covers,
		PNGPath:         "/wrapped.png?year=" + strconv.Itoa(r.Year),
	}
}

// RankLabel renders a global rank as "#1,234", or "Unranked" when absent.
func RankLabel(rank *int) string {
	if rank == nil {
		return "Unranked"
	}
	return "#" + humanize.Comma(int64(*rank))
}

// ProxiedImage rewrites an image URL to the local proxy. Empty stays empty.
func ProxiedImage(raw string) string {
	if raw == "" {
		return ""
	}
	return proxyPath + "?url=" + url.QueryEscape(raw)
}
