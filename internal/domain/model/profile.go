// Package model contains domain models passed between layers.
package model

import "time"

// ProfileSummary is the subset of the osu! /me payload the recap needs.
type ProfileSummary struct {
	ID          int64
	Username    string
	AvatarURL   string
	CountryCode string
	CountryName string
	Statistics  Statistics

	// MonthlyPlaycounts is the provider's history, one entry per month.
	// Not necessarily sorted and may span several years.
	MonthlyPlaycounts []MonthlyCount
}

// Statistics holds the current ruleset statistics of a user.
type Statistics struct {
	GlobalRank  *int // nil when the user is unranked
	PP          float64
	PlayCount   int
	HitAccuracy float64 // percentage, e.g. 98.12
	Level       int
	GradeCounts GradeCounts
}

// GradeCounts counts scores per grade.
type GradeCounts struct {
	SS  int
	SSH int
	S   int
	SH  int
	A   int
}

// TotalSS returns SS plus silver SS.
func (g GradeCounts) TotalSS() int { return g.SS + g.SSH }

// TotalS returns S plus silver S.
func (g GradeCounts) TotalS() int { return g.S + g.SH }

// MonthlyCount is the number of plays recorded for one calendar month.
type MonthlyCount struct {
	PeriodStart time.Time // first day of the month, as reported (UTC date)
	Count       int
}
