// Package recap computes the yearly highlights of a player from the raw
// provider records. Everything here is pure: no I/O, no shared state.
package recap

import (
	"fmt"
	"time"

	"github.com/okian/osuwrapped/internal/domain/model"
)

// Aggregation constants.
const (
	topLimit = 5
	unknown  = "Unknown"
	minYear  = 1
	maxYear  = 9999
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithLocation sets the reference time zone used to decide which calendar
// year a score belongs to and to format display dates.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// Aggregator turns a profile and a best-scores list into a YearlyRecap.
// It is immutable after New and safe for concurrent use.
type Aggregator struct {
	loc *time.Location
}

// New creates an Aggregator. The reference location defaults to UTC.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{loc: time.UTC}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAggregator = New()

// Compute derives the recap for year using the default UTC aggregator.
func Compute(profile *model.ProfileSummary, scores []model.ScoreRecord, year int) (model.YearlyRecap, error) {
	return defaultAggregator.Compute(profile, scores, year)
}

// Compute derives the recap for year. scores must be ordered best-first, as
// the provider returns them. Sparse records degrade to defaults; the only
// error is model.ErrMalformedInput for a nil profile or an impossible year.
func (a *Aggregator) Compute(profile *model.ProfileSummary, scores []model.ScoreRecord, year int) (model.YearlyRecap, error) {
	if profile == nil {
		return model.YearlyRecap{}, fmt.Errorf("%w: profile is nil", model.ErrMalformedInput)
	}
	if year < minYear || year > maxYear {
		return model.YearlyRecap{}, fmt.Errorf("%w: year %d out of range", model.ErrMalformedInput, year)
	}

	plays := a.scoresInYear(scores, year)
	months := monthsInYear(profile.MonthlyPlaycounts, year)

	return model.YearlyRecap{
		Year:      year,
		Username:  profile.Username,
		AvatarURL: profile.AvatarURL,

		TotalPlays:      totalPlays(months),
		MostActiveMonth: a.mostActiveMonth(months),

		TopPlays:      a.topPlays(plays),
		TopMappers:    rankNames(plays, mapperOf),
		TopArtists:    rankNames(plays, artistOf),
		MostPlayedMap: mostPlayedMap(plays),

		BestPlaysCount:  len(plays),
		AverageAccuracy: averageAccuracy(plays),

		CurrentRank:     copyInt(profile.Statistics.GlobalRank),
		CurrentPP:       profile.Statistics.PP,
		BackgroundImage: backgroundImage(plays),
	}, nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
