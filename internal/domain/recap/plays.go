package recap

import (
	"math"
	"strconv"

	"github.com/okian/osuwrapped/internal/domain/model"
)

const displayDateLayout = "January 2"

func (a *Aggregator) topPlays(plays []model.ScoreRecord) []model.PlayHighlight {
	n := min(topLimit, len(plays))
	out := make([]model.PlayHighlight, 0, n)
	for _, s := range plays[:n] {
		out = append(out, a.highlight(s))
	}
	return out
}

func (a *Aggregator) highlight(s model.ScoreRecord) model.PlayHighlight {
	return model.PlayHighlight{
		Title:      orUnknown(s.ResolveField(func(b *model.Beatmapset) string { return b.Title })),
		Artist:     orUnknown(s.ResolveField(func(b *model.Beatmapset) string { return b.Artist })),
		Difficulty: orUnknown(s.Difficulty(), s.Difficulty() != ""),
		PP:         roundPP(s.PP),
		Accuracy:   formatAccuracy(s.Accuracy),
		Rank:       s.Rank,
		Date:       s.CreatedAt.In(a.loc).Format(displayDateLayout),
		CoverImage: coverOf(s),
	}
}

func orUnknown(v string, ok bool) string {
	if !ok {
		return unknown
	}
	return v
}

func roundPP(pp *float64) int {
	if pp == nil || math.IsNaN(*pp) {
		return 0
	}
	return int(math.Round(*pp))
}

// tieEpsilon absorbs binary error on ratios like 157/160 that sit on a
// rounding tie in decimal.
const tieEpsilon = 1e-9

// formatAccuracy renders a 0..1 ratio as a percentage with two decimals.
// Ties round half up.
func formatAccuracy(acc float64) string {
	hundredths := math.Floor(acc*10000 + 0.5 + tieEpsilon)
	return strconv.FormatFloat(hundredths/100, 'f', 2, 64)
}

func coverOf(s model.ScoreRecord) string {
	v, _ := s.ResolveField(func(b *model.Beatmapset) string { return b.Covers.Cover })
	return v
}

func backgroundImage(plays []model.ScoreRecord) string {
	if len(plays) == 0 {
		return ""
	}
	return coverOf(plays[0])
}

// averageAccuracy is taken over every in-year score, not just the top plays.
func averageAccuracy(plays []model.ScoreRecord) float64 {
	if len(plays) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range plays {
		sum += s.Accuracy
	}
	return sum / float64(len(plays))
}
