package card

import (
	"fmt"
	"strings"

	"github.com/okian/osuwrapped/internal/domain/model"
)

// Lines returns the text rows of the card, title first.
func Lines(r model.YearlyRecap) []string {
	out := []string{
		fmt.Sprintf("osu! wrapped %d", r.Year),
		r.Username,
		fmt.Sprintf("Total plays: %d", r.TotalPlays),
	}

	if m := r.MostActiveMonth; m != nil {
		out = append(out, fmt.Sprintf("Most active month: %s (%d plays)", m.Month, m.Plays))
	} else {
		out = append(out, "Most active month: -")
	}

	if p, ok := r.TopPlay(); ok {
		out = append(out, fmt.Sprintf("Top play: %s - %s [%s] %dpp %s%% %s",
			p.Title, p.Artist, p.Difficulty, p.PP, p.Accuracy, p.Rank))
	} else {
		out = append(out, "Top play: -")
	}

	if m := r.MostPlayedMap; m != nil {
		out = append(out, fmt.Sprintf("Most played: %s [%s] x%d", m.Title, m.Difficulty, m.Count))
	}

	out = append(out,
		"Top mappers: "+joinCounts(r.TopMappers),
		"Top artists: "+joinCounts(r.TopArtists),
		fmt.Sprintf("Best plays: %d   Avg accuracy: %.2f%%", r.BestPlaysCount, r.AverageAccuracy*100),
	)

	if r.CurrentRank != nil {
		out = append(out, fmt.Sprintf("Rank: #%d   %.0fpp", *r.CurrentRank, r.CurrentPP))
	} else {
		out = append(out, fmt.Sprintf("Rank: Unranked   %.0fpp", r.CurrentPP))
	}
	return out
}

func joinCounts(ns []model.NamedCount) string {
	if len(ns) == 0 {
		return "-"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%s (%d)", n.Name, n.Count)
	}
	return strings.Join(parts, ", ")
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	if n <= 3 {
		return string(rs[:n])
	}
	return string(rs[:n-3]) + "..."
}

// printable replaces runes the 7x13 bitmap face cannot draw with '?'.
// The face only covers printable ASCII.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}
