package recap

import "github.com/okian/osuwrapped/internal/domain/model"

// scoresInYear keeps the scores created during year in the reference
// location. Input order is preserved.
func (a *Aggregator) scoresInYear(scores []model.ScoreRecord, year int) []model.ScoreRecord {
	out := make([]model.ScoreRecord, 0, len(scores))
	for _, s := range scores {
		if s.CreatedAt.In(a.loc).Year() == year {
			out = append(out, s)
		}
	}
	return out
}

// monthsInYear keeps the months whose reported start date falls in year.
func monthsInYear(months []model.MonthlyCount, year int) []model.MonthlyCount {
	out := make([]model.MonthlyCount, 0, len(months))
	for _, m := range months {
		if m.PeriodStart.Year() == year {
			out = append(out, m)
		}
	}
	return out
}
