package recap

import "github.com/okian/osuwrapped/internal/domain/model"

func totalPlays(months []model.MonthlyCount) int {
	total := 0
	for _, m := range months {
		total += m.Count
	}
	return total
}

// mostActiveMonth returns the month with the highest count. Ties go to the
// entry that appears first in the input.
func (a *Aggregator) mostActiveMonth(months []model.MonthlyCount) *model.MonthHighlight {
	if len(months) == 0 {
		return nil
	}
	best := months[0]
	for _, m := range months[1:] {
		if m.Count > best.Count {
			best = m
		}
	}
	return &model.MonthHighlight{
		Month: a.monthLabel(best),
		Plays: best.Count,
	}
}

// monthLabel names the month of m. The period start is a midnight UTC date;
// shifting it by one day keeps zones west of UTC from landing on the
// previous month.
func (a *Aggregator) monthLabel(m model.MonthlyCount) string {
	return m.PeriodStart.AddDate(0, 0, 1).In(a.loc).Month().String()
}
