package recap

import (
	"cmp"
	"slices"

	"github.com/okian/osuwrapped/internal/domain/model"
)

// tally counts keys while remembering the order in which they were first
// seen. Its ranking is stable, so equal counts keep first-seen order.
type tally[K comparable] struct {
	pos     map[K]int
	entries []tallyEntry[K]
}

type tallyEntry[K comparable] struct {
	key   K
	count int
	first int // index of the first contributing record
}

func newTally[K comparable]() *tally[K] {
	return &tally[K]{pos: make(map[K]int)}
}

func (t *tally[K]) add(key K, at int) {
	if i, ok := t.pos[key]; ok {
		t.entries[i].count++
		return
	}
	t.pos[key] = len(t.entries)
	t.entries = append(t.entries, tallyEntry[K]{key: key, count: 1, first: at})
}

// ranked returns at most n entries by count descending.
func (t *tally[K]) ranked(n int) []tallyEntry[K] {
	sorted := slices.Clone(t.entries)
	slices.SortStableFunc(sorted, func(a, b tallyEntry[K]) int {
		return cmp.Compare(b.count, a.count)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// nameOf resolves a grouping key; ok is false when the record has none.
type nameOf func(model.ScoreRecord) (string, bool)

func mapperOf(s model.ScoreRecord) (string, bool) {
	return s.ResolveField(func(b *model.Beatmapset) string { return b.Creator })
}

func artistOf(s model.ScoreRecord) (string, bool) {
	return s.ResolveField(func(b *model.Beatmapset) string { return b.Artist })
}

// rankNames groups plays by key, skipping records without one, and returns
// the top entries.
func rankNames(plays []model.ScoreRecord, key nameOf) []model.NamedCount {
	t := newTally[string]()
	for i, s := range plays {
		if name, ok := key(s); ok {
			t.add(name, i)
		}
	}
	top := t.ranked(topLimit)
	out := make([]model.NamedCount, 0, len(top))
	for _, e := range top {
		out = append(out, model.NamedCount{Name: e.key, Count: e.count})
	}
	return out
}

// mostPlayedMap returns the beatmap with the most entries among plays.
func mostPlayedMap(plays []model.ScoreRecord) *model.MapHighlight {
	t := newTally[int64]()
	for i, s := range plays {
		if id := s.BeatmapID(); id != 0 {
			t.add(id, i)
		}
	}
	top := t.ranked(1)
	if len(top) == 0 {
		return nil
	}
	s := plays[top[0].first]
	return &model.MapHighlight{
		BeatmapID:  top[0].key,
		Title:      orUnknown(s.ResolveField(func(b *model.Beatmapset) string { return b.Title })),
		Artist:     orUnknown(artistOf(s)),
		Difficulty: orUnknown(s.Difficulty(), s.Difficulty() != ""),
		Count:      top[0].count,
	}
}
