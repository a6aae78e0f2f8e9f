package model

import "time"

// ScoreRecord is one entry of a user's best scores.
type ScoreRecord struct {
	CreatedAt time.Time
	PP        *float64 // nil for unranked/loved plays
	Accuracy  float64  // 0..1, zero when the provider omitted it
	Rank      string   // grade such as "S", "SH", "X", "A"

	Beatmap    *Beatmap
	Beatmapset *Beatmapset
}

// Beatmap is a single difficulty of a beatmapset.
type Beatmap struct {
	ID         int64
	Version    string // difficulty name
	Beatmapset *Beatmapset
}

// Beatmapset bundles the difficulties of one song.
type Beatmapset struct {
	ID      int64
	Title   string
	Artist  string
	Creator string // mapper
	Covers  Covers
}

// Covers lists the cover image URLs of a beatmapset.
type Covers struct {
	Cover string
	Card  string
	List  string
}

// BeatmapID returns the beatmap id, or 0 when the score carries no beatmap.
func (s ScoreRecord) BeatmapID() int64 {
	if s.Beatmap == nil {
		return 0
	}
	return s.Beatmap.ID
}

// Difficulty returns the difficulty name, or "" when absent.
func (s ScoreRecord) Difficulty() string {
	if s.Beatmap == nil {
		return ""
	}
	return s.Beatmap.Version
}

// ResolveField walks the beatmapset precedence chain: the score's own
// beatmapset first, then the one nested under the beatmap. It returns the
// first non-empty value of pick and whether anything was found.
func (s ScoreRecord) ResolveField(pick func(*Beatmapset) string) (string, bool) {
	if s.Beatmapset != nil {
		if v := pick(s.Beatmapset); v != "" {
			return v, true
		}
	}
	if s.Beatmap != nil && s.Beatmap.Beatmapset != nil {
		if v := pick(s.Beatmap.Beatmapset); v != "" {
			return v, true
		}
	}
	return "", false
}
