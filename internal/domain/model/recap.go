package model

// YearlyRecap is the derived yearly summary handed to presenters.
// It never aliases the records it was computed from.
type YearlyRecap struct {
	Year      int    `json:"year"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`

	TotalPlays      int             `json:"total_plays"`
	MostActiveMonth *MonthHighlight `json:"most_active_month"`

	TopPlays      []PlayHighlight `json:"top_plays"`
	TopMappers    []NamedCount    `json:"top_mappers"`
	TopArtists    []NamedCount    `json:"top_artists"`
	MostPlayedMap *MapHighlight   `json:"most_played_map"`

	BestPlaysCount  int     `json:"best_plays_count"`
	AverageAccuracy float64 `json:"avg_accuracy"` // 0..1

	CurrentRank     *int    `json:"current_rank"`
	CurrentPP       float64 `json:"current_pp"`
	BackgroundImage string  `json:"background_image,omitempty"`
}

// TopPlay returns the best play of the year, if any.
func (r YearlyRecap) TopPlay() (PlayHighlight, bool) {
	if len(r.TopPlays) == 0 {
		return PlayHighlight{}, false
	}
	return r.TopPlays[0], true
}

// MonthHighlight names the month with the most plays.
type MonthHighlight struct {
	Month string `json:"month"`
	Plays int    `json:"plays"`
}

// PlayHighlight is a display view of one best score.
type PlayHighlight struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Difficulty string `json:"difficulty"`
	PP         int    `json:"pp"`
	Accuracy   string `json:"accuracy"` // percentage with two decimals
	Rank       string `json:"rank"`
	Date       string `json:"date"`
	CoverImage string `json:"cover_image,omitempty"`
}

// NamedCount is one row of a mapper or artist ranking.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MapHighlight is the beatmap with the most entries among the year's best scores.
type MapHighlight struct {
	BeatmapID  int64  `json:"beatmap_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}
