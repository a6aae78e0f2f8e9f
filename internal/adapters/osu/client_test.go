package osu_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/osuwrapped/internal/adapters/osu"
	"github.com/okian/osuwrapped/internal/domain/model"
)

const meBody = `{
  "id": 2,
  "username": "peppy",
  "avatar_url": "https://a.ppy.sh/2",
  "country_code": "AU",
  "country": {"code": "AU", "name": "Australia"},
  "statistics": {
    "global_rank": 1234,
    "pp": 4321.5,
    "play_count": 9001,
    "hit_accuracy": 98.12,
    "level": {"current": 100, "progress": 3},
    "grade_counts": {"ss": 1, "ssh": 2, "s": 3, "sh": 4, "a": 5}
  },
  "monthly_playcounts": [
    {"start_date": "2025-01-01", "count": 10},
    {"start_date": "garbage", "count": 99},
    {"start_date": "2025-03-01", "count": 50}
  ]
}`

const scoresBody = `[
  {
    "created_at": "2025-03-14T10:00:00Z",
    "pp": 300.4,
    "accuracy": 0.9876,
    "rank": "S",
    "beatmap": {"id": 11, "version": "Insane", "beatmapset": {"id": 7, "title": "Nested", "artist": "Nested Artist", "creator": "mapperA"}},
    "beatmapset": {"id": 7, "title": "Song", "artist": "Band", "creator": "mapperA", "covers": {"cover": "https://assets.ppy.sh/beatmaps/7/covers/cover.jpg"}}
  },
  {
    "ended_at": "2025-04-01T00:00:00Z",
    "pp": null,
    "accuracy": 0.9,
    "rank": "A",
    "beatmap": {"id": 12, "version": "Hard"}
  }
]`

func newProvider(t *testing.T, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(meBody))
	})
	mux.HandleFunc("/users/2/scores/best", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("limit") != "100" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(scoresBody))
	})
	mux.HandleFunc("/users/3/scores/best", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetchProfile(t *testing.T) {
	Convey("Given a provider client", t, func() {
		ctx := context.Background()
		srv := newProvider(t, http.StatusOK)
		c := osu.NewClient(srv.URL+"/", osu.WithTimeout(2*time.Second))

		Convey("When the token is accepted", func() {
			p, err := c.FetchProfile(ctx, "good")

			Convey("Then the profile is mapped from the wire format", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, int64(2))
				So(p.Username, ShouldEqual, "peppy")
				So(p.CountryName, ShouldEqual, "Australia")
				So(*p.Statistics.GlobalRank, ShouldEqual, 1234)
				So(p.Statistics.Level, ShouldEqual, 100)
				So(p.Statistics.GradeCounts.TotalSS(), ShouldEqual, 3)
			})

			Convey("Then unreadable month entries are dropped", func() {
				So(p.MonthlyPlaycounts, ShouldHaveLength, 2)
				So(p.MonthlyPlaycounts[1].PeriodStart, ShouldEqual, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
				So(p.MonthlyPlaycounts[1].Count, ShouldEqual, 50)
			})
		})

		Convey("When the token is rejected", func() {
			_, err := c.FetchProfile(ctx, "bad")
			So(errors.Is(err, model.ErrAuth), ShouldBeTrue)
		})

		Convey("When no token is given", func() {
			_, err := c.FetchProfile(ctx, "")
			So(errors.Is(err, model.ErrAuth), ShouldBeTrue)
		})
	})

	Convey("Given a failing provider", t, func() {
		srv := newProvider(t, http.StatusBadGateway)
		c := osu.NewClient(srv.URL)

		_, err := c.FetchProfile(context.Background(), "good")

		Convey("Then the failure is an upstream error", func() {
			So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
			So(errors.Is(err, model.ErrAuth), ShouldBeFalse)
		})
	})

	Convey("Given an unreachable provider", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := osu.NewClient(url).FetchProfile(context.Background(), "good")
		So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
	})
}

func TestClientFetchBestScores(t *testing.T) {
	Convey("Given a provider client", t, func() {
		ctx := context.Background()
		srv := newProvider(t, http.StatusOK)
		c := osu.NewClient(srv.URL)

		Convey("When fetching best scores", func() {
			scores, err := c.FetchBestScores(ctx, "good", 2, 100)

			Convey("Then order and nesting are preserved", func() {
				So(err, ShouldBeNil)
				So(scores, ShouldHaveLength, 2)
				So(*scores[0].PP, ShouldAlmostEqual, 300.4)
				So(scores[0].Beatmapset.Title, ShouldEqual, "Song")
				So(scores[0].Beatmap.Beatmapset.Title, ShouldEqual, "Nested")
				So(scores[0].BeatmapID(), ShouldEqual, int64(11))
				So(scores[0].CreatedAt, ShouldEqual, time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
			})

			Convey("Then missing fields stay empty", func() {
				So(scores[1].PP, ShouldBeNil)
				So(scores[1].Beatmapset, ShouldBeNil)
				So(scores[1].Difficulty(), ShouldEqual, "Hard")
				So(scores[1].CreatedAt, ShouldEqual, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When the token is forbidden", func() {
			_, err := c.FetchBestScores(ctx, "bad", 2, 100)
			So(errors.Is(err, model.ErrAuth), ShouldBeTrue)
		})

		Convey("When the body is not a score list", func() {
			_, err := c.FetchBestScores(ctx, "good", 3, 100)
			So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("Given raw dumps", t, func() {
		Convey("When decoding a profile dump", func() {
			p, err := osu.DecodeProfile(strings.NewReader(meBody))
			So(err, ShouldBeNil)
			So(p.Username, ShouldEqual, "peppy")
		})

		Convey("When decoding an invalid dump", func() {
			_, err := osu.DecodeProfile(strings.NewReader("{"))
			So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
		})

		Convey("When a score has no usable timestamp", func() {
			scores, err := osu.DecodeScores(strings.NewReader(`[{"created_at": "yesterday"}]`))
			So(err, ShouldBeNil)
			So(scores[0].CreatedAt.IsZero(), ShouldBeTrue)
		})
	})
}
