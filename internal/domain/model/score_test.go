package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/osuwrapped/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func title(b *model.Beatmapset) string { return b.Title }

func TestScoreRecordResolveField(t *testing.T) {
	convey.Convey("Given score records with partial beatmapset data", t, func() {
		convey.Convey("When the score carries its own beatmapset", func() {
			s := model.ScoreRecord{
				Beatmapset: &model.Beatmapset{Title: "Own"},
				Beatmap:    &model.Beatmap{Beatmapset: &model.Beatmapset{Title: "Nested"}},
			}
			v, ok := s.ResolveField(title)

			convey.Convey("Then the own beatmapset wins", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, "Own")
			})
		})

		convey.Convey("When only the nested beatmapset has the field", func() {
			s := model.ScoreRecord{
				Beatmapset: &model.Beatmapset{Artist: "someone"},
				Beatmap:    &model.Beatmap{Beatmapset: &model.Beatmapset{Title: "Nested"}},
			}
			v, ok := s.ResolveField(title)

			convey.Convey("Then the nested value is used", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, "Nested")
			})
		})

		convey.Convey("When nothing is present", func() {
			s := model.ScoreRecord{}
			v, ok := s.ResolveField(title)

			convey.Convey("Then nothing is resolved and the accessors stay nil-safe", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(v, convey.ShouldEqual, "")
				convey.So(s.BeatmapID(), convey.ShouldEqual, int64(0))
				convey.So(s.Difficulty(), convey.ShouldEqual, "")
			})
		})
	})
}

func TestGradeCountsAndRecap(t *testing.T) {
	convey.Convey("Given grade counts", t, func() {
		g := model.GradeCounts{SS: 2, SSH: 3, S: 10, SH: 5, A: 7}

		convey.Convey("Then silver grades are folded in", func() {
			convey.So(g.TotalSS(), convey.ShouldEqual, 5)
			convey.So(g.TotalS(), convey.ShouldEqual, 15)
		})
	})

	convey.Convey("Given a recap", t, func() {
		convey.Convey("When it has no plays", func() {
			_, ok := model.YearlyRecap{}.TopPlay()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("When it has plays", func() {
			r := model.YearlyRecap{TopPlays: []model.PlayHighlight{{Title: "first"}, {Title: "second"}}}
			p, ok := r.TopPlay()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(p.Title, convey.ShouldEqual, "first")
		})
	})

	convey.Convey("Given the failure kinds", t, func() {
		convey.Convey("Then they are distinct", func() {
			convey.So(errors.Is(model.ErrAuth, model.ErrUpstream), convey.ShouldBeFalse)
			convey.So(errors.Is(model.ErrUpstream, model.ErrMalformedInput), convey.ShouldBeFalse)
		})
	})
}
