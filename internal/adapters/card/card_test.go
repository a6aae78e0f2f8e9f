package card_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/osuwrapped/internal/adapters/card"
	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeCovers struct {
	img   imageproxy.Image
	err   error
	calls int
}

func (f *fakeCovers) Fetch(_ context.Context, _ string) (imageproxy.Image, error) {
	f.calls++
	return f.img, f.err
}

func solidPNG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func sampleRecap() model.YearlyRecap {
	rank := 1234
	return model.YearlyRecap{
		Year:            2025,
		Username:        "peppy",
		TotalPlays:      110,
		MostActiveMonth: &model.MonthHighlight{Month: "March", Plays: 50},
		TopPlays: []model.PlayHighlight{{
			Title: "Song", Artist: "Band", Difficulty: "Insane", PP: 300, Accuracy: "98.76", Rank: "S",
		}},
		TopMappers:      []model.NamedCount{{Name: "A", Count: 2}, {Name: "B", Count: 1}},
		TopArtists:      []model.NamedCount{},
		MostPlayedMap:   &model.MapHighlight{Title: "Song", Difficulty: "Insane", Count: 2},
		BestPlaysCount:  2,
		AverageAccuracy: 0.85,
		CurrentRank:     &rank,
		CurrentPP:       4321.5,
		BackgroundImage: "https://assets.ppy.sh/beatmaps/7/covers/cover.jpg",
	}
}

func TestLines(t *testing.T) {
	Convey("Given a recap", t, func() {
		lines := card.Lines(sampleRecap())

		Convey("Then the card text summarizes it", func() {
			So(lines[0], ShouldEqual, "osu! wrapped 2025")
			So(lines, ShouldContain, "Total plays: 110")
			So(lines, ShouldContain, "Most active month: March (50 plays)")
			So(lines, ShouldContain, "Top play: Song - Band [Insane] 300pp 98.76% S")
			So(lines, ShouldContain, "Most played: Song [Insane] x2")
			So(lines, ShouldContain, "Top mappers: A (2), B (1)")
			So(lines, ShouldContain, "Top artists: -")
			So(lines, ShouldContain, "Best plays: 2   Avg accuracy: 85.00%")
			So(lines[len(lines)-1], ShouldEqual, "Rank: #1234   4322pp")
		})
	})

	Convey("Given an empty recap", t, func() {
		lines := card.Lines(model.YearlyRecap{Year: 2025})

		So(lines, ShouldContain, "Most active month: -")
		So(lines, ShouldContain, "Top play: -")
		So(strings.HasPrefix(lines[len(lines)-1], "Rank: Unranked"), ShouldBeTrue)
	})
}

func TestRender(t *testing.T) {
	Convey("Given a renderer", t, func() {
		ctx := context.Background()

		Convey("When rendering without a cover source", func() {
			var buf bytes.Buffer
			err := card.NewRenderer(card.WithSize(600, 315)).Render(ctx, &buf, sampleRecap())

			Convey("Then a PNG of the requested size is produced", func() {
				So(err, ShouldBeNil)
				img, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 600)
				So(img.Bounds().Dy(), ShouldEqual, 315)
			})
		})

		Convey("When the cover loads", func() {
			covers := &fakeCovers{img: imageproxy.Image{Data: solidPNG(color.RGBA{R: 255, A: 255}), ContentType: "image/png"}}
			var buf bytes.Buffer
			err := card.NewRenderer(card.WithCoverFetcher(covers)).Render(ctx, &buf, sampleRecap())
			So(err, ShouldBeNil)

			Convey("Then the cover tints the background", func() {
				So(covers.calls, ShouldEqual, 1)
				img, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				r, g, _, _ := img.At(img.Bounds().Max.X-1, img.Bounds().Max.Y-1).RGBA()
				So(r, ShouldBeGreaterThan, g)
			})
		})

		Convey("When the cover fails", func() {
			covers := &fakeCovers{err: errors.New("offline")}
			var buf bytes.Buffer
			err := card.NewRenderer(card.WithCoverFetcher(covers)).Render(ctx, &buf, sampleRecap())

			Convey("Then the card is still produced", func() {
				So(err, ShouldBeNil)
				_, err := png.Decode(&buf)
				So(err, ShouldBeNil)
			})
		})
	})
}
