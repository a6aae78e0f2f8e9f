package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/internal/domain/recap"
	"github.com/okian/osuwrapped/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeProvider struct {
	mu          sync.Mutex
	profile     model.ProfileSummary
	scores      []model.ScoreRecord
	profileErr  error
	scoresErr   error
	scoresUser  int64
	scoresLimit int
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
}

func (f *fakeProvider) enter() func() {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		m := atomic.LoadInt32(&f.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInFlight, m, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return func() { atomic.AddInt32(&f.inFlight, -1) }
}

func (f *fakeProvider) FetchProfile(ctx context.Context, _ string) (model.ProfileSummary, error) {
	defer f.enter()()
	if f.profileErr != nil {
		return model.ProfileSummary{}, f.profileErr
	}
	return f.profile, ctx.Err()
}

func (f *fakeProvider) FetchBestScores(ctx context.Context, _ string, userID int64, limit int) ([]model.ScoreRecord, error) {
	defer f.enter()()
	f.mu.Lock()
	f.scoresUser, f.scoresLimit = userID, limit
	f.mu.Unlock()
	if f.scoresErr != nil {
		return nil, f.scoresErr
	}
	return f.scores, ctx.Err()
}

func pp(v float64) *float64 { return &v }

func newFake() *fakeProvider {
	rank := 77
	return &fakeProvider{
		profile: model.ProfileSummary{
			ID:         2,
			Username:   "peppy",
			Statistics: model.Statistics{GlobalRank: &rank, PP: 1000},
			MonthlyPlaycounts: []model.MonthlyCount{
				{PeriodStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Count: 10},
				{PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Count: 50},
			},
		},
		scores: []model.ScoreRecord{
			{CreatedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), PP: pp(300), Accuracy: 0.9},
			{CreatedAt: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), PP: pp(500), Accuracy: 0.8},
		},
		delay: 20 * time.Millisecond,
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		s := New(newFake())

		Convey("Then it should have sensible defaults", func() {
			So(s.limit, ShouldEqual, 100)
			So(s.DefaultYear(), ShouldEqual, time.Now().UTC().Year())
		})
	})

	Convey("Given a new service with custom options", t, func() {
		s := New(newFake(),
			WithBestScoresLimit(50),
			WithDefaultYear(2025),
			WithAggregator(recap.New(recap.WithLocation(time.UTC))),
			WithLogger(logger.Named("test")),
		)

		Convey("Then they are applied", func() {
			So(s.limit, ShouldEqual, 50)
			So(s.DefaultYear(), ShouldEqual, 2025)
			So(s.logger, ShouldNotBeNil)
		})
	})
}

func TestService_Recap(t *testing.T) {
	Convey("Given a service over a fake provider", t, func() {
		ctx := context.Background()
		fake := newFake()
		s := New(fake, WithDefaultYear(2025))

		Convey("When the user id is known", func() {
			r, err := s.Recap(ctx, Credential{AccessToken: "tok", UserID: 2}, 0)

			Convey("Then both fetches run concurrently and the recap is aggregated", func() {
				So(err, ShouldBeNil)
				So(atomic.LoadInt32(&fake.maxInFlight), ShouldEqual, int32(2))
				So(r.Year, ShouldEqual, 2025)
				So(r.TotalPlays, ShouldEqual, 60)
				So(r.BestPlaysCount, ShouldEqual, 1)
				So(r.TopPlays[0].PP, ShouldEqual, 300)
				So(*r.CurrentRank, ShouldEqual, 77)
				So(fake.scoresLimit, ShouldEqual, 100)
			})
		})

		Convey("When the user id is unknown", func() {
			r, err := s.Recap(ctx, Credential{AccessToken: "tok"}, 2024)

			Convey("Then the profile supplies the id before scores are fetched", func() {
				So(err, ShouldBeNil)
				So(atomic.LoadInt32(&fake.maxInFlight), ShouldEqual, int32(1))
				So(fake.scoresUser, ShouldEqual, int64(2))
				So(r.Year, ShouldEqual, 2024)
				So(r.TopPlays[0].PP, ShouldEqual, 500)
			})
		})

		Convey("When the scores fetch fails", func() {
			fake.scoresErr = model.ErrUpstream
			_, err := s.Recap(ctx, Credential{AccessToken: "tok", UserID: 2}, 2025)

			Convey("Then the recap is aborted with the upstream kind", func() {
				So(errors.Is(err, model.ErrUpstream), ShouldBeTrue)
				So(Kind(err), ShouldEqual, "upstream")
			})
		})

		Convey("When the token is rejected", func() {
			fake.profileErr = model.ErrAuth
			_, err := s.Recap(ctx, Credential{AccessToken: "tok"}, 2025)

			So(errors.Is(err, model.ErrAuth), ShouldBeTrue)
			So(Kind(err), ShouldEqual, "auth")
		})

		Convey("When the year is out of range", func() {
			_, err := s.Recap(ctx, Credential{AccessToken: "tok", UserID: 2}, 10000)

			So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
			So(Kind(err), ShouldEqual, "malformed")
		})
	})
}

func TestService_Profile(t *testing.T) {
	Convey("Given a service", t, func() {
		fake := newFake()
		s := New(fake)

		Convey("When the provider answers", func() {
			p, err := s.Profile(context.Background(), "tok")
			So(err, ShouldBeNil)
			So(p.Username, ShouldEqual, "peppy")
		})

		Convey("When the provider fails", func() {
			fake.profileErr = model.ErrAuth
			_, err := s.Profile(context.Background(), "tok")
			So(errors.Is(err, model.ErrAuth), ShouldBeTrue)
		})
	})
}

func TestKind(t *testing.T) {
	Convey("Given assorted errors", t, func() {
		So(Kind(nil), ShouldEqual, "none")
		So(Kind(context.Canceled), ShouldEqual, "canceled")
		So(Kind(errors.New("boom")), ShouldEqual, "internal")
	})
}
