// Package service orchestrates the provider fetches and the recap aggregation
// for the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/internal/domain/recap"
	"github.com/okian/osuwrapped/pkg/logger"
	"github.com/okian/osuwrapped/pkg/metrics"
)

const defaultBestScoresLimit = 100

// Provider is the read side of the osu! API.
type Provider interface {
	FetchProfile(ctx context.Context, token string) (model.ProfileSummary, error)
	FetchBestScores(ctx context.Context, token string, userID int64, limit int) ([]model.ScoreRecord, error)
}

// Aggregator turns one fetch cycle into a recap.
type Aggregator interface {
	Compute(profile *model.ProfileSummary, scores []model.ScoreRecord, year int) (model.YearlyRecap, error)
}

// Credential identifies the caller towards the provider. UserID is 0 when unknown.
type Credential struct {
	AccessToken string
	UserID      int64
}

// Service implements the recap use cases.
type Service struct {
	provider    Provider
	aggregator  Aggregator
	limit       int
	defaultYear int
	logger      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAggregator replaces the default UTC aggregator.
func WithAggregator(a Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithBestScoresLimit sets the best-scores page size.
func WithBestScoresLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithDefaultYear sets the year used when a caller passes 0.
func WithDefaultYear(year int) Option {
	return func(s *Service) {
		if year > 0 {
			s.defaultYear = year
		}
	}
}

// New constructs a Service reading from provider.
func New(provider Provider, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		aggregator:  recap.New(),
		limit:       defaultBestScoresLimit,
		defaultYear: time.Now().UTC().Year(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultYear returns the year used when none is requested.
func (s *Service) DefaultYear() int { return s.defaultYear }

func (s *Service) log(ctx context.Context) logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx).Named("service")
}

// Profile fetches the caller's profile.
func (s *Service) Profile(ctx context.Context, token string) (model.ProfileSummary, error) {
	p, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		return model.ProfileSummary{}, fmt.Errorf("fetch profile: %w", err)
	}
	return p, nil
}

// Recap fetches one cycle of provider data and aggregates it for year.
// Either fetch failing aborts the recap. Nothing is cached.
func (s *Service) Recap(ctx context.Context, cred Credential, year int) (model.YearlyRecap, error) {
	if year == 0 {
		year = s.defaultYear
	}

	profile, scores, err := s.fetch(ctx, cred)
	if err != nil {
		metrics.RecordRecapFailure(Kind(err))
		s.log(ctx).Warn(ctx, "recap fetch failed",
			logger.Int("year", year),
			logger.String("kind", Kind(err)),
			logger.Error(err),
		)
		return model.YearlyRecap{}, err
	}

	started := time.Now()
	out, err := s.aggregator.Compute(&profile, scores, year)
	if err != nil {
		metrics.RecordRecapFailure(Kind(err))
		s.log(ctx).Error(ctx, "recap aggregation failed", logger.Int("year", year), logger.Error(err))
		return model.YearlyRecap{}, fmt.Errorf("aggregate: %w", err)
	}
	elapsed := time.Since(started)
	metrics.RecordRecapComputed(len(scores), float64(elapsed.Microseconds())/1000)

	s.log(ctx).Info(ctx, "recap computed",
		logger.Int64("user_id", profile.ID),
		logger.Int("year", year),
		logger.Int("scores", len(scores)),
		logger.Int("best_plays", out.BestPlaysCount),
		logger.Duration("aggregation", elapsed),
	)
	return out, nil
}

// fetch runs both reads concurrently when the user id is known; otherwise the
// profile call supplies it first.
func (s *Service) fetch(ctx context.Context, cred Credential) (model.ProfileSummary, []model.ScoreRecord, error) {
	if cred.UserID == 0 {
		profile, err := s.provider.FetchProfile(ctx, cred.AccessToken)
		if err != nil {
			return model.ProfileSummary{}, nil, fmt.Errorf("fetch profile: %w", err)
		}
		scores, err := s.provider.FetchBestScores(ctx, cred.AccessToken, profile.ID, s.limit)
		if err != nil {
			return model.ProfileSummary{}, nil, fmt.Errorf("fetch best scores: %w", err)
		}
		return profile, scores, nil
	}

	var (
		profile model.ProfileSummary
		scores  []model.ScoreRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.provider.FetchProfile(gctx, cred.AccessToken)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		sc, err := s.provider.FetchBestScores(gctx, cred.AccessToken, cred.UserID, s.limit)
		if err != nil {
			return fmt.Errorf("fetch best scores: %w", err)
		}
		scores = sc
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.ProfileSummary{}, nil, err
	}
	return profile, scores, nil
}

// Kind names the failure class of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, model.ErrAuth):
		return "auth"
	case errors.Is(err, model.ErrUpstream):
		return "upstream"
	case errors.Is(err, model.ErrMalformedInput):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
