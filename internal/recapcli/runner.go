package recapcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/okian/osuwrapped/internal/adapters/card"
	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
	"github.com/okian/osuwrapped/internal/adapters/osu"
	service "github.com/okian/osuwrapped/internal/app"
	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/internal/domain/recap"
	"github.com/okian/osuwrapped/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0o644
	bestScoresLimit      = 100
)

// defaultCoverHosts are the hosts covers may be fetched from.
var defaultCoverHosts = []string{"assets.ppy.sh", "a.ppy.sh", "osu.ppy.sh"}

// Run computes the recap described by config and writes it out.
func Run(ctx context.Context, config *Config) error {
	start := time.Now()
	if err := validate(config); err != nil {
		return err
	}
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrUsage, config.Timezone, err)
	}
	agg := recap.New(recap.WithLocation(loc))

	logger.Get().Debug(ctx, "starting recap",
		logger.Int("year", config.Year),
		logger.Bool("live", config.live()),
		logger.String("timezone", config.Timezone))

	var rc model.YearlyRecap
	if config.live() {
		rc, err = fetchLive(ctx, config, agg)
	} else {
		rc, err = fromFiles(config, agg)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(config.Output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rc); err != nil {
		return fmt.Errorf("%w: encode recap: %w", ErrOutput, err)
	}

	if config.PNGFile != "" {
		if err := writeCard(ctx, config, rc); err != nil {
			return err
		}
	}

	logger.Get().Info(ctx, "recap computed",
		logger.String("username", rc.Username),
		logger.Int("total_plays", rc.TotalPlays),
		logger.Int("best_plays", rc.BestPlaysCount),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func validate(config *Config) error {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timezone == "" {
		config.Timezone = "UTC"
	}
	if config.Year < 1 || config.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrUsage, config.Year)
	}
	if config.live() {
		if config.ProfileFile != "" || config.ScoresFile != "" {
			return fmt.Errorf("%w: -token cannot be combined with -profile or -scores", ErrUsage)
		}
		if config.APIURL == "" {
			return fmt.Errorf("%w: -api is required with -token", ErrUsage)
		}
		return nil
	}
	if config.ProfileFile == "" || config.ScoresFile == "" {
		return fmt.Errorf("%w: need -profile and -scores, or -token", ErrUsage)
	}
	return nil
}

func fetchLive(ctx context.Context, config *Config, agg *recap.Aggregator) (model.YearlyRecap, error) {
	client := osu.NewClient(config.APIURL,
		osu.WithTimeout(config.Timeout),
		osu.WithLogger(logger.Named("osu")),
	)
	svc := service.New(client,
		service.WithAggregator(agg),
		service.WithBestScoresLimit(bestScoresLimit),
		service.WithDefaultYear(config.Year),
		service.WithLogger(logger.Named("service")),
	)
	return svc.Recap(ctx, service.Credential{AccessToken: config.Token}, config.Year)
}

func fromFiles(config *Config, agg *recap.Aggregator) (model.YearlyRecap, error) {
	profile, err := readProfile(config.ProfileFile)
	if err != nil {
		return model.YearlyRecap{}, err
	}
	scores, err := readScores(config.ScoresFile)
	if err != nil {
		return model.YearlyRecap{}, err
	}
	return agg.Compute(&profile, scores, config.Year)
}

func readProfile(path string) (model.ProfileSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ProfileSummary{}, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer func() { _ = f.Close() }()
	p, err := osu.DecodeProfile(f)
	if err != nil {
		return model.ProfileSummary{}, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}
	return p, nil
}

func readScores(path string) ([]model.ScoreRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer func() { _ = f.Close() }()
	s, err := osu.DecodeScores(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}
	return s, nil
}

func writeCard(ctx context.Context, config *Config, rc model.YearlyRecap) error {
	opts := []card.Option{card.WithLogger(logger.Named("card"))}
	if config.Covers {
		opts = append(opts, card.WithCoverFetcher(imageproxy.NewFetcher(defaultCoverHosts,
			imageproxy.WithTimeout(config.Timeout))))
	}

	f, err := os.OpenFile(config.PNGFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermission)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	if err := card.NewRenderer(opts...).Render(ctx, f, rc); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}
