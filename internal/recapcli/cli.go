// Package recapcli computes a yearly recap from API dumps or a live token
// and prints it as JSON.
package recapcli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/okian/osuwrapped/pkg/logger"
)

// SetupLogging sends logs to w, at debug level when verbose.
func SetupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithOutput(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	return nil
}

// ShowHelp prints usage information for the recap tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `osu! wrapped recap tool
=======================

Computes a yearly recap from osu! API responses and prints it as JSON.

Usage:
  go run ./cmd/recap [options]

Options:
  -profile string
        /me response dump (osu! API v2 JSON)
  -scores string
        best scores response dump (osu! API v2 JSON)
  -token string
        access token; fetches profile and scores live instead of reading files
  -api string
        osu! API base URL (default "https://osu.ppy.sh/api/v2")
  -year int
        recap year (default 2025)
  -tz string
        IANA timezone for year boundaries (default "UTC")
  -png string
        also render the recap card to this file
  -covers
        fetch cover art into the card
  -timeout duration
        request timeout for live fetches (default 10s)
  -verbose
        enable debug logging
  -help
        show this help message

Examples:
  # Recap from saved responses
  go run ./cmd/recap -profile me.json -scores best.json -year 2024

  # Live recap with a card
  go run ./cmd/recap -token "$OSU_TOKEN" -png wrapped.png
`)
}
