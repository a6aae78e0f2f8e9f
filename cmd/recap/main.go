package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/osuwrapped/internal/recapcli"
)

// Default configuration constants.
const (
	defaultAPIURL  = "https://osu.ppy.sh/api/v2"
	defaultYear    = 2025
	defaultTimeout = 10 * time.Second
	runTimeout     = 2 * time.Minute
)

func main() {
	var (
		profileFile = flag.String("profile", "", "/me response dump")
		scoresFile  = flag.String("scores", "", "best scores response dump")
		token       = flag.String("token", "", "access token for a live fetch")
		apiURL      = flag.String("api", defaultAPIURL, "osu! API base URL")
		year        = flag.Int("year", defaultYear, "recap year")
		tz          = flag.String("tz", "UTC", "IANA timezone for year boundaries")
		pngFile     = flag.String("png", "", "also render the recap card to this file")
		covers      = flag.Bool("covers", false, "fetch cover art into the card")
		timeout     = flag.Duration("timeout", defaultTimeout, "request timeout for live fetches")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
		help        = flag.Bool("help", false, "show help")
	)
	flag.Parse()

	if *help {
		recapcli.ShowHelp(os.Stdout)
		return
	}

	// Logs go to stderr so stdout stays valid JSON.
	if err := recapcli.SetupLogging(os.Stderr, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	config := &recapcli.Config{
		ProfileFile: *profileFile,
		ScoresFile:  *scoresFile,
		Token:       *token,
		APIURL:      *apiURL,
		Year:        *year,
		Timezone:    *tz,
		PNGFile:     *pngFile,
		Covers:      *covers,
		Timeout:     *timeout,
		Verbose:     *verbose,
		Output:      os.Stdout,
	}

	if err := recapcli.Run(ctx, config); err != nil {
		os.Stderr.WriteString("recap failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
