package recapcli

import (
	"io"
	"time"
)

// Config holds configuration for one recap run.
type Config struct {
	ProfileFile string        // osu! /me JSON dump
	ScoresFile  string        // best-scores JSON dump
	Token       string        // bearer token for a live fetch; overrides the files
	APIURL      string        // osu! API base URL for live fetches
	Year        int           // recap year
	Timezone    string        // IANA name used for year boundaries
	PNGFile     string        // optional card output path
	Covers      bool          // fetch cover art into the card
	Timeout     time.Duration // per-request timeout for live fetches
	Verbose     bool          // debug logging
	Output      io.Writer     // JSON destination
}

// live reports whether the run fetches from the provider instead of files.
func (c *Config) live() bool { return c.Token != "" }
