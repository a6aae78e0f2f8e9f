package recapcli

import "errors"

var (
	// ErrUsage reports missing or conflicting flags.
	ErrUsage = errors.New("usage")
	// ErrInput reports an unreadable dump file.
	ErrInput = errors.New("input")
	// ErrOutput reports a failure writing results.
	ErrOutput = errors.New("output")
)
