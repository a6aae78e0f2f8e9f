package imageproxy

import (
	"errors"
)

// Sentinel kinds for image fetch errors.
var (
	ErrInvalidURL = errors.New("invalid image url")
	ErrNotAllowed = errors.New("image host not allowed")
	ErrFetch      = errors.New("image fetch failed")
	ErrTooLarge   = errors.New("image too large")
	ErrNotImage   = errors.New("response is not an image")
)
