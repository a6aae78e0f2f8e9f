package card

import (
	"errors"
)

// ErrRender marks a failure to produce the card image.
var ErrRender = errors.New("card render failed")

// ErrCoverTooLarge marks a cover whose dimensions exceed the decode bound.
var ErrCoverTooLarge = errors.New("cover image too large")
