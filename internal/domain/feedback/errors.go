package feedback

import "errors"

var (
	// ErrInvalidRating indicates the rating is not positive or negative.
	ErrInvalidRating = errors.New("invalid rating")
	// ErrInvalidInput indicates invalid feedback input.
	ErrInvalidInput = errors.New("invalid feedback input")
)
