package pattern

import "errors"

var (
	// ErrInsufficientData accompanies a trivial result when there are too
	// few steps for a meaningful analysis. The result is still valid.
	ErrInsufficientData = errors.New("pattern: insufficient data")

	// ErrEmptyVocabulary is returned when no step text contains a token.
	ErrEmptyVocabulary = errors.New("pattern: empty vocabulary")
)
