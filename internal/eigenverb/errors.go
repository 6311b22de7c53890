package eigenverb

import "errors"

// Error taxonomy for the envelope engine. All API errors wrap one of these
// sentinels so callers can branch with errors.Is.
var (
	// ErrShapeMismatch reports a matrix or vector whose dimensions do not
	// match the configured frequency/time/beam axes.
	ErrShapeMismatch = errors.New("eigenverb: shape mismatch")

	// ErrIndexOutOfRange reports an azimuth or beam index outside the
	// configured grid bounds.
	ErrIndexOutOfRange = errors.New("eigenverb: index out of range")

	// ErrConfiguration reports inconsistent construction-time parameters.
	ErrConfiguration = errors.New("eigenverb: invalid configuration")
)
