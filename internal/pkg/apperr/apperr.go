package apperr

import "errors"

// Sentinels for the API error taxonomy. Handlers translate these to HTTP
// statuses with errors.Is; services wrap them with fmt.Errorf("%w: ...").
var (
	// ErrNotFound covers both "does not exist" and "exists but not owned by the
	// caller" so that ownership is never leaked through a distinct status.
	ErrNotFound = errors.New("not found")
	// ErrValidation is a rejected input or an illegal state transition,
	// detected before any persistence side effect.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is a uniqueness violation, e.g. a duplicate project name for
	// the same owner.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is a missing or unusable identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstreamTimeout means the inference gateway did not answer within the
	// configured bound. Kept distinct from ErrUpstream so callers can offer a
	// "try again" affordance.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstream is any other gateway failure: non-2xx status, malformed body,
	// missing completion content.
	ErrUpstream = errors.New("upstream failed")
)
