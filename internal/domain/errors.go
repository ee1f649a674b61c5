package domain

import "errors"

var (
	// ErrStreamFailed signals that the primary streaming request failed
	// for a reason other than cancellation.
	ErrStreamFailed = errors.New("stream request failed")
	// ErrFallbackFailed signals that the fallback request also failed.
	// Terminal for the query: the orchestrator surfaces an empty result
	// set and schedules its single retry.
	ErrFallbackFailed = errors.New("fallback request failed")
	// ErrBadStatus signals a non-2xx response from the search service.
	ErrBadStatus = errors.New("unexpected response status")
)
