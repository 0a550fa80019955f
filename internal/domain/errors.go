package domain

import "errors"

var (
	// ErrMalformedInput means the hook payload is not a JSON object.
	ErrMalformedInput = errors.New("malformed hook input")
	// ErrMissingSessionID means the payload has no session_id to correlate on.
	ErrMissingSessionID = errors.New("missing session_id")
	// ErrStorageUnavailable covers an unreachable or locked store and schema failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConfigCorrupt means a settings document is not valid JSON.
	ErrConfigCorrupt = errors.New("settings document is corrupt")
)
