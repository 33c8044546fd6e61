package api

import "errors"

// Error taxonomy for everything that can go wrong between the caller's
// request body and Reddit. Handlers match these with errors.Is and translate
// them to HTTP statuses; nothing else inspects error strings.
var (
	// ErrValidation means the caller's input was malformed or missing
	ErrValidation = errors.New("validation error")

	// ErrAuthentication means Reddit rejected the supplied app credentials
	ErrAuthentication = errors.New("authentication error")

	// ErrNotFound means the target user/post/subreddit does not exist or
	// is not accessible with application-only auth
	ErrNotFound = errors.New("not found")

	// ErrUpstream covers transport failures, rate limiting and unexpected
	// response shapes from Reddit
	ErrUpstream = errors.New("upstream error")
)
