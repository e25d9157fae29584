package model

import "errors"

// Error taxonomy shared by the server and the Go client. Handlers map these
// to HTTP codes; the client maps HTTP codes back to them.
var (
	// ErrLimitExceeded means a selection mutation would push the user past
	// SelectionCap. User-correctable; never retried.
	ErrLimitExceeded = errors.New("selection limit exceeded")

	// ErrUpstreamUnavailable means the directory upstream failed even though
	// a usable credential exists. Retryable by the caller later.
	ErrUpstreamUnavailable = errors.New("channel directory upstream unavailable")

	// ErrDecryptionFailed means a stored credential ciphertext did not verify.
	// Callers treat it as "no credential" but it is logged for operators.
	ErrDecryptionFailed = errors.New("credential decryption failed")

	// ErrNoCredential means the user has no stored OAuth credential.
	ErrNoCredential = errors.New("no credential for user")

	// ErrAuthenticationRequired is a 401 from any session or selection read.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNetwork means the request never produced an HTTP response. The
	// client treats it as transient and retryable.
	ErrNetwork = errors.New("network error")
)
