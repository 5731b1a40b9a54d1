package session

import "errors"

// The only error kinds the manager lets out. Everything the HTTP client or
// the token decoder throws is folded into one of these at the boundary.
var (
	// the backend rejected the credentials; shown once, cleared on next input
	ErrInvalidCredentials = errors.New("invalid credentials")
	// the login request never completed; retryable by resubmission
	ErrNetwork = errors.New("network error")
	// the backend returned a token this client can't read
	ErrTokenDecode = errors.New("can't decode token")
)
