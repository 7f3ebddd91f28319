package domain

import "errors"

var (
	ErrBlocked          = errors.New("identifier is blocked")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrStoreUnavailable = errors.New("counter store unavailable")
)

func IsBlockedError(err error) bool {
	return errors.Is(err, ErrBlocked)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
