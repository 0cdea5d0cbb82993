package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Sentinels for the HTTP failure classes the connectors react to.
// WrapError maps googleapi errors onto these so callers can use
// errors.Is without depending on googleapi themselves.
var (
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")
	ErrForbidden    = errors.New("google: forbidden (insufficient permissions)")
	ErrNotFound     = errors.New("google: resource not found")
	ErrRateLimited  = errors.New("google: rate limit exceeded")
)

var statusSentinels = map[int]error{
	http.StatusUnauthorized:    ErrUnauthorized,
	http.StatusForbidden:       ErrForbidden,
	http.StatusNotFound:        ErrNotFound,
	http.StatusTooManyRequests: ErrRateLimited,
}

// statusOf extracts the HTTP status code from a googleapi error in the
// chain, or 0 when there is none.
func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsUnauthorized reports whether err means the credentials were
// rejected and the user has to re-authenticate.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || statusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err means the resource no longer exists,
// such as a message deleted between listing and fetching.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || statusOf(err) == http.StatusNotFound
}

// IsRateLimited reports whether err means the API pushed back and the
// caller should slow down.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited) || statusOf(err) == http.StatusTooManyRequests
}

// WrapError swaps a googleapi error for the matching sentinel, keeping
// the API's own message for the logs. Errors without a mapped status
// pass through unchanged, including nil.
func WrapError(err error) error {
	sentinel, ok := statusSentinels[statusOf(err)]
	if !ok {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return fmt.Errorf("%w: %s", sentinel, gerr.Message)
	}
	return sentinel
}
