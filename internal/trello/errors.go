package trello

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a RemoteError for a 404 response.
var ErrNotFound = errors.New("not found")

// RemoteError is a failed call to the Trello API: no response, a non-2xx
// status, or a body that could not be decoded.
type RemoteError struct {
	Op         string // "list boards", "get card", "search cards", "create attachment"
	StatusCode int    // 0 when no response was received
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("trello %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("trello %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("trello %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports 404 responses as ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
