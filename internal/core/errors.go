package core

// errors.go defines the error taxonomy for the search pipeline and maps every
// error to a user-friendly message with a support code.
//
// Error codes:
//
//	QRY001 - Empty query: search submitted without query text
//	RES001 - Nothing found: upstream succeeded but returned no entity groups
//	SEL001 - Unknown record: selection toggle referenced a record that no longer exists
//	EXP001 - Empty selection: export attempted with nothing selected
//	UP001  - Upstream status: lookup service returned a non-success status
//	UP002  - Upstream transport: lookup call failed or timed out
//	UP003  - Upstream payload: lookup response could not be decoded
//	DB001  - Storage: durable store operation failed

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery rejects a search with no query text before any cache or
	// upstream interaction.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrNoEntities reports an upstream response with zero entity-type groups.
	// It is a "nothing found" outcome, not a failure.
	ErrNoEntities = errors.New("no entities found in response")

	// ErrEmptySelection reports an export attempt with no selected records.
	ErrEmptySelection = errors.New("no records selected for export")

	// ErrNotFound is returned by stores when a key or record id does not exist.
	ErrNotFound = errors.New("not found")
)

// UpstreamError describes a failed lookup call: a non-success HTTP status, a
// transport failure or timeout, or a payload that could not be decoded.
// Upstream failures are never cached.
type UpstreamError struct {
	Status int    // HTTP status when the call completed, 0 otherwise
	Reason string // short category: "status", "transport", "payload"
	Err    error  // underlying cause, may be nil
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream lookup failed: status %d", e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream lookup failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("upstream lookup failed (%s)", e.Reason)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UserMessage is a user-facing rendering of an error with a support code.
type UserMessage struct {
	Code    string
	Message string
	Action  string
}

// MapError converts any pipeline error into a UserMessage. Unrecognized errors
// are treated as storage/internal failures.
func MapError(err error) UserMessage {
	var ue *UpstreamError
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return UserMessage{
			Code:    "QRY001",
			Message: "Enter a search query",
			Action:  "Type something to search for and try again",
		}
	case errors.Is(err, ErrNoEntities):
		return UserMessage{
			Code:    "RES001",
			Message: "No entities found for this query",
			Action:  "Try a different query",
		}
	case errors.Is(err, ErrEmptySelection):
		return UserMessage{
			Code:    "EXP001",
			Message: "No entries selected for export",
			Action:  "Select at least one record before exporting",
		}
	case errors.Is(err, ErrNotFound):
		return UserMessage{
			Code:    "SEL001",
			Message: "That record does not exist",
			Action:  "Refresh the results and try again",
		}
	case errors.As(err, &ue):
		return mapUpstream(ue)
	default:
		return UserMessage{
			Code:    "DB001",
			Message: "Something went wrong handling your request",
			Action:  "Please try again in a few moments",
		}
	}
}

func mapUpstream(ue *UpstreamError) UserMessage {
	switch ue.Reason {
	case "payload":
		return UserMessage{
			Code:    "UP003",
			Message: "The lookup service returned an unreadable response",
			Action:  "Please try again; if this keeps happening contact support",
		}
	case "transport":
		return UserMessage{
			Code:    "UP002",
			Message: "Could not reach the lookup service",
			Action:  "Check connectivity and retry",
		}
	default:
		return UserMessage{
			Code:    "UP001",
			Message: fmt.Sprintf("The lookup service rejected the request (status %d)", ue.Status),
			Action:  "Retry later or verify the configured API token",
		}
	}
}
