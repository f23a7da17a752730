package catalog

import (
	"github.com/go-faster/errors"
)

// ErrRefreshFailed is the only error kind the catalog surfaces. Network,
// status code and decoding failures are all folded into it.
var ErrRefreshFailed = errors.New("fetch failed")

// Phase enumerates the load states of the catalog.
type Phase uint8

const (
	// Idle means no refresh has been started yet.
	Idle Phase = iota
	// Loading means a refresh is waiting for the remote source.
	Loading
	// Ready means the most recent applied refresh succeeded.
	Ready
	// Failed means the most recent applied refresh failed. Products from the
	// last successful refresh are still served.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the load state of the catalog. Err is ErrRefreshFailed when Phase
// is Failed and nil otherwise.
type Status struct {
	Phase Phase
	Err   error
}

// Reason returns the failure reason, or "" when the catalog has not failed.
func (s Status) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s Status) String() string {
	if s.Err != nil {
		return s.Phase.String() + ": " + s.Err.Error()
	}
	return s.Phase.String()
}
