package upstream

import (
	"encoding/json"
	"fmt"
)

// Kind tags a Result. Exactly one kind is produced per call.
type Kind int

const (
	Success Kind = iota
	Timeout
	TransportError
	HTTPError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case TransportError:
		return "transport_error"
	case HTTPError:
		return "http_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the classified outcome of one outbound call.
type Result struct {
	Kind Kind

	// Success
	Payload     json.RawMessage
	ContentType string

	// HTTPError (StatusCode is also set on Success)
	StatusCode int
	StatusText string

	// Timeout and TransportError
	Cause error
}

func (r Result) OK() bool {
	return r.Kind == Success
}

// Err describes a failed result. It is nil on Success.
func (r Result) Err() error {
	switch r.Kind {
	case Success:
		return nil
	case HTTPError:
		return fmt.Errorf("upstream responded %d %s", r.StatusCode, r.StatusText)
	default:
		if r.Cause != nil {
			return fmt.Errorf("upstream %s: %w", r.Kind, r.Cause)
		}
		return fmt.Errorf("upstream %s", r.Kind)
	}
}
