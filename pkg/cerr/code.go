package cerr

import (
	"net/http"
)

type Code int

const (
	OK               = Code(0)
	Canceled         = Code(1)
	Unknown          = Code(2)
	InvalidArgument  = Code(3)
	NotFound         = Code(4)
	Internal         = Code(5)
	Unauthenticated  = Code(6)
	Misconfigured    = Code(7)
	Unreachable      = Code(8)
	UpstreamRejected = Code(9)
)

var codeNames = map[Code]string{
	OK:               "ok",
	Canceled:         "canceled",
	Unknown:          "unknown",
	InvalidArgument:  "invalid_argument",
	NotFound:         "not_found",
	Internal:         "internal",
	Unauthenticated:  "unauthenticated",
	Misconfigured:    "misconfigured",
	Unreachable:      "unreachable",
	UpstreamRejected: "upstream_rejected",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// HTTPCode is the default status for c. UpstreamRejected errors normally
// carry the upstream status on Error.Status instead.
func (c Code) HTTPCode() int {
	switch c {
	case OK:
		return http.StatusOK
	case Canceled:
		return 499
	case Unknown:
		return http.StatusInternalServerError
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Internal:
		return http.StatusInternalServerError
	case Unauthenticated:
		return http.StatusUnauthorized
	case Misconfigured:
		return http.StatusInternalServerError
	case Unreachable:
		return http.StatusInternalServerError
	case UpstreamRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
