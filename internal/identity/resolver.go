package identity

import (
	"errors"
	"log/slog"
	"net/http"
)

// Identity is the resolved caller.
type Identity struct {
	Email  string
	Source string
}

func (i Identity) Authenticated() bool {
	return i.Email != "" && i.Email != Unknown
}

var anonymous = Identity{Email: Unknown}

// Resolver reads the principal header and, when a verifier is configured,
// falls back to an Authorization bearer token.
type Resolver struct {
	bearer *BearerVerifier
}

func NewResolver(bearer *BearerVerifier) *Resolver {
	return &Resolver{bearer: bearer}
}

// Resolve never fails. Malformed assertions are logged and downgraded to
// the Unknown sentinel.
func (r *Resolver) Resolve(req *http.Request) Identity {
	ctx := req.Context()

	if header := req.Header.Get(PrincipalHeader); header != "" {
		email, err := EmailFromPrincipal(header)
		if err == nil {
			return Identity{Email: email, Source: "principal"}
		}
		slog.WarnContext(ctx, "failed to parse authentication header", "error", err)
	}

	if r == nil || r.bearer == nil {
		return anonymous
	}
	token := bearerToken(req.Header.Get("Authorization"))
	if token == "" {
		return anonymous
	}
	email, err := r.bearer.Email(token)
	if err != nil {
		if !errors.Is(err, ErrNoUserDetail) {
			slog.WarnContext(ctx, "failed to verify bearer token", "error", err)
		}
		return anonymous
	}
	return Identity{Email: email, Source: "bearer"}
}
