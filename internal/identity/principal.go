// Package identity resolves the caller's email from the identity assertion
// attached by the hosting platform. Resolution never fails: anything that
// cannot be decoded becomes the Unknown sentinel.
package identity

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// PrincipalHeader carries a base64 encoded JSON client principal.
	PrincipalHeader = "X-MS-CLIENT-PRINCIPAL"

	// Unknown is the sentinel for "no usable identity". It is never
	// treated as authenticated.
	Unknown = "unknown"
)

var (
	ErrMissing      = errors.New("identity assertion missing")
	ErrNoUserDetail = errors.New("principal has no user details")
)

// Principal is the decoded client principal document.
type Principal struct {
	IdentityProvider string          `json:"identityProvider"`
	UserID           string          `json:"userId"`
	UserDetails      json.RawMessage `json:"userDetails"`
	UserRoles        []string        `json:"userRoles"`
}

// Email returns the user detail string. Some deployments send userDetails
// as an object carrying an email field; both shapes are accepted.
func (p *Principal) Email() (string, error) {
	raw := bytes.TrimSpace(p.UserDetails)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrNoUserDetail
	}

	var email string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &email); err != nil {
			return "", fmt.Errorf("failed to decode userDetails: %w", err)
		}
	case '{':
		var details struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(raw, &details); err != nil {
			return "", fmt.Errorf("failed to decode userDetails: %w", err)
		}
		email = details.Email
	default:
		return "", fmt.Errorf("unexpected userDetails type: %s", raw)
	}

	email = strings.TrimSpace(email)
	if email == "" || email == Unknown {
		return "", ErrNoUserDetail
	}
	return email, nil
}

// DecodePrincipal decodes the header value. The platform is not strict
// about padding or alphabet, so all base64 variants are tried.
func DecodePrincipal(header string) (*Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrMissing
	}

	decoded, err := decodeBase64(header)
	if err != nil {
		return nil, fmt.Errorf("failed to decode principal: %w", err)
	}

	var p Principal
	if err := json.Unmarshal(decoded, &p); err != nil {
		return nil, fmt.Errorf("failed to parse principal: %w", err)
	}
	return &p, nil
}

// EmailFromPrincipal is DecodePrincipal followed by Principal.Email.
func EmailFromPrincipal(header string) (string, error) {
	p, err := DecodePrincipal(header)
	if err != nil {
		return "", err
	}
	return p.Email()
}

// EncodePrincipal builds a header value for email. Used by the client and
// by tests.
func EncodePrincipal(email string) string {
	details, _ := json.Marshal(email)
	p := Principal{
		IdentityProvider: "npcgate",
		UserID:           email,
		UserDetails:      details,
		UserRoles:        []string{"anonymous", "authenticated"},
	}
	data, _ := json.Marshal(p)
	return base64.StdEncoding.EncodeToString(data)
}

func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
