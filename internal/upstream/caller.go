// Package upstream issues single, deadline-bounded calls to the backend
// functions and classifies their outcome.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kazz187/npcgate/pkg/clog"
)

const maxBodySize = 10 << 20

var ErrInvalidJSON = errors.New("upstream returned invalid JSON")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Caller struct {
	client HTTPClient
}

// NewCaller returns a Caller using client, or a plain http.Client when nil.
// Deadlines come from the per-call context, so the client needs none.
func NewCaller(client HTTPClient) *Caller {
	if client == nil {
		client = &http.Client{}
	}
	return &Caller{client: client}
}

// BuildURL appends params to base, keeping any query string base already
// carries (function keys live there).
func BuildURL(base string, params url.Values) (string, error) {
	base = strings.TrimSpace(base)
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("failed to parse target url: %w", err)
	}
	encoded := params.Encode()
	if encoded == "" {
		return base, nil
	}
	switch {
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		return base + encoded, nil
	case strings.Contains(base, "?"):
		return base + "&" + encoded, nil
	default:
		return base + "?" + encoded, nil
	}
}

// Get issues one GET to target with params and expects a JSON body.
func (c *Caller) Get(ctx context.Context, target string, params url.Values, deadline time.Duration) Result {
	u, err := BuildURL(target, params)
	if err != nil {
		return Result{Kind: TransportError, Cause: err}
	}
	return c.do(ctx, deadline, true, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

// PostForm issues one urlencoded POST and returns the body verbatim.
func (c *Caller) PostForm(ctx context.Context, target string, form url.Values, deadline time.Duration) Result {
	target = strings.TrimSpace(target)
	return c.do(ctx, deadline, false, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

func (c *Caller) do(ctx context.Context, deadline time.Duration, wantJSON bool, build func(context.Context) (*http.Request, error)) Result {
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	req, err := build(callCtx)
	if err != nil {
		return Result{Kind: TransportError, Cause: fmt.Errorf("failed to build request: %w", err)}
	}
	if id := clog.RequestID(ctx); id != "" {
		req.Header.Set(clog.RequestIDHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classify(callCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return Result{
			Kind:       HTTPError,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return classify(callCtx, fmt.Errorf("failed to read body: %w", err))
	}
	if wantJSON && !json.Valid(body) {
		return Result{Kind: TransportError, Cause: ErrInvalidJSON}
	}
	return Result{
		Kind:        Success,
		Payload:     body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		StatusText:  statusText(resp),
	}
}

func classify(callCtx context.Context, err error) Result {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return Result{Kind: Timeout, Cause: err}
	}
	return Result{Kind: TransportError, Cause: err}
}

// statusText strips the numeric prefix from resp.Status, falling back to
// the canonical text.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
