package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kazz187/npcgate/internal/gateway"
	"github.com/kazz187/npcgate/internal/identity"
	"github.com/kazz187/npcgate/pkg/cerr"
)

const maxResponseSize = 10 << 20

// GatewayClient calls the npcgate endpoints on behalf of one player
type GatewayClient struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
}

type Option func(*GatewayClient)

// WithBearerToken authenticates with a bearer token instead of a principal
// header.
func WithBearerToken(token string) Option {
	return func(c *GatewayClient) {
		c.token = token
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *GatewayClient) {
		c.httpClient = hc
	}
}

// NewGatewayClient creates a client for baseURL. email is sent as the
// client principal; an empty email sends no identity at all.
func NewGatewayClient(baseURL, email string, opts ...Option) *GatewayClient {
	c := &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Task asks the game task endpoint for npc's task
func (c *GatewayClient) Task(ctx context.Context, game, npc string) (*gateway.NormalizedResponse, error) {
	return c.normalized(ctx, "/api/game-task", game, npc)
}

// Grade asks the grader endpoint to grade the task held with npc
func (c *GatewayClient) Grade(ctx context.Context, game, npc string) (*gateway.NormalizedResponse, error) {
	return c.normalized(ctx, "/api/grader", game, npc)
}

// Pass calls the pass-through endpoint and returns the backend JSON
func (c *GatewayClient) Pass(ctx context.Context) (gjson.Result, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/pass-task", nil, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, cerr.NewError(cerr.Unreachable, "gateway returned invalid JSON", nil)
	}
	return gjson.ParseBytes(body), nil
}

// Register submits the registration form and returns the rendered page
func (c *GatewayClient) Register(ctx context.Context, form url.Values) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/registration", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *GatewayClient) normalized(ctx context.Context, path, game, npc string) (*gateway.NormalizedResponse, error) {
	body, err := c.do(ctx, http.MethodGet, path, url.Values{"game": {game}, "npc": {npc}}, nil)
	if err != nil {
		return nil, err
	}
	resp := gateway.Normalize(body, gateway.Defaults{})
	return &resp, nil
}

func (c *GatewayClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.email != "" {
		req.Header.Set(identity.PrincipalHeader, identity.EncodePrincipal(c.email))
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, cerr.NewError(cerr.Unreachable, "failed to call gateway", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, cerr.NewError(cerr.Unreachable, "failed to read gateway response", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, cerr.NewErrorWithStatus(cerr.UpstreamRejected, resp.StatusCode,
			fmt.Sprintf("gateway responded %d: %s", resp.StatusCode, msg), nil)
	}
	return data, nil
}
