package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// SystemAPI is the algorithm and version surface of the robot API.
// *Client implements it; the store and tests depend on the interface.
type SystemAPI interface {
	Version(ctx context.Context) (string, error)
	Reset(ctx context.Context) (string, error)
	Algorithm(ctx context.Context) (string, error)
	AlgorithmList(ctx context.Context) ([]string, error)
	SetAlgorithm(ctx context.Context, name *string) (json.RawMessage, error)
}

// CommandAPI drives the robot directly.
type CommandAPI interface {
	SetSpeed(ctx context.Context, speed int) error
	SetLogging(ctx context.Context, enabled bool) error
	DestinationReached(ctx context.Context) error
	FollowLine(ctx context.Context) error
	Turn(ctx context.Context, angle int, snap bool) error
}

// Ensure Client implements both surfaces at compile time.
var (
	_ SystemAPI  = (*Client)(nil)
	_ CommandAPI = (*Client)(nil)
)

// Client talks to the robot HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultAPIBase is used when no address is configured.
	DefaultAPIBase   = "127.0.0.1:8080"
	defaultUserAgent = "ufosure/0.1"
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the given host:port or URL. The client sets no
// timeout of its own; callers bound requests through their context.
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns a copy of the resolved API origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Version returns the robot software version as reported by the server.
func (c *Client) Version(ctx context.Context) (string, error) {
	return c.text(ctx, opVersion, http.MethodGet, &url.URL{Path: versionPath})
}

// Reset resets the active algorithm on the robot.
func (c *Client) Reset(ctx context.Context) (string, error) {
	return c.text(ctx, opReset, http.MethodPost, &url.URL{Path: resetPath})
}

// Algorithm returns the active algorithm name exactly as the server sends it.
func (c *Client) Algorithm(ctx context.Context) (string, error) {
	return c.text(ctx, opAlgorithm, http.MethodGet, &url.URL{Path: algorithmPath})
}

// AlgorithmList returns the algorithms the robot can run.
func (c *Client) AlgorithmList(ctx context.Context) ([]string, error) {
	var names []string
	err := c.do(ctx, opAlgorithmList, http.MethodGet, &url.URL{Path: algorithmsPath}, nil, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&names)
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// SetAlgorithm activates the named algorithm. A nil name is sent as the literal
// "null", which the server treats as "no algorithm".
func (c *Client) SetAlgorithm(ctx context.Context, name *string) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("name", algorithmParam(name))
	rel := &url.URL{Path: algorithmPath, RawQuery: values.Encode()}

	var payload json.RawMessage
	err := c.do(ctx, opSetAlgorithm, http.MethodPut, rel, nil, func(r io.Reader) error {
		raw, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if !json.Valid(raw) {
			return fmt.Errorf("invalid json payload")
		}
		payload = json.RawMessage(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func algorithmParam(name *string) string {
	if name == nil {
		return "null"
	}
	return *name
}

func (c *Client) text(ctx context.Context, op operation, method string, rel *url.URL) (string, error) {
	var out string
	err := c.do(ctx, op, method, rel, nil, func(r io.Reader) error {
		raw, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		out = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// do performs exactly one request. decode runs only for 2xx responses.
func (c *Client) do(ctx context.Context, op operation, method string, rel *url.URL, body any, decode func(io.Reader) error) error {
	if c == nil {
		return &RequestError{Op: op.name, Message: op.failure, Cause: fmt.Errorf("client is nil")}
	}
	start := time.Now()
	status, err := c.roundTrip(ctx, op, method, rel, body, decode)
	observeRequest(op.name, outcome(status, err), time.Since(start))
	return err
}

func (c *Client) roundTrip(ctx context.Context, op operation, method string, rel *url.URL, body any, decode func(io.Reader) error) (int, error) {
	fail := func(status int, cause error) (int, error) {
		return status, &RequestError{Op: op.name, Message: op.failure, Status: status, Cause: cause}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fail(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, nil)
	}
	if decode == nil {
		return resp.StatusCode, nil
	}
	if err := decode(resp.Body); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return resp.StatusCode, nil
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = DefaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
