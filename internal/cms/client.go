// Package cms is the HTTP client for the CMS admin API. It exposes the
// listing endpoints the catalog needs and the registry capability probe.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// TransientError wraps an error that is likely temporary and safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or any error in its chain) is a
// TransientError, meaning the caller may retry after a backoff. The
// catalog itself never retries.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

const (
	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads. Admin listings are
	// JSON payloads well under this.
	maxAPIResponseBytes = 8 * 1024 * 1024
)

// Client talks to the CMS admin REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appKey     string
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host, so the app key never leaks to
// third-party domains.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewClient creates an admin API client. If httpClient is nil, a client
// with a 30-second timeout and same-host redirect policy is created.
func NewClient(baseURL, appKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:       httpClientTimeout,
			CheckRedirect: sameHostRedirectPolicy,
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		appKey:     appKey,
	}
}

// get sends an authenticated GET request and returns the raw body.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.appKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors (timeouts, connection refused, DNS failures)
		// are transient by nature.
		return nil, &TransientError{Err: fmt.Errorf("sending request to %s: %w", endpoint, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		err := apiError(endpoint, resp.StatusCode, body)
		if isTransientStatus(resp.StatusCode) {
			return nil, &TransientError{Err: err}
		}

		return nil, err
	}

	return body, nil
}

// apiError builds an error from a non-200 response, preferring the
// server's own errorCode/message fields when the body carries them.
func apiError(endpoint string, status int, body []byte) error {
	code := gjson.GetBytes(body, "errorCode").Str
	msg := gjson.GetBytes(body, "message").Str

	if code != "" || msg != "" {
		return fmt.Errorf("API %s (%d) %s: %s", endpoint, status, code, msg)
	}

	return fmt.Errorf("API %s returned status %d", endpoint, status)
}

// isTransientStatus returns true for HTTP status codes that indicate a
// temporary server-side problem worth retrying.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// getItems fetches a listing endpoint and decodes its items array.
func getItems[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	body, err := c.get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return resp.Items, nil
}

// Supports reports whether the server's registry advertises every one
// of the given capabilities.
func (c *Client) Supports(ctx context.Context, capabilities ...string) (bool, error) {
	body, err := c.get(ctx, "/registry", nil)
	if err != nil {
		return false, fmt.Errorf("fetching registry: %w", err)
	}

	advertised := make(map[string]bool)
	for _, name := range gjson.GetBytes(body, "capabilities").Array() {
		advertised[name.Str] = true
	}

	for _, want := range capabilities {
		if !advertised[want] {
			return false, nil
		}
	}

	return true, nil
}

// ListWidgetDescriptors returns all widget descriptors.
func (c *Client) ListWidgetDescriptors(ctx context.Context) ([]WidgetDescriptor, error) {
	items, err := getItems[WidgetDescriptor](ctx, c, "/widgetDescriptors", nil)
	if err != nil {
		return nil, fmt.Errorf("listing widget descriptors: %w", err)
	}

	return items, nil
}

// ListWidgetInstanceGroups returns widget descriptors with their
// instances for one source partition (SourcePlatform or SourceUser).
func (c *Client) ListWidgetInstanceGroups(ctx context.Context, source string) ([]WidgetDescriptor, error) {
	q := url.Values{"source": {source}}

	items, err := getItems[WidgetDescriptor](ctx, c, "/widgetDescriptors/instances", q)
	if err != nil {
		return nil, fmt.Errorf("listing widget instances (source %s): %w", source, err)
	}

	return items, nil
}

// ListStackDescriptors returns all stack descriptors.
func (c *Client) ListStackDescriptors(ctx context.Context) ([]StackDescriptor, error) {
	items, err := getItems[StackDescriptor](ctx, c, "/stackDescriptors", nil)
	if err != nil {
		return nil, fmt.Errorf("listing stack descriptors: %w", err)
	}

	return items, nil
}

// ListStackInstanceGroups returns stack descriptors with their
// instances. Stacks have no source partitions.
func (c *Client) ListStackInstanceGroups(ctx context.Context) ([]StackDescriptor, error) {
	items, err := getItems[StackDescriptor](ctx, c, "/stackDescriptors/instances", nil)
	if err != nil {
		return nil, fmt.Errorf("listing stack instances: %w", err)
	}

	return items, nil
}

// ListThemes returns custom themes only; platform themes cannot be
// pushed to and are never matched against.
func (c *Client) ListThemes(ctx context.Context) ([]Theme, error) {
	q := url.Values{"type": {"custom"}}

	items, err := getItems[Theme](ctx, c, "/themes", q)
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}

	return items, nil
}

// ListElements returns element definitions. With globalsOnly true the
// listing is restricted to global elements; otherwise it returns
// widget-scoped ones. Callers must gate on CapabilityElements first.
func (c *Client) ListElements(ctx context.Context, globalsOnly bool) ([]Element, error) {
	q := url.Values{"globals": {fmt.Sprintf("%t", globalsOnly)}}

	items, err := getItems[Element](ctx, c, "/elements", q)
	if err != nil {
		return nil, fmt.Errorf("listing elements (globals=%t): %w", globalsOnly, err)
	}

	return items, nil
}
