package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// tokenCodes are the 401 error codes that mean the stored credential itself
// is no longer usable. Only these clear the token store.
var tokenCodes = map[string]bool{
	"token_expired":    true,
	"token_invalid":    true,
	"token_not_active": true,
}

// Client is the HTTP/JSON client for the remote order/payment API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// authTransport injects the caller's bearer token from the request context,
// falling back to the service credential for background work.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenStore
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := TokenFromContext(req.Context())
	if token == "" {
		token = t.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

func NewClient(baseURL string, tokens TokenStore, timeout time.Duration) *Client {
	transport := &authTransport{
		base:   otelhttp.NewTransport(http.DefaultTransport),
		tokens: tokens,
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "backend-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tokens:  tokens,
		breaker: breaker,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// doJSON performs a request with a JSON body (nil for none) and decodes a
// 2xx response into out (nil to discard). Non-2xx responses are mapped to
// the client's error taxonomy.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// breaker counts only transport-level failures; business errors in the
	// response body must not trip it
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse backend response: %w", err)
		}
		return nil
	}

	return c.mapError(ctx, resp.StatusCode, data)
}

func (c *Client) mapError(ctx context.Context, status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body) // best effort, body may not be JSON

	if status == http.StatusUnauthorized {
		if tokenCodes[body.Code] {
			// a request-scoped token dies with its request; only the
			// service credential is worth clearing
			if TokenFromContext(ctx) == "" {
				c.tokens.Clear()
			}
			return ErrSessionExpired
		}
		return &APIError{StatusCode: status, Code: body.Code, Message: body.Message}
	}

	if body.Code == "payment_not_successful" {
		return fmt.Errorf("%w: %s", ErrPaymentNotSuccessful, body.Message)
	}

	return &APIError{StatusCode: status, Code: body.Code, Message: body.Message}
}
