package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient talks to the payment gateway's REST API with the merchant
// secret key. It implements Gateway.
type HTTPClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewHTTPClient(baseURL, secretKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type confirmRequest struct {
	ClientSecret  string `json:"client_secret"`
	PaymentMethod string `json:"payment_method"`
	BillingName   string `json:"billing_name,omitempty"`
	BillingEmail  string `json:"billing_email,omitempty"`
}

type confirmResponse struct {
	Status          string `json:"status"`
	SetupIntentID   string `json:"setup_intent_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	Error           struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) ConfirmCardSetup(ctx context.Context, clientSecret string, card CardDetails) (*SetupResult, error) {
	resp, err := c.confirm(ctx, "/v1/setup_intents/confirm", clientSecret, card)
	if err != nil {
		return nil, err
	}
	return &SetupResult{
		Status:          ConfirmStatus(resp.Status),
		SetupIntentID:   resp.SetupIntentID,
		PaymentMethodID: resp.PaymentMethodID,
	}, nil
}

func (c *HTTPClient) ConfirmCardPayment(ctx context.Context, clientSecret string, card CardDetails) (*PaymentResult, error) {
	resp, err := c.confirm(ctx, "/v1/payment_intents/confirm", clientSecret, card)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{
		Status:          ConfirmStatus(resp.Status),
		PaymentIntentID: resp.PaymentIntentID,
	}, nil
}

func (c *HTTPClient) confirm(ctx context.Context, path, clientSecret string, card CardDetails) (*confirmResponse, error) {
	body, err := json.Marshal(confirmRequest{
		ClientSecret:  clientSecret,
		PaymentMethod: card.PaymentMethodToken,
		BillingName:   card.BillingName,
		BillingEmail:  card.BillingEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal confirm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var resp confirmResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}

	// gateway errors surface verbatim, callers wrap them with context
	if httpResp.StatusCode >= 400 {
		if resp.Error.Message != "" {
			return nil, errors.New(resp.Error.Message)
		}
		return nil, fmt.Errorf("gateway returned status %d", httpResp.StatusCode)
	}

	return &resp, nil
}
