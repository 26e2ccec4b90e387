// Package leap wraps the Leap (JobProgress) CRM REST API.
package leap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError describes a non-2xx response from the CRM.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("leap: %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("leap: %s returned status %d", e.Op, e.StatusCode)
}

// Client wraps interactions with the Leap CRM API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchCustomers looks up customers by contact information.
func (c *Client) SearchCustomers(ctx context.Context, email, phone string) ([]CustomerRecord, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("phone", phone)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/customers?%s", c.baseURL, query.Encode()), nil)
	if err != nil {
		return nil, err
	}
	var envelope customerListResponse
	if err := c.do(req, "search customers", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// CreateCustomer creates a customer record in the CRM.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerRequest) (CustomerRecord, error) {
	var record CustomerRecord
	req, err := c.newJSONRequest(ctx, fmt.Sprintf("%s/customers", c.baseURL), in)
	if err != nil {
		return record, err
	}
	if err := c.do(req, "create customer", &record); err != nil {
		return record, err
	}
	return record, nil
}

// CreateEstimate creates an estimate record attached to a customer.
func (c *Client) CreateEstimate(ctx context.Context, in EstimateRequest) (EstimateRecord, error) {
	var record EstimateRecord
	req, err := c.newJSONRequest(ctx, fmt.Sprintf("%s/estimates", c.baseURL), in)
	if err != nil {
		return record, err
	}
	if err := c.do(req, "create estimate", &record); err != nil {
		return record, err
	}
	return record, nil
}

func (c *Client) newJSONRequest(ctx context.Context, url string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
}

func (c *Client) do(req *http.Request, op string, target any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leap: %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("leap: %s: read response: %w", op, err)
	}
	if resp.StatusCode >= 400 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("leap: %s: decode response: %w", op, err)
	}
	return nil
}
