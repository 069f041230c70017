package aramex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wasel/courierhub/pkg/courier/transport"
)

// HTTPAPIClient is the production implementation of APIClient over the
// carrier's JSON API. Requests use relative paths joined to the configured
// base URL; retries and timeouts live in the shared transport.
type HTTPAPIClient struct {
	http *transport.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	return &HTTPAPIClient{
		http: transport.New(transport.Config{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Headers: map[string]string{
				"Authorization": "Bearer " + cfg.APIKey,
				"Content-Type":  "application/json",
				"Accept":        "application/json",
				"User-Agent":    "courierhub/1.0",
			},
		}),
	}
}

// CreateShipment books a shipment: POST /shipments.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipment request: %w", err)
	}

	resp, err := c.http.Post(ctx, "/shipments", body, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, parseError(resp)
	}

	var result CreateShipmentResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}

	return &result, nil
}

// GetTracking fetches the update history: GET /shipments/{awb}/events.
func (c *HTTPAPIClient) GetTracking(ctx context.Context, awb string) (*TrackingResult, error) {
	path := fmt.Sprintf("/shipments/%s/events", awb)

	resp, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var result TrackingResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}

	result.AWB = awb
	return &result, nil
}

// parseError extracts error information from a non-2xx response.
func parseError(resp *transport.Response) error {
	var apiErr APIError
	if err := json.Unmarshal(resp.Body, &apiErr); err == nil && apiErr.Code != "" {
		return &apiErr
	}

	var simpleErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &simpleErr); err == nil {
		msg := simpleErr.Error
		if msg == "" {
			msg = simpleErr.Message
		}
		if msg != "" {
			return &APIError{
				Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message: msg,
			}
		}
	}

	return &APIError{
		Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message: string(resp.Body),
	}
}

var _ APIClient = (*HTTPAPIClient)(nil)
