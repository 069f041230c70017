package smsa

import (
	"context"
	"fmt"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateShipment func(ctx context.Context, params *CreateShipmentParams) (*CreateShipmentResult, error)
	OnGetTracking    func(ctx context.Context, awb string) (*TrackingResult, error)
	OnCancelShipment func(ctx context.Context, awb, reason string) (*CancelResult, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment returns a mock waybill number.
func (m *MockAPIClient) CreateShipment(ctx context.Context, params *CreateShipmentParams) (*CreateShipmentResult, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, params)
	}

	awb := fmt.Sprintf("290%09d", time.Now().UnixNano()%1_000_000_000)
	return &CreateShipmentResult{AWB: awb}, nil
}

// GetTracking returns a mock scan history.
func (m *MockAPIClient) GetTracking(ctx context.Context, awb string) (*TrackingResult, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, awb)
	}

	now := time.Now()
	return &TrackingResult{
		AWB: awb,
		Rows: []TrackingRow{
			{
				Date:     now.Add(-4 * time.Hour).Format("2006-01-02 15:04:05"),
				Activity: "Data Received",
				Details:  "Shipment details received",
				Location: "Riyadh",
			},
			{
				Date:     now.Add(-2 * time.Hour).Format("2006-01-02 15:04:05"),
				Activity: "Picked Up",
				Details:  "Shipment picked up from customer",
				Location: "Riyadh",
			},
			{
				Date:     now.Add(-1 * time.Hour).Format("2006-01-02 15:04:05"),
				Activity: "In Transit",
				Details:  "Departed Riyadh hub",
				Location: "Riyadh Hub",
			},
		},
	}, nil
}

// CancelShipment returns a mock cancellation confirmation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, awb, reason string) (*CancelResult, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, awb, reason)
	}

	return &CancelResult{Result: "Successfully Cancelled"}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
