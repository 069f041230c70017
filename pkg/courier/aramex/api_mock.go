package aramex

import (
	"context"
	"fmt"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateShipment func(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResult, error)
	OnGetTracking    func(ctx context.Context, awb string) (*TrackingResult, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment books a mock shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResult, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	awb := fmt.Sprintf("47%09d", time.Now().UnixNano()%1_000_000_000)
	currency := req.Details.CODCurrency
	if currency == "" {
		currency = "SAR"
	}

	return &CreateShipmentResult{
		ID:             awb,
		ForeignHAWB:    req.Reference,
		LabelURL:       fmt.Sprintf("https://www.aramex.com/labels/%s.pdf", awb),
		ChargeAmount:   45.50,
		ChargeCurrency: currency,
	}, nil
}

// GetTracking returns a mock update history.
func (m *MockAPIClient) GetTracking(ctx context.Context, awb string) (*TrackingResult, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, awb)
	}

	now := time.Now()
	return &TrackingResult{
		AWB: awb,
		Updates: []TrackingUpdate{
			{
				Timestamp:   now.Add(-6 * time.Hour).Format(time.RFC3339),
				Code:        "RECORD_CREATED",
				Description: "Shipment record created",
				Location:    "Riyadh",
			},
			{
				Timestamp:   now.Add(-3 * time.Hour).Format(time.RFC3339),
				Code:        "COLLECTED",
				Description: "Shipment collected from shipper",
				Location:    "Riyadh",
			},
			{
				Timestamp:   now.Add(-1 * time.Hour).Format(time.RFC3339),
				Code:        "IN_TRANSIT",
				Description: "Shipment in transit to destination",
				Location:    "Riyadh Hub",
			},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
