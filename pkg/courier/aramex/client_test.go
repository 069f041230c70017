package aramex_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/pkg/courier"
	"github.com/wasel/courierhub/pkg/courier/aramex"
)

func testConfig() courier.Config {
	return courier.Config{
		APIKey:  "test_key",
		BaseURL: "https://test.aramex.example/api/v1",
	}
}

func newTestClient(mockAPI *aramex.MockAPIClient) *aramex.Client {
	logger := otelzap.New(zap.NewNop())
	return aramex.NewWithAPIClient(testConfig(), mockAPI, logger, nil)
}

func validRequest() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		ReferenceNumber: "REF456",
		Sender: courier.Address{
			Name:         "Sender",
			AddressLine1: "Olaya Street 10",
			City:         "Riyadh",
			Country:      "SA",
			Phone:        "0501111111",
		},
		Recipient: courier.Address{
			Name:         "Recipient",
			AddressLine1: "Corniche Road 5",
			City:         "Dubai",
			Country:      "AE",
			Phone:        "0502222222",
		},
		Package: courier.PackageDetails{
			Weight:      8.5,
			Description: "Electronics",
			Value:       1200,
			Pieces:      2,
		},
		Priority: courier.PriorityExpress,
	}
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.WaybillNumber)
	assert.Equal(t, "ARAMEX", resp.Provider)
	assert.Equal(t, "REF456", resp.ReferenceNumber)
	assert.NotEmpty(t, resp.LabelURL)
	assert.Greater(t, resp.Cost, 0.0)
}

func TestClient_CreateShipment_APIError(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "ARAMEX API Error")
}

func TestClient_CreateShipment_ValidationFailure(t *testing.T) {
	called := false
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.OnCreateShipment = func(ctx context.Context, req *aramex.CreateShipmentRequest) (*aramex.CreateShipmentResult, error) {
		called = true
		return &aramex.CreateShipmentResult{ID: "47000000001"}, nil
	}

	client := newTestClient(mockAPI)

	req := validRequest()
	req.Recipient.Phone = ""

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, req)

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Errors, "Recipient phone is required")
	assert.False(t, called, "API must not be called when validation fails")
}

func TestClient_CreateShipment_NilRequest(t *testing.T) {
	client := newTestClient(aramex.NewMockAPIClient())

	ctx := context.Background()
	_, err := client.CreateShipment(ctx, nil)

	assert.ErrorIs(t, err, courier.ErrNilRequest)
}

func TestClient_ValidateShipmentRequest_Limits(t *testing.T) {
	client := newTestClient(aramex.NewMockAPIClient())

	tests := []struct {
		name    string
		mutate  func(req *courier.ShipmentRequest)
		message string
	}{
		{
			name:    "weight over 50kg",
			mutate:  func(req *courier.ShipmentRequest) { req.Package.Weight = 55 },
			message: "50 kg",
		},
		{
			name:    "declared value over 50000",
			mutate:  func(req *courier.ShipmentRequest) { req.Package.Value = 60000 },
			message: "50000",
		},
		{
			name:    "more than 10 pieces",
			mutate:  func(req *courier.ShipmentRequest) { req.Package.Pieces = 11 },
			message: "maximum of 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			errs := client.ValidateShipmentRequest(req)
			require.NotEmpty(t, errs)
			assert.Contains(t, strings.Join(errs, "; "), tt.message)
		})
	}

	// Within limits passes cleanly.
	req := validRequest()
	req.Package.Weight = 45
	assert.Empty(t, client.ValidateShipmentRequest(req))
}

func TestClient_MapStatus(t *testing.T) {
	client := newTestClient(aramex.NewMockAPIClient())

	tests := []struct {
		raw  string
		want courier.UnifiedStatus
	}{
		{"RECORD_CREATED", courier.StatusCreated},
		{"COLLECTED", courier.StatusPickedUp},
		{"IN_TRANSIT", courier.StatusInTransit},
		{"ARRIVED_AT_HUB", courier.StatusInTransit},
		{"OUT_FOR_DELIVERY", courier.StatusOutForDelivery},
		{"DELIVERED", courier.StatusDelivered},
		{"DELIVERY_FAILED", courier.StatusFailedDelivery},
		{"RETURNED_TO_SHIPPER", courier.StatusReturned},
		{"ON_HOLD", courier.StatusException},
		{"LOST", courier.StatusLost},
		{"DAMAGED", courier.StatusDamaged},
		{"delivered", courier.StatusDelivered},
		{"  collected  ", courier.StatusPickedUp},
		{"", courier.StatusException},
		{"SOMETHING_ELSE", courier.StatusException},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, client.MapStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestClient_TrackShipment_Success(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "47000000001")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, courier.StatusInTransit, resp.Status)
	require.Len(t, resp.Events, 3)
	assert.Equal(t, courier.StatusCreated, resp.Events[0].Status)
	assert.Equal(t, "RECORD_CREATED", resp.Events[0].RawStatus)
	assert.Equal(t, courier.StatusPickedUp, resp.Events[1].Status)
}

func TestClient_TrackShipment_NoUpdates(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.OnGetTracking = func(ctx context.Context, awb string) (*aramex.TrackingResult, error) {
		return &aramex.TrackingResult{AWB: awb}, nil
	}

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "47000000002")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, courier.StatusCreated, resp.Status)
	assert.Empty(t, resp.Events)
}

func TestClient_TrackShipment_APIError(t *testing.T) {
	mockAPI := aramex.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "47000000003")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, courier.StatusException, resp.Status)
	assert.NotEmpty(t, resp.Errors)
}

func TestClient_CancelShipment_Unsupported(t *testing.T) {
	client := newTestClient(aramex.NewMockAPIClient())

	ctx := context.Background()
	resp, err := client.CancelShipment(ctx, "47000000001", "changed my mind")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "does not support")
}

func TestClient_PrintLabel_Unsupported(t *testing.T) {
	client := newTestClient(aramex.NewMockAPIClient())

	ctx := context.Background()
	resp, err := client.PrintLabel(ctx, "47000000001")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "creation")
}

func TestClient_Features(t *testing.T) {
	client := newTestClient(aramex.NewMockAPIClient())

	assert.Equal(t, "ARAMEX", client.ProviderName())
	assert.False(t, client.SupportsFeature(courier.FeatureCancellation))
	assert.True(t, client.SupportsFeature(courier.FeatureCOD))
	assert.True(t, client.SupportsFeature(courier.FeatureInsurance))
	assert.True(t, client.SupportsFeature(courier.FeatureTracking))
	assert.True(t, client.SupportsFeature(courier.FeatureExpress))
}

func TestClient_New_ConfigValidation(t *testing.T) {
	logger := otelzap.New(zap.NewNop())

	_, err := aramex.New(courier.Config{BaseURL: "https://test.aramex.example"}, logger, nil)
	assert.ErrorIs(t, err, courier.ErrMissingCredential)

	_, err = aramex.New(courier.Config{APIKey: "test_key"}, logger, nil)
	assert.ErrorIs(t, err, courier.ErrMissingEndpoint)
}

func TestClient_New_UseMock(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	cfg := testConfig()
	cfg.Extra = map[string]any{"use_mock": true}

	client, err := aramex.New(cfg, logger, nil)
	require.NoError(t, err)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestClient_NotReady(t *testing.T) {
	var client aramex.Client

	ctx := context.Background()
	_, err := client.PrintLabel(ctx, "47000000001")

	assert.ErrorIs(t, err, courier.ErrNotReady)
}
