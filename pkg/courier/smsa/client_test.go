package smsa_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/pkg/courier"
	"github.com/wasel/courierhub/pkg/courier/smsa"
)

func testConfig() courier.Config {
	return courier.Config{
		APIKey:  "test_key",
		BaseURL: "https://test.smsa.example/SMSAwebService.asmx",
	}
}

func newTestClient(mockAPI *smsa.MockAPIClient) *smsa.Client {
	logger := otelzap.New(zap.NewNop())
	return smsa.NewWithAPIClient(testConfig(), mockAPI, logger, nil)
}

func validRequest() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		ReferenceNumber: "REF123",
		Sender: courier.Address{
			Name:         "Sender",
			AddressLine1: "Line 1",
			City:         "Riyadh",
			Country:      "SA",
			Phone:        "0501111111",
			PostalCode:   "11111",
		},
		Recipient: courier.Address{
			Name:         "Recipient",
			AddressLine1: "Line 1",
			City:         "Jeddah",
			Country:      "SA",
			Phone:        "0502222222",
			PostalCode:   "22222",
		},
		Package: courier.PackageDetails{
			Weight:      10.0,
			Description: "Test Package",
			Value:       100,
		},
		CODAmount:       50.0,
		InsuranceAmount: 10.0,
	}
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.WaybillNumber)
	assert.Equal(t, resp.WaybillNumber, resp.TrackingNumber)
	assert.Equal(t, "REF123", resp.ReferenceNumber)
	assert.Equal(t, "SMSA", resp.Provider)
	assert.Contains(t, resp.LabelURL, "getPDF.aspx?awb=")
	assert.Empty(t, resp.Errors)
}

func TestClient_CreateShipment_APIError(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "SMSA API Error")
	assert.Contains(t, resp.Errors[0], "Simulated API error")
}

func TestClient_CreateShipment_BusinessFailure(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.OnCreateShipment = func(ctx context.Context, params *smsa.CreateShipmentParams) (*smsa.CreateShipmentResult, error) {
		return nil, &smsa.APIError{Code: "CREATE_FAILED", Description: "Failed: Invalid Key"}
	}

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "SMSA API Error")
	assert.Contains(t, resp.Errors[0], "Failed: Invalid Key")
}

func TestClient_CreateShipment_ValidationFailure(t *testing.T) {
	called := false
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.OnCreateShipment = func(ctx context.Context, params *smsa.CreateShipmentParams) (*smsa.CreateShipmentResult, error) {
		called = true
		return &smsa.CreateShipmentResult{AWB: "290000000001"}, nil
	}

	client := newTestClient(mockAPI)

	req := validRequest()
	req.Package.Weight = 0

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, req)

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Errors, "Package weight must be greater than 0")
	assert.False(t, called, "API must not be called when validation fails")
}

func TestClient_CreateShipment_NilRequest(t *testing.T) {
	client := newTestClient(smsa.NewMockAPIClient())

	ctx := context.Background()
	_, err := client.CreateShipment(ctx, nil)

	assert.ErrorIs(t, err, courier.ErrNilRequest)
}

func TestClient_ValidateShipmentRequest_WeightLimit(t *testing.T) {
	client := newTestClient(smsa.NewMockAPIClient())

	req := validRequest()
	req.Package.Weight = 35

	errs := client.ValidateShipmentRequest(req)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "30 kg")

	req.Package.Weight = 25
	assert.Empty(t, client.ValidateShipmentRequest(req))
}

func TestClient_ValidateShipmentRequest_Limits(t *testing.T) {
	client := newTestClient(smsa.NewMockAPIClient())

	tests := []struct {
		name    string
		mutate  func(req *courier.ShipmentRequest)
		message string
	}{
		{
			name:    "dimension over 150cm",
			mutate:  func(req *courier.ShipmentRequest) { req.Package.Length = 180 },
			message: "150 cm",
		},
		{
			name:    "cod over 10000 SAR",
			mutate:  func(req *courier.ShipmentRequest) { req.CODAmount = 15000 },
			message: "10000 SAR",
		},
		{
			name: "neither party in Saudi Arabia",
			mutate: func(req *courier.ShipmentRequest) {
				req.Sender.Country = "US"
				req.Recipient.Country = "GB"
			},
			message: "Saudi Arabia",
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
}

func TestClient_MapStatus(t *testing.T) {
	client := newTestClient(smsa.NewMockAPIClient())

	tests := []struct {
		raw  string
		want courier.UnifiedStatus
	}{
		{"Data Received", courier.StatusCreated},
		{"Shipment Picked Up from customer", courier.StatusPickedUp},
		{"In Transit", courier.StatusInTransit},
		{"Out for Delivery", courier.StatusOutForDelivery},
		{"Proof of Delivery Captured", courier.StatusDelivered},
		{"Delivered to consignee", courier.StatusDelivered},
		{"Returned to shipper", courier.StatusReturned},
		{"Canceled", courier.StatusCancelled},
		{"Cancelled by customer", courier.StatusCancelled},
		{"Exception - address not found", courier.StatusException},
		{"", courier.StatusInTransit},
		{"some unknown scan text", courier.StatusInTransit},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, client.MapStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestClient_TrackShipment_Success(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "290000000001")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "290000000001", resp.WaybillNumber)
	assert.Equal(t, courier.StatusInTransit, resp.Status)
	require.Len(t, resp.Events, 3)

	// Events are ordered oldest first and normalized individually.
	assert.Equal(t, courier.StatusCreated, resp.Events[0].Status)
	assert.Equal(t, "Data Received", resp.Events[0].RawStatus)
	assert.Equal(t, courier.StatusPickedUp, resp.Events[1].Status)
	assert.Equal(t, courier.StatusInTransit, resp.Events[2].Status)
	for i := 1; i < len(resp.Events); i++ {
		assert.False(t, resp.Events[i].Timestamp.Before(resp.Events[i-1].Timestamp))
	}
}

func TestClient_TrackShipment_NoRows(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.OnGetTracking = func(ctx context.Context, awb string) (*smsa.TrackingResult, error) {
		return &smsa.TrackingResult{AWB: awb}, nil
	}

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "290000000002")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, courier.StatusInTransit, resp.Status)
	assert.Empty(t, resp.Events)
	assert.False(t, resp.LastUpdated.IsZero())
}

func TestClient_TrackShipment_APIError(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "290000000003")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, courier.StatusException, resp.Status)
	assert.NotEmpty(t, resp.Errors)
}

func TestClient_CancelShipment_Success(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CancelShipment(ctx, "290000000001", "Customer request")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "290000000001", resp.WaybillNumber)
	assert.Contains(t, resp.CancellationID, "Successfully")
}

func TestClient_CancelShipment_Declined(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.OnCancelShipment = func(ctx context.Context, awb, reason string) (*smsa.CancelResult, error) {
		return &smsa.CancelResult{Result: "Failed: shipment already delivered"}, nil
	}

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CancelShipment(ctx, "290000000001", "too late")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "already delivered")
}

func TestClient_CancelShipment_APIError(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.CancelShipment(ctx, "290000000001", "test")

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Errors)
}

func TestClient_PrintLabel(t *testing.T) {
	client := newTestClient(smsa.NewMockAPIClient())

	ctx := context.Background()
	resp, err := client.PrintLabel(ctx, "290000000001")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.LabelURL, "getPDF.aspx?awb=290000000001")
	assert.Equal(t, courier.LabelFormatPDF, resp.Format)
}

func TestClient_Features(t *testing.T) {
	client := newTestClient(smsa.NewMockAPIClient())

	assert.Equal(t, "SMSA", client.ProviderName())
	assert.True(t, client.SupportsFeature(courier.FeatureCancellation))
	assert.True(t, client.SupportsFeature(courier.FeatureCOD))
	assert.True(t, client.SupportsFeature(courier.FeatureInsurance))
	assert.True(t, client.SupportsFeature(courier.FeatureTracking))
	assert.False(t, client.SupportsFeature(courier.FeatureExpress))
	assert.False(t, client.SupportsFeature(courier.FeatureSignature))
}

func TestClient_New_ConfigValidation(t *testing.T) {
	logger := otelzap.New(zap.NewNop())

	_, err := smsa.New(courier.Config{BaseURL: "https://test.smsa.example"}, logger, nil)
	assert.ErrorIs(t, err, courier.ErrMissingCredential)

	_, err = smsa.New(courier.Config{APIKey: "test_key"}, logger, nil)
	assert.ErrorIs(t, err, courier.ErrMissingEndpoint)
}

func TestClient_New_UseMock(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	cfg := testConfig()
	cfg.Extra = map[string]any{"use_mock": true}

	client, err := smsa.New(cfg, logger, nil)
	require.NoError(t, err)

	ctx := context.Background()
	resp, err := client.CreateShipment(ctx, validRequest())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.WaybillNumber)
}

func TestClient_NotReady(t *testing.T) {
	var client smsa.Client

	ctx := context.Background()
	_, err := client.TrackShipment(ctx, "290000000001")

	assert.ErrorIs(t, err, courier.ErrNotReady)
}

func TestClient_TrackShipment_EventTimeParsing(t *testing.T) {
	mockAPI := smsa.NewMockAPIClient()
	mockAPI.OnGetTracking = func(ctx context.Context, awb string) (*smsa.TrackingResult, error) {
		return &smsa.TrackingResult{
			AWB: awb,
			Rows: []smsa.TrackingRow{
				{Date: "2024-03-01 09:15:00", Activity: "Data Received", Location: "Riyadh"},
				{Date: "2024-03-02 18:40:00", Activity: "Delivered", Location: "Jeddah"},
			},
		}, nil
	}

	client := newTestClient(mockAPI)

	ctx := context.Background()
	resp, err := client.TrackShipment(ctx, "290000000004")

	require.NoError(t, err)
	assert.Equal(t, courier.StatusDelivered, resp.Status)

	want := time.Date(2024, 3, 2, 18, 40, 0, 0, time.UTC)
	assert.Equal(t, want, resp.LastUpdated)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC), resp.Events[0].Timestamp)
}
