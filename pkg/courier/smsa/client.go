// Package smsa provides integration with the SMSA Express SECOM SOAP API.
package smsa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/pkg/courier"
)

const providerName = courier.ProviderSMSA

// Operational limits from the SMSA service agreement.
const (
	maxWeightKG     = 30.0
	maxDimensionCM  = 150.0
	maxCODAmountSAR = 10000.0
	homeCountry     = "SA"
	defaultCurrency = "SAR"
	defaultShipType = "DLV"
)

const labelURLFormat = "https://track.smsaexpress.com/getPDF.aspx?awb=%s"

// statusFragments maps SMSA activity phrasing onto the unified vocabulary
// by case-insensitive containment. Earlier entries win, so more specific
// phrases come first. Unmatched activity text falls back to IN_TRANSIT:
// the service only reports scans for live shipments, and over-reporting
// exceptions on a healthy shipment is worse than a vague in-transit.
var statusFragments = []struct {
	fragment string
	status   courier.UnifiedStatus
}{
	{"data received", courier.StatusCreated},
	{"picked up", courier.StatusPickedUp},
	{"out for delivery", courier.StatusOutForDelivery},
	{"proof of delivery", courier.StatusDelivered},
	{"delivered", courier.StatusDelivered},
	{"in transit", courier.StatusInTransit},
	{"return", courier.StatusReturned},
	{"cancel", courier.StatusCancelled},
	{"exception", courier.StatusException},
}

// Client is the SMSA courier adapter.
type Client struct {
	cfg    courier.Config
	api    APIClient
	logger *otelzap.Logger
	tracer trace.Tracer
	ready  bool
}

// New creates a new SMSA client. It fails fast when the credential or
// endpoint is missing from the configuration.
func New(cfg courier.Config, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, courier.NewCourierError(providerName, "CONFIG_ERROR", "invalid configuration").WithCause(err)
	}

	var api APIClient
	if cfg.ExtraBool("use_mock") {
		api = NewMockAPIClient()
	} else {
		api = NewSOAPAPIClient(SOAPAPIClientConfig{
			Endpoint: cfg.BaseURL,
			PassKey:  cfg.APIKey,
			Timeout:  30 * time.Second,
		})
	}

	return &Client{
		cfg:    cfg,
		api:    api,
		logger: logger,
		tracer: tracer,
		ready:  true,
	}, nil
}

// NewWithAPIClient creates a new SMSA client with a custom API client.
func NewWithAPIClient(cfg courier.Config, api APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		cfg:    cfg,
		api:    api,
		logger: logger,
		tracer: tracer,
		ready:  true,
	}
}

// ProviderName returns the canonical provider identifier.
func (c *Client) ProviderName() string {
	return providerName
}

// SupportedFeatures returns the capabilities of the SMSA integration.
func (c *Client) SupportedFeatures() []courier.Feature {
	return []courier.Feature{
		courier.FeatureCancellation,
		courier.FeatureCOD,
		courier.FeatureInsurance,
		courier.FeatureTracking,
	}
}

// SupportsFeature reports whether the SMSA integration supports f.
func (c *Client) SupportsFeature(f courier.Feature) bool {
	return courier.HasFeature(c.SupportedFeatures(), f)
}

// MapStatus normalizes raw SMSA activity text.
func (c *Client) MapStatus(raw string) courier.UnifiedStatus {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, m := range statusFragments {
		if strings.Contains(needle, m.fragment) {
			return m.status
		}
	}
	return courier.StatusInTransit
}

// ValidateShipmentRequest applies the shared rules plus SMSA limits.
func (c *Client) ValidateShipmentRequest(req *courier.ShipmentRequest) []string {
	errs := courier.ValidateShipmentRequest(req)
	if req == nil {
		return errs
	}

	if req.Package.Weight > maxWeightKG {
		errs = append(errs, fmt.Sprintf("Package weight exceeds SMSA maximum of %.0f kg", maxWeightKG))
	}
	if req.Package.Length > maxDimensionCM || req.Package.Width > maxDimensionCM || req.Package.Height > maxDimensionCM {
		errs = append(errs, fmt.Sprintf("Package dimensions exceed SMSA maximum of %.0f cm per side", maxDimensionCM))
	}
	if req.CODAmount > maxCODAmountSAR {
		errs = append(errs, fmt.Sprintf("COD amount exceeds SMSA maximum of %.0f SAR", maxCODAmountSAR))
	}
	if !strings.EqualFold(req.Sender.Country, homeCountry) && !strings.EqualFold(req.Recipient.Country, homeCountry) {
		errs = append(errs, "SMSA requires the sender or the recipient to be in Saudi Arabia (SA)")
	}

	return errs
}

// CreateShipment books a shipment with SMSA.
func (c *Client) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, courier.ErrNilRequest
	}

	if errs := c.ValidateShipmentRequest(req); len(errs) > 0 {
		return failureShipmentResponse(req.ReferenceNumber, errs), nil
	}

	c.logger.Info("Creating SMSA shipment",
		zap.String("reference", req.ReferenceNumber),
		zap.String("destination_city", req.Recipient.City),
		zap.Float64("weight", req.Package.Weight),
	)

	result, err := c.api.CreateShipment(ctx, shipmentParams(req))
	if err != nil {
		c.logger.Error("SMSA create shipment failed",
			zap.String("reference", req.ReferenceNumber),
			zap.Error(err),
		)
		return failureShipmentResponse(req.ReferenceNumber, []string{createErrorMessage(err)}), nil
	}

	return &courier.ShipmentResponse{
		Success:         true,
		WaybillNumber:   result.AWB,
		TrackingNumber:  result.AWB,
		ReferenceNumber: req.ReferenceNumber,
		Provider:        providerName,
		ServiceType:     defaultShipType,
		Currency:        defaultCurrency,
		LabelURL:        fmt.Sprintf(labelURLFormat, result.AWB),
	}, nil
}

// TrackShipment fetches and normalizes the scan history for a waybill.
// A reply without scan rows still counts as a successful call; the
// shipment is reported in transit with an empty history.
func (c *Client) TrackShipment(ctx context.Context, waybill string) (*courier.TrackingResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	result, err := c.api.GetTracking(ctx, waybill)
	if err != nil {
		c.logger.Error("SMSA tracking failed",
			zap.String("waybill", waybill),
			zap.Error(err),
		)
		return &courier.TrackingResponse{
			Success:           false,
			WaybillNumber:     waybill,
			TrackingNumber:    waybill,
			Status:            courier.StatusException,
			StatusDescription: err.Error(),
			LastUpdated:       time.Now(),
			Errors:            []string{err.Error()},
		}, nil
	}

	if len(result.Rows) == 0 {
		return &courier.TrackingResponse{
			Success:           true,
			WaybillNumber:     waybill,
			TrackingNumber:    waybill,
			Status:            courier.StatusInTransit,
			StatusDescription: "Shipment in transit",
			LastUpdated:       time.Now(),
		}, nil
	}

	events := make([]courier.TrackingEvent, len(result.Rows))
	for i, row := range result.Rows {
		events[i] = courier.TrackingEvent{
			Timestamp:   parseEventTime(row.Date),
			Status:      c.MapStatus(row.Activity),
			Description: row.Activity,
			Location:    row.Location,
			Details:     row.Details,
			RawStatus:   row.Activity,
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	latest := events[len(events)-1]
	return &courier.TrackingResponse{
		Success:           true,
		WaybillNumber:     waybill,
		TrackingNumber:    waybill,
		Status:            latest.Status,
		StatusDescription: latest.Description,
		LastUpdated:       latest.Timestamp,
		Events:            events,
	}, nil
}

// CancelShipment asks SMSA to void an undelivered shipment. The service
// answers in free text; anything without its success marker is reported
// as a declined cancellation.
func (c *Client) CancelShipment(ctx context.Context, waybill, reason string) (*courier.CancelResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	c.logger.Info("Cancelling SMSA shipment",
		zap.String("waybill", waybill),
		zap.String("reason", reason),
	)

	result, err := c.api.CancelShipment(ctx, waybill, reason)
	if err != nil {
		c.logger.Error("SMSA cancel failed",
			zap.String("waybill", waybill),
			zap.Error(err),
		)
		return &courier.CancelResponse{
			Success:       false,
			WaybillNumber: waybill,
			Errors:        []string{err.Error()},
		}, nil
	}

	resp := &courier.CancelResponse{
		Success:        strings.Contains(result.Result, "Successfully"),
		WaybillNumber:  waybill,
		CancellationID: result.Result,
		Currency:       defaultCurrency,
	}
	if !resp.Success {
		resp.Errors = []string{"SMSA cancellation failed: " + result.Result}
	}
	return resp, nil
}

// PrintLabel returns the public label URL for a waybill. SMSA labels are
// served from a stable URL, so no remote call is needed.
func (c *Client) PrintLabel(ctx context.Context, waybill string) (*courier.LabelResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	return &courier.LabelResponse{
		Success:       true,
		WaybillNumber: waybill,
		LabelURL:      fmt.Sprintf(labelURLFormat, waybill),
		Format:        courier.LabelFormatPDF,
	}, nil
}

func (c *Client) ensureReady() error {
	if !c.ready {
		return courier.ErrNotReady
	}
	return nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func shipmentParams(req *courier.ShipmentRequest) *CreateShipmentParams {
	currency := req.CODCurrency
	if currency == "" {
		currency = defaultCurrency
	}

	return &CreateShipmentParams{
		RefNo:             req.ReferenceNumber,
		SentDate:          time.Now().Format("2006-01-02"),
		IDNumber:          req.Recipient.IDNumber,
		Sender:            partyParams(req.Sender),
		Recipient:         partyParams(req.Recipient),
		ShipType:          defaultShipType,
		Pieces:            req.Package.Pieces,
		CODAmount:         req.CODAmount,
		Weight:            req.Package.Weight,
		DeclaredValue:     req.Package.Value,
		DeclaredCurrency:  currency,
		InsuranceAmount:   req.InsuranceAmount,
		InsuranceCurrency: currency,
		Description:       req.Package.Description,
	}
}

func partyParams(addr courier.Address) PartyParams {
	return PartyParams{
		Name:         addr.Name,
		Country:      addr.Country,
		City:         addr.City,
		PostalCode:   addr.PostalCode,
		POBox:        addr.POBox,
		Mobile:       addr.Phone,
		Tel1:         addr.Phone2,
		AddressLine1: addr.AddressLine1,
		AddressLine2: addr.AddressLine2,
		Email:        addr.Email,
	}
}

func failureShipmentResponse(reference string, errs []string) *courier.ShipmentResponse {
	return &courier.ShipmentResponse{
		Success:         false,
		ReferenceNumber: reference,
		Provider:        providerName,
		Errors:          errs,
	}
}

// createErrorMessage renders remote-reported failures under the
// "SMSA API Error" prefix. Transport errors pass through unchanged.
func createErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "SMSA API Error: " + apiErr.Description
	}
	return err.Error()
}

// eventTimeLayouts covers the date formats observed in SECOM replies.
var eventTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

func parseEventTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ courier.Courier = (*Client)(nil)
