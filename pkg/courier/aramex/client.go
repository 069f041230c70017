// Package aramex provides integration with the ARAMEX shipping REST API.
package aramex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/pkg/courier"
)

const providerName = courier.ProviderAramex

// Operational limits from the ARAMEX service agreement.
const (
	maxWeightKG      = 50.0
	maxDeclaredValue = 50000.0
	maxPieces        = 10
	defaultCurrency  = "SAR"
)

// statusTable maps ARAMEX update codes onto the unified vocabulary. The
// carrier vocabulary is closed, so lookup is exact (case-insensitive) and
// anything outside it is an EXCEPTION.
var statusTable = map[string]courier.UnifiedStatus{
	"RECORD_CREATED":      courier.StatusCreated,
	"COLLECTED":           courier.StatusPickedUp,
	"IN_TRANSIT":          courier.StatusInTransit,
	"ARRIVED_AT_HUB":      courier.StatusInTransit,
	"OUT_FOR_DELIVERY":    courier.StatusOutForDelivery,
	"DELIVERED":           courier.StatusDelivered,
	"DELIVERY_FAILED":     courier.StatusFailedDelivery,
	"RETURNED_TO_SHIPPER": courier.StatusReturned,
	"ON_HOLD":             courier.StatusException,
	"LOST":                courier.StatusLost,
	"DAMAGED":             courier.StatusDamaged,
}

// Client is the ARAMEX courier adapter.
type Client struct {
	cfg    courier.Config
	api    APIClient
	logger *otelzap.Logger
	tracer trace.Tracer
	ready  bool
}

// New creates a new ARAMEX client. It fails fast when the credential or
// endpoint is missing from the configuration.
func New(cfg courier.Config, logger *otelzap.Logger, tracer trace.Tracer) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, courier.NewCourierError(providerName, "CONFIG_ERROR", "invalid configuration").WithCause(err)
	}

	var api APIClient
	if cfg.ExtraBool("use_mock") {
		api = NewMockAPIClient()
	} else {
		api = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: 30 * time.Second,
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

// NewWithAPIClient creates a new ARAMEX client with a custom API client.
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

// SupportedFeatures returns the capabilities of the ARAMEX integration.
// Cancellation is absent: the carrier has no cancellation endpoint.
func (c *Client) SupportedFeatures() []courier.Feature {
	return []courier.Feature{
		courier.FeatureCOD,
		courier.FeatureInsurance,
		courier.FeatureTracking,
		courier.FeatureExpress,
	}
}

// SupportsFeature reports whether the ARAMEX integration supports f.
func (c *Client) SupportsFeature(f courier.Feature) bool {
	return courier.HasFeature(c.SupportedFeatures(), f)
}

// MapStatus normalizes a raw ARAMEX update code.
func (c *Client) MapStatus(raw string) courier.UnifiedStatus {
	if status, ok := statusTable[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return status
	}
	return courier.StatusException
}

// ValidateShipmentRequest applies the shared rules plus ARAMEX limits.
func (c *Client) ValidateShipmentRequest(req *courier.ShipmentRequest) []string {
	errs := courier.ValidateShipmentRequest(req)
	if req == nil {
		return errs
	}

	if req.Package.Weight > maxWeightKG {
		errs = append(errs, fmt.Sprintf("Package weight exceeds ARAMEX maximum of %.0f kg", maxWeightKG))
	}
	if req.Package.Value > maxDeclaredValue {
		errs = append(errs, fmt.Sprintf("Declared value exceeds ARAMEX maximum of %.0f", maxDeclaredValue))
	}
	if req.Package.Pieces > maxPieces {
		errs = append(errs, fmt.Sprintf("Piece count exceeds ARAMEX maximum of %d", maxPieces))
	}

	return errs
}

// CreateShipment books a shipment with ARAMEX.
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

	c.logger.Info("Creating ARAMEX shipment",
		zap.String("reference", req.ReferenceNumber),
		zap.String("destination_city", req.Recipient.City),
		zap.Float64("weight", req.Package.Weight),
	)

	result, err := c.api.CreateShipment(ctx, shipmentRequest(req))
	if err != nil {
		c.logger.Error("ARAMEX create shipment failed",
			zap.String("reference", req.ReferenceNumber),
			zap.Error(err),
		)
		return failureShipmentResponse(req.ReferenceNumber, []string{"ARAMEX API Error: " + err.Error()}), nil
	}

	currency := result.ChargeCurrency
	if currency == "" {
		currency = defaultCurrency
	}

	return &courier.ShipmentResponse{
		Success:         true,
		WaybillNumber:   result.ID,
		TrackingNumber:  result.ID,
		ReferenceNumber: req.ReferenceNumber,
		Provider:        providerName,
		ServiceType:     productType(req.Priority),
		Cost:            result.ChargeAmount,
		Currency:        currency,
		LabelURL:        result.LabelURL,
	}, nil
}

// TrackShipment fetches and normalizes the update history for a waybill.
func (c *Client) TrackShipment(ctx context.Context, waybill string) (*courier.TrackingResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	result, err := c.api.GetTracking(ctx, waybill)
	if err != nil {
		c.logger.Error("ARAMEX tracking failed",
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

	if len(result.Updates) == 0 {
		return &courier.TrackingResponse{
			Success:           true,
			WaybillNumber:     waybill,
			TrackingNumber:    waybill,
			Status:            courier.StatusCreated,
			StatusDescription: "No movement recorded yet",
			LastUpdated:       time.Now(),
		}, nil
	}

	events := make([]courier.TrackingEvent, len(result.Updates))
	for i, u := range result.Updates {
		events[i] = courier.TrackingEvent{
			Timestamp:   parseUpdateTime(u.Timestamp),
			Status:      c.MapStatus(u.Code),
			Description: u.Description,
			Location:    u.Location,
			RawStatus:   u.Code,
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

// CancelShipment reports the carrier's missing cancellation capability.
// No remote call is made.
func (c *Client) CancelShipment(ctx context.Context, waybill, reason string) (*courier.CancelResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	c.logger.Warn("ARAMEX cancellation requested but unsupported",
		zap.String("waybill", waybill),
		zap.String("reason", reason),
	)

	return &courier.CancelResponse{
		Success:       false,
		WaybillNumber: waybill,
		Errors:        []string{"ARAMEX does not support shipment cancellation"},
	}, nil
}

// PrintLabel reports that labels are only issued at creation time.
func (c *Client) PrintLabel(ctx context.Context, waybill string) (*courier.LabelResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	return &courier.LabelResponse{
		Success:       false,
		WaybillNumber: waybill,
		Errors:        []string{"ARAMEX issues labels only at shipment creation; use the label URL from the creation response"},
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

func shipmentRequest(req *courier.ShipmentRequest) *CreateShipmentRequest {
	currency := req.CODCurrency
	if currency == "" {
		currency = defaultCurrency
	}

	group := "EXP"
	if strings.EqualFold(req.Sender.Country, req.Recipient.Country) {
		group = "DOM"
	}

	return &CreateShipmentRequest{
		Reference: req.ReferenceNumber,
		Shipper:   party(req.Sender),
		Consignee: party(req.Recipient),
		Details: ShipmentDetails{
			WeightKG:        req.Package.Weight,
			Pieces:          pieceCount(req.Package.Pieces),
			Description:     req.Package.Description,
			ProductGroup:    group,
			ProductType:     productType(req.Priority),
			PaymentType:     "P",
			CODAmount:       req.CODAmount,
			CODCurrency:     currency,
			InsuranceAmount: req.InsuranceAmount,
			DeclaredValue:   req.Package.Value,
		},
	}
}

func party(addr courier.Address) Party {
	return Party{
		Name:    addr.Name,
		Line1:   addr.AddressLine1,
		Line2:   addr.AddressLine2,
		City:    addr.City,
		Country: addr.Country,
		Phone:   addr.Phone,
		ZipCode: addr.PostalCode,
		Email:   addr.Email,
	}
}

func pieceCount(pieces int) int {
	if pieces <= 0 {
		return 1
	}
	return pieces
}

func productType(p courier.Priority) string {
	switch p {
	case courier.PriorityExpress, courier.PriorityPriority:
		return "EPX"
	default:
		return "ONP"
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

// updateTimeLayouts covers the timestamp formats observed from the API.
var updateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseUpdateTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range updateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ courier.Courier = (*Client)(nil)
