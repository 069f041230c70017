// Package mock provides the simulation courier used for testing and as the
// universal fallback. It makes no network calls: created shipments live in
// an injectable store and unknown waybills get a synthesized history.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/pkg/courier"
)

const providerName = courier.ProviderMock

const (
	serviceType     = "MOCK_EXPRESS"
	defaultCurrency = "SAR"
	refundAmount    = 25.0
	labelURLFormat  = "https://mock-courier.example.com/labels/%s.pdf"
	// Minimal single-page PDF, base64.
	labelData = "JVBERi0xLjQKMSAwIG9iago8PC9UeXBlL1BhZ2VzL0tpZHNbXS9Db3VudCAwPj4KZW5kb2Jq"
)

// Rate card for simulated pricing.
var (
	baseRate  = decimal.NewFromFloat(20.0)
	perKGRate = decimal.NewFromFloat(3.5)

	priorityMultipliers = map[courier.Priority]decimal.Decimal{
		courier.PriorityStandard: decimal.NewFromInt(1),
		courier.PriorityExpress:  decimal.NewFromFloat(1.5),
		courier.PriorityPriority: decimal.NewFromInt(2),
	}

	transitDays = map[courier.Priority]int{
		courier.PriorityStandard: 3,
		courier.PriorityExpress:  2,
		courier.PriorityPriority: 1,
	}
)

// Client is the simulation courier adapter.
type Client struct {
	cfg    courier.Config
	store  Store
	logger *otelzap.Logger
	tracer trace.Tracer
	ready  bool
}

// New creates a new simulation client backed by an in-process store.
// Any configuration is accepted; there is no credential to validate.
func New(cfg courier.Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return NewWithStore(cfg, NewMemoryStore(), logger, tracer)
}

// NewWithStore creates a new simulation client with a custom store.
func NewWithStore(cfg courier.Config, store Store, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		cfg:    cfg,
		store:  store,
		logger: logger,
		tracer: tracer,
		ready:  true,
	}
}

// ProviderName returns the canonical provider identifier.
func (c *Client) ProviderName() string {
	return providerName
}

// SupportedFeatures returns every optional capability; the simulator
// supports them all.
func (c *Client) SupportedFeatures() []courier.Feature {
	return []courier.Feature{
		courier.FeatureCancellation,
		courier.FeatureCOD,
		courier.FeatureInsurance,
		courier.FeatureSignature,
		courier.FeatureTracking,
		courier.FeatureExpress,
	}
}

// SupportsFeature reports whether the simulator supports f.
func (c *Client) SupportsFeature(f courier.Feature) bool {
	return courier.HasFeature(c.SupportedFeatures(), f)
}

// MapStatus parses raw directly against the unified vocabulary.
func (c *Client) MapStatus(raw string) courier.UnifiedStatus {
	if status, ok := courier.ParseUnifiedStatus(raw); ok {
		return status
	}
	return courier.StatusException
}

// ValidateShipmentRequest applies the shared base rules only.
func (c *Client) ValidateShipmentRequest(req *courier.ShipmentRequest) []string {
	return courier.ValidateShipmentRequest(req)
}

// CreateShipment stores a simulated shipment with one CREATED event.
func (c *Client) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.ShipmentResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, courier.ErrNilRequest
	}

	if errs := c.ValidateShipmentRequest(req); len(errs) > 0 {
		return &courier.ShipmentResponse{
			Success:         false,
			ReferenceNumber: req.ReferenceNumber,
			Provider:        providerName,
			Errors:          errs,
		}, nil
	}

	now := time.Now()
	waybill := newWaybill(now)

	shipment := &Shipment{
		Waybill:   waybill,
		Request:   req,
		Status:    courier.StatusCreated,
		CreatedAt: now,
		Events: []courier.TrackingEvent{
			{
				Timestamp:   now,
				Status:      courier.StatusCreated,
				Description: "Shipment created successfully",
				Location:    req.Sender.City,
				RawStatus:   string(courier.StatusCreated),
			},
		},
	}
	if err := c.store.Save(ctx, shipment); err != nil {
		c.logger.Error("Simulation store save failed",
			zap.String("waybill", waybill),
			zap.Error(err),
		)
		return &courier.ShipmentResponse{
			Success:         false,
			ReferenceNumber: req.ReferenceNumber,
			Provider:        providerName,
			Errors:          []string{"simulation store error: " + err.Error()},
		}, nil
	}

	c.logger.Info("Mock shipment created",
		zap.String("waybill", waybill),
		zap.String("reference", req.ReferenceNumber),
	)

	eta := now.AddDate(0, 0, deliveryDays(req.Priority))
	return &courier.ShipmentResponse{
		Success:           true,
		WaybillNumber:     waybill,
		TrackingNumber:    waybill,
		ReferenceNumber:   req.ReferenceNumber,
		Provider:          providerName,
		ServiceType:       serviceType,
		EstimatedDelivery: &eta,
		Cost:              quoteCost(req.Package.Weight, req.Priority),
		Currency:          defaultCurrency,
		LabelURL:          fmt.Sprintf(labelURLFormat, waybill),
		LabelData:         labelData,
		ProviderData:      map[string]any{"mock": true, "waybill": waybill},
	}, nil
}

// TrackShipment reports stored history for known waybills and synthesizes
// a plausible in-transit history for unknown ones.
func (c *Client) TrackShipment(ctx context.Context, waybill string) (*courier.TrackingResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	shipment, found, err := c.store.Get(ctx, waybill)
	if err != nil {
		return &courier.TrackingResponse{
			Success:           false,
			WaybillNumber:     waybill,
			TrackingNumber:    waybill,
			Status:            courier.StatusException,
			StatusDescription: err.Error(),
			LastUpdated:       time.Now(),
			Errors:            []string{"simulation store error: " + err.Error()},
		}, nil
	}
	if !found {
		return syntheticTracking(waybill), nil
	}

	lastUpdated := time.Now()
	if n := len(shipment.Events); n > 0 {
		lastUpdated = shipment.Events[n-1].Timestamp
	}

	return &courier.TrackingResponse{
		Success:           true,
		WaybillNumber:     waybill,
		TrackingNumber:    waybill,
		Status:            shipment.Status,
		StatusDescription: fmt.Sprintf("Current status: %s", shipment.Status),
		LastUpdated:       lastUpdated,
		Events:            shipment.Events,
	}, nil
}

// CancelShipment marks a stored shipment cancelled and records the reason.
// Unknown waybills still succeed; only stored state is mutated.
func (c *Client) CancelShipment(ctx context.Context, waybill, reason string) (*courier.CancelResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "No reason provided"
	}

	_, err := c.store.Update(ctx, waybill, func(shipment *Shipment) {
		shipment.Status = courier.StatusCancelled
		shipment.Events = append(shipment.Events, courier.TrackingEvent{
			Timestamp:   time.Now(),
			Status:      courier.StatusCancelled,
			Description: fmt.Sprintf("Shipment cancelled. Reason: %s", reason),
			RawStatus:   string(courier.StatusCancelled),
		})
	})
	if err != nil {
		return &courier.CancelResponse{
			Success:       false,
			WaybillNumber: waybill,
			Errors:        []string{"simulation store error: " + err.Error()},
		}, nil
	}

	return &courier.CancelResponse{
		Success:        true,
		WaybillNumber:  waybill,
		CancellationID: "CANCEL-" + strings.ToUpper(uuid.New().String()[:8]),
		RefundAmount:   refundAmount,
		Currency:       defaultCurrency,
	}, nil
}

// PrintLabel returns a simulated label.
func (c *Client) PrintLabel(ctx context.Context, waybill string) (*courier.LabelResponse, error) {
	if err := c.ensureReady(); err != nil {
		return nil, err
	}

	return &courier.LabelResponse{
		Success:       true,
		WaybillNumber: waybill,
		LabelURL:      fmt.Sprintf(labelURLFormat, waybill),
		LabelData:     labelData,
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
// Simulation helpers
// ============================================================================

func newWaybill(now time.Time) string {
	return "MOCK" + now.Format("20060102150405") + strings.ToUpper(uuid.New().String()[:4])
}

func quoteCost(weightKG float64, priority courier.Priority) float64 {
	mult, ok := priorityMultipliers[priority]
	if !ok {
		mult = priorityMultipliers[courier.PriorityStandard]
	}
	cost := baseRate.Add(perKGRate.Mul(decimal.NewFromFloat(weightKG))).Mul(mult)
	return cost.Round(2).InexactFloat64()
}

func deliveryDays(priority courier.Priority) int {
	if days, ok := transitDays[priority]; ok {
		return days
	}
	return transitDays[courier.PriorityStandard]
}

func syntheticTracking(waybill string) *courier.TrackingResponse {
	now := time.Now()
	return &courier.TrackingResponse{
		Success:           true,
		WaybillNumber:     waybill,
		TrackingNumber:    waybill,
		Status:            courier.StatusInTransit,
		StatusDescription: "Package is in transit",
		LastUpdated:       now,
		Events: []courier.TrackingEvent{
			{
				Timestamp:   now.Add(-2 * time.Hour),
				Status:      courier.StatusCreated,
				RawStatus:   string(courier.StatusCreated),
				Description: "Shipment created",
				Location:    "Riyadh",
			},
			{
				Timestamp:   now.Add(-1 * time.Hour),
				Status:      courier.StatusPickedUp,
				RawStatus:   string(courier.StatusPickedUp),
				Description: "Package picked up by courier",
				Location:    "Riyadh Hub",
			},
			{
				Timestamp:   now,
				Status:      courier.StatusInTransit,
				RawStatus:   string(courier.StatusInTransit),
				Description: "Package in transit to destination",
				Location:    "In Transit",
			},
		},
	}
}

var _ courier.Courier = (*Client)(nil)
