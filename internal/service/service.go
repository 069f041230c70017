// Package service orchestrates courier operations on top of the provider
// registry: it resolves providers, persists shipment records, merges
// tracking history, and gates operations on provider capabilities.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/internal/telemetry"
	"github.com/wasel/courierhub/pkg/courier"
)

// Record is the persisted view of a shipment created through this service.
type Record struct {
	Waybill         string
	TrackingNumber  string
	ReferenceNumber string
	Provider        string
	Status          courier.UnifiedStatus
	ServiceType     string
	Cost            float64
	Currency        string
	LabelURL        string
	LabelData       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Events          []courier.TrackingEvent
	Request         *courier.ShipmentRequest
}

// Repo persists shipment records keyed by waybill. Save is an upsert.
type Repo interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, waybill string) (*Record, bool, error)
}

// ProviderInfo describes a registered provider for API consumers.
type ProviderInfo struct {
	Name     string
	Features []courier.Feature
}

// Service coordinates provider resolution, courier calls, and persistence.
type Service struct {
	registry *courier.Registry
	repo     Repo
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
}

// New creates the orchestration service.
func New(registry *courier.Registry, repo Repo, logger *otelzap.Logger, metrics *telemetry.Metrics, tracer trace.Tracer) *Service {
	return &Service{
		registry: registry,
		repo:     repo,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
	}
}

// CreateShipment books a shipment with the named provider, or with the one
// the selection heuristic picks when provider is empty, and persists a
// record of the accepted shipment. Provider rejections surface as
// *RejectedError.
func (s *Service) CreateShipment(ctx context.Context, provider string, req *courier.ShipmentRequest) (*courier.ShipmentResponse, error) {
	if req == nil {
		return nil, courier.ErrNilRequest
	}

	ctx, span := s.startSpan(ctx, "courierhub.create_shipment",
		attribute.String("courier.reference", req.ReferenceNumber))
	defer span.End()

	c, err := s.resolve(provider, req)
	if err != nil {
		return nil, err
	}
	name := c.ProviderName()
	span.SetAttributes(attribute.String("courier.provider", name))

	start := time.Now()
	resp, err := c.CreateShipment(ctx, req)
	if err != nil {
		s.metrics.RecordError(name, "create")
		return nil, err
	}
	s.metrics.RecordRequest("create", name, outcome(resp.Success), time.Since(start).Seconds())

	if !resp.Success {
		s.metrics.RecordError(name, "rejected")
		return nil, &RejectedError{Provider: name, Errors: resp.Errors}
	}

	now := time.Now()
	rec := &Record{
		Waybill:         resp.WaybillNumber,
		TrackingNumber:  resp.TrackingNumber,
		ReferenceNumber: req.ReferenceNumber,
		Provider:        name,
		Status:          courier.StatusCreated,
		ServiceType:     resp.ServiceType,
		Cost:            resp.Cost,
		Currency:        resp.Currency,
		LabelURL:        resp.LabelURL,
		LabelData:       resp.LabelData,
		CreatedAt:       now,
		UpdatedAt:       now,
		Events: []courier.TrackingEvent{
			{
				Timestamp:   now,
				Status:      courier.StatusCreated,
				Description: "Shipment created successfully",
				Location:    req.Sender.City,
				RawStatus:   string(courier.StatusCreated),
			},
		},
		Request: req,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		// The remote shipment exists; losing the record must not undo it.
		s.logger.Error("Failed to persist shipment record",
			zap.String("waybill", resp.WaybillNumber),
			zap.String("provider", name),
			zap.Error(err),
		)
		resp.Warnings = append(resp.Warnings, "shipment created but the record could not be persisted")
	}

	s.logger.Info("Shipment created",
		zap.String("waybill", resp.WaybillNumber),
		zap.String("provider", name),
		zap.String("reference", req.ReferenceNumber),
	)
	return resp, nil
}

// TrackShipment refreshes tracking for a known waybill, merging newly
// reported events into the stored history and caching the latest status.
func (s *Service) TrackShipment(ctx context.Context, waybill string) (*courier.TrackingResponse, error) {
	ctx, span := s.startSpan(ctx, "courierhub.track_shipment",
		attribute.String("courier.waybill", waybill))
	defer span.End()

	rec, err := s.loadRecord(ctx, waybill)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("courier.provider", rec.Provider))

	c, err := s.registry.Get(rec.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.TrackShipment(ctx, waybill)
	if err != nil {
		s.metrics.RecordError(rec.Provider, "track")
		return nil, err
	}
	s.metrics.RecordRequest("track", rec.Provider, outcome(resp.Success), time.Since(start).Seconds())

	if resp.Success {
		rec.Events = mergeEvents(rec.Events, resp.Events)
		if resp.Status != "" {
			rec.Status = resp.Status
		}
		rec.UpdatedAt = time.Now()
		if err := s.repo.Save(ctx, rec); err != nil {
			s.logger.Error("Failed to persist tracking refresh",
				zap.String("waybill", waybill),
				zap.Error(err),
			)
		}
		resp.Events = rec.Events
	}
	return resp, nil
}

// CancelShipment cancels a known shipment after checking the provider
// supports cancellation at all.
func (s *Service) CancelShipment(ctx context.Context, waybill, reason string) (*courier.CancelResponse, error) {
	ctx, span := s.startSpan(ctx, "courierhub.cancel_shipment",
		attribute.String("courier.waybill", waybill))
	defer span.End()

	rec, err := s.loadRecord(ctx, waybill)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("courier.provider", rec.Provider))

	if !s.registry.SupportsFeature(rec.Provider, courier.FeatureCancellation) {
		return nil, errors.Wrapf(ErrFeatureUnsupported, "provider %s, feature %s", rec.Provider, courier.FeatureCancellation)
	}

	c, err := s.registry.Get(rec.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.CancelShipment(ctx, waybill, reason)
	if err != nil {
		s.metrics.RecordError(rec.Provider, "cancel")
		return nil, err
	}
	s.metrics.RecordRequest("cancel", rec.Provider, outcome(resp.Success), time.Since(start).Seconds())

	if resp.Success {
		rec.Status = courier.StatusCancelled
		rec.UpdatedAt = time.Now()
		if err := s.repo.Save(ctx, rec); err != nil {
			s.logger.Error("Failed to persist cancellation",
				zap.String("waybill", waybill),
				zap.Error(err),
			)
		}
		s.logger.Info("Shipment cancelled",
			zap.String("waybill", waybill),
			zap.String("provider", rec.Provider),
			zap.String("reason", reason),
		)
	}
	return resp, nil
}

// GetLabel returns the shipping label for a known waybill, serving the
// stored copy when creation already produced one.
func (s *Service) GetLabel(ctx context.Context, waybill string) (*courier.LabelResponse, error) {
	ctx, span := s.startSpan(ctx, "courierhub.get_label",
		attribute.String("courier.waybill", waybill))
	defer span.End()

	rec, err := s.loadRecord(ctx, waybill)
	if err != nil {
		return nil, err
	}

	if rec.LabelURL != "" || rec.LabelData != "" {
		return &courier.LabelResponse{
			Success:       true,
			WaybillNumber: waybill,
			LabelURL:      rec.LabelURL,
			LabelData:     rec.LabelData,
			Format:        courier.LabelFormatPDF,
		}, nil
	}

	c, err := s.registry.Get(rec.Provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.PrintLabel(ctx, waybill)
	if err != nil {
		s.metrics.RecordError(rec.Provider, "label")
		return nil, err
	}
	s.metrics.RecordRequest("label", rec.Provider, outcome(resp.Success), time.Since(start).Seconds())

	if resp.Success {
		rec.LabelURL = resp.LabelURL
		rec.LabelData = resp.LabelData
		rec.UpdatedAt = time.Now()
		if err := s.repo.Save(ctx, rec); err != nil {
			s.logger.Error("Failed to persist label",
				zap.String("waybill", waybill),
				zap.Error(err),
			)
		}
	}
	return resp, nil
}

// GetShipment returns the stored record for a waybill.
func (s *Service) GetShipment(ctx context.Context, waybill string) (*Record, error) {
	return s.loadRecord(ctx, waybill)
}

// ListProviders describes every registered provider.
func (s *Service) ListProviders() []ProviderInfo {
	names := s.registry.Providers()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		c, err := s.registry.Get(name)
		if err != nil {
			s.logger.Warn("Skipping unconstructable provider",
				zap.String("provider", name),
				zap.Error(err),
			)
			continue
		}
		infos = append(infos, ProviderInfo{
			Name:     c.ProviderName(),
			Features: c.SupportedFeatures(),
		})
	}
	return infos
}

// GetProvider describes one registered provider.
func (s *Service) GetProvider(name string) (*ProviderInfo, error) {
	c, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return &ProviderInfo{
		Name:     c.ProviderName(),
		Features: c.SupportedFeatures(),
	}, nil
}

func (s *Service) resolve(provider string, req *courier.ShipmentRequest) (courier.Courier, error) {
	if provider == "" {
		name, err := s.registry.BestCourier(req.Sender.Country, req.Recipient.Country, req.Package.Weight, req.Priority)
		if err != nil {
			return nil, err
		}
		provider = name
	}
	return s.registry.Get(provider)
}

func (s *Service) loadRecord(ctx context.Context, waybill string) (*Record, error) {
	rec, found, err := s.repo.Get(ctx, waybill)
	if err != nil {
		return nil, errors.Wrap(err, "load shipment record")
	}
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "waybill %s", waybill)
	}
	return rec, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// mergeEvents unions stored and freshly reported events, dropping
// duplicates on second-resolution timestamp plus raw status, and returns
// them ordered by timestamp ascending.
func mergeEvents(stored, fresh []courier.TrackingEvent) []courier.TrackingEvent {
	seen := make(map[string]struct{}, len(stored)+len(fresh))
	merged := make([]courier.TrackingEvent, 0, len(stored)+len(fresh))
	for _, ev := range stored {
		seen[eventKey(ev)] = struct{}{}
		merged = append(merged, ev)
	}
	for _, ev := range fresh {
		key := eventKey(ev)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, ev)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

func eventKey(ev courier.TrackingEvent) string {
	return fmt.Sprintf("%d|%s", ev.Timestamp.Unix(), ev.RawStatus)
}
