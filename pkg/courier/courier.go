// Package courier provides a unified abstraction layer over heterogeneous
// courier provider APIs.
package courier

import (
	"context"
)

// Canonical provider identifiers. Providers register under these names and
// the selection heuristic recognizes them.
const (
	ProviderSMSA   = "SMSA"
	ProviderAramex = "ARAMEX"
	ProviderMock   = "MOCK"
)

// Feature identifies an optional capability a provider may support.
type Feature string

const (
	FeatureCancellation Feature = "cancellation"
	FeatureCOD          Feature = "cod"
	FeatureInsurance    Feature = "insurance"
	FeatureSignature    Feature = "signature_required"
	FeatureTracking     Feature = "tracking"
	FeatureExpress      Feature = "express"
)

// Courier defines the interface that all courier providers must implement.
//
// Business-level failures (validation, remote rejection, transport faults)
// never surface as Go errors: they come back as a response with
// Success=false and a populated Errors list. The error return is reserved
// for programmer-error conditions such as invoking an operation on an
// instance that was never constructed.
type Courier interface {
	// ProviderName returns the stable provider identifier (e.g., "SMSA").
	ProviderName() string

	// SupportedFeatures returns the optional capabilities this provider honors.
	SupportedFeatures() []Feature

	// SupportsFeature reports whether the provider honors the given feature.
	SupportsFeature(f Feature) bool

	// MapStatus normalizes a raw provider status into the unified vocabulary.
	// Total: any input maps to a valid UnifiedStatus, never an error.
	MapStatus(raw string) UnifiedStatus

	// ValidateShipmentRequest returns the list of validation errors for req.
	// Providers apply the shared base rules first, then their own limits.
	ValidateShipmentRequest(req *ShipmentRequest) []string

	// CreateShipment creates a shipment with the provider.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// TrackShipment returns the current status and event history for a waybill.
	TrackShipment(ctx context.Context, waybill string) (*TrackingResponse, error)

	// CancelShipment cancels an existing shipment.
	CancelShipment(ctx context.Context, waybill, reason string) (*CancelResponse, error)

	// PrintLabel retrieves the shipping label for a waybill.
	PrintLabel(ctx context.Context, waybill string) (*LabelResponse, error)
}

// HasFeature reports whether f is present in features. Providers use it to
// derive SupportsFeature from SupportedFeatures.
func HasFeature(features []Feature, f Feature) bool {
	for _, have := range features {
		if have == f {
			return true
		}
	}
	return false
}
