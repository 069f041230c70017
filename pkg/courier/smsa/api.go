package smsa

import (
	"context"
)

// APIClient defines the interface for SMSA SECOM web service operations.
// This abstraction allows for mock implementations during testing
// and real SOAP implementations in production.
type APIClient interface {
	// CreateShipment books a shipment via the addShipPDF operation
	CreateShipment(ctx context.Context, params *CreateShipmentParams) (*CreateShipmentResult, error)

	// GetTracking fetches the scan history for a waybill via getTrackingParams
	GetTracking(ctx context.Context, awb string) (*TrackingResult, error)

	// CancelShipment voids an undelivered shipment via cancelShipment
	CancelShipment(ctx context.Context, awb, reason string) (*CancelResult, error)
}

// ============================================================================
// API Request/Response Types (match SMSA SECOM wire structure)
// ============================================================================

// PartyParams holds one party's address block for addShipPDF.
type PartyParams struct {
	Name         string
	Country      string
	City         string
	PostalCode   string
	POBox        string
	Mobile       string
	Tel1         string
	Tel2         string
	AddressLine1 string
	AddressLine2 string
	Email        string
}

// CreateShipmentParams represents an addShipPDF request. Field values are
// flattened into the envelope in the element order the service expects.
type CreateShipmentParams struct {
	RefNo             string
	SentDate          string // YYYY-MM-DD
	IDNumber          string
	Sender            PartyParams
	Recipient         PartyParams
	ShipType          string
	Pieces            int
	CODAmount         float64
	Weight            float64
	DeclaredValue     float64
	DeclaredCurrency  string
	InsuranceAmount   float64
	InsuranceCurrency string
	Description       string
}

// CreateShipmentResult represents a successful addShipPDF response.
// The service returns the assigned waybill number as the result text.
type CreateShipmentResult struct {
	AWB string
}

// TrackingRow represents a single scan row from a getTrackingParams reply.
type TrackingRow struct {
	Date     string
	Activity string
	Details  string
	Location string
}

// TrackingResult represents the parsed tracking history for a waybill.
// Rows may be empty when the service replies without a scan data set.
type TrackingResult struct {
	AWB  string
	Rows []TrackingRow
}

// CancelResult represents a cancelShipment response. The service encodes
// the outcome in free text; a successful cancellation contains
// "Successfully".
type CancelResult struct {
	Result string
}

// APIError represents an error from the SMSA API.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
