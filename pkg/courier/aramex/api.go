package aramex

import (
	"context"
)

// APIClient defines the interface for ARAMEX shipping API operations.
// The carrier exposes no cancellation endpoint, so the surface stops at
// booking and tracking.
type APIClient interface {
	// CreateShipment books a shipment
	CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResult, error)

	// GetTracking fetches the update history for a waybill
	GetTracking(ctx context.Context, awb string) (*TrackingResult, error)
}

// ============================================================================
// API Request/Response Types (match ARAMEX JSON wire structure)
// ============================================================================

// Party represents a shipper or consignee address block.
type Party struct {
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	Country string `json:"country_code"`
	Phone   string `json:"phone"`
	ZipCode string `json:"zip_code,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ShipmentDetails carries the package and payment attributes.
type ShipmentDetails struct {
	WeightKG        float64 `json:"weight_kg"`
	Pieces          int     `json:"number_of_pieces"`
	Description     string  `json:"description_of_goods"`
	ProductGroup    string  `json:"product_group"` // "DOM" or "EXP"
	ProductType     string  `json:"product_type"`
	PaymentType     string  `json:"payment_type"`
	CODAmount       float64 `json:"cod_amount,omitempty"`
	CODCurrency     string  `json:"cod_currency,omitempty"`
	InsuranceAmount float64 `json:"insurance_amount,omitempty"`
	DeclaredValue   float64 `json:"customs_value,omitempty"`
}

// CreateShipmentRequest represents a shipment booking request.
type CreateShipmentRequest struct {
	Reference string          `json:"reference"`
	Shipper   Party           `json:"shipper"`
	Consignee Party           `json:"consignee"`
	Details   ShipmentDetails `json:"details"`
}

// CreateShipmentResult represents a successful booking. The label URL is
// only issued here; the carrier has no after-the-fact label endpoint.
type CreateShipmentResult struct {
	ID             string  `json:"id"`
	ForeignHAWB    string  `json:"foreign_hawb"`
	LabelURL       string  `json:"label_url"`
	ChargeAmount   float64 `json:"charge_amount"`
	ChargeCurrency string  `json:"charge_currency"`
}

// TrackingUpdate is a single entry in a waybill's update history.
type TrackingUpdate struct {
	Timestamp   string `json:"timestamp"`
	Code        string `json:"update_code"`
	Description string `json:"update_description"`
	Location    string `json:"update_location"`
}

// TrackingResult represents the update history for a waybill.
type TrackingResult struct {
	AWB     string           `json:"awb"`
	Updates []TrackingUpdate `json:"updates"`
}

// APIError represents an error from the ARAMEX API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
