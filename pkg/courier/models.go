package courier

import (
	"strings"
	"time"
)

// UnifiedStatus represents the normalized status of a shipment. Every
// provider's raw vocabulary maps into this closed set.
type UnifiedStatus string

const (
	StatusPending        UnifiedStatus = "PENDING"
	StatusCreated        UnifiedStatus = "CREATED"
	StatusConfirmed      UnifiedStatus = "CONFIRMED"
	StatusPickedUp       UnifiedStatus = "PICKED_UP"
	StatusInTransit      UnifiedStatus = "IN_TRANSIT"
	StatusOutForDelivery UnifiedStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      UnifiedStatus = "DELIVERED"
	StatusFailedDelivery UnifiedStatus = "FAILED_DELIVERY"
	StatusReturned       UnifiedStatus = "RETURNED"
	StatusCancelled      UnifiedStatus = "CANCELLED"
	StatusException      UnifiedStatus = "EXCEPTION"
	StatusLost           UnifiedStatus = "LOST"
	StatusDamaged        UnifiedStatus = "DAMAGED"
)

var unifiedStatuses = map[UnifiedStatus]struct{}{
	StatusPending:        {},
	StatusCreated:        {},
	StatusConfirmed:      {},
	StatusPickedUp:       {},
	StatusInTransit:      {},
	StatusOutForDelivery: {},
	StatusDelivered:      {},
	StatusFailedDelivery: {},
	StatusReturned:       {},
	StatusCancelled:      {},
	StatusException:      {},
	StatusLost:           {},
	StatusDamaged:        {},
}

// ParseUnifiedStatus looks up s (case-insensitive) in the unified
// vocabulary. The second return reports membership.
func ParseUnifiedStatus(s string) (UnifiedStatus, bool) {
	status := UnifiedStatus(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := unifiedStatuses[status]
	return status, ok
}

// Terminal reports whether a shipment in this status can no longer move.
func (s UnifiedStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusReturned, StatusCancelled, StatusLost, StatusDamaged:
		return true
	}
	return false
}

// Priority represents the shipment priority tier.
type Priority string

const (
	PriorityStandard Priority = "STANDARD"
	PriorityExpress  Priority = "EXPRESS"
	PriorityPriority Priority = "PRIORITY"
)

// Address represents a sender or recipient address. The same shape serves
// both roles.
type Address struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	City         string
	Country      string // ISO 3166-1 alpha-2, e.g., "SA", "AE"
	Phone        string
	Phone2       string
	PostalCode   string
	Email        string
	IDNumber     string
	POBox        string
}

// PackageDetails describes the physical package of a shipment.
type PackageDetails struct {
	Weight      float64 // kg
	Description string
	Length      float64 // cm
	Width       float64
	Height      float64
	Value       float64 // declared value
	Pieces      int
}

// ============================================================================
// Request/Response Types
// ============================================================================

// ShipmentRequest is the unified request for creating a shipment.
type ShipmentRequest struct {
	ReferenceNumber       string // caller-supplied business key
	Sender                Address
	Recipient             Address
	Package               PackageDetails
	Priority              Priority
	ServiceType           string
	SpecialInstructions   string
	CODAmount             float64
	CODCurrency           string
	InsuranceAmount       float64
	PreferredDeliveryDate *time.Time
	ReturnRequired        bool
	Metadata              map[string]any
}

// ShipmentResponse is the unified result of creating a shipment.
// On success WaybillNumber is non-empty; on failure it is empty and
// Errors is non-empty.
type ShipmentResponse struct {
	Success           bool
	WaybillNumber     string
	TrackingNumber    string // may equal WaybillNumber
	ReferenceNumber   string
	Provider          string
	ServiceType       string
	EstimatedDelivery *time.Time
	Cost              float64
	Currency          string
	LabelURL          string
	LabelData         string // base64 if inline
	Errors            []string
	Warnings          []string
	ProviderData      map[string]any
}

// TrackingEvent is a single entry in a shipment's history.
type TrackingEvent struct {
	Timestamp   time.Time
	Status      UnifiedStatus
	Description string
	Location    string
	Details     string
	RawStatus   string // provider wording before normalization
}

// TrackingResponse is the unified result of tracking a shipment.
// Events are ordered by timestamp ascending.
type TrackingResponse struct {
	Success           bool
	WaybillNumber     string
	TrackingNumber    string
	Status            UnifiedStatus
	StatusDescription string
	LastUpdated       time.Time
	EstimatedDelivery *time.Time
	Events            []TrackingEvent
	Errors            []string
}

// CancelResponse is the unified result of cancelling a shipment.
type CancelResponse struct {
	Success        bool
	WaybillNumber  string
	CancellationID string
	RefundAmount   float64
	Currency       string
	Errors         []string
}

// LabelResponse is the unified result of retrieving a shipping label.
type LabelResponse struct {
	Success       bool
	WaybillNumber string
	LabelURL      string
	LabelData     string // base64 if inline
	Format        string
	Errors        []string
}

// LabelFormatPDF is the default label format.
const LabelFormatPDF = "PDF"
