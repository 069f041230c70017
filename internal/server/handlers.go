package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/internal/service"
	"github.com/wasel/courierhub/pkg/courier"
)

// ============================================================================
// Wire payloads
// ============================================================================

type addressPayload struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Phone2       string `json:"phone2,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Email        string `json:"email,omitempty"`
	IDNumber     string `json:"id_number,omitempty"`
	POBox        string `json:"po_box,omitempty"`
}

type packagePayload struct {
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Length      float64 `json:"length,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Pieces      int     `json:"pieces,omitempty"`
}

type createShipmentPayload struct {
	Provider              string         `json:"provider,omitempty"`
	ReferenceNumber       string         `json:"reference_number"`
	Sender                addressPayload `json:"sender"`
	Recipient             addressPayload `json:"recipient"`
	Package               packagePayload `json:"package"`
	Priority              string         `json:"priority,omitempty"`
	ServiceType           string         `json:"service_type,omitempty"`
	SpecialInstructions   string         `json:"special_instructions,omitempty"`
	CODAmount             float64        `json:"cod_amount,omitempty"`
	CODCurrency           string         `json:"cod_currency,omitempty"`
	InsuranceAmount       float64        `json:"insurance_amount,omitempty"`
	PreferredDeliveryDate *time.Time     `json:"preferred_delivery_date,omitempty"`
	ReturnRequired        bool           `json:"return_required,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
}

type shipmentResponsePayload struct {
	Success           bool           `json:"success"`
	WaybillNumber     string         `json:"waybill_number,omitempty"`
	TrackingNumber    string         `json:"tracking_number,omitempty"`
	ReferenceNumber   string         `json:"reference_number,omitempty"`
	Provider          string         `json:"provider,omitempty"`
	ServiceType       string         `json:"service_type,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	Cost              float64        `json:"cost,omitempty"`
	Currency          string         `json:"currency,omitempty"`
	LabelURL          string         `json:"label_url,omitempty"`
	LabelData         string         `json:"label_data,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
	ProviderData      map[string]any `json:"provider_data,omitempty"`
}

type trackingEventPayload struct {
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Details     string    `json:"details,omitempty"`
	RawStatus   string    `json:"raw_status,omitempty"`
}

type trackingResponsePayload struct {
	Success           bool                   `json:"success"`
	WaybillNumber     string                 `json:"waybill_number"`
	Status            string                 `json:"status"`
	StatusDescription string                 `json:"status_description,omitempty"`
	LastUpdated       time.Time              `json:"last_updated"`
	Events            []trackingEventPayload `json:"events,omitempty"`
	Errors            []string               `json:"errors,omitempty"`
}

type cancelResponsePayload struct {
	Success        bool     `json:"success"`
	WaybillNumber  string   `json:"waybill_number"`
	CancellationID string   `json:"cancellation_id,omitempty"`
	RefundAmount   float64  `json:"refund_amount,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

type labelResponsePayload struct {
	Success       bool     `json:"success"`
	WaybillNumber string   `json:"waybill"`
	LabelURL      string   `json:"label_url,omitempty"`
	LabelData     string   `json:"label_data,omitempty"`
	Format        string   `json:"format,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

type shipmentRecordPayload struct {
	Waybill         string                 `json:"waybill"`
	TrackingNumber  string                 `json:"tracking_number"`
	ReferenceNumber string                 `json:"reference_number"`
	Provider        string                 `json:"provider"`
	Status          string                 `json:"status"`
	ServiceType     string                 `json:"service_type,omitempty"`
	Cost            float64                `json:"cost,omitempty"`
	Currency        string                 `json:"currency,omitempty"`
	LabelURL        string                 `json:"label_url,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Events          []trackingEventPayload `json:"events,omitempty"`
}

type courierInfoPayload struct {
	Name     string   `json:"name"`
	Features []string `json:"features"`
}

type courierListPayload struct {
	Couriers []courierInfoPayload `json:"couriers"`
}

type errorPayload struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleListCouriers(w http.ResponseWriter, r *http.Request) {
	infos := s.svc.ListProviders()
	payload := courierListPayload{Couriers: make([]courierInfoPayload, len(infos))}
	for i, info := range infos {
		payload.Couriers[i] = courierInfoToPayload(info)
	}
	s.respond(w, http.StatusOK, payload)
}

func (s *Server) handleGetCourier(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.GetProvider(chi.URLParam(r, "provider"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, courierInfoToPayload(*info))
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var payload createShipmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respond(w, http.StatusBadRequest, errorPayload{Error: "invalid JSON: " + err.Error()})
		return
	}

	resp, err := s.svc.CreateShipment(r.Context(), payload.Provider, shipmentRequestFromPayload(&payload))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, shipmentResponseToPayload(resp))
}

func (s *Server) handleGetShipment(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.GetShipment(r.Context(), chi.URLParam(r, "waybill"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, recordToPayload(rec))
}

func (s *Server) handleTrackShipment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.TrackShipment(r.Context(), chi.URLParam(r, "waybill"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, trackingResponseToPayload(resp))
}

func (s *Server) handleGetLabel(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.GetLabel(r.Context(), chi.URLParam(r, "waybill"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, labelResponseToPayload(resp))
}

// handleCancelShipment cancels a shipment. The optional reason comes from
// the "reason" query parameter.
func (s *Server) handleCancelShipment(w http.ResponseWriter, r *http.Request) {
	waybill := chi.URLParam(r, "waybill")
	reason := r.URL.Query().Get("reason")

	resp, err := s.svc.CancelShipment(r.Context(), waybill, reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, http.StatusOK, cancelResponseToPayload(resp))
}

// ============================================================================
// Response plumbing
// ============================================================================

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var rejected *service.RejectedError
	switch {
	case errors.As(err, &rejected):
		s.respond(w, http.StatusBadRequest, errorPayload{Error: "shipment rejected", Details: rejected.Errors})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, courier.ErrProviderNotFound):
		s.respond(w, http.StatusNotFound, errorPayload{Error: err.Error()})
	case errors.Is(err, service.ErrFeatureUnsupported):
		s.respond(w, http.StatusConflict, errorPayload{Error: err.Error()})
	case errors.Is(err, courier.ErrNilRequest):
		s.respond(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
	case errors.Is(err, courier.ErrNoProviders):
		s.respond(w, http.StatusServiceUnavailable, errorPayload{Error: err.Error()})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		s.respond(w, http.StatusInternalServerError, errorPayload{Error: "internal error"})
	}
}

// ============================================================================
// Conversions
// ============================================================================

func shipmentRequestFromPayload(p *createShipmentPayload) *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		ReferenceNumber:       p.ReferenceNumber,
		Sender:                addressFromPayload(p.Sender),
		Recipient:             addressFromPayload(p.Recipient),
		Package:               packageFromPayload(p.Package),
		Priority:              courier.Priority(strings.ToUpper(strings.TrimSpace(p.Priority))),
		ServiceType:           p.ServiceType,
		SpecialInstructions:   p.SpecialInstructions,
		CODAmount:             p.CODAmount,
		CODCurrency:           p.CODCurrency,
		InsuranceAmount:       p.InsuranceAmount,
		PreferredDeliveryDate: p.PreferredDeliveryDate,
		ReturnRequired:        p.ReturnRequired,
		Metadata:              p.Metadata,
	}
}

func addressFromPayload(p addressPayload) courier.Address {
	return courier.Address{
		Name:         p.Name,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		City:         p.City,
		Country:      p.Country,
		Phone:        p.Phone,
		Phone2:       p.Phone2,
		PostalCode:   p.PostalCode,
		Email:        p.Email,
		IDNumber:     p.IDNumber,
		POBox:        p.POBox,
	}
}

func packageFromPayload(p packagePayload) courier.PackageDetails {
	return courier.PackageDetails{
		Weight:      p.Weight,
		Description: p.Description,
		Length:      p.Length,
		Width:       p.Width,
		Height:      p.Height,
		Value:       p.Value,
		Pieces:      p.Pieces,
	}
}

func shipmentResponseToPayload(resp *courier.ShipmentResponse) shipmentResponsePayload {
	return shipmentResponsePayload{
		Success:           resp.Success,
		WaybillNumber:     resp.WaybillNumber,
		TrackingNumber:    resp.TrackingNumber,
		ReferenceNumber:   resp.ReferenceNumber,
		Provider:          resp.Provider,
		ServiceType:       resp.ServiceType,
		EstimatedDelivery: resp.EstimatedDelivery,
		Cost:              resp.Cost,
		Currency:          resp.Currency,
		LabelURL:          resp.LabelURL,
		LabelData:         resp.LabelData,
		Warnings:          resp.Warnings,
		ProviderData:      resp.ProviderData,
	}
}

func trackingResponseToPayload(resp *courier.TrackingResponse) trackingResponsePayload {
	return trackingResponsePayload{
		Success:           resp.Success,
		WaybillNumber:     resp.WaybillNumber,
		Status:            string(resp.Status),
		StatusDescription: resp.StatusDescription,
		LastUpdated:       resp.LastUpdated,
		Events:            eventsToPayload(resp.Events),
		Errors:            resp.Errors,
	}
}

func eventsToPayload(events []courier.TrackingEvent) []trackingEventPayload {
	if len(events) == 0 {
		return nil
	}
	out := make([]trackingEventPayload, len(events))
	for i, ev := range events {
		out[i] = trackingEventPayload{
			Timestamp:   ev.Timestamp,
			Status:      string(ev.Status),
			Description: ev.Description,
			Location:    ev.Location,
			Details:     ev.Details,
			RawStatus:   ev.RawStatus,
		}
	}
	return out
}

func cancelResponseToPayload(resp *courier.CancelResponse) cancelResponsePayload {
	return cancelResponsePayload{
		Success:        resp.Success,
		WaybillNumber:  resp.WaybillNumber,
		CancellationID: resp.CancellationID,
		RefundAmount:   resp.RefundAmount,
		Currency:       resp.Currency,
		Errors:         resp.Errors,
	}
}

func labelResponseToPayload(resp *courier.LabelResponse) labelResponsePayload {
	return labelResponsePayload{
		Success:       resp.Success,
		WaybillNumber: resp.WaybillNumber,
		LabelURL:      resp.LabelURL,
		LabelData:     resp.LabelData,
		Format:        resp.Format,
		Errors:        resp.Errors,
	}
}

func recordToPayload(rec *service.Record) shipmentRecordPayload {
	return shipmentRecordPayload{
		Waybill:         rec.Waybill,
		TrackingNumber:  rec.TrackingNumber,
		ReferenceNumber: rec.ReferenceNumber,
		Provider:        rec.Provider,
		Status:          string(rec.Status),
		ServiceType:     rec.ServiceType,
		Cost:            rec.Cost,
		Currency:        rec.Currency,
		LabelURL:        rec.LabelURL,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		Events:          eventsToPayload(rec.Events),
	}
}

func courierInfoToPayload(info service.ProviderInfo) courierInfoPayload {
	features := make([]string, len(info.Features))
	for i, f := range info.Features {
		features[i] = string(f)
	}
	return courierInfoPayload{Name: info.Name, Features: features}
}
