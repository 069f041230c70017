package courier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasel/courierhub/pkg/courier"
)

func validShipmentRequest() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		ReferenceNumber: "REF001",
		Sender: courier.Address{
			Name:         "Wasel Store",
			AddressLine1: "123 King Fahd Road",
			City:         "Riyadh",
			Country:      "SA",
			Phone:        "+966500000001",
		},
		Recipient: courier.Address{
			Name:         "Aisha Al-Omari",
			AddressLine1: "456 Corniche Road",
			City:         "Jeddah",
			Country:      "SA",
			Phone:        "+966500000002",
		},
		Package: courier.PackageDetails{
			Weight:      2.5,
			Description: "Documents",
		},
		Priority: courier.PriorityStandard,
	}
}

func TestValidateShipmentRequest_Valid(t *testing.T) {
	assert.Empty(t, courier.ValidateShipmentRequest(validShipmentRequest()))
}

func TestValidateShipmentRequest_Nil(t *testing.T) {
	errs := courier.ValidateShipmentRequest(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "Shipment request is required", errs[0])
}

func TestValidateShipmentRequest_SingleField(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*courier.ShipmentRequest)
		wantErr string
	}{
		{
			"missing reference",
			func(r *courier.ShipmentRequest) { r.ReferenceNumber = "  " },
			"Reference number is required",
		},
		{
			"missing sender name",
			func(r *courier.ShipmentRequest) { r.Sender.Name = "" },
			"Sender name is required",
		},
		{
			"missing sender address",
			func(r *courier.ShipmentRequest) { r.Sender.AddressLine1 = "" },
			"Sender address is required",
		},
		{
			"missing sender city",
			func(r *courier.ShipmentRequest) { r.Sender.City = "" },
			"Sender city is required",
		},
		{
			"missing sender country",
			func(r *courier.ShipmentRequest) { r.Sender.Country = "" },
			"Sender country is required",
		},
		{
			"missing sender phone",
			func(r *courier.ShipmentRequest) { r.Sender.Phone = "" },
			"Sender phone is required",
		},
		{
			"missing recipient name",
			func(r *courier.ShipmentRequest) { r.Recipient.Name = "" },
			"Recipient name is required",
		},
		{
			"missing recipient phone",
			func(r *courier.ShipmentRequest) { r.Recipient.Phone = "" },
			"Recipient phone is required",
		},
		{
			"zero weight",
			func(r *courier.ShipmentRequest) { r.Package.Weight = 0 },
			"Package weight must be greater than 0",
		},
		{
			"negative weight",
			func(r *courier.ShipmentRequest) { r.Package.Weight = -1 },
			"Package weight must be greater than 0",
		},
		{
			"missing description",
			func(r *courier.ShipmentRequest) { r.Package.Description = "" },
			"Package description is required",
		},
		{
			"negative COD",
			func(r *courier.ShipmentRequest) { r.CODAmount = -10 },
			"COD amount cannot be negative",
		},
		{
			"negative insurance",
			func(r *courier.ShipmentRequest) { r.InsuranceAmount = -1 },
			"Insurance amount cannot be negative",
		},
		{
			"negative declared value",
			func(r *courier.ShipmentRequest) { r.Package.Value = -5 },
			"Declared value cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validShipmentRequest()
			tt.mutate(req)

			errs := courier.ValidateShipmentRequest(req)
			require.Len(t, errs, 1, "exactly one rule should fire")
			assert.Equal(t, tt.wantErr, errs[0])
		})
	}
}

func TestValidateShipmentRequest_AccumulatesErrors(t *testing.T) {
	req := validShipmentRequest()
	req.ReferenceNumber = ""
	req.Sender.City = ""
	req.Package.Weight = 0

	errs := courier.ValidateShipmentRequest(req)
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "Reference number is required")
	assert.Contains(t, errs, "Sender city is required")
	assert.Contains(t, errs, "Package weight must be greater than 0")
}

func TestValidateShipmentRequest_ZeroValuesAllowed(t *testing.T) {
	req := validShipmentRequest()
	req.CODAmount = 0
	req.InsuranceAmount = 0
	req.Package.Value = 0

	assert.Empty(t, courier.ValidateShipmentRequest(req))
}
