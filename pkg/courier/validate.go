package courier

import "strings"

// ValidateShipmentRequest applies the base validation rules shared by every
// provider. Providers call this first, then append their own operational
// limits. A nil request yields a single error entry.
func ValidateShipmentRequest(req *ShipmentRequest) []string {
	if req == nil {
		return []string{"Shipment request is required"}
	}

	var errs []string

	if strings.TrimSpace(req.ReferenceNumber) == "" {
		errs = append(errs, "Reference number is required")
	}

	errs = append(errs, validateParty("Sender", req.Sender)...)
	errs = append(errs, validateParty("Recipient", req.Recipient)...)

	if req.Package.Weight <= 0 {
		errs = append(errs, "Package weight must be greater than 0")
	}
	if strings.TrimSpace(req.Package.Description) == "" {
		errs = append(errs, "Package description is required")
	}

	if req.CODAmount < 0 {
		errs = append(errs, "COD amount cannot be negative")
	}
	if req.InsuranceAmount < 0 {
		errs = append(errs, "Insurance amount cannot be negative")
	}
	if req.Package.Value < 0 {
		errs = append(errs, "Declared value cannot be negative")
	}

	return errs
}

func validateParty(role string, addr Address) []string {
	var errs []string
	if strings.TrimSpace(addr.Name) == "" {
		errs = append(errs, role+" name is required")
	}
	if strings.TrimSpace(addr.AddressLine1) == "" {
		errs = append(errs, role+" address is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		errs = append(errs, role+" city is required")
	}
	if strings.TrimSpace(addr.Country) == "" {
		errs = append(errs, role+" country is required")
	}
	if strings.TrimSpace(addr.Phone) == "" {
		errs = append(errs, role+" phone is required")
	}
	return errs
}
