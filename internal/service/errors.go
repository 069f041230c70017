package service

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel errors returned by the orchestration layer. The HTTP layer maps
// them onto status codes.
var (
	// ErrNotFound indicates no shipment record exists for the waybill.
	ErrNotFound = errors.New("shipment not found")

	// ErrFeatureUnsupported indicates the shipment's provider does not
	// support the requested operation.
	ErrFeatureUnsupported = errors.New("operation not supported by provider")

	// ErrRejected is the errors.Is target for RejectedError.
	ErrRejected = errors.New("shipment rejected by provider")
)

// RejectedError reports a provider declining a shipment: the request was
// understood but failed validation or was refused remotely. It carries the
// provider's error list for rendering to the caller.
type RejectedError struct {
	Provider string
	Errors   []string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected shipment: %s", e.Provider, strings.Join(e.Errors, "; "))
}

// Is matches RejectedError against the ErrRejected sentinel.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
