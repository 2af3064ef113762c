package service

import "errors"

// Sentinel errors returned by services. Handlers translate these into
// HTTP status codes with errors.Is.
var (
	// ErrClientNotFound is returned when a client does not exist
	ErrClientNotFound = errors.New("client not found")

	// ErrOrderNotFound is returned when an order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrQuotationNotFound is returned when a quotation does not exist
	ErrQuotationNotFound = errors.New("quotation not found")

	// ErrStaffNotFound is returned when a staff account does not exist
	ErrStaffNotFound = errors.New("staff user not found")

	// ErrSupervisorNotFound is returned when the accepting supervisor
	// named on a quotation acceptance does not exist
	ErrSupervisorNotFound = errors.New("supervisor not found")

	// ErrClientInUse is returned when deleting a client that still has
	// orders or quotations referencing it
	ErrClientInUse = errors.New("client has orders or quotations")

	// ErrDuplicateEmail is returned when a staff email is already taken
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDeliveryNotReady is returned when delivering an order before
	// both supervisor and storekeeper have accepted it
	ErrDeliveryNotReady = errors.New("order not accepted by supervisor and storekeeper")

	// ErrAlreadyDelivered is returned when delivering an order twice
	ErrAlreadyDelivered = errors.New("order already delivered")

	// ErrInvalidDeliveryDate is returned when the delivery date cannot
	// be parsed
	ErrInvalidDeliveryDate = errors.New("invalid delivery date")
)
