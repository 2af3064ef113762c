package domain

import (
	"github.com/google/uuid"
)

// ErrorResponse represents an API error response. Details is only
// populated outside production.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProductRequest is one line item on a create or update request
type ProductRequest struct {
	Section     string  `json:"section" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	Price       float64 `json:"price" validate:"min=0"`
}

// CreateOrderRequest creates an order with its line items
type CreateOrderRequest struct {
	ClientID     uuid.UUID        `json:"client_id" validate:"required"`
	DeliveryDate string           `json:"delivery_date" validate:"required"`
	DeliveryType string           `json:"delivery_type" validate:"required"`
	Products     []ProductRequest `json:"products" validate:"required,min=1,dive"`
	Notes        string           `json:"notes"`
}

// UpdateOrderRequest replaces the mutable fields and line items wholesale
type UpdateOrderRequest struct {
	DeliveryDate string           `json:"delivery_date" validate:"required"`
	DeliveryType string           `json:"delivery_type" validate:"required"`
	Products     []ProductRequest `json:"products" validate:"required,min=1,dive"`
	Notes        string           `json:"notes"`
}

// CreateQuotationRequest creates a quotation with its line items
type CreateQuotationRequest struct {
	ClientID     uuid.UUID        `json:"client_id" validate:"required"`
	DeliveryDate string           `json:"delivery_date" validate:"required"`
	DeliveryType string           `json:"delivery_type" validate:"required"`
	Products     []ProductRequest `json:"products" validate:"required,min=1,dive"`
	Notes        string           `json:"notes"`
}

// UpdateQuotationRequest replaces the mutable fields and line items wholesale
type UpdateQuotationRequest struct {
	DeliveryDate string           `json:"delivery_date" validate:"required"`
	DeliveryType string           `json:"delivery_type" validate:"required"`
	Products     []ProductRequest `json:"products" validate:"required,min=1,dive"`
	Notes        string           `json:"notes"`
}

// AcceptQuotationSupervisorRequest optionally names the accepting supervisor
type AcceptQuotationSupervisorRequest struct {
	SupervisorID *uuid.UUID `json:"supervisorId"`
}

// RegisterTokenRequest binds a push notification token to a staff account
type RegisterTokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=manager supervisor driver storekeeper salesRep"`
	FCMToken string `json:"fcmToken" validate:"required"`
}

// CreateClientRequest registers a new client company
type CreateClientRequest struct {
	CompanyName  string  `json:"company_name" validate:"required"`
	ClientName   string  `json:"client_name" validate:"required"`
	ClientType   string  `json:"client_type" validate:"required,oneof=cash credit"`
	PhoneNumber  string  `json:"phone_number" validate:"required"`
	TaxNumber    string  `json:"tax_number"`
	BranchNumber string  `json:"branch_number"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Street       string  `json:"street"`
	City         string  `json:"city"`
	Region       string  `json:"region"`
}

// UpdateClientRequest replaces the mutable fields of a client
type UpdateClientRequest struct {
	CompanyName  string  `json:"company_name" validate:"required"`
	ClientName   string  `json:"client_name" validate:"required"`
	ClientType   string  `json:"client_type" validate:"required,oneof=cash credit"`
	PhoneNumber  string  `json:"phone_number" validate:"required"`
	TaxNumber    string  `json:"tax_number"`
	BranchNumber string  `json:"branch_number"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Street       string  `json:"street"`
	City         string  `json:"city"`
	Region       string  `json:"region"`
}

// CreateStaffRequest registers a role-qualified staff account. When
// externalId is absent an identity is provisioned with the external
// provider first.
type CreateStaffRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Role       string `json:"role" validate:"required,oneof=manager supervisor driver storekeeper salesRep"`
	ExternalID string `json:"externalId"`
}

// CreateOrderResponse is returned on successful order creation
type CreateOrderResponse struct {
	OrderID       uuid.UUID      `json:"orderId"`
	CustomID      string         `json:"customId"`
	Status        DeliveryStatus `json:"status"`
	TotalPrice    float64        `json:"totalPrice"`
	TotalVAT      float64        `json:"totalVat"`
	TotalSubtotal float64        `json:"totalSubtotal"`
}

// CreateQuotationResponse is returned on successful quotation creation
type CreateQuotationResponse struct {
	QuotationID   uuid.UUID      `json:"quotationId"`
	CustomID      string         `json:"customId"`
	Status        DeliveryStatus `json:"status"`
	TotalPrice    float64        `json:"totalPrice"`
	TotalVAT      float64        `json:"totalVat"`
	TotalSubtotal float64        `json:"totalSubtotal"`
}

type OrderItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Section     string    `json:"section"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	VAT         float64   `json:"vat"`
	Subtotal    float64   `json:"subtotal"`
}

type OrderDTO struct {
	ID                 uuid.UUID      `json:"id"`
	CustomID           string         `json:"customId"`
	ClientID           uuid.UUID      `json:"clientId"`
	Client             *ClientDTO     `json:"client,omitempty"`
	DeliveryDate       string         `json:"deliveryDate"`
	DeliveryType       string         `json:"deliveryType"`
	Notes              string         `json:"notes,omitempty"`
	TotalPrice         float64        `json:"totalPrice"`
	TotalVAT           float64        `json:"totalVat"`
	TotalSubtotal      float64        `json:"totalSubtotal"`
	ActualDeliveryDate string         `json:"actualDeliveryDate,omitempty"`
	Status             DeliveryStatus `json:"status"`
	StorekeeperAccept  AcceptStatus   `json:"storekeeperaccept"`
	SupervisorAccept   AcceptStatus   `json:"supervisoraccept"`
	ManagerAccept      AcceptStatus   `json:"manageraccept"`
	Items              []OrderItemDTO `json:"products"`
	CreatedAt          string         `json:"createdAt"` // ISO 8601
	UpdatedAt          string         `json:"updatedAt"` // ISO 8601
}

type QuotationDTO struct {
	ID                 uuid.UUID      `json:"id"`
	CustomID           string         `json:"customId"`
	ClientID           uuid.UUID      `json:"clientId"`
	Client             *ClientDTO     `json:"client,omitempty"`
	DeliveryDate       string         `json:"deliveryDate"`
	DeliveryType       string         `json:"deliveryType"`
	Notes              string         `json:"notes,omitempty"`
	TotalPrice         float64        `json:"totalPrice"`
	TotalVAT           float64        `json:"totalVat"`
	TotalSubtotal      float64        `json:"totalSubtotal"`
	ActualDeliveryDate string         `json:"actualDeliveryDate,omitempty"`
	Status             DeliveryStatus `json:"status"`
	StorekeeperAccept  AcceptStatus   `json:"storekeeperaccept"`
	SupervisorAccept   AcceptStatus   `json:"supervisoraccept"`
	ManagerAccept      AcceptStatus   `json:"manageraccept"`
	SupervisorID       *uuid.UUID     `json:"supervisorId,omitempty"`
	Items              []OrderItemDTO `json:"products"`
	CreatedAt          string         `json:"createdAt"` // ISO 8601
	UpdatedAt          string         `json:"updatedAt"` // ISO 8601
}

type ClientDTO struct {
	ID           uuid.UUID  `json:"id"`
	CompanyName  string     `json:"companyName"`
	ClientName   string     `json:"clientName"`
	ClientType   ClientType `json:"clientType"`
	PhoneNumber  string     `json:"phoneNumber"`
	TaxNumber    string     `json:"taxNumber,omitempty"`
	BranchNumber string     `json:"branchNumber,omitempty"`
	Latitude     float64    `json:"latitude,omitempty"`
	Longitude    float64    `json:"longitude,omitempty"`
	Street       string     `json:"street,omitempty"`
	City         string     `json:"city,omitempty"`
	Region       string     `json:"region,omitempty"`
	CreatedAt    string     `json:"createdAt"` // ISO 8601
	UpdatedAt    string     `json:"updatedAt"` // ISO 8601
}

type StaffDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      StaffRole `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt string    `json:"createdAt"` // ISO 8601
}

// OrderListResponse is the paginated order listing
type OrderListResponse struct {
	Orders      []OrderDTO `json:"orders"`
	TotalCount  int64      `json:"totalCount"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	HasMore     bool       `json:"hasMore"`
}

// QuotationListResponse is the paginated quotation listing
type QuotationListResponse struct {
	Quotations  []QuotationDTO `json:"quotations"`
	TotalCount  int64          `json:"totalCount"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	HasMore     bool           `json:"hasMore"`
}

// ClientListResponse is the paginated client listing
type ClientListResponse struct {
	Clients     []ClientDTO `json:"clients"`
	TotalCount  int64       `json:"totalCount"`
	CurrentPage int         `json:"currentPage"`
	TotalPages  int         `json:"totalPages"`
	HasMore     bool        `json:"hasMore"`
}
