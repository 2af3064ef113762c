package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an id when the database default is unavailable
// (sqlite in tests)
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ClientType classifies how a client settles payments
type ClientType string

const (
	ClientTypeCash   ClientType = "cash"
	ClientTypeCredit ClientType = "credit"
)

// AcceptStatus is the per-role approval gate on an order or quotation
type AcceptStatus string

const (
	AcceptPending  AcceptStatus = "pending"
	AcceptAccepted AcceptStatus = "accepted"
)

// DeliveryStatus is the overall delivery state of an order or quotation
type DeliveryStatus string

const (
	StatusNotDelivered DeliveryStatus = "not Delivered"
	StatusDelivered    DeliveryStatus = "Delivered"
)

// StaffRole identifies the role a staff member plays in the approval chain
type StaffRole string

const (
	RoleDriver      StaffRole = "driver"
	RoleSupervisor  StaffRole = "supervisor"
	RoleStorekeeper StaffRole = "storekeeper"
	RoleManager     StaffRole = "manager"
	RoleSalesRep    StaffRole = "salesRep"
)

// ValidRole reports whether r is one of the known staff roles
func ValidRole(r StaffRole) bool {
	switch r {
	case RoleDriver, RoleSupervisor, RoleStorekeeper, RoleManager, RoleSalesRep:
		return true
	}
	return false
}

// DocType identifies which document family a sequence counter numbers
type DocType string

const (
	DocTypeOrder     DocType = "order"
	DocTypeQuotation DocType = "quotation"
)

// Prefix returns the custom-id prefix for the document family
func (d DocType) Prefix() string {
	if d == DocTypeQuotation {
		return "NPQ"
	}
	return "NPO"
}

// Client represents a company placing orders and requesting quotations
type Client struct {
	BaseModel
	CompanyName  string     `gorm:"type:varchar(200);not null;index"`
	ClientName   string     `gorm:"type:varchar(200);not null;index"`
	ClientType   ClientType `gorm:"type:varchar(20);not null;default:'cash'"`
	PhoneNumber  string     `gorm:"type:varchar(50);not null"`
	TaxNumber    string     `gorm:"type:varchar(50)"` // optional for cash clients
	BranchNumber string     `gorm:"type:varchar(50)"`
	Latitude     float64    `gorm:"type:double precision"`
	Longitude    float64    `gorm:"type:double precision"`
	Street       string     `gorm:"type:varchar(300)"`
	City         string     `gorm:"type:varchar(100)"`
	Region       string     `gorm:"type:varchar(100)"`
}

// Order is a confirmed purchase moving through the approval chain
type Order struct {
	BaseModel
	ClientID           uuid.UUID      `gorm:"type:uuid;not null;index"`
	Client             *Client        `gorm:"foreignKey:ClientID"`
	CustomID           string         `gorm:"type:varchar(30);not null;uniqueIndex;column:custom_id"`
	DeliveryDate       time.Time      `gorm:"not null"`
	DeliveryType       string         `gorm:"type:varchar(100);not null"`
	Notes              string         `gorm:"type:text"`
	TotalPrice         float64        `gorm:"not null;default:0"`
	TotalVAT           float64        `gorm:"not null;default:0;column:total_vat"`
	TotalSubtotal      float64        `gorm:"not null;default:0"`
	ActualDeliveryDate *time.Time     `gorm:"column:actual_delivery_date"`
	Status             DeliveryStatus `gorm:"type:varchar(30);not null;default:'not Delivered';index"`
	StorekeeperAccept  AcceptStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	SupervisorAccept   AcceptStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	ManagerAccept      AcceptStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Items              []OrderItem    `gorm:"foreignKey:OrderID"`
}

// OrderItem is one product line on an order. Items are replaced
// wholesale on edit, never patched individually.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Section     string    `gorm:"type:varchar(100);not null"`
	Type        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	Quantity    int       `gorm:"not null"`
	Price       float64   `gorm:"not null"`
	VAT         float64   `gorm:"not null;column:vat"`
	Subtotal    float64   `gorm:"not null"`
}

// Quotation mirrors Order with its own lifecycle; it additionally
// records which supervisor accepted it.
type Quotation struct {
	BaseModel
	ClientID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Client             *Client         `gorm:"foreignKey:ClientID"`
	CustomID           string          `gorm:"type:varchar(30);not null;uniqueIndex;column:custom_id"`
	DeliveryDate       time.Time       `gorm:"not null"`
	DeliveryType       string          `gorm:"type:varchar(100);not null"`
	Notes              string          `gorm:"type:text"`
	TotalPrice         float64         `gorm:"not null;default:0"`
	TotalVAT           float64         `gorm:"not null;default:0;column:total_vat"`
	TotalSubtotal      float64         `gorm:"not null;default:0"`
	ActualDeliveryDate *time.Time      `gorm:"column:actual_delivery_date"`
	Status             DeliveryStatus  `gorm:"type:varchar(30);not null;default:'not Delivered';index"`
	StorekeeperAccept  AcceptStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	SupervisorAccept   AcceptStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	ManagerAccept      AcceptStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	SupervisorID       *uuid.UUID      `gorm:"type:uuid;column:supervisor_id"`
	Supervisor         *StaffUser      `gorm:"foreignKey:SupervisorID"`
	Items              []QuotationItem `gorm:"foreignKey:QuotationID"`
}

// QuotationItem is one product line on a quotation
type QuotationItem struct {
	BaseModel
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Section     string    `gorm:"type:varchar(100);not null"`
	Type        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	Quantity    int       `gorm:"not null"`
	Price       float64   `gorm:"not null"`
	VAT         float64   `gorm:"not null;column:vat"`
	Subtotal    float64   `gorm:"not null"`
}

// StaffUser is a role-qualified staff account. One table covers all
// roles; the role tag decides which notifications the account receives.
type StaffUser struct {
	BaseModel
	Name       string    `gorm:"type:varchar(200);not null"`
	Email      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone      string    `gorm:"type:varchar(50)"`
	Role       StaffRole `gorm:"type:varchar(30);not null;index"`
	ExternalID string    `gorm:"type:varchar(100);column:external_id"`
	Active     bool      `gorm:"not null;default:true;index"`
	FCMToken   string    `gorm:"type:varchar(500);column:fcm_token"`
}

// NumberSequence is the atomic counter behind custom ids, one row per
// (doc_type, year). Incremented under SELECT FOR UPDATE inside the
// creating transaction.
type NumberSequence struct {
	BaseModel
	DocType    DocType `gorm:"type:varchar(20);not null;uniqueIndex:idx_sequence_doc_year"`
	Year       int     `gorm:"not null;uniqueIndex:idx_sequence_doc_year"`
	LastNumber int     `gorm:"not null;default:0"`
}

// NotificationLog is an audit row per dispatch round. Tokens is a
// Postgres text[]; test databases skip this model.
type NotificationLog struct {
	BaseModel
	Role        StaffRole      `gorm:"type:varchar(30);not null;index"`
	Title       string         `gorm:"type:varchar(300);not null"`
	Message     string         `gorm:"type:text;not null"`
	Tokens      pq.StringArray `gorm:"type:text[]"`
	SentCount   int            `gorm:"not null;default:0"`
	FailedCount int            `gorm:"not null;default:0"`
}
