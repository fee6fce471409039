package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentStatusOpen     IntentStatus = "open"
	IntentStatusPaid     IntentStatus = "paid"
	IntentStatusCanceled IntentStatus = "canceled"
)

// Address is the delivery address snapshot taken at checkout time.
type Address struct {
	Line1      string `gorm:"size:255" json:"line1"`
	City       string `gorm:"size:128" json:"city"`
	PostalCode string `gorm:"size:16" json:"postal_code"`
	Phone      string `gorm:"size:32" json:"phone"`
}

// Intent records one checkout attempt before payment completes. The line
// items and total are frozen at creation so pricing cannot drift while the
// buyer is away at the provider's hosted page.
type Intent struct {
	ID                 string          `gorm:"primaryKey;size:64" json:"id"`
	OwnerEmail         string          `gorm:"size:255;index;not null" json:"owner_email"`
	Address            Address         `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Items              []IntentItem    `gorm:"foreignKey:IntentID" json:"items"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	ProviderSessionRef string          `gorm:"size:128;index" json:"provider_session_ref,omitempty"`
	Status             IntentStatus    `gorm:"size:16;index;not null" json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"-"`
}

type IntentItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	IntentID  string          `gorm:"size:64;index;not null" json:"-"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int32           `gorm:"not null" json:"quantity"`
}

// PaymentProvenance ties an order back to the provider event that paid it.
// The unique index on IntentRef is the hard guarantee that at most one order
// ever exists per intent, whatever the store's isolation level does.
type PaymentProvenance struct {
	Provider   string `gorm:"size:32;not null" json:"provider"`
	EventKind  string `gorm:"size:64;not null" json:"event_kind"`
	IntentRef  string `gorm:"size:64;uniqueIndex;not null" json:"intent_ref"`
	PaymentRef string `gorm:"size:128" json:"payment_ref,omitempty"`
	Amount     int64  `json:"amount"`
	Currency   string `gorm:"size:8" json:"currency"`
}

// Order is the confirmed, paid result of a checkout. Created exactly once
// from exactly one intent; fulfillment transitions live elsewhere.
type Order struct {
	ID          string            `gorm:"primaryKey;size:64" json:"id"`
	OwnerEmail  string            `gorm:"size:255;index;not null" json:"owner_email"`
	Address     Address           `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Paid        bool              `gorm:"not null" json:"paid"`
	PaidAt      time.Time         `json:"paid_at"`
	Provenance  PaymentProvenance `gorm:"embedded;embeddedPrefix:provenance_" json:"provenance"`
	CreatedAt   time.Time         `json:"created_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"size:64;index;not null" json:"-"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int32           `gorm:"not null" json:"quantity"`
}
