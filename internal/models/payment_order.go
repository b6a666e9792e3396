package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	PaymentGatewayManual   PaymentGateway = "manual"
)

// PaymentOrderStatus tracks a gateway order from creation to settlement
type PaymentOrderStatus string

const (
	PaymentOrderStatusPending  PaymentOrderStatus = "pending"
	PaymentOrderStatusSuccess  PaymentOrderStatus = "success"
	PaymentOrderStatusFailed   PaymentOrderStatus = "failed"
	PaymentOrderStatusCanceled PaymentOrderStatus = "canceled"
)

// PaymentOrder is one gateway checkout attempt against a demand bill. Only
// the settlement outcome (via webhook) mutates the ledger; the order itself
// is bookkeeping around the gateway round-trip.
type PaymentOrder struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	DemandBillID     uint               `gorm:"index" json:"demand_bill_id"`
	StudentID        uint               `gorm:"index" json:"student_id"`
	PaymentGateway   PaymentGateway     `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID          string             `gorm:"type:varchar(100);uniqueIndex" json:"order_id"`
	Amount           int64              `json:"amount"`
	Status           PaymentOrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	RequestMetadata  json.RawMessage    `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata json.RawMessage    `gorm:"type:jsonb" json:"response_metadata"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	DeletedAt        gorm.DeletedAt     `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	DemandBill DemandBill `gorm:"foreignKey:DemandBillID" json:"demand_bill,omitempty"`
}

// GatewayCallback keeps the raw payload of every webhook delivery for audit.
type GatewayCallback struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID        string          `gorm:"type:varchar(100);index" json:"order_id"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
