package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentMode is the collection channel of a fee transaction
type PaymentMode string

const (
	PaymentModeCash    PaymentMode = "cash"
	PaymentModeCard    PaymentMode = "card"
	PaymentModeUPI     PaymentMode = "upi"
	PaymentModeCheque  PaymentMode = "cheque"
	PaymentModeGateway PaymentMode = "gateway"
)

// TransactionStatus tracks settlement of a fee transaction. Manual modes are
// settled immediately; gateway transactions start pending and settle (or fail)
// on webhook confirmation.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSettled TransactionStatus = "settled"
	TransactionStatusFailed  TransactionStatus = "failed"
	TransactionStatusVoided  TransactionStatus = "voided"
)

// FeeTransaction records one payment event. DemandBillID is nil for
// on-account payments that only top up the student's advance balance.
type FeeTransaction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	StudentID    uint              `gorm:"index" json:"student_id"`
	SessionID    uint              `gorm:"index" json:"session_id"`
	DemandBillID *uint             `gorm:"index" json:"demand_bill_id,omitempty"`
	Amount       int64             `json:"amount"`
	Date         time.Time         `json:"date"`
	Mode         PaymentMode       `gorm:"type:varchar(20)" json:"mode"`
	Status       TransactionStatus `gorm:"type:varchar(20);default:'settled'" json:"status"`
	ReceiptNo    string            `gorm:"type:varchar(60);uniqueIndex" json:"receipt_no"`
	TxnRef       string            `gorm:"type:varchar(100)" json:"txn_ref"`

	// Relationships
	Student    Student         `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	DemandBill *DemandBill     `gorm:"foreignKey:DemandBillID" json:"demand_bill,omitempty"`
	Details    []PaymentDetail `gorm:"foreignKey:FeeTransactionID" json:"details,omitempty"`
}

// PaymentDetail is the optional per-fee-type breakdown of a collected payment,
// independent of which bill the payment eventually offsets.
type PaymentDetail struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FeeTransactionID uint  `gorm:"index" json:"fee_transaction_id"`
	FeeTypeID        uint  `gorm:"index" json:"fee_type_id"`
	Amount           int64 `json:"amount"`

	// Relationships
	FeeType FeeType `gorm:"foreignKey:FeeTypeID" json:"fee_type,omitempty"`
}

// Refund records the reversal of a previously settled fee transaction.
type Refund struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FeeTransactionID uint      `gorm:"index" json:"fee_transaction_id"`
	StudentID        uint      `gorm:"index" json:"student_id"`
	Amount           int64     `json:"amount"`
	Reason           string    `gorm:"type:varchar(255)" json:"reason"`
	RefundDate       time.Time `json:"refund_date"`

	// Relationships
	FeeTransaction FeeTransaction `gorm:"foreignKey:FeeTransactionID" json:"fee_transaction,omitempty"`
}
