package models

import (
	"time"

	"gorm.io/gorm"
)

// BillStatus represents the payment lifecycle of a demand bill
type BillStatus string

const (
	BillStatusPending       BillStatus = "PENDING"
	BillStatusPartiallyPaid BillStatus = "PARTIALLY_PAID"
	BillStatusPaid          BillStatus = "PAID"
	BillStatusOverdue       BillStatus = "OVERDUE"
)

// DemandBill is the unit of billing: one student, one (month, year) period,
// one academic session. The (student, session, month, year) tuple is unique.
//
// All amounts are minor currency units. NetAmount is the period charge after
// discounts plus rolled-forward dues; advance credit consumed at composition
// time is recorded in AdvanceApplied and counted into the opening PaidAmount,
// so NetAmount - PaidAmount is always the outstanding balance.
type DemandBill struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UUID      string `gorm:"type:varchar(40);uniqueIndex" json:"uuid"`
	BillNo    string `gorm:"type:varchar(50);uniqueIndex" json:"bill_no"`
	StudentID uint   `gorm:"index:idx_demand_bills_period,unique" json:"student_id"`
	SessionID uint   `gorm:"index:idx_demand_bills_period,unique" json:"session_id"`
	Month     int    `gorm:"index:idx_demand_bills_period,unique" json:"month"`
	Year      int    `gorm:"index:idx_demand_bills_period,unique" json:"year"`

	BillDate time.Time `json:"bill_date"`
	DueDate  time.Time `gorm:"index" json:"due_date"`

	TotalAmount    int64      `json:"total_amount"`
	Discount       int64      `json:"discount"`
	PreviousDues   int64      `json:"previous_dues"`
	AdvanceApplied int64      `json:"advance_applied"`
	NetAmount      int64      `json:"net_amount"`
	PaidAmount     int64      `json:"paid_amount"`
	Status         BillStatus `gorm:"type:varchar(20);index" json:"status"`

	// Relationships
	Student Student          `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Session AcademicSession  `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Items   []DemandBillItem `gorm:"foreignKey:DemandBillID" json:"items,omitempty"`
}

// Outstanding returns the unpaid balance of the bill.
func (b DemandBill) Outstanding() int64 {
	return b.NetAmount - b.PaidAmount
}

// RecomputeStatus derives the status purely from PaidAmount vs NetAmount.
// It never produces OVERDUE; that is applied by the overdue sweep and cleared
// here the moment a payment changes the amounts.
func (b *DemandBill) RecomputeStatus() {
	switch {
	case b.PaidAmount >= b.NetAmount:
		b.Status = BillStatusPaid
	case b.PaidAmount > 0:
		b.Status = BillStatusPartiallyPaid
	default:
		b.Status = BillStatusPending
	}
}

// DemandBillItem is the line-level breakdown of a bill. Rows are created
// atomically with the bill and never mutated afterwards.
type DemandBillItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	DemandBillID   uint   `gorm:"index" json:"demand_bill_id"`
	FeeTypeID      uint   `gorm:"index" json:"fee_type_id"`
	Amount         int64  `json:"amount"`
	DiscountAmount int64  `json:"discount_amount"`
	Description    string `gorm:"type:varchar(255)" json:"description"`

	// Relationships
	FeeType FeeType `gorm:"foreignKey:FeeTypeID" json:"fee_type,omitempty"`
}
