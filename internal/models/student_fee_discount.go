package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountType represents how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

// StudentFeeDiscount is a per (student, session, feeType) override of the
// structure amount. At most one active discount may exist per triple.
// For PERCENTAGE the value is a whole percent in [0,100]; for FIXED it is the
// amount in minor currency units.
type StudentFeeDiscount struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	StudentID uint         `gorm:"index" json:"student_id"`
	SessionID uint         `gorm:"index" json:"session_id"`
	FeeTypeID uint         `gorm:"index" json:"fee_type_id"`
	Type      DiscountType `gorm:"type:varchar(20)" json:"type"`
	Value     int64        `json:"value"`
	IsActive  bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	FeeType FeeType `gorm:"foreignKey:FeeTypeID" json:"fee_type,omitempty"`
}
