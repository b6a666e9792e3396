package models

import (
	"time"

	"gorm.io/gorm"
)

// StudentStatus represents the enrollment status of a student
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusArchived StudentStatus = "archived"
)

// NotificationChannel is the guardian's preferred channel for bill notifications
type NotificationChannel string

const (
	NotificationChannelEmail    NotificationChannel = "email"
	NotificationChannelWhatsapp NotificationChannel = "whatsapp"
	NotificationChannelNone     NotificationChannel = "none"
)

// Student is owned by the enrollment subsystem; the fee ledger references it
// but never mutates it.
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UUID        string        `gorm:"type:varchar(40);uniqueIndex" json:"uuid"`
	AdmissionNo string        `gorm:"type:varchar(50);uniqueIndex" json:"admission_no"`
	Name        string        `gorm:"type:varchar(255)" json:"name"`
	ClassName   string        `gorm:"type:varchar(50);index" json:"class_name"`
	Section     string        `gorm:"type:varchar(20)" json:"section"`
	SessionID   uint          `gorm:"index" json:"session_id"`
	Status      StudentStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	GuardianName  string              `gorm:"type:varchar(255)" json:"guardian_name"`
	GuardianEmail string              `gorm:"type:varchar(255)" json:"guardian_email"`
	GuardianPhone string              `gorm:"type:varchar(50)" json:"guardian_phone"`
	NotifyChannel NotificationChannel `gorm:"type:varchar(20);default:'email'" json:"notify_channel"`

	// Relationships
	Session     AcademicSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	DemandBills []DemandBill    `gorm:"foreignKey:StudentID" json:"demand_bills,omitempty"`
}
