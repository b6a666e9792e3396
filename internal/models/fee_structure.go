package models

import (
	"time"

	"gorm.io/gorm"
)

// FeeStructure is the schedule of chargeable fee types for one (session, class)
// pair. Exactly one structure may exist per pair.
type FeeStructure struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SessionID uint   `gorm:"index:idx_fee_structures_session_class,unique" json:"session_id"`
	ClassName string `gorm:"type:varchar(50);index:idx_fee_structures_session_class,unique" json:"class_name"`

	// Relationships
	Session AcademicSession    `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Items   []FeeStructureItem `gorm:"foreignKey:FeeStructureID" json:"items,omitempty"`
}

// FeeStructureItem maps one fee type to its amount within a structure.
// Amount is in minor currency units (paise).
type FeeStructureItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FeeStructureID uint  `gorm:"index" json:"fee_structure_id"`
	FeeTypeID      uint  `gorm:"index" json:"fee_type_id"`
	Amount         int64 `json:"amount"`
	SortOrder      int   `gorm:"default:0" json:"sort_order"`

	// Relationships
	FeeType FeeType `gorm:"foreignKey:FeeTypeID" json:"fee_type,omitempty"`
}
