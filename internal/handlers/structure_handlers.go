package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/services"
)

// StructureHandler manages the billing master data: fee types, fee structures
// and per-student discounts.
type StructureHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewStructureHandler(db *gorm.DB, cache *services.RedisCache) *StructureHandler {
	return &StructureHandler{db: db, cache: cache}
}

func structureCacheKey(sessionID uint, className string) string {
	return fmt.Sprintf("fee-structure:%d:%s", sessionID, className)
}

// ListFeeTypes returns all fee types.
func (h *StructureHandler) ListFeeTypes(c echo.Context) error {
	var feeTypes []models.FeeType
	if err := h.db.Order("id").Find(&feeTypes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch fee types")
	}
	return c.JSON(http.StatusOK, feeTypes)
}

type createFeeTypeRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// CreateFeeType registers a new chargeable category. Names are unique.
func (h *StructureHandler) CreateFeeType(c echo.Context) error {
	var req createFeeTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	feeType := models.FeeType{Name: req.Name, Description: req.Description}
	if err := h.db.Create(&feeType).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "fee type name already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create fee type")
	}
	return c.JSON(http.StatusCreated, feeType)
}

// GetStructure returns the fee structure for a (session, class) pair, cached.
func (h *StructureHandler) GetStructure(c echo.Context) error {
	sessionID := queryUint(c, "session_id")
	className := c.QueryParam("class")
	if sessionID == 0 || className == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id and class are required")
	}

	structure, err := services.GetOrSet(h.cache, c.Request().Context(),
		structureCacheKey(sessionID, className), 10*time.Minute,
		func() (models.FeeStructure, error) {
			var s models.FeeStructure
			err := h.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
				return db.Order("sort_order, id")
			}).Preload("Items.FeeType").
				Where("session_id = ? AND class_name = ?", sessionID, className).
				First(&s).Error
			return s, err
		})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "fee structure not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch fee structure")
	}
	return c.JSON(http.StatusOK, structure)
}

type structureItemRequest struct {
	FeeTypeID uint  `json:"feeTypeId" validate:"required"`
	Amount    int64 `json:"amount" validate:"gte=0"`
	SortOrder int   `json:"sortOrder"`
}

type upsertStructureRequest struct {
	SessionID uint                   `json:"sessionId" validate:"required"`
	ClassName string                 `json:"className" validate:"required,max=50"`
	Items     []structureItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpsertStructure creates or replaces the structure for a (session, class)
// pair in one transaction, then drops the cached copy.
func (h *StructureHandler) UpsertStructure(c echo.Context) error {
	var req upsertStructureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	seen := make(map[uint]bool, len(req.Items))
	for _, item := range req.Items {
		if seen[item.FeeTypeID] {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("duplicate feeTypeId %d", item.FeeTypeID))
		}
		seen[item.FeeTypeID] = true
	}

	var structure models.FeeStructure
	err := h.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ? AND class_name = ?", req.SessionID, req.ClassName).
			First(&structure).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			structure = models.FeeStructure{SessionID: req.SessionID, ClassName: req.ClassName}
			if err := tx.Create(&structure).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			if err := tx.Where("fee_structure_id = ?", structure.ID).
				Delete(&models.FeeStructureItem{}).Error; err != nil {
				return err
			}
		}

		items := make([]models.FeeStructureItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, models.FeeStructureItem{
				FeeStructureID: structure.ID,
				FeeTypeID:      item.FeeTypeID,
				Amount:         item.Amount,
				SortOrder:      item.SortOrder,
			})
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save fee structure")
	}

	h.cache.Delete(c.Request().Context(), structureCacheKey(req.SessionID, req.ClassName))

	if err := h.db.Preload("Items").Preload("Items.FeeType").First(&structure, structure.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to reload fee structure")
	}
	return c.JSON(http.StatusOK, structure)
}

// ListDiscounts returns a student's discounts, active ones first.
func (h *StructureHandler) ListDiscounts(c echo.Context) error {
	studentID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	query := h.db.Preload("FeeType").Where("student_id = ?", studentID)
	if sessionID := queryUint(c, "session_id"); sessionID > 0 {
		query = query.Where("session_id = ?", sessionID)
	}

	var discounts []models.StudentFeeDiscount
	if err := query.Order("is_active desc, id").Find(&discounts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch discounts")
	}
	return c.JSON(http.StatusOK, discounts)
}

type createDiscountRequest struct {
	StudentID uint   `json:"studentId" validate:"required"`
	SessionID uint   `json:"sessionId" validate:"required"`
	FeeTypeID uint   `json:"feeTypeId" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value     int64  `json:"value" validate:"gte=0"`
}

// CreateDiscount grants a discount. Percentage values must stay within
// [0,100], and only one active discount may exist per
// (student, session, feeType).
func (h *StructureHandler) CreateDiscount(c echo.Context) error {
	var req createDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Type == string(models.DiscountTypePercentage) && req.Value > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "percentage discounts cannot exceed 100")
	}

	var count int64
	if err := h.db.Model(&models.StudentFeeDiscount{}).
		Where("student_id = ? AND session_id = ? AND fee_type_id = ? AND is_active = ?",
			req.StudentID, req.SessionID, req.FeeTypeID, true).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to check existing discounts")
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusConflict, "an active discount already exists for this fee type")
	}

	discount := models.StudentFeeDiscount{
		StudentID: req.StudentID,
		SessionID: req.SessionID,
		FeeTypeID: req.FeeTypeID,
		Type:      models.DiscountType(req.Type),
		Value:     req.Value,
		IsActive:  true,
	}
	if err := h.db.Create(&discount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create discount")
	}
	return c.JSON(http.StatusCreated, discount)
}

// DeactivateDiscount retires a discount; future bills stop applying it.
func (h *StructureHandler) DeactivateDiscount(c echo.Context) error {
	discountID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var discount models.StudentFeeDiscount
	if err := h.db.First(&discount, discountID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "discount not found")
	}

	discount.IsActive = false
	if err := h.db.Save(&discount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to deactivate discount")
	}
	return c.JSON(http.StatusOK, discount)
}
