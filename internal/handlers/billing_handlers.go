package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

type BillingHandler struct {
	db         *gorm.DB
	batch      *billing.BatchGenerator
	reconciler *billing.PaymentReconciler
}

func NewBillingHandler(db *gorm.DB, batch *billing.BatchGenerator, reconciler *billing.PaymentReconciler) *BillingHandler {
	return &BillingHandler{db: db, batch: batch, reconciler: reconciler}
}

// GenerateBillsRequest is the body of POST /fees/demand-bills/generate.
// Exactly one of StudentID / ClassName may be set; with neither, the run
// covers every active student in the session.
type GenerateBillsRequest struct {
	SessionID  uint   `json:"sessionId" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
	DueDate    string `json:"dueDate" validate:"required"`
	FeeTypeIDs []uint `json:"selectedFeeTypeIds" validate:"required,min=1"`
	StudentID  uint   `json:"studentId"`
	ClassName  string `json:"className"`
	Section    string `json:"section"`
}

// GenerateBills runs a batch generation and always answers 200 with the full
// per-student accounting; individual failures never fail the request.
func (h *BillingHandler) GenerateBills(c echo.Context) error {
	var req GenerateBillsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.StudentID != 0 && req.ClassName != "" {
		return echo.NewHTTPError(http.StatusBadRequest, "studentId and className are mutually exclusive")
	}
	if req.Section != "" && req.ClassName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "section requires className")
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dueDate")
	}

	result, err := h.batch.Generate(c.Request().Context(), billing.BatchInput{
		SessionID:  req.SessionID,
		Month:      req.Month,
		Year:       req.Year,
		DueDate:    dueDate,
		FeeTypeIDs: req.FeeTypeIDs,
		Target: billing.Target{
			StudentID: req.StudentID,
			ClassName: req.ClassName,
			Section:   req.Section,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListBills returns demand bills filtered by session, student, status and
// period, newest first, paginated.
func (h *BillingHandler) ListBills(c echo.Context) error {
	query := h.db.Model(&models.DemandBill{}).Preload("Student").Preload("Items")

	if sessionID := queryUint(c, "session_id"); sessionID > 0 {
		query = query.Where("session_id = ?", sessionID)
	}
	if studentID := queryUint(c, "student_id"); studentID > 0 {
		query = query.Where("student_id = ?", studentID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if month := queryUint(c, "month"); month > 0 {
		query = query.Where("month = ?", month)
	}
	if year := queryUint(c, "year"); year > 0 {
		query = query.Where("year = ?", year)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count demand bills")
	}

	page := int(queryUint(c, "page"))
	if page < 1 {
		page = 1
	}
	pageSize := int(queryUint(c, "page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	var bills []models.DemandBill
	if err := query.Order("year desc, month desc, id desc").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&bills).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch demand bills")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bills":       bills,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"total_count": totalCount,
	})
}

// GetBill returns one bill with its line items by public UUID.
func (h *BillingHandler) GetBill(c echo.Context) error {
	uuid := c.Param("uuid")
	if uuid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid bill UUID")
	}

	var bill models.DemandBill
	if err := h.db.Preload("Student").Preload("Items").Preload("Items.FeeType").
		Where("uuid = ?", uuid).First(&bill).Error; err != nil {
		return billing.ErrBillNotFound
	}
	return c.JSON(http.StatusOK, bill)
}

// StudentLedger returns the dues and advance position of a student together
// with the session's bills and settled transactions.
func (h *BillingHandler) StudentLedger(c echo.Context) error {
	studentID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var student models.Student
	if err := h.db.First(&student, studentID).Error; err != nil {
		return billing.ErrStudentNotFound
	}

	sessionID := queryUint(c, "session_id")
	if sessionID == 0 {
		sessionID = student.SessionID
	}

	summary, err := h.reconciler.Summary(c.Request().Context(), studentID, sessionID)
	if err != nil {
		return err
	}

	var bills []models.DemandBill
	if err := h.db.Where("student_id = ? AND session_id = ?", studentID, sessionID).
		Order("year desc, month desc").Find(&bills).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bills")
	}

	var transactions []models.FeeTransaction
	if err := h.db.Where("student_id = ? AND session_id = ?", studentID, sessionID).
		Order("date desc, id desc").Find(&transactions).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch transactions")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"student":      student,
		"summary":      summary,
		"bills":        bills,
		"transactions": transactions,
	})
}
