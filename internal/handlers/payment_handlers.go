package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/services"
)

type PaymentHandler struct {
	db         *gorm.DB
	reconciler *billing.PaymentReconciler
	payments   *services.PaymentService
	gateway    *services.GatewayService
}

func NewPaymentHandler(db *gorm.DB, reconciler *billing.PaymentReconciler, payments *services.PaymentService, gateway *services.GatewayService) *PaymentHandler {
	return &PaymentHandler{db: db, reconciler: reconciler, payments: payments, gateway: gateway}
}

// RecordPaymentRequest is the body of POST /payments. InvoiceID omitted means
// an on-account payment that tops up the student's advance balance.
type RecordPaymentRequest struct {
	InvoiceID *uint                  `json:"invoiceId"`
	StudentID uint                   `json:"studentId"`
	SessionID uint                   `json:"sessionId"`
	Amount    int64                  `json:"amount" validate:"required,gt=0"`
	Method    string                 `json:"method" validate:"required,oneof=cash card upi cheque"`
	TxnRef    string                 `json:"txnRef"`
	Details   []PaymentDetailRequest `json:"details" validate:"dive"`
}

// PaymentDetailRequest is an optional per-fee-type split of the collected amount.
type PaymentDetailRequest struct {
	FeeTypeID uint  `json:"feeTypeId" validate:"required"`
	Amount    int64 `json:"amount" validate:"required,gt=0"`
}

// RecordPayment settles a manual collection against a bill, or on account
// when no bill is referenced.
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.InvoiceID == nil && (req.StudentID == 0 || req.SessionID == 0) {
		return echo.NewHTTPError(http.StatusBadRequest, "on-account payments require studentId and sessionId")
	}

	details := make([]models.PaymentDetail, 0, len(req.Details))
	for _, d := range req.Details {
		details = append(details, models.PaymentDetail{FeeTypeID: d.FeeTypeID, Amount: d.Amount})
	}

	txn, err := h.reconciler.RecordPayment(c.Request().Context(), billing.PaymentInput{
		BillID:    req.InvoiceID,
		StudentID: req.StudentID,
		SessionID: req.SessionID,
		Amount:    req.Amount,
		Mode:      models.PaymentMode(req.Method),
		TxnRef:    req.TxnRef,
		Details:   details,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, txn)
}

// VoidPaymentRequest carries the mandatory audit reason for a revocation.
type VoidPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// VoidPayment revokes a settled transaction, rolling its amount back off the
// bill. Voiding twice is a conflict.
func (h *PaymentHandler) VoidPayment(c echo.Context) error {
	txnID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	var req VoidPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	txn, err := h.reconciler.VoidTransaction(c.Request().Context(), txnID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txn)
}

// InitiatePaymentRequest is the body of POST /payments/initiate.
type InitiatePaymentRequest struct {
	BillID   uint `json:"billId" validate:"required"`
	ForceNew bool `json:"forceNew"`
}

// InitiatePayment opens (or resumes) a gateway checkout for a bill's
// outstanding amount.
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var bill models.DemandBill
	if err := h.db.Preload("Student").First(&bill, req.BillID).Error; err != nil {
		return billing.ErrBillNotFound
	}

	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/pay/" + bill.UUID
	result, err := h.payments.InitiatePayment(&bill, &bill.Student, req.ForceNew, callbackURL)
	if err != nil {
		if err == services.ErrNothingOutstanding {
			return echo.NewHTTPError(http.StatusBadRequest, "bill has no outstanding amount")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id":     result.OrderID,
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// webhookNotification is the subset of the gateway payload the handler
// inspects; the full raw body is archived by the payment service.
type webhookNotification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	Signature         string `json:"signature_key"`
}

// HandleWebhook processes gateway notifications. A bad signature is rejected
// before anything is written.
func (h *PaymentHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	var n webhookNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if n.OrderID == "" || n.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing order_id or transaction_id")
	}
	if !h.gateway.VerifyWebhookSignature(n.OrderID, n.TransactionID, n.Signature) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	outcome, err := h.payments.HandleSettlement(c.Request().Context(), n.OrderID, n.TransactionID, n.TransactionStatus, body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": outcome})
}
