package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/services"
)

// PublicHandler serves the guardian-facing payment pages: bill lookup by
// opaque UUID plus checkout initiation. No authentication; the UUID is the
// capability.
type PublicHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
	gateway  *services.GatewayService
}

func NewPublicHandler(db *gorm.DB, payments *services.PaymentService, gateway *services.GatewayService) *PublicHandler {
	return &PublicHandler{db: db, payments: payments, gateway: gateway}
}

func (h *PublicHandler) findBill(c echo.Context, preload bool) (*models.DemandBill, error) {
	uuid := c.Param("uuid")
	if uuid == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid bill UUID")
	}

	query := h.db.Where("uuid = ?", uuid)
	if preload {
		query = query.Preload("Student").Preload("Items").Preload("Items.FeeType")
	}
	var bill models.DemandBill
	if err := query.First(&bill).Error; err != nil {
		return nil, billing.ErrBillNotFound
	}
	return &bill, nil
}

// ShowBill returns the guardian view of a bill: amounts, line items and the
// outstanding balance.
func (h *PublicHandler) ShowBill(c echo.Context) error {
	bill, err := h.findBill(c, true)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"bill_no":     bill.BillNo,
		"student":     bill.Student.Name,
		"class":       bill.Student.ClassName,
		"month":       bill.Month,
		"year":        bill.Year,
		"due_date":    bill.DueDate,
		"net_amount":  bill.NetAmount,
		"paid_amount": bill.PaidAmount,
		"outstanding": bill.Outstanding(),
		"status":      bill.Status,
		"items":       bill.Items,
	})
}

// InitiatePayment opens a gateway checkout for the bill's outstanding amount.
func (h *PublicHandler) InitiatePayment(c echo.Context) error {
	bill, err := h.findBill(c, true)
	if err != nil {
		return err
	}
	if bill.Status == models.BillStatusPaid {
		return echo.NewHTTPError(http.StatusBadRequest, "bill is already paid")
	}

	forceNew := c.QueryParam("force_new") == "true"
	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/pay/" + bill.UUID

	result, err := h.payments.InitiatePayment(bill, &bill.Student, forceNew, callbackURL)
	if err != nil {
		if err == services.ErrNothingOutstanding {
			return echo.NewHTTPError(http.StatusBadRequest, "bill has no outstanding amount")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// CheckStatus reports the bill's current status. When a pending gateway order
// exists it is checked against the gateway first, so a settlement whose
// webhook has not arrived yet is still picked up.
func (h *PublicHandler) CheckStatus(c echo.Context) error {
	bill, err := h.findBill(c, false)
	if err != nil {
		return err
	}

	order, err := h.payments.ActiveOrder(bill.ID)
	if err == nil && order != nil {
		if statusResp, err := h.gateway.CheckTransaction(order.OrderID); err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				payload, _ := json.Marshal(statusResp)
				if _, err := h.payments.HandleSettlement(c.Request().Context(),
					order.OrderID, statusResp.TransactionID, statusResp.TransactionStatus, payload); err != nil {
					log.Printf("status poll settlement for order %s failed: %v", order.OrderID, err)
				}
			}
		}
	}

	// Re-read to pick up whatever the settlement changed.
	if err := h.db.First(bill, bill.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch bill")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      bill.Status,
		"paid_amount": bill.PaidAmount,
		"outstanding": bill.Outstanding(),
	})
}
