package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// ErrNothingOutstanding is returned when a checkout is requested for a bill
// that is already settled.
var ErrNothingOutstanding = errors.New("demand bill has no outstanding amount")

// PaymentService runs gateway flows around the ledger: order creation and
// reuse before payment, settlement handling after the webhook. Ledger
// mutation itself always goes through the reconciler.
type PaymentService struct {
	db         *gorm.DB
	gateway    *GatewayService
	reconciler *billing.PaymentReconciler
}

func NewPaymentService(db *gorm.DB, gateway *GatewayService, reconciler *billing.PaymentReconciler) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, reconciler: reconciler}
}

// ActiveOrder returns the newest pending order for the bill, or nil.
func (s *PaymentService) ActiveOrder(billID uint) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.Where("demand_bill_id = ? AND status = ?", billID, models.PaymentOrderStatusPending).
		Order("created_at desc").First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// InitiatePaymentResult holds the result of an initiation attempt
type InitiatePaymentResult struct {
	OrderID     string
	Token       string
	RedirectURL string
	IsExisting  bool
}

// InitiatePayment starts or resumes a gateway checkout for the bill's
// outstanding amount.
func (s *PaymentService) InitiatePayment(bill *models.DemandBill, student *models.Student, forceNew bool, callbackURL string) (*InitiatePaymentResult, error) {
	outstanding := bill.Outstanding()
	if outstanding <= 0 {
		return nil, ErrNothingOutstanding
	}

	// 1. Check for an existing pending order
	existing, err := s.ActiveOrder(bill.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		statusResp, err := s.gateway.CheckTransaction(existing.OrderID)
		if err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				// Settled at the gateway; the webhook will reconcile it.
				return nil, billing.ErrBillAlreadyPaid
			case "deny", "expire", "cancel", "failure":
				existing.Status = models.PaymentOrderStatusFailed
				s.db.Save(existing)
			default:
				// Still pending at the gateway.
				if forceNew {
					s.gateway.CancelTransaction(existing.OrderID)
					existing.Status = models.PaymentOrderStatusCanceled
					s.db.Save(existing)
				} else {
					var resp snap.Response
					if err := json.Unmarshal(existing.ResponseMetadata, &resp); err == nil {
						return &InitiatePaymentResult{
							OrderID:     existing.OrderID,
							Token:       resp.Token,
							RedirectURL: resp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// Broken metadata, retire the order and start over.
					existing.Status = models.PaymentOrderStatusCanceled
					s.db.Save(existing)
				}
			}
		} else {
			existing.Status = models.PaymentOrderStatusCanceled
			s.db.Save(existing)
		}
	}

	// 2. Create a new gateway order
	orderID := fmt.Sprintf("bill-%d-%d", bill.ID, time.Now().Unix())

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: outstanding,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: student.GuardianName,
			Email: student.GuardianEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    bill.BillNo,
				Name:  fmt.Sprintf("School fees %02d/%d for %s", bill.Month, bill.Year, student.Name),
				Price: outstanding,
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.gateway.CreateTransaction(orderID, outstanding, req)
	if err != nil {
		return nil, err
	}

	// 3. Record the order
	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	order := models.PaymentOrder{
		DemandBillID:     bill.ID,
		StudentID:        bill.StudentID,
		PaymentGateway:   models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		Amount:           outstanding,
		Status:           models.PaymentOrderStatusPending,
		RequestMetadata:  reqBytes,
		ResponseMetadata: respBytes,
	}
	s.db.Create(&order)

	return &InitiatePaymentResult{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		IsExisting:  false,
	}, nil
}

// Settlement outcomes reported back to the webhook handler.
const (
	SettlementApplied = "applied"
	SettlementIgnored = "ignored"
	SettlementFailed  = "failed"
)

// HandleSettlement applies a verified webhook notification to the ledger.
// The raw payload is always archived first; re-deliveries of an already
// settled order are ignored, not errors.
func (s *PaymentService) HandleSettlement(ctx context.Context, orderID, paymentID, txnStatus string, payload json.RawMessage) (string, error) {
	s.db.Create(&models.GatewayCallback{
		PaymentGateway: models.PaymentGatewayMidtrans,
		OrderID:        orderID,
		Metadata:       payload,
	})

	var order models.PaymentOrder
	if err := s.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("unknown order %q: %w", orderID, billing.ErrBillNotFound)
		}
		return "", err
	}
	if order.Status != models.PaymentOrderStatusPending {
		return SettlementIgnored, nil
	}

	switch txnStatus {
	case "settlement", "capture":
		_, err := s.reconciler.RecordPayment(ctx, billing.PaymentInput{
			BillID: &order.DemandBillID,
			Amount: order.Amount,
			Mode:   models.PaymentModeGateway,
			TxnRef: paymentID,
		})
		if err != nil {
			// Money moved at the gateway but the ledger refused it, e.g. a
			// manual collection raced this settlement. Flag the order for
			// manual follow-up instead of dropping the event.
			log.Printf("settlement for order %s not applied: %v", orderID, err)
			order.Status = models.PaymentOrderStatusFailed
			s.db.Save(&order)
			return SettlementFailed, nil
		}
		order.Status = models.PaymentOrderStatusSuccess
		s.db.Save(&order)
		return SettlementApplied, nil
	case "deny", "expire", "cancel", "failure":
		order.Status = models.PaymentOrderStatusFailed
		s.db.Save(&order)
		return SettlementIgnored, nil
	default:
		// Pending-ish statuses carry no settlement outcome.
		return SettlementIgnored, nil
	}
}
