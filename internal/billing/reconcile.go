package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

// Reconciliation errors. Handlers map these to client errors; anything else
// is a server fault.
var (
	ErrBillNotFound        = errors.New("demand bill not found")
	ErrStudentNotFound     = errors.New("student not found")
	ErrTransactionNotFound = errors.New("fee transaction not found")
	ErrBillAlreadyPaid     = errors.New("demand bill is already fully paid")
	ErrPaymentOvershoot    = errors.New("payment would exceed the bill's net amount")
	ErrInvalidAmount       = errors.New("payment amount must be positive")
	ErrAlreadyVoided       = errors.New("fee transaction is already voided")
	ErrNotSettled          = errors.New("only settled transactions can be voided")
)

// PaymentInput describes one incoming payment. BillID is nil for on-account
// payments, which only record a transaction and thereby raise the student's
// advance balance.
type PaymentInput struct {
	BillID    *uint
	StudentID uint
	SessionID uint
	Amount    int64
	Mode      models.PaymentMode
	TxnRef    string
	Details   []models.PaymentDetail
}

// PaymentReconciler applies payments against bills: it records the fee
// transaction, bumps the bill's paid amount and recomputes its status, all
// under the same per-student lock and transaction discipline as generation.
type PaymentReconciler struct {
	store  Store
	locker Locker
	clock  func() time.Time
}

func NewPaymentReconciler(store Store, locker Locker) *PaymentReconciler {
	return &PaymentReconciler{store: store, locker: locker, clock: time.Now}
}

// NewReceiptNo mints a unique receipt number for a collected payment.
func NewReceiptNo() string {
	return "RCPT-" + uuid.New().String()
}

// RecordPayment settles a payment immediately (manual collection or a
// confirmed gateway settlement) and reconciles the targeted bill.
func (r *PaymentReconciler) RecordPayment(ctx context.Context, in PaymentInput) (*models.FeeTransaction, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// For bill payments the lock key comes from the bill itself; callers may
	// reference the bill only by id.
	if in.BillID != nil {
		bill, err := r.store.Bills().ByID(ctx, *in.BillID)
		if err != nil {
			return nil, err
		}
		in.StudentID = bill.StudentID
		in.SessionID = bill.SessionID
	}

	release, err := r.locker.LockStudent(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("lock student %d: %w", in.StudentID, err)
	}
	defer release()

	txn := &models.FeeTransaction{
		StudentID:    in.StudentID,
		SessionID:    in.SessionID,
		DemandBillID: in.BillID,
		Amount:       in.Amount,
		Date:         r.clock(),
		Mode:         in.Mode,
		Status:       models.TransactionStatusSettled,
		ReceiptNo:    NewReceiptNo(),
		TxnRef:       in.TxnRef,
		Details:      in.Details,
	}

	err = r.store.InTransaction(ctx, func(tx Store) error {
		if in.BillID != nil {
			bill, err := tx.Bills().ByID(ctx, *in.BillID)
			if err != nil {
				return err
			}
			if bill.Outstanding() <= 0 {
				return ErrBillAlreadyPaid
			}
			if bill.PaidAmount+in.Amount > bill.NetAmount {
				return ErrPaymentOvershoot
			}
			bill.PaidAmount += in.Amount
			bill.RecomputeStatus()
			if err := tx.Bills().SavePayment(ctx, bill); err != nil {
				return err
			}
		}
		return tx.Transactions().Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// VoidTransaction reverses a settled transaction: it records a refund,
// marks the transaction voided and, when the transaction funded a bill,
// rolls the bill's paid amount and status back. Voiding twice is a conflict.
func (r *PaymentReconciler) VoidTransaction(ctx context.Context, txnID uint, reason string) (*models.FeeTransaction, error) {
	txn, err := r.store.Transactions().ByID(ctx, txnID)
	if err != nil {
		return nil, err
	}

	release, err := r.locker.LockStudent(ctx, txn.StudentID)
	if err != nil {
		return nil, fmt.Errorf("lock student %d: %w", txn.StudentID, err)
	}
	defer release()

	err = r.store.InTransaction(ctx, func(tx Store) error {
		// Re-read under the lock; a concurrent void must be seen here.
		txn, err = tx.Transactions().ByID(ctx, txnID)
		if err != nil {
			return err
		}
		if txn.Status == models.TransactionStatusVoided {
			return ErrAlreadyVoided
		}
		if txn.Status != models.TransactionStatusSettled {
			return ErrNotSettled
		}

		if txn.DemandBillID != nil {
			bill, err := tx.Bills().ByID(ctx, *txn.DemandBillID)
			if err != nil {
				return err
			}
			bill.PaidAmount -= txn.Amount
			if bill.PaidAmount < 0 {
				bill.PaidAmount = 0
			}
			bill.RecomputeStatus()
			if err := tx.Bills().SavePayment(ctx, bill); err != nil {
				return err
			}
		}

		txn.Status = models.TransactionStatusVoided
		if err := tx.Transactions().Save(ctx, txn); err != nil {
			return err
		}
		return tx.Transactions().CreateRefund(ctx, &models.Refund{
			FeeTransactionID: txn.ID,
			StudentID:        txn.StudentID,
			Amount:           txn.Amount,
			Reason:           reason,
			RefundDate:       r.clock(),
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// LedgerSummary is the student's current position in a session.
type LedgerSummary struct {
	StudentID    uint  `json:"studentId"`
	SessionID    uint  `json:"sessionId"`
	TotalBilled  int64 `json:"totalBilled"`
	TotalPaid    int64 `json:"totalPaid"`
	PreviousDues int64 `json:"previousDues"`
	Advance      int64 `json:"advance"`
}

// Summary reports dues and advance for a student without mutating anything.
func (r *PaymentReconciler) Summary(ctx context.Context, studentID, sessionID uint) (*LedgerSummary, error) {
	summary := &LedgerSummary{StudentID: studentID, SessionID: sessionID}
	var err error
	if summary.TotalBilled, err = r.store.Bills().TotalBilled(ctx, studentID, sessionID); err != nil {
		return nil, err
	}
	if summary.TotalPaid, err = r.store.Transactions().TotalSettled(ctx, studentID, sessionID); err != nil {
		return nil, err
	}
	if summary.PreviousDues, err = NewDuesAggregator(r.store.Bills()).PreviousDues(ctx, studentID, sessionID); err != nil {
		return nil, err
	}
	if summary.Advance, err = NewAdvanceBalanceCalculator(r.store.Bills(), r.store.Transactions()).Advance(ctx, studentID, sessionID); err != nil {
		return nil, err
	}
	return summary, nil
}
