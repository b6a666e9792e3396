package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

// fakeStore is an in-memory Store for engine tests, with per-student error
// injection on bill creation.
type fakeStore struct {
	mu sync.Mutex

	students  map[uint]*models.Student
	lines     map[string][]StructureLine
	discounts []models.StudentFeeDiscount
	bills     []*models.DemandBill
	txns      []*models.FeeTransaction
	refunds   []*models.Refund

	nextBillID uint
	nextTxnID  uint

	createBillErr map[uint]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:      make(map[uint]*models.Student),
		lines:         make(map[string][]StructureLine),
		createBillErr: make(map[uint]error),
	}
}

func linesKey(sessionID uint, className string) string {
	return fmt.Sprintf("%d/%s", sessionID, className)
}

func (s *fakeStore) addStudent(st models.Student) *models.Student {
	s.students[st.ID] = &st
	return &st
}

func (s *fakeStore) setLines(sessionID uint, className string, lines ...StructureLine) {
	s.lines[linesKey(sessionID, className)] = lines
}

func (s *fakeStore) addBill(b models.DemandBill) *models.DemandBill {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBillID++
	b.ID = s.nextBillID
	stored := b
	s.bills = append(s.bills, &stored)
	return &stored
}

func (s *fakeStore) addTxn(t models.FeeTransaction) *models.FeeTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxnID++
	t.ID = s.nextTxnID
	stored := t
	s.txns = append(s.txns, &stored)
	return &stored
}

func (s *fakeStore) billByID(id uint) *models.DemandBill {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *fakeStore) Students() StudentRepo         { return fakeStudents{s} }
func (s *fakeStore) Structures() FeeStructureRepo  { return fakeStructures{s} }
func (s *fakeStore) Discounts() DiscountRepo       { return fakeDiscounts{s} }
func (s *fakeStore) Bills() DemandBillRepo         { return fakeBills{s} }
func (s *fakeStore) Transactions() TransactionRepo { return fakeTxns{s} }

func (s *fakeStore) InTransaction(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

type fakeStudents struct{ s *fakeStore }

func (r fakeStudents) ByID(ctx context.Context, id uint) (*models.Student, error) {
	st, ok := r.s.students[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	copied := *st
	return &copied, nil
}

func (r fakeStudents) ActiveBySession(ctx context.Context, sessionID uint) ([]models.Student, error) {
	var out []models.Student
	for _, st := range r.s.students {
		if st.SessionID == sessionID && st.Status == models.StudentStatusActive {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r fakeStudents) ActiveByClass(ctx context.Context, sessionID uint, className, section string) ([]models.Student, error) {
	var out []models.Student
	for _, st := range r.s.students {
		if st.SessionID != sessionID || st.Status != models.StudentStatusActive || st.ClassName != className {
			continue
		}
		if section != "" && st.Section != section {
			continue
		}
		out = append(out, *st)
	}
	return out, nil
}

type fakeStructures struct{ s *fakeStore }

func (r fakeStructures) Lines(ctx context.Context, sessionID uint, className string) ([]StructureLine, error) {
	return r.s.lines[linesKey(sessionID, className)], nil
}

type fakeDiscounts struct{ s *fakeStore }

func (r fakeDiscounts) ActiveForStudent(ctx context.Context, studentID, sessionID uint, feeTypeIDs []uint) ([]models.StudentFeeDiscount, error) {
	wanted := make(map[uint]bool, len(feeTypeIDs))
	for _, id := range feeTypeIDs {
		wanted[id] = true
	}
	var out []models.StudentFeeDiscount
	for _, d := range r.s.discounts {
		if d.StudentID == studentID && d.SessionID == sessionID && d.IsActive && wanted[d.FeeTypeID] {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeBills struct{ s *fakeStore }

func (r fakeBills) ByID(ctx context.Context, id uint) (*models.DemandBill, error) {
	if b := r.s.billByID(id); b != nil {
		r.s.mu.Lock()
		copied := *b
		r.s.mu.Unlock()
		return &copied, nil
	}
	return nil, ErrBillNotFound
}

func (r fakeBills) ExistsForPeriod(ctx context.Context, studentID, sessionID uint, month, year int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bills {
		if b.StudentID == studentID && b.SessionID == sessionID && b.Month == month && b.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeBills) Unsettled(ctx context.Context, studentID, sessionID uint) ([]models.DemandBill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.DemandBill
	for _, b := range r.s.bills {
		if b.StudentID != studentID || b.SessionID != sessionID {
			continue
		}
		switch b.Status {
		case models.BillStatusPending, models.BillStatusPartiallyPaid, models.BillStatusOverdue:
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r fakeBills) TotalBilled(ctx context.Context, studentID, sessionID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, b := range r.s.bills {
		if b.StudentID == studentID && b.SessionID == sessionID {
			total += b.NetAmount
		}
	}
	return total, nil
}

func (r fakeBills) Create(ctx context.Context, bill *models.DemandBill) error {
	if err := r.s.createBillErr[bill.StudentID]; err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextBillID++
	bill.ID = r.s.nextBillID
	stored := *bill
	r.s.bills = append(r.s.bills, &stored)
	return nil
}

func (r fakeBills) SavePayment(ctx context.Context, bill *models.DemandBill) error {
	stored := r.s.billByID(bill.ID)
	if stored == nil {
		return ErrBillNotFound
	}
	r.s.mu.Lock()
	stored.PaidAmount = bill.PaidAmount
	stored.Status = bill.Status
	r.s.mu.Unlock()
	return nil
}

func (r fakeBills) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var marked int64
	for _, b := range r.s.bills {
		if (b.Status == models.BillStatusPending || b.Status == models.BillStatusPartiallyPaid) && b.DueDate.Before(now) {
			b.Status = models.BillStatusOverdue
			marked++
		}
	}
	return marked, nil
}

type fakeTxns struct{ s *fakeStore }

func (r fakeTxns) ByID(ctx context.Context, id uint) (*models.FeeTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.txns {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, ErrTransactionNotFound
}

func (r fakeTxns) TotalSettled(ctx context.Context, studentID, sessionID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, t := range r.s.txns {
		if t.StudentID == studentID && t.SessionID == sessionID && t.Status == models.TransactionStatusSettled {
			total += t.Amount
		}
	}
	return total, nil
}

func (r fakeTxns) Create(ctx context.Context, txn *models.FeeTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextTxnID++
	txn.ID = r.s.nextTxnID
	stored := *txn
	r.s.txns = append(r.s.txns, &stored)
	return nil
}

func (r fakeTxns) Save(ctx context.Context, txn *models.FeeTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.txns {
		if t.ID == txn.ID {
			*t = *txn
			return nil
		}
	}
	return ErrTransactionNotFound
}

func (r fakeTxns) CreateRefund(ctx context.Context, refund *models.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refunds = append(r.s.refunds, refund)
	return nil
}
