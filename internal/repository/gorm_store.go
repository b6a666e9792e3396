package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

// GormStore implements billing.Store on top of GORM/Postgres. The zero-value
// repositories all share the store's database handle; InTransaction hands
// out a store bound to the transaction instead.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Students() billing.StudentRepo        { return &studentRepo{db: s.db} }
func (s *GormStore) Structures() billing.FeeStructureRepo { return &structureRepo{db: s.db} }
func (s *GormStore) Discounts() billing.DiscountRepo      { return &discountRepo{db: s.db} }
func (s *GormStore) Bills() billing.DemandBillRepo        { return &billRepo{db: s.db} }
func (s *GormStore) Transactions() billing.TransactionRepo {
	return &transactionRepo{db: s.db}
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(billing.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

type studentRepo struct{ db *gorm.DB }

func (r *studentRepo) ByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ActiveBySession(ctx context.Context, sessionID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, models.StudentStatusActive).
		Order("id").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ActiveByClass(ctx context.Context, sessionID uint, className, section string) ([]models.Student, error) {
	q := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ? AND class_name = ?", sessionID, models.StudentStatusActive, className)
	if section != "" {
		q = q.Where("section = ?", section)
	}
	var students []models.Student
	err := q.Order("id").Find(&students).Error
	return students, err
}

type structureRepo struct{ db *gorm.DB }

func (r *structureRepo) Lines(ctx context.Context, sessionID uint, className string) ([]billing.StructureLine, error) {
	var lines []billing.StructureLine
	err := r.db.WithContext(ctx).
		Table("fee_structure_items").
		Select("fee_structure_items.fee_type_id AS fee_type_id, fee_types.name AS fee_type_name, fee_structure_items.amount AS amount").
		Joins("JOIN fee_structures ON fee_structures.id = fee_structure_items.fee_structure_id").
		Joins("JOIN fee_types ON fee_types.id = fee_structure_items.fee_type_id").
		Where("fee_structures.session_id = ? AND fee_structures.class_name = ?", sessionID, className).
		Where("fee_structure_items.deleted_at IS NULL AND fee_structures.deleted_at IS NULL").
		Order("fee_structure_items.sort_order, fee_structure_items.id").
		Scan(&lines).Error
	return lines, err
}

type discountRepo struct{ db *gorm.DB }

func (r *discountRepo) ActiveForStudent(ctx context.Context, studentID, sessionID uint, feeTypeIDs []uint) ([]models.StudentFeeDiscount, error) {
	if len(feeTypeIDs) == 0 {
		return nil, nil
	}
	var discounts []models.StudentFeeDiscount
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND session_id = ? AND is_active = ? AND fee_type_id IN ?",
			studentID, sessionID, true, feeTypeIDs).
		Find(&discounts).Error
	return discounts, err
}

type billRepo struct{ db *gorm.DB }

var unsettledStatuses = []models.BillStatus{
	models.BillStatusPending,
	models.BillStatusPartiallyPaid,
	models.BillStatusOverdue,
}

func (r *billRepo) ByID(ctx context.Context, id uint) (*models.DemandBill, error) {
	var bill models.DemandBill
	if err := r.db.WithContext(ctx).First(&bill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrBillNotFound
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billRepo) ExistsForPeriod(ctx context.Context, studentID, sessionID uint, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DemandBill{}).
		Where("student_id = ? AND session_id = ? AND month = ? AND year = ?", studentID, sessionID, month, year).
		Count(&count).Error
	return count > 0, err
}

func (r *billRepo) Unsettled(ctx context.Context, studentID, sessionID uint) ([]models.DemandBill, error) {
	var bills []models.DemandBill
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND session_id = ? AND status IN ?", studentID, sessionID, unsettledStatuses).
		Find(&bills).Error
	return bills, err
}

func (r *billRepo) TotalBilled(ctx context.Context, studentID, sessionID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.DemandBill{}).
		Where("student_id = ? AND session_id = ?", studentID, sessionID).
		Select("COALESCE(SUM(net_amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *billRepo) Create(ctx context.Context, bill *models.DemandBill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *billRepo) SavePayment(ctx context.Context, bill *models.DemandBill) error {
	return r.db.WithContext(ctx).Model(bill).
		Select("paid_amount", "status").
		Updates(map[string]interface{}{
			"paid_amount": bill.PaidAmount,
			"status":      bill.Status,
		}).Error
}

func (r *billRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.DemandBill{}).
		Where("status IN ? AND due_date < ?",
			[]models.BillStatus{models.BillStatusPending, models.BillStatusPartiallyPaid}, now).
		Update("status", models.BillStatusOverdue)
	return res.RowsAffected, res.Error
}

type transactionRepo struct{ db *gorm.DB }

func (r *transactionRepo) ByID(ctx context.Context, id uint) (*models.FeeTransaction, error) {
	var txn models.FeeTransaction
	if err := r.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) TotalSettled(ctx context.Context, studentID, sessionID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.FeeTransaction{}).
		Where("student_id = ? AND session_id = ? AND status = ?", studentID, sessionID, models.TransactionStatusSettled).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *transactionRepo) Create(ctx context.Context, txn *models.FeeTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepo) Save(ctx context.Context, txn *models.FeeTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *transactionRepo) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}
