package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/billing"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/repository"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/services"
)

var (
	lockerOnce sync.Once
	taskLocker billing.Locker
)

// sharedLocker returns the per-student locker used by billing tasks. With
// REDIS_URL set the lease is held in Redis so the worker and the API server
// exclude each other; otherwise a process-local mutex map is used.
func sharedLocker() billing.Locker {
	lockerOnce.Do(func() {
		if url := os.Getenv("REDIS_URL"); url != "" {
			cache, err := services.NewRedisCache(url)
			if err == nil {
				taskLocker = services.NewRedisLocker(cache)
				return
			}
			log.Printf("Redis unavailable for task locking, falling back to in-process locks: %v", err)
		}
		taskLocker = billing.NewMemoryLocker()
	})
	return taskLocker
}

// GenerateBillsArgs defines the arguments for a bill generation task. Month
// and Year default to the current period, which is what makes a recurring
// monthly schedule work from a single stored row.
type GenerateBillsArgs struct {
	SessionID  uint   `json:"session_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	DueDay     int    `json:"due_day"`
	DueDate    string `json:"due_date"`
	FeeTypeIDs []uint `json:"fee_type_ids"`
	StudentID  uint   `json:"student_id"`
	ClassName  string `json:"class_name"`
	Section    string `json:"section"`
	Workers    int    `json:"workers"`
	Notify     bool   `json:"notify"`
}

// GenerateDemandBillsTaskDef encapsulates the scheduled bill generation task
type GenerateDemandBillsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *GenerateDemandBillsTaskDef) TaskID() string {
	return "generate_demand_bills"
}

// CreateTask builds a ScheduledTask record for this task
func (t *GenerateDemandBillsTaskDef) CreateTask(args GenerateBillsArgs, due time.Time, recurringInterval *string) (*models.ScheduledTask, error) {
	taskType := models.ScheduledTaskTypeOneTime
	if recurringInterval != nil && *recurringInterval != "" {
		taskType = models.ScheduledTaskTypeRecurring
	}
	return BuildScheduledTask(t.TaskID(), args, due, recurringInterval, taskType, 3)
}

// HandleExecution runs one batch generation from the stored arguments.
func (t *GenerateDemandBillsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args GenerateBillsArgs
	if err := parseArgs(task, &args); err != nil {
		return nil, err
	}
	if args.SessionID == 0 {
		return nil, fmt.Errorf("session_id not provided")
	}

	now := time.Now()
	if args.Month == 0 {
		args.Month = int(now.Month())
	}
	if args.Year == 0 {
		args.Year = now.Year()
	}

	var dueDate time.Time
	if args.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", args.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		dueDate = parsed
	} else {
		dueDay := args.DueDay
		if dueDay < 1 || dueDay > 28 {
			dueDay = 10
		}
		dueDate = time.Date(args.Year, time.Month(args.Month), dueDay, 0, 0, 0, 0, time.Local)
	}

	store := repository.NewGormStore(db)
	composer := billing.NewBillComposer(store, sharedLocker())
	generator := billing.NewBatchGenerator(store, composer, args.Workers)

	result, err := generator.Generate(ctx, billing.BatchInput{
		SessionID:  args.SessionID,
		Month:      args.Month,
		Year:       args.Year,
		DueDate:    dueDate,
		FeeTypeIDs: args.FeeTypeIDs,
		Target: billing.Target{
			StudentID: args.StudentID,
			ClassName: args.ClassName,
			Section:   args.Section,
		},
	})
	if err != nil {
		return nil, err
	}

	if args.Notify && result.Generated > 0 {
		billNos := make([]string, 0, result.Generated)
		for _, r := range result.Results {
			if r.Status == billing.ResultSuccess {
				billNos = append(billNos, r.BillNo)
			}
		}
		notifTask, err := SendBillNotificationsTask.CreateTask(BillNotificationArgs{BillNos: billNos})
		if err == nil {
			if err := db.Create(notifTask).Error; err != nil {
				log.Printf("Failed to enqueue bill notifications: %v", err)
			}
		} else {
			log.Printf("Failed to build bill notification task: %v", err)
		}
	}

	return map[string]interface{}{
		"total":     result.Total,
		"generated": result.Generated,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}, nil
}

// GenerateDemandBillsTask is the singleton instance of GenerateDemandBillsTaskDef
var GenerateDemandBillsTask = &GenerateDemandBillsTaskDef{}

// MarkOverdueBillsTaskDef encapsulates the recurring overdue sweep
type MarkOverdueBillsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *MarkOverdueBillsTaskDef) TaskID() string {
	return "mark_overdue_bills"
}

// HandleExecution stamps OVERDUE on unpaid bills whose due date has passed.
func (t *MarkOverdueBillsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	store := repository.NewGormStore(db)
	marked, err := store.Bills().MarkOverdue(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("overdue sweep failed: %w", err)
	}
	log.Printf("[Task: mark_overdue_bills] Marked %d bills overdue", marked)
	return map[string]interface{}{"marked": marked}, nil
}

// MarkOverdueBillsTask is the singleton instance of MarkOverdueBillsTaskDef
var MarkOverdueBillsTask = &MarkOverdueBillsTaskDef{}
