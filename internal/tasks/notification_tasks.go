package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
	"github.com/Sumit21adm/School-Management-System-sub005/internal/services"
)

// BillNotificationArgs defines the arguments for a bill notification task
type BillNotificationArgs struct {
	BillNos      []string `json:"bill_nos"`
	AttemptCount int      `json:"attempt_count"`
}

// SendBillNotificationsTaskDef delivers new-bill notices to guardians over
// their preferred channel, with a public payment link.
type SendBillNotificationsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendBillNotificationsTaskDef) TaskID() string {
	return "send_bill_notifications"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendBillNotificationsTaskDef) CreateTask(args BillNotificationArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends one notice per bill. Bills whose delivery fails are
// collected into a retry task until MaxAttempt is exhausted.
func (t *SendBillNotificationsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args BillNotificationArgs
	if err := parseArgs(task, &args); err != nil {
		return nil, err
	}

	total := len(args.BillNos)
	successCount := 0
	skippedCount := 0
	var failures []string
	var failedBills []string

	for _, billNo := range args.BillNos {
		var bill models.DemandBill
		if err := db.Preload("Student").Where("bill_no = ?", billNo).First(&bill).Error; err != nil {
			log.Printf("Skipping notification for %s: bill not found", billNo)
			skippedCount++
			continue
		}

		student := bill.Student
		var sendErr error
		switch student.NotifyChannel {
		case models.NotificationChannelEmail:
			if student.GuardianEmail == "" {
				log.Printf("Skipping notification for %s: no guardian email", billNo)
				skippedCount++
				continue
			}
			sendErr = sendBillEmail(&bill)
		case models.NotificationChannelWhatsapp:
			if student.GuardianPhone == "" {
				log.Printf("Skipping notification for %s: no guardian phone", billNo)
				skippedCount++
				continue
			}
			sendErr = sendBillWhatsapp(&bill)
		case models.NotificationChannelNone:
			skippedCount++
			continue
		default:
			log.Printf("Unsupported notification channel %q for student %d", student.NotifyChannel, student.ID)
			skippedCount++
			continue
		}

		if sendErr != nil {
			log.Printf("Failed to notify guardian of %s for bill %s: %v", student.Name, billNo, sendErr)
			failures = append(failures, fmt.Sprintf("%s: %v", billNo, sendErr))
			failedBills = append(failedBills, billNo)
		} else {
			successCount++
		}
	}

	result := map[string]interface{}{
		"total":   total,
		"success": successCount,
		"skipped": skippedCount,
		"failure": len(failedBills),
	}

	if len(failedBills) > 0 {
		result["errors"] = failures

		attempt := args.AttemptCount
		maxRetries := task.MaxAttempt

		if attempt < maxRetries {
			log.Printf("Partial failure: %d bills undelivered. Rescheduling for attempt %d", len(failedBills), attempt+1)

			newArgs := BillNotificationArgs{BillNos: failedBills, AttemptCount: attempt + 1}
			nextRun := time.Now().Add(5 * time.Minute)

			newTask, err := BuildScheduledTask(t.TaskID(), newArgs, nextRun, nil, models.ScheduledTaskTypeOneTime, maxRetries)
			if err == nil {
				db.Create(newTask)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
		} else {
			log.Printf("Max attempts (%d) reached for %d undelivered bills.", maxRetries, len(failedBills))
			return result, fmt.Errorf("max attempts reached, failed to deliver %d bill notices", len(failedBills))
		}
	}

	return result, nil
}

// SendBillNotificationsTask is the singleton instance of SendBillNotificationsTaskDef
var SendBillNotificationsTask = &SendBillNotificationsTaskDef{}

func paymentLink(bill *models.DemandBill) string {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return base + "/pay/" + bill.UUID
}

func billMessage(bill *models.DemandBill) string {
	return fmt.Sprintf(
		"Dear %s,\n\nThe fee bill %s for %s (%02d/%d) is ready.\nAmount due: %.2f\nDue date: %s\n\nPay online: %s",
		bill.Student.GuardianName, bill.BillNo, bill.Student.Name,
		bill.Month, bill.Year,
		float64(bill.Outstanding())/100,
		bill.DueDate.Format("02 Jan 2006"),
		paymentLink(bill),
	)
}

// sendBillWhatsapp delivers the notice to the guardian's WhatsApp number
func sendBillWhatsapp(bill *models.DemandBill) error {
	return services.NewWhatsappService().SendMessage(bill.Student.GuardianPhone, billMessage(bill))
}

// sendBillEmail delivers the notice to the guardian's email address
func sendBillEmail(bill *models.DemandBill) error {
	subject := fmt.Sprintf("Fee bill %s for %s", bill.BillNo, bill.Student.Name)
	return services.NewEmailService().SendEmail([]string{bill.Student.GuardianEmail}, subject, billMessage(bill))
}
