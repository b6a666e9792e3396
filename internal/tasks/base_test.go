package tasks

import (
	"testing"
	"time"

	"github.com/Sumit21adm/School-Management-System-sub005/internal/models"
)

func TestBuildScheduledTaskRoundTrip(t *testing.T) {
	due := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	rule := "FREQ=MONTHLY;BYMONTHDAY=1"

	task, err := BuildScheduledTask("generate_demand_bills", GenerateBillsArgs{
		SessionID: 2,
		DueDay:    10,
		Notify:    true,
	}, due, &rule, models.ScheduledTaskTypeRecurring, 3)
	if err != nil {
		t.Fatalf("BuildScheduledTask failed: %v", err)
	}

	if task.TaskName != "generate_demand_bills" {
		t.Errorf("TaskName = %q", task.TaskName)
	}
	if task.Status != models.ScheduledTaskStatusActive {
		t.Errorf("Status = %s, want active", task.Status)
	}
	if task.TaskType != models.ScheduledTaskTypeRecurring {
		t.Errorf("TaskType = %s, want recurring", task.TaskType)
	}

	var parsed GenerateBillsArgs
	if err := parseArgs(*task, &parsed); err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if parsed.SessionID != 2 || parsed.DueDay != 10 || !parsed.Notify {
		t.Errorf("round trip lost fields: %+v", parsed)
	}
	// Month and Year stay zero so each recurring run bills the then-current period.
	if parsed.Month != 0 || parsed.Year != 0 {
		t.Errorf("expected unset period, got %d/%d", parsed.Month, parsed.Year)
	}
}

func TestDefineTasksRegistersBillingTasks(t *testing.T) {
	DefineTasks()

	for _, name := range []string{
		"generate_demand_bills",
		"mark_overdue_bills",
		"send_bill_notifications",
		"log_info",
	} {
		if _, ok := GetHandler(name); !ok {
			t.Errorf("handler %q not registered", name)
		}
	}
}
