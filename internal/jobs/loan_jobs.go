package jobs

import (
	"context"

	"github.com/tzayo/library-management-system/internal/service"
)

// RunDailyJobs marks overdue loans first, then sends due-date reminders.
func (jr *JobRunner) RunDailyJobs() (service.DailySummary, error) {
	var summary service.DailySummary
	err := jr.runWithRecovery("RunDailyJobs", func(ctx context.Context) error {
		var err error
		summary, err = jr.reminders.RunDaily(ctx, jr.now())
		return err
	})
	return summary, err
}

// MarkOverdueLoans stamps status=overdue on open loans past their due date.
func (jr *JobRunner) MarkOverdueLoans() (int, error) {
	var marked int
	err := jr.runWithRecovery("MarkOverdueLoans", func(ctx context.Context) error {
		var err error
		marked, err = jr.reminders.MarkOverdue(ctx, jr.now())
		return err
	})
	return marked, err
}

// SendLoanReminders emails borrowers whose loans fall due within the lead time.
func (jr *JobRunner) SendLoanReminders() (service.ReminderSummary, error) {
	var summary service.ReminderSummary
	err := jr.runWithRecovery("SendLoanReminders", func(ctx context.Context) error {
		var err error
		summary, err = jr.reminders.SendDueReminders(ctx, jr.now())
		return err
	})
	return summary, err
}
