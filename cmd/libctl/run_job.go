package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tzayo/library-management-system/internal/jobs"
	"github.com/tzayo/library-management-system/internal/repository/postgres"
	"github.com/tzayo/library-management-system/internal/service"
)

func newRunJobCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       fmt.Sprintf("run-job {%s|%s|%s}", jobs.JobDaily, jobs.JobMarkOverdue, jobs.JobSendReminders),
		Short:     "Run a scheduled job once and print its summary",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{jobs.JobDaily, jobs.JobMarkOverdue, jobs.JobSendReminders},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			store := postgres.NewStore(e.db)
			reminders := service.NewReminderService(store, service.NewEmailServiceFromConfig(e.cfg), e.cfg.Loan.ReminderLeadDays())
			runner := jobs.NewJobRunner(reminders, e.cfg).WithLocker(postgres.NewAdvisoryLock(e.db, postgres.JobLockKey))
			summary, err := runner.Run(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total=%d sent=%d failed=%d marked_overdue=%d\n",
				summary.Total, summary.Sent, summary.Failed, summary.MarkedOverdue)
			return nil
		},
	}
}
