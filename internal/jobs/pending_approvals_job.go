package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PendingApprovalsJobName is the name of the stale pending-approval reminder job
const PendingApprovalsJobName = "pending_approvals_reminder"

// defaultReminderTimeout bounds one reminder run
const defaultReminderTimeout = 2 * time.Minute

// PendingReminderService finds documents that have been waiting for
// supervisor approval longer than maxAge and re-notifies the approvers.
// The interface keeps the job from importing the service package.
type PendingReminderService interface {
	RemindStalePending(ctx context.Context, maxAge time.Duration) (orders int64, quotations int64, err error)
}

// PendingApprovalsJob periodically reminds supervisors and managers
// about orders and quotations stuck in the approval chain.
type PendingApprovalsJob struct {
	reminder PendingReminderService
	logger   *zap.Logger
	maxAge   time.Duration
}

// NewPendingApprovalsJob creates a new reminder job. maxAge is how long
// a document may wait for supervisor approval before it counts as stale.
func NewPendingApprovalsJob(reminder PendingReminderService, logger *zap.Logger, maxAge time.Duration) *PendingApprovalsJob {
	return &PendingApprovalsJob{
		reminder: reminder,
		logger:   logger,
		maxAge:   maxAge,
	}
}

// Run executes the reminder job. This is called by the scheduler
// according to the cron expression.
func (j *PendingApprovalsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultReminderTimeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting pending approvals reminder job",
		zap.Duration("max_age", j.maxAge))

	orders, quotations, err := j.reminder.RemindStalePending(ctx, j.maxAge)
	if err != nil {
		j.logger.Error("pending approvals reminder failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("pending approvals reminder job completed",
		zap.Int64("stale_orders", orders),
		zap.Int64("stale_quotations", quotations),
		zap.Duration("duration", time.Since(start)))
}
