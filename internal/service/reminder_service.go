package service

import (
	"context"
	"fmt"
	"time"

	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/repository"
	"go.uber.org/zap"
)

// ReminderService re-notifies approvers about documents stuck in the
// approval chain. It backs the scheduled reminder job.
type ReminderService struct {
	orderRepo     *repository.OrderRepository
	quotationRepo *repository.QuotationRepository
	notifier      Notifier
	retry         *database.RetryPolicy
	logger        *zap.Logger
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	orderRepo *repository.OrderRepository,
	quotationRepo *repository.QuotationRepository,
	notifier Notifier,
	retry *database.RetryPolicy,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		orderRepo:     orderRepo,
		quotationRepo: quotationRepo,
		notifier:      notifier,
		retry:         retry,
		logger:        logger,
	}
}

// RemindStalePending counts orders and quotations that have waited for
// supervisor approval longer than maxAge and pings supervisors and
// managers when there are any.
func (s *ReminderService) RemindStalePending(ctx context.Context, maxAge time.Duration) (int64, int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	var orders, quotations int64
	err := s.retry.Do(ctx, "reminder.count_stale", func(ctx context.Context) error {
		var err error
		orders, err = s.orderRepo.CountStaleUnapproved(ctx, cutoff)
		if err != nil {
			return err
		}
		quotations, err = s.quotationRepo.CountStaleUnapproved(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count stale pending documents: %w", err)
	}

	if orders == 0 && quotations == 0 {
		return 0, 0, nil
	}

	message := fmt.Sprintf("%d order(s) and %d quotation(s) are still awaiting approval", orders, quotations)
	s.notify(ctx, domain.RoleSupervisor, "Pending Approvals", message)
	s.notify(ctx, domain.RoleManager, "Pending Approvals", message)

	return orders, quotations, nil
}

func (s *ReminderService) notify(ctx context.Context, role domain.StaffRole, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, role, title, message); err != nil {
		s.logger.Warn("reminder dispatch failed",
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
}
