package service

import (
	"context"
	"fmt"

	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/push"
	"github.com/northpeak/logistics-api/internal/repository"
	"go.uber.org/zap"
)

// Notifier fans a message out to every active account of a role.
// Callers run it after their transaction commits; a dispatch failure
// never rolls committed business state back.
type Notifier interface {
	Dispatch(ctx context.Context, role domain.StaffRole, title, message string) error
}

// Dispatcher resolves recipients from the staff table and pushes one
// message per registered device token.
type Dispatcher struct {
	staffRepo *repository.StaffRepository
	logRepo   *repository.NotificationLogRepository
	sender    push.Sender
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. logRepo may be nil; the audit
// trail is best-effort.
func NewDispatcher(
	staffRepo *repository.StaffRepository,
	logRepo *repository.NotificationLogRepository,
	sender push.Sender,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		staffRepo: staffRepo,
		logRepo:   logRepo,
		sender:    sender,
		logger:    logger,
	}
}

// Dispatch sends {title, message} to every active member of role that
// has a registered token. No recipients is a logged no-op, not an
// error. Individual send failures are logged and counted; an error is
// returned only when every send failed, and even then the caller is
// expected to treat it as non-fatal.
func (d *Dispatcher) Dispatch(ctx context.Context, role domain.StaffRole, title, message string) error {
	staff, err := d.staffRepo.ListActiveByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients for role %s: %w", role, err)
	}

	tokens := make([]string, 0, len(staff))
	for _, s := range staff {
		if s.FCMToken != "" {
			tokens = append(tokens, s.FCMToken)
		}
	}

	if len(tokens) == 0 {
		d.logger.Info("no notification recipients for role, skipping dispatch",
			zap.String("role", string(role)),
			zap.String("title", title),
		)
		return nil
	}

	data := map[string]string{"role": string(role)}

	sent := 0
	failed := 0
	for _, token := range tokens {
		if err := d.sender.Send(ctx, token, title, message, data); err != nil {
			failed++
			d.logger.Warn("push send failed",
				zap.String("role", string(role)),
				zap.String("title", title),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	d.audit(ctx, role, title, message, tokens, sent, failed)

	d.logger.Info("notification round dispatched",
		zap.String("role", string(role)),
		zap.String("title", title),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
	)

	if sent == 0 {
		return fmt.Errorf("all %d push sends failed for role %s", failed, role)
	}
	return nil
}

func (d *Dispatcher) audit(ctx context.Context, role domain.StaffRole, title, message string, tokens []string, sent, failed int) {
	if d.logRepo == nil {
		return
	}
	entry := &domain.NotificationLog{
		Role:        role,
		Title:       title,
		Message:     message,
		Tokens:      tokens,
		SentCount:   sent,
		FailedCount: failed,
	}
	if err := d.logRepo.Create(ctx, entry); err != nil {
		d.logger.Warn("failed to write notification audit row", zap.Error(err))
	}
}
