package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/identity"
	"github.com/northpeak/logistics-api/internal/mailer"
	"github.com/northpeak/logistics-api/internal/mapper"
	"github.com/northpeak/logistics-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StaffService manages role-qualified staff accounts. Registration
// provisions an external identity when none is supplied; deletion
// removes the identity too. The welcome mail is best-effort.
type StaffService struct {
	staffRepo *repository.StaffRepository
	idp       identity.Provider
	mail      mailer.Mailer
	retry     *database.RetryPolicy
	logger    *zap.Logger
}

// NewStaffService creates a new StaffService
func NewStaffService(
	staffRepo *repository.StaffRepository,
	idp identity.Provider,
	mail mailer.Mailer,
	retry *database.RetryPolicy,
	logger *zap.Logger,
) *StaffService {
	return &StaffService{
		staffRepo: staffRepo,
		idp:       idp,
		mail:      mail,
		retry:     retry,
		logger:    logger,
	}
}

// Register creates a staff account. When no external identity
// reference is supplied, one is provisioned first; an identity
// provider failure blocks the registration since the account depends
// on it.
func (s *StaffService) Register(ctx context.Context, req *domain.CreateStaffRequest) (*domain.StaffDTO, error) {
	if _, err := s.staffRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	externalID := req.ExternalID
	if externalID == "" && s.idp != nil {
		id, err := s.idp.CreateUser(ctx, req.Name, req.Email, req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to provision identity: %w", err)
		}
		externalID = id
	}

	staff := &domain.StaffUser{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       domain.StaffRole(req.Role),
		ExternalID: externalID,
		Active:     true,
	}

	err := s.retry.Do(ctx, "staff.create", func(ctx context.Context) error {
		return s.staffRepo.Create(ctx, staff)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create staff user: %w", err)
	}

	s.logger.Info("staff user registered",
		zap.String("staff_id", staff.ID.String()),
		zap.String("role", string(staff.Role)),
	)

	if s.mail != nil {
		if err := s.mail.SendWelcome(ctx, staff.Name, staff.Email); err != nil {
			s.logger.Warn("welcome mail failed", zap.String("email", staff.Email), zap.Error(err))
		}
	}

	dto := mapper.ToStaffDTO(staff)
	return &dto, nil
}

// RegisterToken binds a push token to the account matching email and
// role. An unknown account is a not-found error.
func (s *StaffService) RegisterToken(ctx context.Context, req *domain.RegisterTokenRequest) error {
	var matched int64
	err := s.retry.Do(ctx, "staff.register_token", func(ctx context.Context) error {
		var err error
		matched, err = s.staffRepo.UpdateFCMToken(ctx, req.Email, domain.StaffRole(req.Role), req.FCMToken)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}
	if matched == 0 {
		return ErrStaffNotFound
	}

	s.logger.Info("notification token registered",
		zap.String("email", req.Email),
		zap.String("role", req.Role),
	)
	return nil
}

// List returns a paginated staff listing
func (s *StaffService) List(ctx context.Context, page, limit int) ([]domain.StaffDTO, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	var staff []domain.StaffUser
	var total int64
	err := s.retry.Do(ctx, "staff.list", func(ctx context.Context) error {
		var err error
		staff, total, err = s.staffRepo.List(ctx, page, limit)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list staff: %w", err)
	}

	dtos := make([]domain.StaffDTO, len(staff))
	for i := range staff {
		dtos[i] = mapper.ToStaffDTO(&staff[i])
	}

	return dtos, total, nil
}

// Delete removes the account and its external identity
func (s *StaffService) Delete(ctx context.Context, id uuid.UUID) error {
	var staff *domain.StaffUser
	err := s.retry.Do(ctx, "staff.delete", func(ctx context.Context) error {
		var err error
		staff, err = s.staffRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.staffRepo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStaffNotFound
		}
		return fmt.Errorf("failed to delete staff user: %w", err)
	}

	if staff.ExternalID != "" && s.idp != nil {
		if err := s.idp.DeleteUser(ctx, staff.ExternalID); err != nil {
			s.logger.Warn("failed to delete external identity",
				zap.String("external_id", staff.ExternalID),
				zap.Error(err),
			)
		}
	}

	return nil
}
