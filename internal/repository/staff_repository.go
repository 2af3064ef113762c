package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"gorm.io/gorm"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(ctx context.Context, staff *domain.StaffUser) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StaffUser, error) {
	var staff domain.StaffUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	var staff domain.StaffUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// ListActiveByRole returns every active account of a role. The
// dispatcher reads its recipients here.
func (r *StaffRepository) ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffUser, error) {
	var staff []domain.StaffUser
	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ?", role, true).
		Find(&staff).Error
	return staff, err
}

// UpdateFCMToken binds a push token to the account matching email and
// role. Returns the number of rows matched so the caller can 404 on an
// unknown account.
func (r *StaffRepository) UpdateFCMToken(ctx context.Context, email string, role domain.StaffRole, token string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.StaffUser{}).
		Where("email = ? AND role = ?", email, role).
		Update("fcm_token", token)
	return result.RowsAffected, result.Error
}

func (r *StaffRepository) List(ctx context.Context, page, pageSize int) ([]domain.StaffUser, int64, error) {
	var staff []domain.StaffUser
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.StaffUser{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&staff).Error
	return staff, total, err
}

func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.StaffUser{}, "id = ?", id).Error
}
