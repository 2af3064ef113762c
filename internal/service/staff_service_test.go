package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/identity"
	"github.com/northpeak/logistics-api/internal/mailer"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/northpeak/logistics-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeIdentity provisions predictable external ids and records deletes.
type fakeIdentity struct {
	created   int
	deleted   []string
	createErr error
}

var _ identity.Provider = (*fakeIdentity)(nil)

func (f *fakeIdentity) CreateUser(_ context.Context, _, _, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	return fmt.Sprintf("ext-%d", f.created), nil
}

func (f *fakeIdentity) UpdateUser(_ context.Context, _, _, _ string) error { return nil }

func (f *fakeIdentity) DeleteUser(_ context.Context, externalID string) error {
	f.deleted = append(f.deleted, externalID)
	return nil
}

type fakeMailer struct {
	welcomed []string
	err      error
}

var _ mailer.Mailer = (*fakeMailer)(nil)

func (f *fakeMailer) SendWelcome(_ context.Context, _, email string) error {
	if f.err != nil {
		return f.err
	}
	f.welcomed = append(f.welcomed, email)
	return nil
}

func newStaffService(db *gorm.DB, idp identity.Provider, mail mailer.Mailer) *service.StaffService {
	return service.NewStaffService(repository.NewStaffRepository(db), idp, mail, testRetry(), zap.NewNop())
}

func TestStaffRegisterProvisionsIdentity(t *testing.T) {
	db := openTestDB(t)
	idp := &fakeIdentity{}
	mail := &fakeMailer{}
	svc := newStaffService(db, idp, mail)
	ctx := context.Background()

	dto, err := svc.Register(ctx, &domain.CreateStaffRequest{
		Name:  "Sara",
		Email: "sara@northpeak.example",
		Role:  "supervisor",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupervisor, dto.Role)
	assert.True(t, dto.Active)
	assert.Equal(t, 1, idp.created)
	assert.Equal(t, []string{"sara@northpeak.example"}, mail.welcomed)

	var stored domain.StaffUser
	require.NoError(t, db.First(&stored, "id = ?", dto.ID).Error)
	assert.Equal(t, "ext-1", stored.ExternalID)
}

func TestStaffRegisterKeepsSuppliedExternalID(t *testing.T) {
	db := openTestDB(t)
	idp := &fakeIdentity{}
	svc := newStaffService(db, idp, nil)

	dto, err := svc.Register(context.Background(), &domain.CreateStaffRequest{
		Name:       "Sara",
		Email:      "sara@northpeak.example",
		Role:       "manager",
		ExternalID: "ext-existing",
	})
	require.NoError(t, err)
	assert.Zero(t, idp.created)

	var stored domain.StaffUser
	require.NoError(t, db.First(&stored, "id = ?", dto.ID).Error)
	assert.Equal(t, "ext-existing", stored.ExternalID)
}

func TestStaffRegisterRejectsDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	svc := newStaffService(db, nil, nil)
	seedStaff(t, db, domain.RoleDriver, "sara@northpeak.example", "")

	_, err := svc.Register(context.Background(), &domain.CreateStaffRequest{
		Name:  "Sara",
		Email: "sara@northpeak.example",
		Role:  "driver",
	})
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)
}

func TestStaffRegisterFailsWhenIdentityProviderFails(t *testing.T) {
	db := openTestDB(t)
	idp := &fakeIdentity{createErr: errors.New("idp down")}
	svc := newStaffService(db, idp, nil)

	_, err := svc.Register(context.Background(), &domain.CreateStaffRequest{
		Name:  "Sara",
		Email: "sara@northpeak.example",
		Role:  "driver",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.StaffUser{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStaffRegisterSurvivesMailerFailure(t *testing.T) {
	db := openTestDB(t)
	mail := &fakeMailer{err: errors.New("smtp relay down")}
	svc := newStaffService(db, nil, mail)

	_, err := svc.Register(context.Background(), &domain.CreateStaffRequest{
		Name:  "Sara",
		Email: "sara@northpeak.example",
		Role:  "driver",
	})
	assert.NoError(t, err)
}

func TestStaffRegisterToken(t *testing.T) {
	db := openTestDB(t)
	svc := newStaffService(db, nil, nil)
	seedStaff(t, db, domain.RoleDriver, "driver@northpeak.example", "")
	ctx := context.Background()

	err := svc.RegisterToken(ctx, &domain.RegisterTokenRequest{
		Email:    "driver@northpeak.example",
		Role:     "driver",
		FCMToken: "token-9",
	})
	require.NoError(t, err)

	var stored domain.StaffUser
	require.NoError(t, db.First(&stored, "email = ?", "driver@northpeak.example").Error)
	assert.Equal(t, "token-9", stored.FCMToken)

	// Same email, wrong role
	err = svc.RegisterToken(ctx, &domain.RegisterTokenRequest{
		Email:    "driver@northpeak.example",
		Role:     "manager",
		FCMToken: "token-9",
	})
	assert.ErrorIs(t, err, service.ErrStaffNotFound)
}

func TestStaffListPaginates(t *testing.T) {
	db := openTestDB(t)
	svc := newStaffService(db, nil, nil)

	for i := 0; i < 3; i++ {
		seedStaff(t, db, domain.RoleDriver, fmt.Sprintf("driver%d@northpeak.example", i), "")
	}

	staff, total, err := svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, staff, 1)
}

func TestStaffDeleteRemovesExternalIdentity(t *testing.T) {
	db := openTestDB(t)
	idp := &fakeIdentity{}
	svc := newStaffService(db, idp, nil)
	ctx := context.Background()

	staff := seedStaff(t, db, domain.RoleDriver, "driver@northpeak.example", "")
	require.NoError(t, db.Model(staff).Update("external_id", "ext-7").Error)

	require.NoError(t, svc.Delete(ctx, staff.ID))
	assert.Equal(t, []string{"ext-7"}, idp.deleted)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), service.ErrStaffNotFound)
}
