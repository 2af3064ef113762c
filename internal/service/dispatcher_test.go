package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/push"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/northpeak/logistics-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSender records pushed tokens and fails the ones listed in failing.
type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	failing map[string]bool
}

var _ push.Sender = (*fakeSender)(nil)

func (f *fakeSender) Send(_ context.Context, token, _, _ string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[token] {
		return errors.New("device unreachable")
	}
	f.sent = append(f.sent, token)
	return nil
}

func TestDispatchSendsToActiveRoleMembersWithTokens(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{}
	d := service.NewDispatcher(repository.NewStaffRepository(db), nil, sender, zap.NewNop())

	seedStaff(t, db, domain.RoleSupervisor, "sup1@northpeak.example", "token-1")
	seedStaff(t, db, domain.RoleSupervisor, "sup2@northpeak.example", "token-2")
	// No token registered, must be skipped
	seedStaff(t, db, domain.RoleSupervisor, "sup3@northpeak.example", "")
	// Wrong role
	seedStaff(t, db, domain.RoleDriver, "driver@northpeak.example", "token-3")
	// Inactive
	inactive := seedStaff(t, db, domain.RoleSupervisor, "sup4@northpeak.example", "token-4")
	require.NoError(t, db.Model(inactive).Update("active", false).Error)

	err := d.Dispatch(context.Background(), domain.RoleSupervisor, "New Order", "Order NPO-2026-00001 is awaiting your approval")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"token-1", "token-2"}, sender.sent)
}

func TestDispatchNoRecipientsIsNoOp(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{}
	d := service.NewDispatcher(repository.NewStaffRepository(db), nil, sender, zap.NewNop())

	err := d.Dispatch(context.Background(), domain.RoleManager, "New Order", "msg")
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestDispatchToleratesPartialFailure(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{failing: map[string]bool{"token-1": true}}
	d := service.NewDispatcher(repository.NewStaffRepository(db), nil, sender, zap.NewNop())

	seedStaff(t, db, domain.RoleSupervisor, "sup1@northpeak.example", "token-1")
	seedStaff(t, db, domain.RoleSupervisor, "sup2@northpeak.example", "token-2")

	err := d.Dispatch(context.Background(), domain.RoleSupervisor, "New Order", "msg")
	require.NoError(t, err)
	assert.Equal(t, []string{"token-2"}, sender.sent)
}

func TestDispatchFailsWhenEverySendFails(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{failing: map[string]bool{"token-1": true, "token-2": true}}
	d := service.NewDispatcher(repository.NewStaffRepository(db), nil, sender, zap.NewNop())

	seedStaff(t, db, domain.RoleSupervisor, "sup1@northpeak.example", "token-1")
	seedStaff(t, db, domain.RoleSupervisor, "sup2@northpeak.example", "token-2")

	err := d.Dispatch(context.Background(), domain.RoleSupervisor, "New Order", "msg")
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}
