package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staffPayload(email string) map[string]string {
	return map[string]string{
		"name":  "Sara",
		"email": email,
		"role":  "supervisor",
	}
}

func TestStaffRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff", staffPayload("sara@northpeak.example"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var dto domain.StaffDTO
	decodeBody(t, rec, &dto)
	assert.Equal(t, domain.RoleSupervisor, dto.Role)
	assert.True(t, dto.Active)
}

func TestStaffRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff", staffPayload("sara@northpeak.example"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/staff", staffPayload("sara@northpeak.example"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStaffRegisterRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	payload := staffPayload("sara@northpeak.example")
	payload["role"] = "janitor"

	rec := env.do(t, http.MethodPost, "/api/staff", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "role")
}

func TestStaffListEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff", staffPayload("sara@northpeak.example"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Staff      []domain.StaffDTO `json:"staff"`
		TotalCount int64             `json:"totalCount"`
	}
	decodeBody(t, rec, &resp)
	assert.EqualValues(t, 1, resp.TotalCount)
	require.Len(t, resp.Staff, 1)
}

func TestStaffDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/staff", staffPayload("sara@northpeak.example"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var dto domain.StaffDTO
	decodeBody(t, rec, &dto)

	rec = env.do(t, http.MethodDelete, "/api/staff/"+dto.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/staff/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)

	staff := &domain.StaffUser{
		Name:   "Dina",
		Email:  "dina@northpeak.example",
		Role:   domain.RoleDriver,
		Active: true,
	}
	require.NoError(t, env.db.Create(staff).Error)

	rec := env.do(t, http.MethodPost, "/api/fcm-token", map[string]string{
		"email":    "dina@northpeak.example",
		"role":     "driver",
		"fcmToken": "token-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Token registered"}`, rec.Body.String())

	var stored domain.StaffUser
	require.NoError(t, env.db.First(&stored, "id = ?", staff.ID).Error)
	assert.Equal(t, "token-1", stored.FCMToken)
}

func TestRegisterTokenUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/fcm-token", map[string]string{
		"email":    "ghost@northpeak.example",
		"role":     "driver",
		"fcmToken": "token-1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No staff user matches")
}

func TestRegisterTokenValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/fcm-token", map[string]string{
		"email":    "not-an-email",
		"role":     "driver",
		"fcmToken": "token-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}
