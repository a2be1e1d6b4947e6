package webserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicworks/legisrev/src/api/data"
	"github.com/civicworks/legisrev/src/api/types"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":        "new@example.com",
		"password":     "password123",
		"fullName":     "New Member",
		"organization": "Farmers Association",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	user := body["user"].(map[string]interface{})
	require.Equal(t, types.RoleMember, user["role"], "role defaults to MEMBER")
	require.NotContains(t, rr.Body.String(), "passwordHash")

	rr = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body = decodeBody(t, rr)
	require.NotEmpty(t, body["token"])

	token := body["token"].(string)
	rr = env.do(t, http.MethodGet, "/v1/bills", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@example.com", types.RoleMember)

	rr := env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "taken@example.com",
		"password": "password123",
		"fullName": "Other Person",
	})
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestDuplicateEmailRaceMapsTo409(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "raced@example.com", types.RoleMember)

	// a concurrent register that slips past the lookup hits the unique
	// index; the handler keys off the driver error for the 409
	err := env.db.Create(&types.User{
		Email:        "raced@example.com",
		PasswordHash: "x",
		FullName:     "Second Writer",
		Role:         types.RoleMember,
	}).Error
	require.Error(t, err)
	require.True(t, isUniqueViolation(err), "driver duplicate-key error not recognized: %v", err)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short password", map[string]string{"email": "a@b.com", "password": "short", "fullName": "A B"}},
		{"bad email", map[string]string{"email": "not-an-email", "password": "password123", "fullName": "A B"}},
		{"bad role", map[string]string{"email": "a@b.com", "password": "password123", "fullName": "A B", "role": "SUPERADMIN"}},
		{"missing name", map[string]string{"email": "a@b.com", "password": "password123"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/v1/auth/register", "", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestRegisterClosed(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.db.Model(&types.Setting{}).
		Where("name = ?", "registration_open").
		Update("value", "false").Error)
	require.NoError(t, data.RefreshSettings(env.db))
	t.Cleanup(func() {
		env.db.Model(&types.Setting{}).Where("name = ?", "registration_open").Update("value", "true")
		_ = data.RefreshSettings(env.db)
	})

	rr := env.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":    "late@example.com",
		"password": "password123",
		"fullName": "Late Comer",
	})
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "member@example.com", types.RoleMember)

	rr := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "member@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", types.RoleAdmin)
	member := env.createUser(t, "member@example.com", types.RoleMember)
	adminToken := env.tokenFor(t, admin)

	rr := env.do(t, http.MethodGet, "/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Len(t, body["users"], 2)

	rr = env.do(t, http.MethodPatch, "/v1/admin/users/"+member.ID+"/role", adminToken,
		map[string]string{"role": types.RoleObserver})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated types.User
	require.NoError(t, env.db.First(&updated, "id = ?", member.ID).Error)
	require.Equal(t, types.RoleObserver, updated.Role)

	// non-admins never reach the admin handlers
	memberToken := env.tokenFor(t, member)
	rr = env.do(t, http.MethodGet, "/v1/admin/users", memberToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDemotedAdminLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", types.RoleAdmin)
	token := env.tokenFor(t, admin)

	require.NoError(t, env.db.Model(&types.User{}).
		Where("id = ?", admin.ID).
		Update("role", types.RoleMember).Error)

	// the token still says ADMIN; the middleware checks the database
	rr := env.do(t, http.MethodGet, "/v1/admin/users", token, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
}
