// internal/services/user_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
)

func TestEnsureUser(t *testing.T) {
	svc := NewUserService(newTestStore(t))

	user, err := svc.EnsureUser("alice", "alice@example.com", "Alice Example")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "alice@example.com", user.Email)

	// A second sign-in returns the existing profile untouched.
	again, err := svc.EnsureUser("alice", "other@example.com", "Other Name")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", again.Email)
	assert.Equal(t, "Alice Example", again.FullName)
}

func TestGetUser(t *testing.T) {
	svc := NewUserService(newTestStore(t))
	_, err := svc.GetUser("nobody")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestSetRole(t *testing.T) {
	svc := NewUserService(newTestStore(t))
	_, err := svc.EnsureUser("alice", "", "")
	require.NoError(t, err)

	user, err := svc.SetRole("alice", models.RoleSupervisor)
	require.NoError(t, err)
	assert.True(t, user.IsSupervisor())

	got, err := svc.GetUser("alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSupervisor, got.Role)

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.SetRole("alice", "admin")
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.SetRole("nobody", models.RoleStudent)
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}
