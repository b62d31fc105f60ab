package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "role:exam-office", RoleID("exam-office"))
	assert.Equal(t, "user:42", UserID("42"))

	name, err := ExtractRoleID(RoleID("Timetable Clerk (Copy)"))
	require.NoError(t, err)
	assert.Equal(t, "Timetable Clerk (Copy)", name)

	id, err := ExtractUserID("user:42")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestExtract_WrongPrefix(t *testing.T) {
	t.Parallel()

	_, err := ExtractRoleID("user:42")
	require.ErrorContains(t, err, "expected prefix role:")

	_, err = ExtractUserID("role:admin")
	require.ErrorContains(t, err, "expected prefix user:")
}
