package permissions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/bunx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/dbtest"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/logging"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/permissions"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/unitofwork"
)

func categoryIndex(category string) int {
	for i, c := range auth.PermissionCategories {
		if c.Category == category {
			return i
		}
	}
	return len(auth.PermissionCategories)
}

func TestListByCategory_SeededCatalog(t *testing.T) {
	t.Parallel()
	db := dbtest.NewDB(t)
	svc := permissions.NewService(unitofwork.New(db), logging.Discard())

	groups, err := svc.ListByCategory(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	total := 0
	last := -1
	for _, g := range groups {
		idx := categoryIndex(g.Category)
		assert.Greater(t, idx, last, "group %s out of order", g.Category)
		last = idx

		assert.Equal(t, auth.CategoryLabelFor(g.Category), g.Label)
		assert.NotEmpty(t, g.Permissions)
		total += len(g.Permissions)
	}
	assert.Equal(t, len(auth.PermissionCatalog), total)

	var rolesGroup *permissions.Group
	for i := range groups {
		if groups[i].Category == "roles" {
			rolesGroup = &groups[i]
		}
	}
	require.NotNil(t, rolesGroup)
	assert.Equal(t, "Role Management", rolesGroup.Label)

	names := make([]string, 0, len(rolesGroup.Permissions))
	for _, p := range rolesGroup.Permissions {
		names = append(names, p.Name)
		assert.True(t, p.IsCore)
	}
	assert.Equal(t, []string{auth.PermRolesCreate, auth.PermRolesDelete, auth.PermRolesEdit, auth.PermRolesView}, names)
}

func TestListByCategory_MissingAndUnknownCategories(t *testing.T) {
	t.Parallel()
	db := dbtest.NewDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	orphan := &models.Permission{ID: bunx.NewUUIDv7(), Name: "orphan.view", GuardName: "web", CreatedAt: now}
	custom := &models.Permission{ID: bunx.NewUUIDv7(), Name: "library.loans", GuardName: "web", CreatedAt: now}
	for _, p := range []*models.Permission{orphan, custom} {
		_, err := db.NewInsert().Model(p).Exec(ctx)
		require.NoError(t, err)
	}
	_, err := db.NewInsert().Model(&models.PermissionMeta{
		ID:             bunx.NewUUIDv7(),
		PermissionName: custom.Name,
		Description:    "Manage library loans",
		Category:       "zz_library",
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Exec(ctx)
	require.NoError(t, err)

	svc := permissions.NewService(unitofwork.New(db), logging.Discard())
	groups, err := svc.ListByCategory(ctx)
	require.NoError(t, err)

	lastGroup := groups[len(groups)-1]
	assert.Equal(t, "zz_library", lastGroup.Category)
	assert.Equal(t, "zz_library", lastGroup.Label)
	require.Len(t, lastGroup.Permissions, 1)
	assert.Equal(t, "Manage library loans", lastGroup.Permissions[0].Description)

	var general *permissions.Group
	for i := range groups {
		if groups[i].Category == models.DefaultPermissionCategory {
			general = &groups[i]
		}
	}
	require.NotNil(t, general)

	var found *permissions.Permission
	for i := range general.Permissions {
		if general.Permissions[i].Name == orphan.Name {
			found = &general.Permissions[i]
		}
	}
	require.NotNil(t, found, "permission without a ledger row belongs to general")
	assert.False(t, found.IsCore)
	assert.Empty(t, found.Description)
}
