package unitofwork_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/dbtest"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/unitofwork"
)

func TestInTx_RollsBackRoleAndLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uow := unitofwork.New(dbtest.NewDB(t))
	boom := errors.New("boom")

	err := uow.InTx(ctx, func(ctx context.Context, s repository.Stores) error {
		role, err := s.RBAC.CreateRole(ctx, "Invigilator", "web")
		require.NoError(t, err)
		require.NoError(t, s.RBAC.GrantPermissions(ctx, role, []string{"exam_rooms.view"}))
		require.NoError(t, s.RoleMeta.Upsert(ctx, &models.RoleMeta{RoleName: role.Name}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		_, err := s.RBAC.FindRoleByName(ctx, "Invigilator")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = s.RoleMeta.GetByRoleName(ctx, "Invigilator")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestManager_LifecycleOnSQLite(t *testing.T) {
	t.Parallel()
	uow := unitofwork.New(dbtest.NewDB(t))
	m, err := roles.NewManager(roles.Dependencies{UnitOfWork: uow}, roles.Config{
		CoreRoles: []string{"super-admin", "admin"},
	})
	require.NoError(t, err)
	ctx := auth.WithChannel(context.Background(), auth.ChannelCLI)

	created, err := m.Create(ctx, roles.RoleInput{
		Name:        "Exam Checker",
		Description: "Checks exam timetables",
		Permissions: []string{"exam_timetables.view", "exam_rooms.view"},
	})
	require.NoError(t, err)

	_, err = m.Create(ctx, roles.RoleInput{Name: "Exam Checker"})
	assert.ErrorIs(t, err, roles.ErrConflict)

	updated, err := m.Update(ctx, created.ID, roles.RoleInput{
		Name:        "Exam Auditor",
		Permissions: []string{"exam_timetables.view"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	edit, err := m.EditLoad(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exam Auditor", edit.Name)
	assert.Equal(t, []string{"exam_timetables.view"}, edit.Permissions)

	clone, err := m.Clone(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exam Auditor (Copy)", clone.Name)

	stats, err := m.Stats(ctx, clone.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PermissionsCount)
	assert.Zero(t, stats.UsersCount)

	require.NoError(t, m.Delete(ctx, created.ID))
	_, err = m.EditLoad(ctx, created.ID)
	assert.ErrorIs(t, err, roles.ErrNotFound)

	err = uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		_, err := s.RoleMeta.GetByRoleName(ctx, "Exam Auditor")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestManager_SeededCoreRolesAreProtected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uow := unitofwork.New(dbtest.NewDB(t))
	m, err := roles.NewManager(roles.Dependencies{UnitOfWork: uow}, roles.Config{})
	require.NoError(t, err)

	var lecturerID string
	err = uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		role, err := s.RBAC.FindRoleByName(ctx, "lecturer")
		if err != nil {
			return err
		}
		lecturerID = role.ID
		return nil
	})
	require.NoError(t, err)

	// the seed marks its roles core in the ledger even without configured names
	err = m.Delete(ctx, lecturerID)
	assert.ErrorIs(t, err, roles.ErrForbidden)
	_, err = m.EditLoad(ctx, lecturerID)
	assert.ErrorIs(t, err, roles.ErrForbidden)
}
