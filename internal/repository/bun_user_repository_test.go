package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/dbtest"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/migrations"
)

func TestBunUserRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBunUserRepository(dbtest.NewDB(t))

	user := &models.User{Name: "Amina Otieno", Email: "amina@example.edu"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amina Otieno", got.Name)

	got, err = repo.GetByEmail(ctx, "amina@example.edu")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	err = repo.Create(ctx, &models.User{Name: "Other", Email: "amina@example.edu"})
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.GetByID(ctx, "0190c1c2-0000-7000-8000-00000000dead")
	require.ErrorIs(t, err, ErrNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	assert.ElementsMatch(t, []string{"amina@example.edu", migrations.SystemUserEmail}, emails)
}
