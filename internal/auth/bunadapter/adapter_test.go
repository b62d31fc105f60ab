package bunadapter_test

import (
	"context"
	"testing"

	"github.com/casbin/casbin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth/bunadapter"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/dbtest"
)

func TestAdapter_AutoSaveThroughEnforcer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := dbtest.NewDB(t)

	m, err := auth.NewModel()
	require.NoError(t, err)
	e, err := casbin.NewEnforcer(m, bunadapter.NewAdapter(ctx, db))
	require.NoError(t, err)

	_, err = e.AddPolicy("role:clerk", "units.view")
	require.NoError(t, err)
	_, err = e.AddGroupingPolicy("user:u1", "role:clerk")
	require.NoError(t, err)

	// A second enforcer sees only what reached the table.
	m2, err := auth.NewModel()
	require.NoError(t, err)
	e2, err := casbin.NewEnforcer(m2, bunadapter.NewAdapter(ctx, db))
	require.NoError(t, err)

	ok, err := e2.Enforce("user:u1", "units.view")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.RemoveFilteredPolicy(0, "role:clerk")
	require.NoError(t, err)
	require.NoError(t, e2.LoadPolicy())
	ok, err = e2.Enforce("user:u1", "units.view")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapter_UpdateFilteredPolicies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := dbtest.NewDB(t)
	a := bunadapter.NewAdapter(ctx, db)

	require.NoError(t, a.AddPolicies("p", "p", [][]string{{"role:clerk", "units.view"}, {"role:clerk", "units.manage"}}))

	removed, err := a.UpdateFilteredPolicies("p", "p", [][]string{{"role:clerk", "reports.view"}}, 0, "role:clerk")
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]string{{"role:clerk", "units.view"}, {"role:clerk", "units.manage"}}, removed)

	var rules []bunadapter.CasbinRule
	require.NoError(t, db.NewSelect().Model(&rules).Where("v0 = ?", "role:clerk").Scan(ctx))
	require.Len(t, rules, 1)
	assert.Equal(t, "reports.view", rules[0].V1)
	assert.Equal(t, "p, role:clerk, reports.view", rules[0].String())
}
