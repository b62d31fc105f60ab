package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth/bunadapter"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/bunx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
)

// GuardName is the guard recorded on seeded roles and permissions.
const GuardName = "web"

// SystemUserEmail identifies the account that seed data is attributed to.
const SystemUserEmail = "system@timetable.local"

func init() {
	Migrations.MustRegister(up_20260105090100, down_20260105090100)
}

// up_20260105090100 seeds the permission catalog, its ledger rows, the core
// roles, their ledger rows and their casbin policies.
func up_20260105090100(ctx context.Context, db *bun.DB) error {
	now := time.Now().UTC()

	fmt.Print(" [up] seeding system user...")
	system := &models.User{
		ID:        bunx.NewUUIDv7(),
		Name:      "System",
		Email:     SystemUserEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.NewInsert().Model(system).On("CONFLICT (email) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed system user: %w", err)
	}
	if err := db.NewSelect().Model(system).Where("email = ?", SystemUserEmail).Scan(ctx); err != nil {
		return fmt.Errorf("failed to load system user: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] seeding permissions...")
	for _, seed := range auth.PermissionCatalog {
		perm := &models.Permission{
			ID:        bunx.NewUUIDv7(),
			Name:      seed.Name,
			GuardName: GuardName,
			CreatedAt: now,
		}
		if _, err := db.NewInsert().Model(perm).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", seed.Name, err)
		}

		meta := &models.PermissionMeta{
			ID:             bunx.NewUUIDv7(),
			PermissionName: seed.Name,
			Description:    seed.Description,
			IsCore:         seed.IsCore,
			Category:       seed.Category,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := db.NewInsert().Model(meta).On("CONFLICT (permission_name) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed permission meta %s: %w", seed.Name, err)
		}
	}
	fmt.Println(" OK")

	fmt.Print(" [up] seeding core roles...")
	for _, seed := range auth.CoreRoleSeeds() {
		role := &models.Role{
			ID:        bunx.NewUUIDv7(),
			Name:      seed.Name,
			GuardName: GuardName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := db.NewInsert().Model(role).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", seed.Name, err)
		}

		meta := &models.RoleMeta{
			ID:          bunx.NewUUIDv7(),
			RoleName:    seed.Name,
			Description: seed.Description,
			IsCore:      true,
			CreatedBy:   &system.ID,
			Metadata: models.Metadata{
				"channel":          "seed",
				"created_at":       now.Format(time.RFC3339),
				"permission_count": len(seed.Permissions),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := db.NewInsert().Model(meta).On("CONFLICT (role_name) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("failed to seed role meta %s: %w", seed.Name, err)
		}

		rules := make([]*bunadapter.CasbinRule, 0, len(seed.Permissions))
		for _, perm := range seed.Permissions {
			rules = append(rules, bunadapter.NewRule("p", auth.RoleID(seed.Name), perm))
		}
		if len(rules) > 0 {
			if _, err := db.NewInsert().Model(&rules).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed policies for %s: %w", seed.Name, err)
			}
		}
	}
	fmt.Println(" OK")

	fmt.Print(" [up] granting super-admin to system user...")
	grant := bunadapter.NewRule("g", auth.UserID(system.ID), auth.RoleID("super-admin"))
	if _, err := db.NewInsert().Model(grant).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("failed to grant super-admin: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

func down_20260105090100(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing seeded RBAC data...")

	seeds := auth.CoreRoleSeeds()
	roleNames := make([]string, 0, len(seeds))
	subjects := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		roleNames = append(roleNames, seed.Name)
		subjects = append(subjects, auth.RoleID(seed.Name))
	}

	steps := []struct {
		what string
		q    *bun.DeleteQuery
	}{
		{"core role policies", db.NewDelete().Model((*bunadapter.CasbinRule)(nil)).
			WhereOr("v0 IN (?)", bun.In(subjects)).WhereOr("v1 IN (?)", bun.In(subjects))},
		{"core role meta", db.NewDelete().Model((*models.RoleMeta)(nil)).Where("role_name IN (?)", bun.In(roleNames))},
		{"core roles", db.NewDelete().Model((*models.Role)(nil)).Where("name IN (?)", bun.In(roleNames))},
		{"permission meta", db.NewDelete().Model((*models.PermissionMeta)(nil)).Where("permission_name IN (?)", bun.In(auth.AllPermissionNames()))},
		{"permissions", db.NewDelete().Model((*models.Permission)(nil)).Where("name IN (?)", bun.In(auth.AllPermissionNames()))},
		{"system user", db.NewDelete().Model((*models.User)(nil)).Where("email = ?", SystemUserEmail)},
	}
	for _, step := range steps {
		if _, err := step.q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to remove %s: %w", step.what, err)
		}
	}

	fmt.Println(" OK")
	return nil
}
