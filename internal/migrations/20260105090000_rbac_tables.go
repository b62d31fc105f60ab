package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth/bunadapter"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260105090000, down_20260105090000)
}

type tableSpec struct {
	name    string
	model   any
	indexes []string
}

func rbacTables() []tableSpec {
	return []tableSpec{
		{name: "users", model: (*models.User)(nil)},
		{name: "roles", model: (*models.Role)(nil)},
		{name: "permissions", model: (*models.Permission)(nil)},
		{
			name:  "casbin_rules",
			model: (*bunadapter.CasbinRule)(nil),
			indexes: []string{
				`CREATE INDEX IF NOT EXISTS idx_casbin_rules_ptype_v0 ON casbin_rules(ptype, v0)`,
				`CREATE INDEX IF NOT EXISTS idx_casbin_rules_ptype_v1 ON casbin_rules(ptype, v1)`,
			},
		},
		{
			name:  "role_meta",
			model: (*models.RoleMeta)(nil),
			indexes: []string{
				`CREATE INDEX IF NOT EXISTS idx_role_meta_is_core ON role_meta(is_core)`,
			},
		},
		{
			name:  "permission_meta",
			model: (*models.PermissionMeta)(nil),
			indexes: []string{
				`CREATE INDEX IF NOT EXISTS idx_permission_meta_category ON permission_meta(category)`,
			},
		},
	}
}

// up_20260105090000 creates the RBAC store tables and both metadata ledgers.
func up_20260105090000(ctx context.Context, db *bun.DB) error {
	for _, t := range rbacTables() {
		fmt.Printf(" [up] creating %s table...", t.name)
		if _, err := db.NewCreateTable().Model(t.model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
		for _, idx := range t.indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return fmt.Errorf("failed to create %s index: %w", t.name, err)
			}
		}
		fmt.Println(" OK")
	}
	return nil
}

func down_20260105090000(ctx context.Context, db *bun.DB) error {
	tables := rbacTables()
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		fmt.Printf(" [down] dropping %s table...", t.name)
		var err error
		if supportsCascade(db) {
			_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS ? CASCADE", bun.Ident(t.name))
		} else {
			_, err = db.NewDropTable().Model(t.model).IfExists().Exec(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to drop %s table: %w", t.name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
