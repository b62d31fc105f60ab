package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/bunx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
)

// BunRoleMetaRepository implements RoleMetaRepository using Bun ORM
type BunRoleMetaRepository struct {
	db bun.IDB
}

// NewBunRoleMetaRepository creates a role ledger repository on db (a *bun.DB or bun.Tx).
func NewBunRoleMetaRepository(db bun.IDB) *BunRoleMetaRepository {
	return &BunRoleMetaRepository{db: db}
}

// GetByRoleName returns the ledger row for roleName or ErrNotFound.
func (r *BunRoleMetaRepository) GetByRoleName(ctx context.Context, roleName string) (*models.RoleMeta, error) {
	meta := new(models.RoleMeta)
	err := r.db.NewSelect().
		Model(meta).
		Where("role_name = ?", roleName).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role meta %q: %w", roleName, ErrNotFound)
		}
		return nil, fmt.Errorf("get role meta: %w", err)
	}
	return meta, nil
}

// List returns every ledger row ordered by role name.
func (r *BunRoleMetaRepository) List(ctx context.Context) ([]models.RoleMeta, error) {
	var metas []models.RoleMeta
	err := r.db.NewSelect().
		Model(&metas).
		Order("role_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list role meta: %w", err)
	}
	return metas, nil
}

// Upsert writes the ledger row for meta.RoleName.
func (r *BunRoleMetaRepository) Upsert(ctx context.Context, meta *models.RoleMeta) error {
	now := time.Now().UTC()
	if meta.ID == "" {
		meta.ID = bunx.NewUUIDv7()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	if meta.Metadata == nil {
		meta.Metadata = models.Metadata{}
	}

	_, err := r.db.NewInsert().
		Model(meta).
		On("CONFLICT (role_name) DO UPDATE").
		Set("description = EXCLUDED.description").
		Set("is_core = EXCLUDED.is_core").
		Set("last_modified_by = EXCLUDED.last_modified_by").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert role meta: %w", err)
	}
	return nil
}

// Rename re-keys the ledger row from oldName to newName. A missing row is not
// an error: roles created outside the manager may have none.
func (r *BunRoleMetaRepository) Rename(ctx context.Context, oldName, newName string) error {
	_, err := r.db.NewUpdate().
		Model((*models.RoleMeta)(nil)).
		Set("role_name = ?", newName).
		Set("updated_at = ?", time.Now().UTC()).
		Where("role_name = ?", oldName).
		Exec(ctx)
	if err != nil {
		if bunx.IsUniqueViolation(err) {
			return fmt.Errorf("rename role meta to %q: %w", newName, ErrDuplicate)
		}
		return fmt.Errorf("rename role meta: %w", err)
	}
	return nil
}

// DeleteByRoleName removes the ledger row for roleName if there is one.
func (r *BunRoleMetaRepository) DeleteByRoleName(ctx context.Context, roleName string) error {
	_, err := r.db.NewDelete().
		Model((*models.RoleMeta)(nil)).
		Where("role_name = ?", roleName).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete role meta: %w", err)
	}
	return nil
}
