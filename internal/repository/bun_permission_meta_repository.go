package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
)

// BunPermissionMetaRepository implements PermissionMetaRepository using Bun ORM
type BunPermissionMetaRepository struct {
	db bun.IDB
}

// NewBunPermissionMetaRepository creates a permission ledger repository.
func NewBunPermissionMetaRepository(db bun.IDB) *BunPermissionMetaRepository {
	return &BunPermissionMetaRepository{db: db}
}

func (r *BunPermissionMetaRepository) GetByPermissionName(ctx context.Context, name string) (*models.PermissionMeta, error) {
	meta := new(models.PermissionMeta)
	err := r.db.NewSelect().
		Model(meta).
		Where("permission_name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission meta %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get permission meta: %w", err)
	}
	return meta, nil
}

func (r *BunPermissionMetaRepository) List(ctx context.Context) ([]models.PermissionMeta, error) {
	var metas []models.PermissionMeta
	err := r.db.NewSelect().
		Model(&metas).
		Order("category ASC", "permission_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permission meta: %w", err)
	}
	return metas, nil
}
