// Package unitofwork binds the RBAC store and the metadata ledgers to a single
// bun connection or transaction.
package unitofwork

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/rbac"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

// Bun implements repository.UnitOfWork on a *bun.DB.
type Bun struct {
	db *bun.DB
}

var _ repository.UnitOfWork = (*Bun)(nil)

// New returns a unit of work factory for db.
func New(db *bun.DB) *Bun {
	return &Bun{db: db}
}

// Read runs fn with stores bound to the pool. Each call loads the authorization
// policy afresh; nothing is cached between calls.
func (u *Bun) Read(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	stores, err := newStores(ctx, u.db)
	if err != nil {
		return err
	}
	return fn(ctx, stores)
}

// InTx runs fn inside a transaction. Returning an error from fn rolls back the
// role rows, the casbin policies and both ledgers together.
func (u *Bun) InTx(ctx context.Context, fn func(ctx context.Context, s repository.Stores) error) error {
	return u.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stores, err := newStores(ctx, tx)
		if err != nil {
			return err
		}
		return fn(ctx, stores)
	})
}

func newStores(ctx context.Context, db bun.IDB) (repository.Stores, error) {
	store, err := rbac.NewStore(ctx, db)
	if err != nil {
		return repository.Stores{}, fmt.Errorf("open rbac store: %w", err)
	}
	return repository.Stores{
		RBAC:           store,
		RoleMeta:       repository.NewBunRoleMetaRepository(db),
		PermissionMeta: repository.NewBunPermissionMetaRepository(db),
		Users:          repository.NewBunUserRepository(db),
	}, nil
}
