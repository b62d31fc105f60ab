package server

import (
	"context"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/permissions"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

// roleManager is the role lifecycle surface the handlers depend on.
type roleManager interface {
	List(ctx context.Context, q roles.ListQuery) (*roles.RoleList, error)
	Create(ctx context.Context, in roles.RoleInput) (*roles.RoleRef, error)
	EditLoad(ctx context.Context, roleID string) (*roles.RoleForEdit, error)
	Update(ctx context.Context, roleID string, in roles.RoleInput) (*roles.RoleRef, error)
	Delete(ctx context.Context, roleID string) error
	Clone(ctx context.Context, roleID string) (*roles.RoleRef, error)
	Stats(ctx context.Context, roleID string) (*roles.RoleStats, error)
}

type permissionCatalog interface {
	ListByCategory(ctx context.Context) ([]permissions.Group, error)
}

var (
	_ roleManager       = (*roles.Manager)(nil)
	_ permissionCatalog = (*permissions.Service)(nil)
)
