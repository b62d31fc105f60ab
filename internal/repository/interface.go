package repository

import (
	"context"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
)

// RBACStore holds roles, permissions and their associations with each other
// and with users. Permissions are read-only from the application's point of view.
type RBACStore interface {
	// Role lifecycle
	CreateRole(ctx context.Context, name, guard string) (*models.Role, error)
	DeleteRole(ctx context.Context, role *models.Role) error
	// RenameRole moves the role and its policies to newName and updates role.Name.
	RenameRole(ctx context.Context, role *models.Role, newName string) error

	// Role ↔ permission
	GrantPermissions(ctx context.Context, role *models.Role, names []string) error
	SyncPermissions(ctx context.Context, role *models.Role, names []string) error
	RolePermissions(ctx context.Context, role *models.Role) ([]string, error)
	CountPermissionsOfRole(ctx context.Context, role *models.Role) (int, error)

	// Role ↔ user
	CountUsersWithRole(ctx context.Context, role *models.Role) (int, error)
	AssignRole(ctx context.Context, userID string, role *models.Role) error
	RevokeRole(ctx context.Context, userID string, role *models.Role) error
	UserHasRole(ctx context.Context, userID, roleName string) (bool, error)
	UserHasPermission(ctx context.Context, userID, permission string) (bool, error)

	// Queries
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	FindRoleByID(ctx context.Context, id string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	ListPermissions(ctx context.Context) ([]models.Permission, error)
}

// RoleMetaRepository is the role metadata ledger, keyed by role name.
type RoleMetaRepository interface {
	GetByRoleName(ctx context.Context, roleName string) (*models.RoleMeta, error)
	List(ctx context.Context) ([]models.RoleMeta, error)
	// Upsert inserts the row or overwrites description, is_core,
	// last_modified_by and metadata. created_by is kept from the first insert.
	Upsert(ctx context.Context, meta *models.RoleMeta) error
	Rename(ctx context.Context, oldName, newName string) error
	DeleteByRoleName(ctx context.Context, roleName string) error
}

// PermissionMetaRepository is the permission metadata ledger.
type PermissionMetaRepository interface {
	GetByPermissionName(ctx context.Context, name string) (*models.PermissionMeta, error)
	List(ctx context.Context) ([]models.PermissionMeta, error)
}

// UserRepository exposes the user directory.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// Stores groups the repositories bound to a single connection or transaction.
type Stores struct {
	RBAC           RBACStore
	RoleMeta       RoleMetaRepository
	PermissionMeta PermissionMetaRepository
	Users          UserRepository
}

// UnitOfWork hands out Stores bound to one connection.
//
// InTx runs fn inside a transaction: if fn returns an error every write made
// through the Stores is rolled back, otherwise all of them commit together.
// Read runs fn without a transaction and must not be used for writes.
type UnitOfWork interface {
	Read(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
