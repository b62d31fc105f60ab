// Package rbac implements the RBAC store on top of casbin.
//
// Roles and permissions are rows in the roles and permissions tables.
// Which permissions a role grants ("p, role:<name>, <perm>") and which roles a
// user holds ("g, user:<id>, role:<name>") are casbin policies persisted in
// casbin_rules. A Store is bound to one connection or transaction and loads
// the policy once when it is created; it is discarded with its unit of work.
package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/bunx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

// Store implements repository.RBACStore.
type Store struct {
	db       bun.IDB
	enforcer *casbin.Enforcer
}

var _ repository.RBACStore = (*Store)(nil)

// NewStore loads the casbin policy through db and returns a store bound to it.
func NewStore(ctx context.Context, db bun.IDB) (*Store, error) {
	enforcer, err := auth.NewEnforcer(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, enforcer: enforcer}, nil
}

// CreateRole inserts a role row. A name collision returns repository.ErrDuplicate.
func (s *Store) CreateRole(ctx context.Context, name, guard string) (*models.Role, error) {
	now := time.Now().UTC()
	role := &models.Role{
		ID:        bunx.NewUUIDv7(),
		Name:      name,
		GuardName: guard,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.db.NewInsert().Model(role).Exec(ctx); err != nil {
		if bunx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create role %q: %w", name, repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// DeleteRole removes the role row together with every policy that mentions it.
func (s *Store) DeleteRole(ctx context.Context, role *models.Role) error {
	roleID := auth.RoleID(role.Name)

	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(1, roleID); err != nil {
		return fmt.Errorf("remove role assignments: %w", err)
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, roleID); err != nil {
		return fmt.Errorf("remove role permissions: %w", err)
	}

	res, err := s.db.NewDelete().Model((*models.Role)(nil)).Where("id = ?", role.ID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("role %s: %w", role.ID, repository.ErrNotFound)
	}
	return nil
}

// RenameRole changes the role name and moves its policies to the new subject.
func (s *Store) RenameRole(ctx context.Context, role *models.Role, newName string) error {
	if role.Name == newName {
		return nil
	}
	oldID, newID := auth.RoleID(role.Name), auth.RoleID(newName)

	users, err := s.enforcer.GetUsersForRole(oldID)
	if err != nil {
		return fmt.Errorf("get role users: %w", err)
	}
	perms, err := s.rolePermissionNames(role.Name)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.NewUpdate().
		Model((*models.Role)(nil)).
		Set("name = ?", newName).
		Set("updated_at = ?", now).
		Where("id = ?", role.ID).
		Exec(ctx)
	if err != nil {
		if bunx.IsUniqueViolation(err) {
			return fmt.Errorf("rename role to %q: %w", newName, repository.ErrDuplicate)
		}
		return fmt.Errorf("rename role: %w", err)
	}

	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(1, oldID); err != nil {
		return fmt.Errorf("remove old role assignments: %w", err)
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, oldID); err != nil {
		return fmt.Errorf("remove old role permissions: %w", err)
	}
	if len(perms) > 0 {
		if _, err := s.enforcer.AddPoliciesEx(policyRules(newID, perms)); err != nil {
			return fmt.Errorf("move role permissions: %w", err)
		}
	}
	if len(users) > 0 {
		rules := make([][]string, 0, len(users))
		for _, u := range users {
			rules = append(rules, []string{u, newID})
		}
		if _, err := s.enforcer.AddGroupingPoliciesEx(rules); err != nil {
			return fmt.Errorf("move role assignments: %w", err)
		}
	}

	role.Name = newName
	role.UpdatedAt = now
	return nil
}

// GrantPermissions adds names to the role's permission set.
func (s *Store) GrantPermissions(ctx context.Context, role *models.Role, names []string) error {
	if err := s.requireKnownPermissions(ctx, names); err != nil {
		return err
	}
	current, err := s.rolePermissionNames(role.Name)
	if err != nil {
		return err
	}

	missing := difference(dedupe(names), current)
	if len(missing) == 0 {
		return nil
	}
	if _, err := s.enforcer.AddPolicies(policyRules(auth.RoleID(role.Name), missing)); err != nil {
		return fmt.Errorf("grant permissions: %w", err)
	}
	return nil
}

// SyncPermissions makes the role's permission set exactly names.
func (s *Store) SyncPermissions(ctx context.Context, role *models.Role, names []string) error {
	if err := s.requireKnownPermissions(ctx, names); err != nil {
		return err
	}
	current, err := s.rolePermissionNames(role.Name)
	if err != nil {
		return err
	}

	want := dedupe(names)
	roleID := auth.RoleID(role.Name)

	if stale := difference(current, want); len(stale) > 0 {
		if _, err := s.enforcer.RemovePolicies(policyRules(roleID, stale)); err != nil {
			return fmt.Errorf("revoke permissions: %w", err)
		}
	}
	if missing := difference(want, current); len(missing) > 0 {
		if _, err := s.enforcer.AddPolicies(policyRules(roleID, missing)); err != nil {
			return fmt.Errorf("grant permissions: %w", err)
		}
	}
	return nil
}

// RolePermissions returns the permission names granted to role, sorted.
func (s *Store) RolePermissions(_ context.Context, role *models.Role) ([]string, error) {
	perms, err := s.rolePermissionNames(role.Name)
	if err != nil {
		return nil, err
	}
	sort.Strings(perms)
	return perms, nil
}

func (s *Store) CountPermissionsOfRole(_ context.Context, role *models.Role) (int, error) {
	perms, err := s.rolePermissionNames(role.Name)
	if err != nil {
		return 0, err
	}
	return len(perms), nil
}

func (s *Store) CountUsersWithRole(_ context.Context, role *models.Role) (int, error) {
	users, err := s.enforcer.GetUsersForRole(auth.RoleID(role.Name))
	if err != nil {
		return 0, fmt.Errorf("get role users: %w", err)
	}
	return len(users), nil
}

// AssignRole grants role to the user. Assigning a held role is a no-op.
func (s *Store) AssignRole(_ context.Context, userID string, role *models.Role) error {
	if _, err := s.enforcer.AddRoleForUser(auth.UserID(userID), auth.RoleID(role.Name)); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// RevokeRole removes role from the user. Revoking an unheld role is a no-op.
func (s *Store) RevokeRole(_ context.Context, userID string, role *models.Role) error {
	if _, err := s.enforcer.DeleteRoleForUser(auth.UserID(userID), auth.RoleID(role.Name)); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *Store) UserHasRole(_ context.Context, userID, roleName string) (bool, error) {
	ok, err := s.enforcer.HasRoleForUser(auth.UserID(userID), auth.RoleID(roleName))
	if err != nil {
		return false, fmt.Errorf("check user role: %w", err)
	}
	return ok, nil
}

func (s *Store) UserHasPermission(_ context.Context, userID, permission string) (bool, error) {
	ok, err := s.enforcer.Enforce(auth.UserID(userID), permission)
	if err != nil {
		return false, fmt.Errorf("enforce: %w", err)
	}
	return ok, nil
}

// FindRoleByName returns the role with exactly this name or repository.ErrNotFound.
func (s *Store) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	role := new(models.Role)
	err := s.db.NewSelect().Model(role).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return role, nil
}

// FindRoleByID returns the role with this id or repository.ErrNotFound.
func (s *Store) FindRoleByID(ctx context.Context, id string) (*models.Role, error) {
	role := new(models.Role)
	err := s.db.NewSelect().Model(role).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find role by id: %w", err)
	}
	return role, nil
}

// ListRoles returns every role ordered by name.
func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.NewSelect().Model(&roles).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// ListPermissions returns every permission ordered by name.
func (s *Store) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := s.db.NewSelect().Model(&perms).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

func (s *Store) rolePermissionNames(roleName string) ([]string, error) {
	rules, err := s.enforcer.GetPermissionsForUser(auth.RoleID(roleName))
	if err != nil {
		return nil, fmt.Errorf("get role permissions: %w", err)
	}
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 1 {
			names = append(names, rule[1])
		}
	}
	return names, nil
}

func (s *Store) requireKnownPermissions(ctx context.Context, names []string) error {
	want := dedupe(names)
	if len(want) == 0 {
		return nil
	}

	var found []string
	err := s.db.NewSelect().
		Model((*models.Permission)(nil)).
		Column("name").
		Where("name IN (?)", bun.In(want)).
		Scan(ctx, &found)
	if err != nil {
		return fmt.Errorf("check permissions: %w", err)
	}

	if unknown := difference(want, found); len(unknown) > 0 {
		return fmt.Errorf("%w: %s", repository.ErrUnknownPermission, unknown[0])
	}
	return nil
}

func policyRules(roleID string, perms []string) [][]string {
	rules := make([][]string, 0, len(perms))
	for _, p := range perms {
		rules = append(rules, []string{roleID, p})
	}
	return rules
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// difference returns the members of a that are not in b, keeping a's order.
func difference(a, b []string) []string {
	drop := make(map[string]struct{}, len(b))
	for _, v := range b {
		drop[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := drop[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
