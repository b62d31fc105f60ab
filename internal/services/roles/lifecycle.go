package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/audit"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/telemetry"
)

// Create adds a dynamic role with the given permissions.
//
// Fails with ErrValidation for a bad name or an unknown permission and with
// ErrConflict when a role with exactly this name exists. The ledger row is
// always written with is_core false.
func (m *Manager) Create(ctx context.Context, in RoleInput) (_ *RoleRef, err error) {
	const op = "create"
	ctx, done := m.begin(ctx, "Create", attribute.String(telemetry.AttrRoleName, in.Name))
	defer func() { done(err) }()

	in, err = m.checkInput(op, in)
	if err != nil {
		return nil, err
	}

	// Step 1: read-only preconditions
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		if err := m.checkNameFree(ctx, s, op, in.Name); err != nil {
			return err
		}
		return checkPermissionsExist(ctx, s, op, in.Permissions)
	})
	if err != nil {
		return nil, m.fail(ctx, op, in.Name, err)
	}

	// Step 2: role, grants and ledger row in one transaction
	now := m.now().UTC()
	var ref RoleRef
	err = m.uow.InTx(ctx, func(ctx context.Context, s repository.Stores) error {
		role, err := s.RBAC.CreateRole(ctx, in.Name, m.cfg.Guard)
		if err != nil {
			return err
		}
		if len(in.Permissions) > 0 {
			if err := s.RBAC.GrantPermissions(ctx, role, in.Permissions); err != nil {
				return err
			}
		}

		// A ledger row can outlive a role removed outside this manager.
		if err := s.RoleMeta.DeleteByRoleName(ctx, role.Name); err != nil {
			return err
		}
		if err := s.RoleMeta.Upsert(ctx, &models.RoleMeta{
			RoleName:    role.Name,
			Description: in.Description,
			IsCore:      false,
			CreatedBy:   actorID(ctx),
			Metadata: models.Metadata{
				MetaChannel:         auth.ChannelFromContext(ctx),
				MetaCreatedAt:       now.Format(time.RFC3339),
				MetaPermissionCount: len(in.Permissions),
			},
		}); err != nil {
			return err
		}

		ref = RoleRef{ID: role.ID, Name: role.Name}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, op, in.Name, err)
	}

	m.record(ctx, audit.Event{
		Operation: audit.OpRoleCreated,
		RoleID:    ref.ID,
		RoleName:  ref.Name,
		Counts:    map[string]int{"permissions_count": len(in.Permissions)},
		At:        now,
	})
	return &ref, nil
}

// Update renames a dynamic role, replaces its permission set and refreshes its
// ledger row. The RBAC rename and the ledger re-key happen in the same
// transaction, so the ledger row always follows the role to its new name.
func (m *Manager) Update(ctx context.Context, roleID string, in RoleInput) (_ *RoleRef, err error) {
	const op = "update"
	ctx, done := m.begin(ctx, "Update", attribute.String(telemetry.AttrRoleID, roleID))
	defer func() { done(err) }()

	in, err = m.checkInput(op, in)
	if err != nil {
		return nil, err
	}

	// Step 1: read-only preconditions
	var oldName string
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		role, meta, err := m.loadRole(ctx, s, op, roleID)
		if err != nil {
			return err
		}
		if m.isCore(role.Name, meta) {
			return coreRoleError(op, role.Name)
		}
		oldName = role.Name

		if in.Name != role.Name {
			if err := m.checkNameFree(ctx, s, op, in.Name); err != nil {
				return err
			}
		}
		return checkPermissionsExist(ctx, s, op, in.Permissions)
	})
	if err != nil {
		return nil, m.fail(ctx, op, in.Name, err)
	}

	// Step 2: rename, sync and ledger upsert in one transaction
	now := m.now().UTC()
	var ref RoleRef
	err = m.uow.InTx(ctx, func(ctx context.Context, s repository.Stores) error {
		role, meta, err := m.loadRole(ctx, s, op, roleID)
		if err != nil {
			return err
		}
		if m.isCore(role.Name, meta) {
			return coreRoleError(op, role.Name)
		}
		oldName = role.Name

		if in.Name != role.Name {
			from := role.Name
			if err := s.RBAC.RenameRole(ctx, role, in.Name); err != nil {
				return err
			}
			if err := s.RoleMeta.DeleteByRoleName(ctx, in.Name); err != nil {
				return err
			}
			if err := s.RoleMeta.Rename(ctx, from, in.Name); err != nil {
				return err
			}
		}

		if err := s.RBAC.SyncPermissions(ctx, role, in.Permissions); err != nil {
			return err
		}

		metadata := models.Metadata{}
		var createdBy *string
		if meta != nil {
			metadata = meta.Metadata.Clone()
			createdBy = meta.CreatedBy
		}
		metadata[MetaUpdatedAt] = now.Format(time.RFC3339)
		metadata[MetaPermissionCount] = len(in.Permissions)
		if oldName != in.Name {
			metadata[MetaPreviousName] = oldName
		}

		if err := s.RoleMeta.Upsert(ctx, &models.RoleMeta{
			RoleName:       role.Name,
			Description:    in.Description,
			IsCore:         false,
			CreatedBy:      createdBy,
			LastModifiedBy: actorID(ctx),
			Metadata:       metadata,
		}); err != nil {
			return err
		}

		ref = RoleRef{ID: role.ID, Name: role.Name}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, op, in.Name, err)
	}

	event := audit.Event{
		Operation: audit.OpRoleUpdated,
		RoleID:    ref.ID,
		RoleName:  ref.Name,
		Counts:    map[string]int{"permissions_count": len(in.Permissions)},
		At:        now,
	}
	if oldName != ref.Name {
		event.PreviousName = oldName
	}
	m.record(ctx, event)
	return &ref, nil
}

// Delete removes a dynamic role that no user holds, together with its ledger row.
func (m *Manager) Delete(ctx context.Context, roleID string) (err error) {
	const op = "delete"
	ctx, done := m.begin(ctx, "Delete", attribute.String(telemetry.AttrRoleID, roleID))
	defer func() { done(err) }()

	guard := func(ctx context.Context, s repository.Stores) (*models.Role, error) {
		role, meta, err := m.loadRole(ctx, s, op, roleID)
		if err != nil {
			return nil, err
		}
		if m.isCore(role.Name, meta) {
			return nil, coreRoleError(op, role.Name)
		}
		users, err := s.RBAC.CountUsersWithRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("count role users: %w", err)
		}
		if users > 0 {
			return nil, roleInUseError(op, role.Name, users)
		}
		return role, nil
	}

	// Step 1: read-only preconditions
	var name string
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		role, err := guard(ctx, s)
		if err != nil {
			return err
		}
		name = role.Name
		return nil
	})
	if err != nil {
		return m.fail(ctx, op, name, err)
	}

	// Step 2: ledger row, then role, in one transaction. The guard is
	// re-evaluated because an assignment may have landed in between.
	err = m.uow.InTx(ctx, func(ctx context.Context, s repository.Stores) error {
		role, err := guard(ctx, s)
		if err != nil {
			return err
		}
		if err := s.RoleMeta.DeleteByRoleName(ctx, role.Name); err != nil {
			return err
		}
		return s.RBAC.DeleteRole(ctx, role)
	})
	if err != nil {
		return m.fail(ctx, op, name, err)
	}

	m.record(ctx, audit.Event{
		Operation: audit.OpRoleDeleted,
		RoleID:    roleID,
		RoleName:  name,
		At:        m.now().UTC(),
	})
	return nil
}

// Clone copies any role, core or not, into a new dynamic role named
// "<source> (Copy)", "<source> (Copy 2)", ... with the same permission set.
func (m *Manager) Clone(ctx context.Context, roleID string) (_ *RoleRef, err error) {
	const op = "clone"
	ctx, done := m.begin(ctx, "Clone", attribute.String(telemetry.AttrRoleID, roleID))
	defer func() { done(err) }()

	// Step 1: the source must exist
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		_, err := s.RBAC.FindRoleByID(ctx, roleID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(op, roleID)
		}
		return err
	})
	if err != nil {
		return nil, m.fail(ctx, op, "", err)
	}

	// Step 2: probe a free name and copy everything in one transaction
	now := m.now().UTC()
	var (
		ref    RoleRef
		source string
		perms  []string
	)
	err = m.uow.InTx(ctx, func(ctx context.Context, s repository.Stores) error {
		src, srcMeta, err := m.loadRole(ctx, s, op, roleID)
		if err != nil {
			return err
		}
		source = src.Name

		perms, err = s.RBAC.RolePermissions(ctx, src)
		if err != nil {
			return err
		}

		name, err := cloneName(src.Name, m.cfg.MaxNameLength, func(candidate string) (bool, error) {
			return roleExists(ctx, s, candidate)
		})
		if err != nil {
			return err
		}

		role, err := s.RBAC.CreateRole(ctx, name, src.GuardName)
		if err != nil {
			return err
		}
		if len(perms) > 0 {
			if err := s.RBAC.GrantPermissions(ctx, role, perms); err != nil {
				return err
			}
		}

		description := ""
		if srcMeta != nil {
			description = srcMeta.Description
		}
		if err := s.RoleMeta.DeleteByRoleName(ctx, role.Name); err != nil {
			return err
		}
		if err := s.RoleMeta.Upsert(ctx, &models.RoleMeta{
			RoleName:    role.Name,
			Description: strings.TrimSpace(description + " (Cloned)"),
			IsCore:      false,
			CreatedBy:   actorID(ctx),
			Metadata: models.Metadata{
				MetaChannel:         auth.ChannelFromContext(ctx),
				MetaCreatedAt:       now.Format(time.RFC3339),
				MetaClonedAt:        now.Format(time.RFC3339),
				MetaClonedFromID:    src.ID,
				MetaClonedFromName:  src.Name,
				MetaPermissionCount: len(perms),
			},
		}); err != nil {
			return err
		}

		ref = RoleRef{ID: role.ID, Name: role.Name}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, op, source, err)
	}

	m.record(ctx, audit.Event{
		Operation:    audit.OpRoleCloned,
		RoleID:       ref.ID,
		RoleName:     ref.Name,
		PreviousName: source,
		Counts:       map[string]int{"permissions_count": len(perms)},
		At:           now,
	})
	return &ref, nil
}

// maxCloneAttempts bounds the " (Copy N)" probe.
const maxCloneAttempts = 1000

// cloneName returns the first free name in the sequence "<base> (Copy)",
// "<base> (Copy 2)", "<base> (Copy 3)", ... Each candidate is cut down to
// maxLen characters by shortening base, never the suffix.
func cloneName(base string, maxLen int, taken func(string) (bool, error)) (string, error) {
	for n := 1; n <= maxCloneAttempts; n++ {
		suffix := " (Copy)"
		if n > 1 {
			suffix = fmt.Sprintf(" (Copy %d)", n)
		}
		candidate, err := fitName(base, suffix, maxLen)
		if err != nil {
			return "", err
		}
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free clone name for %q after %d attempts", base, maxCloneAttempts)
}

func fitName(base, suffix string, maxLen int) (string, error) {
	room := maxLen - utf8.RuneCountInString(suffix)
	if room < 1 {
		return "", validationError("clone", base, "clone name cannot fit in %d characters", maxLen)
	}
	if runes := []rune(base); len(runes) > room {
		base = strings.TrimRightFunc(string(runes[:room]), unicode.IsSpace)
	}
	return base + suffix, nil
}

// checkNameFree fails with ErrConflict when a role called name exists and
// with ErrValidation when name belongs to a configured core role.
func (m *Manager) checkNameFree(ctx context.Context, s repository.Stores, op, name string) error {
	exists, err := roleExists(ctx, s, name)
	if err != nil {
		return err
	}
	if exists {
		return duplicateRoleError(op, name)
	}
	if _, reserved := m.coreRoles[name]; reserved {
		return validationError(op, name, "name %q is reserved for a core role", name)
	}
	return nil
}

func (m *Manager) record(ctx context.Context, event audit.Event) {
	if actor, ok := auth.ActorFromContext(ctx); ok {
		event.ActorID = actor.ID
	}
	m.audit.Record(ctx, event)
}
