package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/telemetry"
)

// List returns one page of roles ordered by name. Search is a
// case-insensitive substring match on the name. The core/dynamic filter is
// applied after ledger metadata has been attached, since core-ness lives there.
func (m *Manager) List(ctx context.Context, q ListQuery) (_ *RoleList, err error) {
	const op = "list"
	ctx, done := m.begin(ctx, "List",
		attribute.String("roles.filter", string(q.Filter)),
		attribute.String("roles.search", q.Search),
	)
	defer func() { done(err) }()

	filter, err := ParseFilter(string(q.Filter))
	if err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = m.cfg.DefaultPageSize
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	var out RoleList
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		all, err := s.RBAC.ListRoles(ctx)
		if err != nil {
			return err
		}
		metas, err := s.RoleMeta.List(ctx)
		if err != nil {
			return err
		}
		byName := make(map[string]*models.RoleMeta, len(metas))
		for i := range metas {
			byName[metas[i].RoleName] = &metas[i]
		}

		var matched []RoleSummary
		var roles []*models.Role
		for i := range all {
			role := &all[i]
			if search != "" && !strings.Contains(strings.ToLower(role.Name), search) {
				continue
			}

			meta := byName[role.Name]
			if meta == nil {
				m.log.WithField("role", role.Name).Warn("role has no metadata ledger row; treating as non-core")
			}
			summary := m.summarize(role, meta)

			switch {
			case filter == FilterCore && !summary.IsCore:
				continue
			case filter == FilterDynamic && summary.IsCore:
				continue
			}
			matched = append(matched, summary)
			roles = append(roles, role)
		}

		out.Pagination = newPagination(page, pageSize, len(matched))
		start := (page - 1) * pageSize
		if start >= len(matched) {
			out.Roles = []RoleSummary{}
			return nil
		}
		end := min(start+pageSize, len(matched))

		out.Roles = matched[start:end]
		for i := range out.Roles {
			role := roles[start+i]
			if out.Roles[i].UsersCount, err = s.RBAC.CountUsersWithRole(ctx, role); err != nil {
				return fmt.Errorf("count role users: %w", err)
			}
			if out.Roles[i].PermissionsCount, err = s.RBAC.CountPermissionsOfRole(ctx, role); err != nil {
				return fmt.Errorf("count role permissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, op, "", err)
	}
	return &out, nil
}

func (m *Manager) summarize(role *models.Role, meta *models.RoleMeta) RoleSummary {
	s := RoleSummary{
		ID:        role.ID,
		Name:      role.Name,
		GuardName: role.GuardName,
		IsCore:    m.isCore(role.Name, meta),
		Metadata:  models.Metadata{},
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
	}
	if meta != nil {
		s.Description = meta.Description
		s.CreatedBy = deref(meta.CreatedBy)
		s.LastModifiedBy = deref(meta.LastModifiedBy)
		s.Metadata = meta.Metadata.Clone()
	}
	return s
}

// EditLoad returns what the edit form needs for a dynamic role.
// Core roles fail with ErrForbidden.
func (m *Manager) EditLoad(ctx context.Context, roleID string) (_ *RoleForEdit, err error) {
	const op = "edit"
	ctx, done := m.begin(ctx, "EditLoad", attribute.String(telemetry.AttrRoleID, roleID))
	defer func() { done(err) }()

	var out RoleForEdit
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		role, meta, err := m.loadRole(ctx, s, op, roleID)
		if err != nil {
			return err
		}
		if m.isCore(role.Name, meta) {
			return coreRoleError(op, role.Name)
		}

		perms, err := s.RBAC.RolePermissions(ctx, role)
		if err != nil {
			return err
		}

		out = RoleForEdit{
			ID:          role.ID,
			Name:        role.Name,
			IsCore:      false,
			Permissions: perms,
		}
		if meta != nil {
			out.Description = meta.Description
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, op, "", err)
	}
	return &out, nil
}

// Stats returns counts and ledger details for any role, core or not.
func (m *Manager) Stats(ctx context.Context, roleID string) (_ *RoleStats, err error) {
	const op = "inspect"
	ctx, done := m.begin(ctx, "Stats", attribute.String(telemetry.AttrRoleID, roleID))
	defer func() { done(err) }()

	var out RoleStats
	err = m.uow.Read(ctx, func(ctx context.Context, s repository.Stores) error {
		role, meta, err := m.loadRole(ctx, s, op, roleID)
		if err != nil {
			return err
		}

		out = RoleStats{
			ID:        role.ID,
			Name:      role.Name,
			IsCore:    m.isCore(role.Name, meta),
			CreatedAt: role.CreatedAt,
			UpdatedAt: role.UpdatedAt,
		}
		if out.UsersCount, err = s.RBAC.CountUsersWithRole(ctx, role); err != nil {
			return fmt.Errorf("count role users: %w", err)
		}
		if out.PermissionsCount, err = s.RBAC.CountPermissionsOfRole(ctx, role); err != nil {
			return fmt.Errorf("count role permissions: %w", err)
		}
		if meta == nil {
			return nil
		}

		out.Description = meta.Description
		if out.CreatedBy, err = resolveIdentity(ctx, s, meta.CreatedBy); err != nil {
			return err
		}
		if out.LastModifiedBy, err = resolveIdentity(ctx, s, meta.LastModifiedBy); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(ctx, op, "", err)
	}
	return &out, nil
}

// resolveIdentity looks up a user referenced by a ledger row. Users that no
// longer exist are reported by id alone.
func resolveIdentity(ctx context.Context, s repository.Stores, id *string) (*Identity, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	user, err := s.Users.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &Identity{ID: *id}, nil
		}
		return nil, fmt.Errorf("resolve user %s: %w", *id, err)
	}
	return &Identity{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}
