// Package permissions lists the seeded permission catalog for the role editor.
package permissions

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/telemetry"
)

const tracerName = "timetableapi/services/permissions"

// Permission is one entry of a category group.
type Permission struct {
	ID          string
	Name        string
	Description string
	IsCore      bool
}

// Group is the permissions of one category.
type Group struct {
	Category    string
	Label       string
	Permissions []Permission
}

// Service reads permissions and their ledger rows.
type Service struct {
	uow repository.UnitOfWork
	log logrus.FieldLogger
}

func NewService(uow repository.UnitOfWork, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{uow: uow, log: log.WithField("component", "permissions")}
}

// ListByCategory returns every permission grouped by category. Groups follow
// the order of auth.PermissionCategories; categories missing from that table
// come after it in alphabetical order. Empty categories are omitted.
// Permissions without a ledger row land in the "general" group as non-core.
func (s *Service) ListByCategory(ctx context.Context) (_ []Group, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "permissions.ListByCategory")
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		span.End()
	}()

	var (
		perms []models.Permission
		metas []models.PermissionMeta
	)
	err = s.uow.Read(ctx, func(ctx context.Context, st repository.Stores) error {
		var err error
		if perms, err = st.RBAC.ListPermissions(ctx); err != nil {
			return fmt.Errorf("list permissions: %w", err)
		}
		if metas, err = st.PermissionMeta.List(ctx); err != nil {
			return fmt.Errorf("list permission meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]models.PermissionMeta, len(metas))
	for _, m := range metas {
		byName[m.PermissionName] = m
	}

	grouped := map[string][]Permission{}
	for _, p := range perms {
		entry := Permission{ID: p.ID, Name: p.Name}
		category := models.DefaultPermissionCategory
		if meta, ok := byName[p.Name]; ok {
			entry.Description = meta.Description
			entry.IsCore = meta.IsCore
			if meta.Category != "" {
				category = meta.Category
			}
		} else {
			s.log.WithField("permission", p.Name).Debug("permission has no metadata ledger row")
		}
		grouped[category] = append(grouped[category], entry)
	}

	return orderGroups(grouped), nil
}

func orderGroups(grouped map[string][]Permission) []Group {
	out := make([]Group, 0, len(grouped))
	known := make(map[string]struct{}, len(auth.PermissionCategories))

	for _, c := range auth.PermissionCategories {
		known[c.Category] = struct{}{}
		if perms, ok := grouped[c.Category]; ok {
			out = append(out, newGroup(c.Category, perms))
		}
	}

	var extra []string
	for category := range grouped {
		if _, ok := known[category]; !ok {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)
	for _, category := range extra {
		out = append(out, newGroup(category, grouped[category]))
	}
	return out
}

func newGroup(category string, perms []Permission) Group {
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
	return Group{Category: category, Label: auth.CategoryLabelFor(category), Permissions: perms}
}
