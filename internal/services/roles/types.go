package roles

import (
	"fmt"
	"time"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
)

// Filter restricts List to core roles, dynamic roles or both.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterCore    Filter = "core"
	FilterDynamic Filter = "dynamic"
)

// ParseFilter accepts "", "all", "core" and "dynamic".
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCore, FilterDynamic:
		return Filter(s), nil
	}
	return "", validationError("list", "", "unknown filter %q", s)
}

// ListQuery selects a page of roles.
type ListQuery struct {
	Filter Filter
	// Search is a case-insensitive substring of the role name.
	Search   string
	Page     int
	PageSize int
}

// RoleSummary is one row of the role list.
type RoleSummary struct {
	ID               string
	Name             string
	GuardName        string
	Description      string
	IsCore           bool
	UsersCount       int
	PermissionsCount int
	CreatedBy        string
	LastModifiedBy   string
	Metadata         models.Metadata
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Pagination describes the page returned by List.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

func newPagination(page, perPage, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// RoleList is a page of roles.
type RoleList struct {
	Roles      []RoleSummary
	Pagination Pagination
}

// RoleInput is the payload of Create and Update.
type RoleInput struct {
	Name        string   `validate:"required"`
	Description string   `validate:"max=1000"`
	Permissions []string `validate:"dive,required"`
}

// RoleRef identifies a role returned by a mutation.
type RoleRef struct {
	ID   string
	Name string
}

// RoleForEdit is what the edit form needs.
type RoleForEdit struct {
	ID          string
	Name        string
	Description string
	IsCore      bool
	Permissions []string
}

// Identity is the display form of a user referenced by a ledger row.
type Identity struct {
	ID    string
	Name  string
	Email string
}

func (i *Identity) String() string {
	if i == nil {
		return ""
	}
	if i.Name == "" {
		return i.ID
	}
	return fmt.Sprintf("%s <%s>", i.Name, i.Email)
}

// RoleStats is the read-only summary of one role.
type RoleStats struct {
	ID               string
	Name             string
	Description      string
	IsCore           bool
	UsersCount       int
	PermissionsCount int
	CreatedBy        *Identity
	LastModifiedBy   *Identity
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Metadata keys written to role ledger rows.
const (
	MetaChannel         = "channel"
	MetaCreatedAt       = "created_at"
	MetaUpdatedAt       = "updated_at"
	MetaPermissionCount = "permission_count"
	MetaClonedFromID    = "cloned_from_id"
	MetaClonedFromName  = "cloned_from_name"
	MetaClonedAt        = "cloned_at"
	MetaPreviousName    = "previous_name"
)
