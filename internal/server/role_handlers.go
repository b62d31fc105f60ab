package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/httpx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/permissions"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

type roleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (r roleRequest) input() roles.RoleInput {
	return roles.RoleInput{Name: r.Name, Description: r.Description, Permissions: r.Permissions}
}

type roleRefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type roleSummaryResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	GuardName        string         `json:"guard_name"`
	Description      string         `json:"description,omitempty"`
	IsCore           bool           `json:"is_core"`
	UsersCount       int            `json:"users_count"`
	PermissionsCount int            `json:"permissions_count"`
	CreatedBy        string         `json:"created_by,omitempty"`
	LastModifiedBy   string         `json:"last_modified_by,omitempty"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type roleListResponse struct {
	Data       []roleSummaryResponse `json:"data"`
	Pagination paginationResponse    `json:"pagination"`
}

type roleEditResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsCore      bool     `json:"is_core"`
	Permissions []string `json:"permissions"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type roleStatsResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	IsCore           bool              `json:"is_core"`
	UsersCount       int               `json:"users_count"`
	PermissionsCount int               `json:"permissions_count"`
	CreatedBy        *identityResponse `json:"created_by,omitempty"`
	LastModifiedBy   *identityResponse `json:"last_modified_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type permissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsCore      bool   `json:"is_core"`
}

type permissionGroupResponse struct {
	Category    string               `json:"category"`
	Label       string               `json:"label"`
	Permissions []permissionResponse `json:"permissions"`
}

type roleHandlers struct {
	roles       roleManager
	permissions permissionCatalog
}

func (h *roleHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "page must be an integer")
		return
	}
	perPage, err := intParam(q.Get("per_page"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "per_page must be an integer")
		return
	}

	list, err := h.roles.List(r.Context(), roles.ListQuery{
		Filter:   roles.Filter(q.Get("filter")),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: perPage,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := roleListResponse{
		Data: make([]roleSummaryResponse, 0, len(list.Roles)),
		Pagination: paginationResponse{
			Page:       list.Pagination.Page,
			PerPage:    list.Pagination.PerPage,
			Total:      list.Pagination.Total,
			TotalPages: list.Pagination.TotalPages,
		},
	}
	for _, role := range list.Roles {
		resp.Data = append(resp.Data, roleSummaryResponse{
			ID:               role.ID,
			Name:             role.Name,
			GuardName:        role.GuardName,
			Description:      role.Description,
			IsCore:           role.IsCore,
			UsersCount:       role.UsersCount,
			PermissionsCount: role.PermissionsCount,
			CreatedBy:        role.CreatedBy,
			LastModifiedBy:   role.LastModifiedBy,
			Metadata:         role.Metadata,
			CreatedAt:        role.CreatedAt,
			UpdatedAt:        role.UpdatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *roleHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}

	ref, err := h.roles.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/roles/"+ref.ID)
	httpx.JSON(w, http.StatusCreated, roleRefResponse{ID: ref.ID, Name: ref.Name})
}

func (h *roleHandlers) edit(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.EditLoad(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	perms := role.Permissions
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, roleEditResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsCore:      role.IsCore,
		Permissions: perms,
	})
}

func (h *roleHandlers) update(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}

	ref, err := h.roles.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleRefResponse{ID: ref.ID, Name: ref.Name})
}

func (h *roleHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *roleHandlers) clone(w http.ResponseWriter, r *http.Request) {
	ref, err := h.roles.Clone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/roles/"+ref.ID)
	httpx.JSON(w, http.StatusCreated, roleRefResponse{ID: ref.ID, Name: ref.Name})
}

func (h *roleHandlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.roles.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleStatsResponse{
		ID:               stats.ID,
		Name:             stats.Name,
		Description:      stats.Description,
		IsCore:           stats.IsCore,
		UsersCount:       stats.UsersCount,
		PermissionsCount: stats.PermissionsCount,
		CreatedBy:        identity(stats.CreatedBy),
		LastModifiedBy:   identity(stats.LastModifiedBy),
		CreatedAt:        stats.CreatedAt,
		UpdatedAt:        stats.UpdatedAt,
	})
}

func (h *roleHandlers) listPermissions(w http.ResponseWriter, r *http.Request) {
	groups, err := h.permissions.ListByCategory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": permissionGroups(groups)})
}

func permissionGroups(groups []permissions.Group) []permissionGroupResponse {
	out := make([]permissionGroupResponse, 0, len(groups))
	for _, g := range groups {
		perms := make([]permissionResponse, 0, len(g.Permissions))
		for _, p := range g.Permissions {
			perms = append(perms, permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description, IsCore: p.IsCore})
		}
		out = append(out, permissionGroupResponse{Category: g.Category, Label: g.Label, Permissions: perms})
	}
	return out
}

func identity(i *roles.Identity) *identityResponse {
	if i == nil {
		return nil
	}
	return &identityResponse{ID: i.ID, Name: i.Name, Email: i.Email}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
