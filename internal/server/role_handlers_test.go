package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/logging"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/permissions"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/server"
)

// stubRoles records the last call and returns canned results.
type stubRoles struct {
	err       error
	lastQuery roles.ListQuery
	lastInput roles.RoleInput
	lastID    string
	list      *roles.RoleList
	stats     *roles.RoleStats
	edit      *roles.RoleForEdit
	actor     auth.Actor
}

func (s *stubRoles) List(ctx context.Context, q roles.ListQuery) (*roles.RoleList, error) {
	s.lastQuery = q
	s.actor, _ = auth.ActorFromContext(ctx)
	return s.list, s.err
}

func (s *stubRoles) Create(_ context.Context, in roles.RoleInput) (*roles.RoleRef, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &roles.RoleRef{ID: "r-new", Name: in.Name}, nil
}

func (s *stubRoles) EditLoad(_ context.Context, id string) (*roles.RoleForEdit, error) {
	s.lastID = id
	return s.edit, s.err
}

func (s *stubRoles) Update(_ context.Context, id string, in roles.RoleInput) (*roles.RoleRef, error) {
	s.lastID, s.lastInput = id, in
	if s.err != nil {
		return nil, s.err
	}
	return &roles.RoleRef{ID: id, Name: in.Name}, nil
}

func (s *stubRoles) Delete(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *stubRoles) Clone(_ context.Context, id string) (*roles.RoleRef, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &roles.RoleRef{ID: "r-clone", Name: "Tutor (Copy)"}, nil
}

func (s *stubRoles) Stats(_ context.Context, id string) (*roles.RoleStats, error) {
	s.lastID = id
	return s.stats, s.err
}

type stubCatalog struct{ groups []permissions.Group }

func (s *stubCatalog) ListByCategory(context.Context) ([]permissions.Group, error) {
	return s.groups, nil
}

func newTestRouter(stub *stubRoles) http.Handler {
	return server.NewRouter(server.RouterOptions{
		Roles: stub,
		Permissions: &stubCatalog{groups: []permissions.Group{{
			Category:    "roles",
			Label:       "Role Management",
			Permissions: []permissions.Permission{{ID: "p1", Name: "roles.view", IsCore: true}},
		}}},
		Logger: logging.Discard(),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&stubRoles{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListRoles(t *testing.T) {
	stub := &stubRoles{list: &roles.RoleList{
		Roles: []roles.RoleSummary{{
			ID: "r1", Name: "Tutor", GuardName: "web", UsersCount: 2, PermissionsCount: 3,
			CreatedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		}},
		Pagination: roles.Pagination{Page: 2, PerPage: 10, Total: 11, TotalPages: 2},
	}}

	rec := do(t, newTestRouter(stub), http.MethodGet, "/api/roles?filter=dynamic&search=tut&page=2&per_page=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, roles.ListQuery{Filter: roles.FilterDynamic, Search: "tut", Page: 2, PageSize: 10}, stub.lastQuery)

	var body struct {
		Data []struct {
			ID               string `json:"id"`
			Name             string `json:"name"`
			UsersCount       int    `json:"users_count"`
			PermissionsCount int    `json:"permissions_count"`
			IsCore           bool   `json:"is_core"`
		} `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Tutor", body.Data[0].Name)
	assert.Equal(t, 2, body.Data[0].UsersCount)
	assert.Equal(t, 3, body.Data[0].PermissionsCount)
	assert.Equal(t, 11, body.Pagination.Total)
	assert.Equal(t, 2, body.Pagination.TotalPages)
}

func TestListRoles_BadPage(t *testing.T) {
	rec := do(t, newTestRouter(&stubRoles{}), http.MethodGet, "/api/roles?page=two", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestCreateRole(t *testing.T) {
	stub := &stubRoles{}
	rec := do(t, newTestRouter(stub), http.MethodPost, "/api/roles",
		`{"name":"Marker","description":"Marks scripts","permissions":["units.view"]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/roles/r-new", rec.Header().Get("Location"))
	assert.Equal(t, roles.RoleInput{Name: "Marker", Description: "Marks scripts", Permissions: []string{"units.view"}}, stub.lastInput)
	assert.JSONEq(t, `{"id":"r-new","name":"Marker"}`, rec.Body.String())
}

func TestCreateRole_BadBody(t *testing.T) {
	rec := do(t, newTestRouter(&stubRoles{}), http.MethodPost, "/api/roles", `{"name":"Marker","is_core":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleRoutes(t *testing.T) {
	stub := &stubRoles{
		edit:  &roles.RoleForEdit{ID: "r1", Name: "Tutor"},
		stats: &roles.RoleStats{ID: "r1", Name: "Tutor", CreatedBy: &roles.Identity{ID: "u1", Name: "Jane"}},
	}
	h := newTestRouter(stub)

	rec := do(t, h, http.MethodGet, "/api/roles/r1/edit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"r1","name":"Tutor","description":"","is_core":false,"permissions":[]}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/roles/r1", `{"name":"Senior Tutor","permissions":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", stub.lastID)
	assert.Equal(t, "Senior Tutor", stub.lastInput.Name)

	rec = do(t, h, http.MethodPost, "/api/roles/r1/clone", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"r-clone","name":"Tutor (Copy)"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/roles/r1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"created_by":{"id":"u1","name":"Jane"}`)

	rec = do(t, h, http.MethodDelete, "/api/roles/r1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListPermissions(t *testing.T) {
	rec := do(t, newTestRouter(&stubRoles{}), http.MethodGet, "/api/permissions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[{"category":"roles","label":"Role Management","permissions":[{"id":"p1","name":"roles.view","is_core":true}]}]}`, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{name: "validation", err: &roles.Error{Kind: roles.ErrValidation, Message: "name is required"}, status: http.StatusBadRequest, detail: "name is required"},
		{name: "conflict", err: &roles.Error{Kind: roles.ErrConflict, Message: "role assigned to 3 users", Count: 3}, status: http.StatusConflict, detail: "role assigned to 3 users"},
		{name: "forbidden", err: &roles.Error{Kind: roles.ErrForbidden, Message: `core role "admin" cannot be modified`}, status: http.StatusForbidden},
		{name: "not found", err: &roles.Error{Kind: roles.ErrNotFound, Message: "role r1 not found"}, status: http.StatusNotFound},
		{name: "persistence", err: &roles.Error{Kind: roles.ErrPersistence, Message: "failed to delete role"}, status: http.StatusInternalServerError, detail: "failed to delete role"},
		{name: "unexpected", err: fmt.Errorf("boom"), status: http.StatusInternalServerError, detail: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(&stubRoles{err: tt.err}), http.MethodDelete, "/api/roles/r1", "")
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem struct {
				Status int    `json:"status"`
				Detail string `json:"detail"`
				Count  int    `json:"count"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.status, problem.Status)
			if tt.detail != "" || tt.name == "unexpected" {
				assert.Equal(t, tt.detail, problem.Detail)
			}
			if tt.name == "conflict" {
				assert.Equal(t, 3, problem.Count)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	authn := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			actor, err := auth.ParseToken([]byte(secret), raw)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}

	stub := &stubRoles{list: &roles.RoleList{}}
	h := server.NewRouter(server.RouterOptions{Roles: stub, Logger: logging.Discard(), Authn: authn})

	rec := do(t, h, http.MethodGet, "/api/roles", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")

	token, err := auth.SignToken([]byte(secret), "u-7", "", time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-7", stub.actor.ID)
}
