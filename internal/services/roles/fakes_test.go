package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

// memState is the whole in-memory world behind the fake stores.
type memState struct {
	roles       map[string]models.Role // by id
	permissions []string
	grants      map[string]map[string]struct{} // role name -> permissions
	holders     map[string]map[string]struct{} // role name -> user ids
	meta        map[string]models.RoleMeta     // by role name
	users       map[string]models.User
}

func newMemState() *memState {
	return &memState{
		roles:   map[string]models.Role{},
		grants:  map[string]map[string]struct{}{},
		holders: map[string]map[string]struct{}{},
		meta:    map[string]models.RoleMeta{},
		users:   map[string]models.User{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for k, v := range s.roles {
		out.roles[k] = v
	}
	out.permissions = append([]string(nil), s.permissions...)
	for k, v := range s.grants {
		out.grants[k] = cloneSet(v)
	}
	for k, v := range s.holders {
		out.holders[k] = cloneSet(v)
	}
	for k, v := range s.meta {
		v.Metadata = v.Metadata.Clone()
		out.meta[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

func cloneSet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// memUnitOfWork runs units of work against memState. InTx snapshots the state
// and restores it when fn fails, like a rolled back transaction.
type memUnitOfWork struct {
	mu       sync.Mutex
	state    *memState
	failures map[string]error
	txCount  int
}

func newMemUnitOfWork() *memUnitOfWork {
	return &memUnitOfWork{state: newMemState(), failures: map[string]error{}}
}

// failOn makes every later call of the named store method return err.
func (u *memUnitOfWork) failOn(method string, err error) {
	u.failures[method] = err
}

func (u *memUnitOfWork) fail(method string) error {
	return u.failures[method]
}

func (u *memUnitOfWork) stores() repository.Stores {
	return repository.Stores{
		RBAC:     &memRBAC{u: u},
		RoleMeta: &memRoleMeta{u: u},
		Users:    &memUsers{u: u},
	}
}

func (u *memUnitOfWork) Read(ctx context.Context, fn func(context.Context, repository.Stores) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(ctx, u.stores())
}

func (u *memUnitOfWork) InTx(ctx context.Context, fn func(context.Context, repository.Stores) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.txCount++
	snapshot := u.state.clone()
	if err := fn(ctx, u.stores()); err != nil {
		u.state = snapshot
		return err
	}
	return nil
}

// seed helpers used by tests

func (u *memUnitOfWork) addPermissions(names ...string) {
	u.state.permissions = append(u.state.permissions, names...)
}

func (u *memUnitOfWork) addRole(name string, isCore bool, perms ...string) models.Role {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	role := models.Role{ID: uuid.NewString(), Name: name, GuardName: "web", CreatedAt: now, UpdatedAt: now}
	u.state.roles[role.ID] = role
	set := map[string]struct{}{}
	for _, p := range perms {
		set[p] = struct{}{}
	}
	u.state.grants[name] = set
	u.state.meta[name] = models.RoleMeta{
		ID:       uuid.NewString(),
		RoleName: name,
		IsCore:   isCore,
		Metadata: models.Metadata{},
	}
	return role
}

// addBareRole creates a role without a ledger row.
func (u *memUnitOfWork) addBareRole(name string) models.Role {
	role := u.addRole(name, false)
	delete(u.state.meta, name)
	return role
}

func (u *memUnitOfWork) addUser(name, email string) models.User {
	user := models.User{ID: uuid.NewString(), Name: name, Email: email}
	u.state.users[user.ID] = user
	return user
}

func (u *memUnitOfWork) assign(userID, roleName string) {
	if u.state.holders[roleName] == nil {
		u.state.holders[roleName] = map[string]struct{}{}
	}
	u.state.holders[roleName][userID] = struct{}{}
}

func (u *memUnitOfWork) roleByName(name string) (models.Role, bool) {
	for _, r := range u.state.roles {
		if r.Name == name {
			return r, true
		}
	}
	return models.Role{}, false
}

func (u *memUnitOfWork) permsOf(name string) []string {
	return sortedKeys(u.state.grants[name])
}

type memRBAC struct{ u *memUnitOfWork }

func (s *memRBAC) CreateRole(_ context.Context, name, guard string) (*models.Role, error) {
	if err := s.u.fail("CreateRole"); err != nil {
		return nil, err
	}
	if _, ok := s.u.roleByName(name); ok {
		return nil, fmt.Errorf("create role %q: %w", name, repository.ErrDuplicate)
	}
	role := models.Role{ID: uuid.NewString(), Name: name, GuardName: guard, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.u.state.roles[role.ID] = role
	return &role, nil
}

func (s *memRBAC) DeleteRole(_ context.Context, role *models.Role) error {
	if err := s.u.fail("DeleteRole"); err != nil {
		return err
	}
	if _, ok := s.u.state.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.u.state.roles, role.ID)
	delete(s.u.state.grants, role.Name)
	delete(s.u.state.holders, role.Name)
	return nil
}

func (s *memRBAC) RenameRole(_ context.Context, role *models.Role, newName string) error {
	if err := s.u.fail("RenameRole"); err != nil {
		return err
	}
	if _, ok := s.u.roleByName(newName); ok {
		return repository.ErrDuplicate
	}
	stored := s.u.state.roles[role.ID]
	old := stored.Name
	stored.Name = newName
	s.u.state.roles[role.ID] = stored

	s.u.state.grants[newName] = s.u.state.grants[old]
	delete(s.u.state.grants, old)
	if h, ok := s.u.state.holders[old]; ok {
		s.u.state.holders[newName] = h
		delete(s.u.state.holders, old)
	}
	role.Name = newName
	return nil
}

func (s *memRBAC) checkKnown(names []string) error {
	known := map[string]struct{}{}
	for _, p := range s.u.state.permissions {
		known[p] = struct{}{}
	}
	for _, n := range names {
		if _, ok := known[n]; !ok {
			return fmt.Errorf("%w: %s", repository.ErrUnknownPermission, n)
		}
	}
	return nil
}

func (s *memRBAC) GrantPermissions(_ context.Context, role *models.Role, names []string) error {
	if err := s.u.fail("GrantPermissions"); err != nil {
		return err
	}
	if err := s.checkKnown(names); err != nil {
		return err
	}
	set := s.u.state.grants[role.Name]
	if set == nil {
		set = map[string]struct{}{}
		s.u.state.grants[role.Name] = set
	}
	for _, n := range names {
		set[n] = struct{}{}
	}
	return nil
}

func (s *memRBAC) SyncPermissions(_ context.Context, role *models.Role, names []string) error {
	if err := s.u.fail("SyncPermissions"); err != nil {
		return err
	}
	if err := s.checkKnown(names); err != nil {
		return err
	}
	set := map[string]struct{}{}
	for _, n := range names {
		set[n] = struct{}{}
	}
	s.u.state.grants[role.Name] = set
	return nil
}

func (s *memRBAC) RolePermissions(_ context.Context, role *models.Role) ([]string, error) {
	return sortedKeys(s.u.state.grants[role.Name]), nil
}

func (s *memRBAC) CountPermissionsOfRole(_ context.Context, role *models.Role) (int, error) {
	return len(s.u.state.grants[role.Name]), nil
}

func (s *memRBAC) CountUsersWithRole(_ context.Context, role *models.Role) (int, error) {
	if err := s.u.fail("CountUsersWithRole"); err != nil {
		return 0, err
	}
	return len(s.u.state.holders[role.Name]), nil
}

func (s *memRBAC) AssignRole(_ context.Context, userID string, role *models.Role) error {
	s.u.assign(userID, role.Name)
	return nil
}

func (s *memRBAC) RevokeRole(_ context.Context, userID string, role *models.Role) error {
	delete(s.u.state.holders[role.Name], userID)
	return nil
}

func (s *memRBAC) UserHasRole(_ context.Context, userID, roleName string) (bool, error) {
	_, ok := s.u.state.holders[roleName][userID]
	return ok, nil
}

func (s *memRBAC) UserHasPermission(_ context.Context, userID, permission string) (bool, error) {
	for roleName, users := range s.u.state.holders {
		if _, ok := users[userID]; !ok {
			continue
		}
		if _, ok := s.u.state.grants[roleName][permission]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *memRBAC) FindRoleByName(_ context.Context, name string) (*models.Role, error) {
	if err := s.u.fail("FindRoleByName"); err != nil {
		return nil, err
	}
	role, ok := s.u.roleByName(name)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (s *memRBAC) FindRoleByID(_ context.Context, id string) (*models.Role, error) {
	role, ok := s.u.state.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (s *memRBAC) ListRoles(_ context.Context) ([]models.Role, error) {
	if err := s.u.fail("ListRoles"); err != nil {
		return nil, err
	}
	out := make([]models.Role, 0, len(s.u.state.roles))
	for _, r := range s.u.state.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memRBAC) ListPermissions(_ context.Context) ([]models.Permission, error) {
	out := make([]models.Permission, 0, len(s.u.state.permissions))
	for _, p := range s.u.state.permissions {
		out = append(out, models.Permission{ID: p, Name: p, GuardName: "web"})
	}
	return out, nil
}

type memRoleMeta struct{ u *memUnitOfWork }

func (s *memRoleMeta) GetByRoleName(_ context.Context, roleName string) (*models.RoleMeta, error) {
	meta, ok := s.u.state.meta[roleName]
	if !ok {
		return nil, repository.ErrNotFound
	}
	meta.Metadata = meta.Metadata.Clone()
	return &meta, nil
}

func (s *memRoleMeta) List(_ context.Context) ([]models.RoleMeta, error) {
	out := make([]models.RoleMeta, 0, len(s.u.state.meta))
	for _, m := range s.u.state.meta {
		out = append(out, m)
	}
	return out, nil
}

func (s *memRoleMeta) Upsert(_ context.Context, meta *models.RoleMeta) error {
	if err := s.u.fail("RoleMeta.Upsert"); err != nil {
		return err
	}
	row := *meta
	row.Metadata = meta.Metadata.Clone()
	if existing, ok := s.u.state.meta[meta.RoleName]; ok {
		row.ID = existing.ID
		row.CreatedBy = existing.CreatedBy
		row.CreatedAt = existing.CreatedAt
	} else if row.ID == "" {
		row.ID = uuid.NewString()
	}
	s.u.state.meta[meta.RoleName] = row
	return nil
}

func (s *memRoleMeta) Rename(_ context.Context, oldName, newName string) error {
	if err := s.u.fail("RoleMeta.Rename"); err != nil {
		return err
	}
	row, ok := s.u.state.meta[oldName]
	if !ok {
		return nil
	}
	if _, taken := s.u.state.meta[newName]; taken {
		return repository.ErrDuplicate
	}
	delete(s.u.state.meta, oldName)
	row.RoleName = newName
	s.u.state.meta[newName] = row
	return nil
}

func (s *memRoleMeta) DeleteByRoleName(_ context.Context, roleName string) error {
	if err := s.u.fail("RoleMeta.DeleteByRoleName"); err != nil {
		return err
	}
	delete(s.u.state.meta, roleName)
	return nil
}

type memUsers struct{ u *memUnitOfWork }

func (s *memUsers) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.u.state.users[user.ID] = *user
	return nil
}

func (s *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.u.state.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.u.state.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUsers) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.u.state.users))
	for _, user := range s.u.state.users {
		out = append(out, user)
	}
	return out, nil
}

var errStoreDown = errors.New("connection reset by peer")
