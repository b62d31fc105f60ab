// Package roles implements the role lifecycle: listing, creating, editing,
// deleting, cloning and inspecting roles.
//
// Every mutation runs as one unit of work across the RBAC store and the role
// metadata ledger, so a role is never left with a ledger row under a stale
// name or a half-applied permission set. Preconditions are checked cheapest
// first, and where they only need reads they are checked before the
// transaction is opened. Core roles (ledger flag or configured name) can be
// listed, inspected and cloned but never edited or deleted.
package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/audit"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/telemetry"
)

const tracerName = "timetableapi/services/roles"

// Config carries the settings the manager needs from the application config.
type Config struct {
	Guard           string
	CoreRoles       []string
	DefaultPageSize int
	MaxNameLength   int
}

// Dependencies are the collaborators injected into the manager.
type Dependencies struct {
	UnitOfWork repository.UnitOfWork
	Audit      audit.Recorder
	Logger     logrus.FieldLogger
	Metrics    *telemetry.RoleMetrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager implements the role lifecycle operations.
type Manager struct {
	uow       repository.UnitOfWork
	audit     audit.Recorder
	log       logrus.FieldLogger
	metrics   *telemetry.RoleMetrics
	now       func() time.Time
	validate  *validator.Validate
	cfg       Config
	coreRoles map[string]struct{}
}

// NewManager wires a manager. Audit, Logger and Metrics are optional.
func NewManager(deps Dependencies, cfg Config) (*Manager, error) {
	if deps.UnitOfWork == nil {
		return nil, errors.New("roles: unit of work is required")
	}
	if cfg.Guard == "" {
		cfg.Guard = "web"
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 15
	}
	if cfg.MaxNameLength <= 0 {
		cfg.MaxNameLength = 125
	}

	m := &Manager{
		uow:       deps.UnitOfWork,
		audit:     deps.Audit,
		log:       deps.Logger,
		metrics:   deps.Metrics,
		now:       deps.Now,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		cfg:       cfg,
		coreRoles: make(map[string]struct{}, len(cfg.CoreRoles)),
	}
	if m.audit == nil {
		m.audit = audit.Nop{}
	}
	if m.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		m.log = l
	}
	m.log = m.log.WithField("component", "roles")
	if m.now == nil {
		m.now = time.Now
	}
	for _, name := range cfg.CoreRoles {
		m.coreRoles[name] = struct{}{}
	}
	return m, nil
}

// begin opens a span for op and returns a function that closes it, recording
// the outcome on the span and the operation counter.
func (m *Manager) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if actor, ok := auth.ActorFromContext(ctx); ok {
		attrs = append(attrs, attribute.String(telemetry.AttrActorID, actor.ID))
	}
	ctx, span := telemetry.StartSpan(ctx, tracerName, "roles."+op, attrs...)
	start := m.now()

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = KindName(err)
			telemetry.RecordError(span, err)
			span.SetAttributes(attribute.String(telemetry.AttrErrorKind, outcome))
		}
		m.metrics.Record(ctx, op, outcome, float64(m.now().Sub(start).Microseconds())/1000)
		span.End()
	}
}

// isCore reports whether a role is protected: flagged core in its ledger row
// or listed in the configured core role names.
func (m *Manager) isCore(name string, meta *models.RoleMeta) bool {
	if meta != nil && meta.IsCore {
		return true
	}
	_, ok := m.coreRoles[name]
	return ok
}

// loadRole fetches a role and its ledger row. A missing ledger row is
// reported as nil meta and logged.
func (m *Manager) loadRole(ctx context.Context, s repository.Stores, op, roleID string) (*models.Role, *models.RoleMeta, error) {
	role, err := s.RBAC.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundError(op, roleID)
		}
		return nil, nil, fmt.Errorf("find role: %w", err)
	}

	meta, err := m.lookupMeta(ctx, s, role.Name)
	if err != nil {
		return nil, nil, err
	}
	return role, meta, nil
}

func (m *Manager) lookupMeta(ctx context.Context, s repository.Stores, roleName string) (*models.RoleMeta, error) {
	meta, err := s.RoleMeta.GetByRoleName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.log.WithField("role", roleName).Warn("role has no metadata ledger row; treating as non-core")
			return nil, nil
		}
		return nil, fmt.Errorf("get role meta: %w", err)
	}
	return meta, nil
}

// fail converts an error from a store or unit of work into a manager error.
// Manager errors pass through. Anything unrecognised is logged with its cause
// and replaced by an opaque persistence error.
func (m *Manager) fail(ctx context.Context, op, name string, err error) error {
	var merr *Error
	switch {
	case errors.As(err, &merr):
		return merr
	case errors.Is(err, repository.ErrDuplicate):
		return duplicateRoleError(op, name)
	case errors.Is(err, repository.ErrUnknownPermission):
		return validationError(op, name, "%s", err.Error())
	}

	entry := m.log.WithError(err).WithField("op", op)
	if name != "" {
		entry = entry.WithField("role", name)
	}
	if actor, ok := auth.ActorFromContext(ctx); ok {
		entry = entry.WithField("actor_id", actor.ID)
	}
	entry.Error("role operation rolled back")
	return persistenceError(op)
}

// checkInput validates a create/update payload and returns it normalised:
// trimmed name and de-duplicated permission list.
func (m *Manager) checkInput(op string, in RoleInput) (RoleInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Permissions = dedupe(in.Permissions)

	if err := m.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return in, validationError(op, in.Name, "%s", describeFieldError(verrs[0]))
		}
		return in, validationError(op, in.Name, "invalid role input")
	}
	if err := m.validate.Var(in.Name, fmt.Sprintf("max=%d", m.cfg.MaxNameLength)); err != nil {
		return in, validationError(op, in.Name, "name must be at most %d characters", m.cfg.MaxNameLength)
	}

	return in, nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.StructField())
	if strings.HasPrefix(field, "permissions[") {
		field = "permissions"
	}
	switch fe.Tag() {
	case "required":
		if field == "permissions" {
			return "permission names must not be empty"
		}
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// checkPermissionsExist returns a validation error naming the first
// permission in names that the store does not know.
func checkPermissionsExist(ctx context.Context, s repository.Stores, op string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	perms, err := s.RBAC.ListPermissions(ctx)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	known := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		known[p.Name] = struct{}{}
	}
	for _, n := range names {
		if _, ok := known[n]; !ok {
			return validationError(op, n, "unknown permission: %s", n)
		}
	}
	return nil
}

func roleExists(ctx context.Context, s repository.Stores, name string) (bool, error) {
	_, err := s.RBAC.FindRoleByName(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("find role by name: %w", err)
}

func actorID(ctx context.Context) *string {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil
	}
	id := actor.ID
	return &id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
