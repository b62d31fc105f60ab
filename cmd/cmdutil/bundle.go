package cmdutil

import (
	"fmt"

	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/audit"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/bunx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/permissions"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/telemetry"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/unitofwork"
)

// ServiceBundle bundles the services with their DB connection so callers can
// reuse the connection for other work.
type ServiceBundle struct {
	DB          *bun.DB
	UnitOfWork  *unitofwork.Bun
	Roles       *roles.Manager
	Permissions *permissions.Service
}

// Close releases the underlying database connection.
func (b *ServiceBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	_ = bunx.Close(b.DB)
}

// NewServiceBundle connects to the configured database and wires the role
// manager and permission catalog on top of it.
func NewServiceBundle(rt *Runtime) (*ServiceBundle, error) {
	cfg := rt.Config

	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	metrics, err := telemetry.NewRoleMetrics()
	if err != nil {
		_ = bunx.Close(db)
		return nil, fmt.Errorf("failed to create role metrics: %w", err)
	}

	uow := unitofwork.New(db)
	manager, err := roles.NewManager(roles.Dependencies{
		UnitOfWork: uow,
		Audit:      audit.NewLogRecorder(rt.Logger),
		Logger:     rt.Logger,
		Metrics:    metrics,
	}, roles.Config{
		Guard:           cfg.RoleGuard,
		CoreRoles:       cfg.CoreRoles,
		DefaultPageSize: cfg.PageSize,
		MaxNameLength:   cfg.MaxRoleNameLength,
	})
	if err != nil {
		_ = bunx.Close(db)
		return nil, fmt.Errorf("failed to create role manager: %w", err)
	}

	return &ServiceBundle{
		DB:          db,
		UnitOfWork:  uow,
		Roles:       manager,
		Permissions: permissions.NewService(uow, rt.Logger),
	}, nil
}
