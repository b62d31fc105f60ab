package auth

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/uptrace/bun"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth/bunadapter"
)

//go:embed model.conf
var casbinModelContent string

// NewModel parses the embedded RBAC model.
func NewModel() (model.Model, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	return m, nil
}

// NewEnforcer builds an enforcer whose adapter reads and writes through db.
//
// db is usually a bun.Tx: policies are loaded inside the transaction and every
// auto-saved change lands in it, so a rollback discards policy edits together
// with the rest of the unit of work. Enforcers are never shared across
// requests; each call loads a fresh copy of the policy.
func NewEnforcer(ctx context.Context, db bun.IDB) (*casbin.Enforcer, error) {
	m, err := NewModel()
	if err != nil {
		return nil, err
	}

	adapter := bunadapter.NewAdapter(ctx, db)

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	enforcer.EnableAutoSave(true)

	return enforcer, nil
}
