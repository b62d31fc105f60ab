package bunadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/uptrace/bun"
)

// Casbin policy storage on top of bun.
//
// The adapter is bound to a bun.IDB and never opens its own transaction.
// Callers pass a bun.Tx so that policy writes commit or roll back with the
// surrounding unit of work.

// Adapter persists casbin rules in the casbin_rules table.
type Adapter struct {
	ctx context.Context
	db  bun.IDB
}

var (
	_ persist.Adapter          = (*Adapter)(nil)
	_ persist.BatchAdapter     = (*Adapter)(nil)
	_ persist.UpdatableAdapter = (*Adapter)(nil)
)

// NewAdapter returns an adapter that issues every statement on db with ctx.
// Expects the casbin_rules table to exist.
func NewAdapter(ctx context.Context, db bun.IDB) *Adapter {
	return &Adapter{ctx: ctx, db: db}
}

// LoadPolicy loads all rules into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	var rules []*CasbinRule

	if err := a.db.NewSelect().Model(&rules).Scan(a.ctx); err != nil {
		return fmt.Errorf("failed to load policy from adapter db: %w", err)
	}

	for _, r := range rules {
		values, lastNonEmpty := r.toValueSlice()
		if lastNonEmpty == -1 {
			continue
		}
		if err := persist.LoadPolicyArray(append([]string{r.Ptype}, values[:lastNonEmpty+1]...), m); err != nil {
			return fmt.Errorf("load rule %s: %w", r, err)
		}
	}

	return nil
}

// SavePolicy replaces every stored rule with the rules held by the model.
func (a *Adapter) SavePolicy(m model.Model) error {
	if _, err := a.db.NewDelete().Model((*CasbinRule)(nil)).Where("1 = 1").Exec(a.ctx); err != nil {
		return fmt.Errorf("failed to clear adapter policy: %w", err)
	}
	if err := a.insert(extractRules(m)...); err != nil {
		return fmt.Errorf("failed to save policy to adapter db: %w", err)
	}
	return nil
}

// AddPolicy adds one rule.
func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	if err := a.insert(newCasbinRule(ptype, rule)); err != nil {
		return fmt.Errorf("failed to add adapter policy rule: %w", err)
	}
	return nil
}

// AddPolicies adds a batch of rules.
func (a *Adapter) AddPolicies(_ string, ptype string, rules [][]string) error {
	lines := make([]*CasbinRule, 0, len(rules))
	for _, rule := range rules {
		lines = append(lines, newCasbinRule(ptype, rule))
	}
	if err := a.insert(lines...); err != nil {
		return fmt.Errorf("failed to add policy rules: %w", err)
	}
	return nil
}

// RemovePolicy removes one rule.
func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	if err := a.delete(newCasbinRule(ptype, rule)); err != nil {
		return fmt.Errorf("failed to remove adapter policy rule: %w", err)
	}
	return nil
}

// RemovePolicies removes a batch of rules.
func (a *Adapter) RemovePolicies(_ string, ptype string, rules [][]string) error {
	lines := make([]*CasbinRule, 0, len(rules))
	for _, rule := range rules {
		lines = append(lines, newCasbinRule(ptype, rule))
	}
	if err := a.delete(lines...); err != nil {
		return fmt.Errorf("failed to remove policy rules: %w", err)
	}
	return nil
}

// RemoveFilteredPolicy removes the rules whose fields starting at fieldIndex
// match fieldValues. Empty values match anything.
func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	query := a.db.NewDelete().Model((*CasbinRule)(nil)).Where("ptype = ?", ptype)

	for i, v := range fieldValues {
		col := fieldIndex + i
		if v == "" || col < 0 || col > 5 {
			continue
		}
		query = query.Where("? = ?", bun.Ident(fmt.Sprintf("v%d", col)), v)
	}

	if _, err := query.Exec(a.ctx); err != nil {
		return fmt.Errorf("failed to remove filtered adapter policy: %w", err)
	}
	return nil
}

// UpdatePolicy replaces one rule.
func (a *Adapter) UpdatePolicy(sec string, ptype string, oldRule, newRule []string) error {
	return a.UpdatePolicies(sec, ptype, [][]string{oldRule}, [][]string{newRule})
}

// UpdatePolicies replaces oldRules[i] with newRules[i].
func (a *Adapter) UpdatePolicies(_ string, ptype string, oldRules, newRules [][]string) error {
	if len(oldRules) != len(newRules) {
		return fmt.Errorf("update policies: %d old rules but %d new rules", len(oldRules), len(newRules))
	}
	for i := range oldRules {
		if err := a.delete(newCasbinRule(ptype, oldRules[i])); err != nil {
			return fmt.Errorf("failed to update policy rule: %w", err)
		}
		if err := a.insert(newCasbinRule(ptype, newRules[i])); err != nil {
			return fmt.Errorf("failed to update policy rule: %w", err)
		}
	}
	return nil
}

// UpdateFilteredPolicies replaces every rule matching the filter with newRules
// and returns the rules that were removed.
func (a *Adapter) UpdateFilteredPolicies(_ string, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	var old []*CasbinRule
	query := a.db.NewSelect().Model(&old).Where("ptype = ?", ptype)
	for i, v := range fieldValues {
		col := fieldIndex + i
		if v == "" || col < 0 || col > 5 {
			continue
		}
		query = query.Where("? = ?", bun.Ident(fmt.Sprintf("v%d", col)), v)
	}

	if err := query.Scan(a.ctx); err != nil {
		return nil, fmt.Errorf("failed to select filtered policy: %w", err)
	}
	if err := a.delete(old...); err != nil {
		return nil, fmt.Errorf("failed to remove filtered policy: %w", err)
	}

	lines := make([]*CasbinRule, 0, len(newRules))
	for _, rule := range newRules {
		lines = append(lines, newCasbinRule(ptype, rule))
	}
	if err := a.insert(lines...); err != nil {
		return nil, fmt.Errorf("failed to insert replacement policy: %w", err)
	}

	removed := make([][]string, 0, len(old))
	for _, r := range old {
		values, last := r.toValueSlice()
		removed = append(removed, values[:last+1])
	}
	return removed, nil
}

func extractRules(m model.Model) []*CasbinRule {
	var rules []*CasbinRule
	for _, sec := range []string{"p", "g"} {
		for ptype, assertion := range m[sec] {
			for _, rule := range assertion.Policy {
				rules = append(rules, newCasbinRule(ptype, rule))
			}
		}
	}
	return rules
}

func (a *Adapter) insert(lines ...*CasbinRule) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := a.db.NewInsert().Model(&lines).On("CONFLICT DO NOTHING").Exec(a.ctx)
	return err
}

func (a *Adapter) delete(lines ...*CasbinRule) error {
	if len(lines) == 0 {
		return nil
	}

	q := a.db.NewDelete().Model((*CasbinRule)(nil))
	q = q.WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
		for _, line := range lines {
			q = q.WhereGroup(" OR ", line.whereExact)
		}
		return q
	})
	_, err := q.Exec(a.ctx)
	return err
}

// CasbinRule is one row of casbin_rules. All columns form a composite primary key.
type CasbinRule struct {
	bun.BaseModel `bun:"table:casbin_rules,alias:cr"`

	Ptype string `bun:",pk,type:varchar(100),notnull"` // 'p' (role → permission) or 'g' (user → role)
	V0    string `bun:",pk,type:varchar(255)"`         // role subject (p) or user subject (g)
	V1    string `bun:",pk,type:varchar(255)"`         // permission name (p) or role subject (g)
	V2    string `bun:",pk,type:varchar(255)"`
	V3    string `bun:",pk,type:varchar(255)"`
	V4    string `bun:",pk,type:varchar(255)"`
	V5    string `bun:",pk,type:varchar(255)"`
}

// NewRule builds a row from a policy type and its values.
func NewRule(ptype string, rule ...string) *CasbinRule {
	return newCasbinRule(ptype, rule)
}

func newCasbinRule(ptype string, rule []string) *CasbinRule {
	line := &CasbinRule{Ptype: ptype}
	fields := []*string{&line.V0, &line.V1, &line.V2, &line.V3, &line.V4, &line.V5}
	for i, v := range rule {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
	return line
}

func (r *CasbinRule) String() string {
	values, last := r.toValueSlice()
	return strings.Join(append([]string{r.Ptype}, values[:last+1]...), ", ")
}

// whereExact matches this exact row, empty columns included.
func (r *CasbinRule) whereExact(q *bun.DeleteQuery) *bun.DeleteQuery {
	return q.Where("ptype = ?", r.Ptype).
		Where("v0 = ?", r.V0).
		Where("v1 = ?", r.V1).
		Where("v2 = ?", r.V2).
		Where("v3 = ?", r.V3).
		Where("v4 = ?", r.V4).
		Where("v5 = ?", r.V5)
}

func (r *CasbinRule) toValueSlice() ([]string, int) {
	values := []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5}
	lastNonEmpty := -1
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != "" {
			lastNonEmpty = i
			break
		}
	}
	return values, lastNonEmpty
}
