package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DefaultPermissionCategory is used when a permission has no ledger row.
const DefaultPermissionCategory = "general"

// RoleMeta is the metadata ledger row for a role, keyed by role name.
// No foreign key to roles; a rename re-keys the row in the same transaction.
type RoleMeta struct {
	bun.BaseModel `bun:"table:role_meta,alias:rm"`

	ID             string    `bun:"id,pk,type:uuid"`
	RoleName       string    `bun:"role_name,notnull,unique"`
	Description    string    `bun:"description"`
	IsCore         bool      `bun:"is_core,notnull,default:false"`
	CreatedBy      *string   `bun:"created_by,type:uuid"`
	LastModifiedBy *string   `bun:"last_modified_by,type:uuid"`
	Metadata       Metadata  `bun:"metadata,type:jsonb,notnull,default:'{}'"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// PermissionMeta is the metadata ledger row for a permission.
type PermissionMeta struct {
	bun.BaseModel `bun:"table:permission_meta,alias:pm"`

	ID             string    `bun:"id,pk,type:uuid"`
	PermissionName string    `bun:"permission_name,notnull,unique"`
	Description    string    `bun:"description"`
	IsCore         bool      `bun:"is_core,notnull,default:false"`
	Category       string    `bun:"category,notnull,default:'general'"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Metadata is the open key/value bag attached to a role ledger row
// (creation channel, timestamps, permission count snapshot, clone provenance).
type Metadata map[string]any

// Scan implements sql.Scanner. SQLite hands back TEXT, Postgres hands back bytes.
func (m *Metadata) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = make(Metadata)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Metadata: unexpected type %T", value)
	}
	if len(raw) == 0 {
		*m = make(Metadata)
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Clone returns a shallow copy that is safe to extend.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
