package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a staff or student account that can hold roles.
// Only the fields needed to display creators and to validate role
// assignments live here; the rest of the account record is owned elsewhere.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Role is a named bundle of permissions. The authorization rules that bind a
// role to permissions and users are held as casbin policies keyed by name.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID        string    `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull,unique"`
	GuardName string    `bun:"guard_name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Permission is an atomic capability string such as "roles.create".
// Permissions are seeded; the application never creates or deletes them.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID        string    `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull,unique"`
	GuardName string    `bun:"guard_name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
