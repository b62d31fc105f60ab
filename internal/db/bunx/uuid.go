package bunx

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUIDv7 string. Primary keys are generated
// in Go so that the same schema works on SQLite, which has no
// gen_random_uuid(). It panics only if the entropy source fails.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
