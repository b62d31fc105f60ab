// Package audit records role administration events.
//
// Events are advisory: they are emitted after the change has committed and a
// recorder failure never fails the operation.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Operation names.
const (
	OpRoleCreated = "role.created"
	OpRoleUpdated = "role.updated"
	OpRoleDeleted = "role.deleted"
	OpRoleCloned  = "role.cloned"
)

// Event describes one committed change.
type Event struct {
	Operation string
	ActorID   string
	RoleID    string
	RoleName  string
	// PreviousName is set when an update renamed the role.
	PreviousName string
	Counts       map[string]int
	At           time.Time
}

// Recorder receives audit events.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LogRecorder writes each event as one structured log entry.
type LogRecorder struct {
	log logrus.FieldLogger
}

// NewLogRecorder returns a recorder that logs to log.
func NewLogRecorder(log logrus.FieldLogger) *LogRecorder {
	return &LogRecorder{log: log.WithField("component", "audit")}
}

func (r *LogRecorder) Record(_ context.Context, event Event) {
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	fields := logrus.Fields{
		"operation": event.Operation,
		"actor_id":  event.ActorID,
		"role_id":   event.RoleID,
		"role_name": event.RoleName,
		"at":        at.Format(time.RFC3339),
	}
	if event.PreviousName != "" {
		fields["previous_name"] = event.PreviousName
	}
	for k, v := range event.Counts {
		fields[k] = v
	}
	r.log.WithFields(fields).Info("audit")
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
