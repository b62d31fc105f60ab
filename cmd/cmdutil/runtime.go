// Package cmdutil carries the loaded configuration and logger to subcommands
// and builds the services they use.
package cmdutil

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/config"
)

// Runtime is what the root command prepares before any subcommand runs.
type Runtime struct {
	Config *config.Config
	Logger *logrus.Logger
	// ActAs is the user id passed with --as, recorded as creator or modifier.
	ActAs string
}

type runtimeKey struct{}

// WithRuntime stores rt on ctx.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// MustFromContext returns the runtime stored by the root command.
func MustFromContext(ctx context.Context) *Runtime {
	rt, ok := ctx.Value(runtimeKey{}).(*Runtime)
	if !ok || rt == nil {
		panic("cmdutil: runtime missing from command context")
	}
	return rt
}

// OperationContext tags ctx as a CLI operation and attaches the --as actor.
func (rt *Runtime) OperationContext(ctx context.Context) context.Context {
	ctx = auth.WithChannel(ctx, auth.ChannelCLI)
	if rt.ActAs != "" {
		ctx = auth.WithActor(ctx, auth.Actor{ID: rt.ActAs})
	}
	return ctx
}
