package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

// RoleCmd is the parent command for role operations
var RoleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles",
	Long:  `Commands for listing, creating, editing, deleting, cloning and inspecting roles.`,
}

func init() {
	RoleCmd.AddCommand(listCmd)
	RoleCmd.AddCommand(createCmd)
	RoleCmd.AddCommand(showCmd)
	RoleCmd.AddCommand(updateCmd)
	RoleCmd.AddCommand(deleteCmd)
	RoleCmd.AddCommand(cloneCmd)
	RoleCmd.AddCommand(statsCmd)
}

// withManager runs fn with a role manager bound to the configured database.
func withManager(cmd *cobra.Command, fn func(ctx context.Context, m *roles.Manager) error) error {
	rt := cmdutil.MustFromContext(cmd.Context())

	bundle, err := cmdutil.NewServiceBundle(rt)
	if err != nil {
		return err
	}
	defer bundle.Close()

	return fn(rt.OperationContext(cmd.Context()), bundle.Roles)
}

// describe turns a manager error into a one-line CLI message.
func describe(action string, err error) error {
	var merr *roles.Error
	if errors.As(err, &merr) {
		return fmt.Errorf("failed to %s role: %s (%s)", action, merr.Message, roles.KindName(err))
	}
	return fmt.Errorf("failed to %s role: %w", action, err)
}
