package role

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

var showCmd = &cobra.Command{
	Use:   "show [role_id]",
	Short: "Show a dynamic role as the edit form sees it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			role, err := m.EditLoad(ctx, args[0])
			if err != nil {
				return describe("load", err)
			}

			fmt.Printf("Role: %s (%s)\n", role.Name, role.ID)
			fmt.Printf("Description: %s\n", role.Description)
			fmt.Println("Permissions:")
			for _, p := range role.Permissions {
				fmt.Printf("  - %s\n", p)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [role_id]",
	Short: "Show usage and ledger details of any role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			stats, err := m.Stats(ctx, args[0])
			if err != nil {
				return describe("inspect", err)
			}

			fmt.Printf("Role:             %s (%s)\n", stats.Name, stats.ID)
			fmt.Printf("Core:             %t\n", stats.IsCore)
			fmt.Printf("Description:      %s\n", stats.Description)
			fmt.Printf("Users:            %d\n", stats.UsersCount)
			fmt.Printf("Permissions:      %d\n", stats.PermissionsCount)
			fmt.Printf("Created by:       %s\n", orDash(stats.CreatedBy.String()))
			fmt.Printf("Last modified by: %s\n", orDash(stats.LastModifiedBy.String()))
			fmt.Printf("Created at:       %s\n", stats.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Updated at:       %s\n", stats.UpdatedAt.Format(time.RFC3339))
			return nil
		})
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
