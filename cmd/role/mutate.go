package role

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

var (
	descriptionFlag string
	permissionFlags []string
	nameFlag        string
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a dynamic role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			ref, err := m.Create(ctx, roles.RoleInput{
				Name:        args[0],
				Description: descriptionFlag,
				Permissions: permissionFlags,
			})
			if err != nil {
				return describe("create", err)
			}
			fmt.Printf("Created role '%s' (%s) with %d permission(s)\n", ref.Name, ref.ID, len(permissionFlags))
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [role_id]",
	Short: "Rename a dynamic role, change its description or replace its permissions",
	Long: `Updates a dynamic role. Flags that are not given keep their current value;
--permission replaces the whole permission set when given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			current, err := m.EditLoad(ctx, args[0])
			if err != nil {
				return describe("update", err)
			}

			in, err := updateInput(cmd, current)
			if err != nil {
				return err
			}

			ref, err := m.Update(ctx, args[0], in)
			if err != nil {
				return describe("update", err)
			}
			fmt.Printf("Updated role '%s' (%s)\n", ref.Name, ref.ID)
			return nil
		})
	},
}

// updateInput starts from the role as it is stored and overrides only the
// fields whose flags were given on the command line.
func updateInput(cmd *cobra.Command, current *roles.RoleForEdit) (roles.RoleInput, error) {
	in := roles.RoleInput{
		Name:        current.Name,
		Description: current.Description,
		Permissions: current.Permissions,
	}

	flags := cmd.Flags()
	var err error
	if flags.Changed("name") {
		if in.Name, err = flags.GetString("name"); err != nil {
			return in, err
		}
	}
	if flags.Changed("description") {
		if in.Description, err = flags.GetString("description"); err != nil {
			return in, err
		}
	}
	if flags.Changed("permission") {
		if in.Permissions, err = flags.GetStringSlice("permission"); err != nil {
			return in, err
		}
	}
	return in, nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete [role_id]",
	Short: "Delete a dynamic role that no user holds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			if err := m.Delete(ctx, args[0]); err != nil {
				return describe("delete", err)
			}
			fmt.Printf("Deleted role %s\n", args[0])
			return nil
		})
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone [role_id]",
	Short: "Copy a role and its permissions into a new dynamic role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			ref, err := m.Clone(ctx, args[0])
			if err != nil {
				return describe("clone", err)
			}
			fmt.Printf("Cloned role as '%s' (%s)\n", ref.Name, ref.ID)
			return nil
		})
	},
}

func init() {
	createCmd.Flags().StringVar(&descriptionFlag, "description", "", "Role description")
	createCmd.Flags().StringSliceVar(&permissionFlags, "permission", nil, "Permission(s) to grant")

	updateCmd.Flags().StringVar(&nameFlag, "name", "", "New role name")
	updateCmd.Flags().StringVar(&descriptionFlag, "description", "", "New role description")
	updateCmd.Flags().StringSliceVar(&permissionFlags, "permission", nil, "Permission(s) the role should have")
}
