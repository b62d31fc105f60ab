package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for user management operations
var UsersCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"users"},
	Short:   "Manage users and their role assignments",
}

func init() {
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user")
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Display name of the user")
	createCmd.Flags().StringSliceVar(&rolesInput, "role", []string{}, "Role name(s) to assign to the user")

	tokenCmd.Flags().DurationVar(&ttlFlag, "ttl", defaultTokenTTL, "Token lifetime")

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(assignRoleCmd)
	UsersCmd.AddCommand(revokeRoleCmd)
	UsersCmd.AddCommand(tokenCmd)
}
