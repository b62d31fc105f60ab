package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

var assignRoleCmd = &cobra.Command{
	Use:   "assign-role [user_id|email] [role]",
	Short: "Assign a role to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeAssignment(cmd, args[0], args[1], true)
	},
}

var revokeRoleCmd = &cobra.Command{
	Use:   "revoke-role [user_id|email] [role]",
	Short: "Remove a role from a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeAssignment(cmd, args[0], args[1], false)
	},
}

func changeAssignment(cmd *cobra.Command, userRef, roleName string, assign bool) error {
	rt := cmdutil.MustFromContext(cmd.Context())
	bundle, err := cmdutil.NewServiceBundle(rt)
	if err != nil {
		return err
	}
	defer bundle.Close()

	var user *models.User
	err = bundle.UnitOfWork.InTx(cmd.Context(), func(ctx context.Context, s repository.Stores) error {
		user, err = resolveUser(ctx, s.Users, userRef)
		if err != nil {
			return err
		}
		role, err := s.RBAC.FindRoleByName(ctx, roleName)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("role '%s' does not exist", roleName)
			}
			return err
		}
		if assign {
			return s.RBAC.AssignRole(ctx, user.ID, role)
		}
		return s.RBAC.RevokeRole(ctx, user.ID, role)
	})
	if err != nil {
		if assign {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	if assign {
		fmt.Printf("Assigned role '%s' to %s\n", roleName, user.Email)
	} else {
		fmt.Printf("Revoked role '%s' from %s\n", roleName, user.Email)
	}
	return nil
}

// resolveUser accepts either a user id or an email address.
func resolveUser(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = users.GetByEmail(ctx, strings.ToLower(ref))
	} else {
		user, err = users.GetByID(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user '%s' not found", ref)
	}
	return user, err
}
