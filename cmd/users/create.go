package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

var (
	emailFlag  string
	nameFlag   string
	rolesInput []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user and optionally assign roles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if nameFlag == "" {
			return fmt.Errorf("--name flag is required")
		}
		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}

		rt := cmdutil.MustFromContext(cmd.Context())
		bundle, err := cmdutil.NewServiceBundle(rt)
		if err != nil {
			return err
		}
		defer bundle.Close()

		user := &models.User{Name: nameFlag, Email: strings.ToLower(emailFlag)}
		err = bundle.UnitOfWork.InTx(cmd.Context(), func(ctx context.Context, s repository.Stores) error {
			if err := s.Users.Create(ctx, user); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("user with email %s already exists", user.Email)
				}
				return err
			}
			for _, name := range rolesInput {
				role, err := s.RBAC.FindRoleByName(ctx, name)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return fmt.Errorf("role '%s' does not exist", name)
					}
					return err
				}
				if err := s.RBAC.AssignRole(ctx, user.ID, role); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("Created user %s <%s> (%s)\n", user.Name, user.Email, user.ID)
		for _, name := range rolesInput {
			fmt.Printf("  - assigned role '%s'\n", name)
		}
		return nil
	},
}
