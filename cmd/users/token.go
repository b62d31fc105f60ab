package users

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/db/models"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

const defaultTokenTTL = 8 * time.Hour

var ttlFlag time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [user_id|email]",
	Short: "Mint a bearer token for the admin API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := cmdutil.MustFromContext(cmd.Context())
		if !rt.Config.Auth.Enabled() {
			return fmt.Errorf("auth.token_secret is not configured")
		}

		bundle, err := cmdutil.NewServiceBundle(rt)
		if err != nil {
			return err
		}
		defer bundle.Close()

		var user *models.User
		err = bundle.UnitOfWork.Read(cmd.Context(), func(ctx context.Context, s repository.Stores) error {
			user, err = resolveUser(ctx, s.Users, args[0])
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}

		token, err := auth.SignToken([]byte(rt.Config.Auth.TokenSecret), user.ID, user.Name, ttlFlag, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}
