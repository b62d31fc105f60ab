package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
	"github.com/kathembo-tsongo/timetabling-sub001/cmd/permission"
	"github.com/kathembo-tsongo/timetabling-sub001/cmd/role"
	"github.com/kathembo-tsongo/timetabling-sub001/cmd/users"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/config"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/logging"
)

var (
	cfg        *config.Config
	rt         *cmdutil.Runtime
	configFile string
	actAs      string
)

var rootCmd = &cobra.Command{
	Use:   "timetableapi",
	Short: "Role and permission administration for the timetabling system",
	Long: `timetableapi manages the roles and permissions of the timetabling system.
It serves the admin JSON API and offers the same role operations from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		rt = &cmdutil.Runtime{
			Config: cfg,
			Logger: logging.New(logging.Options{Format: cfg.LogFormat, Debug: cfg.Debug}),
			ActAs:  actAs,
		}
		cmd.SetContext(cmdutil.WithRuntime(cmd.Context(), rt))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flags.String("db-url", "", "Database connection URL (env: TIMETABLE_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: TIMETABLE_SERVER_ADDR)")
	flags.Bool("debug", false, "Enable debug logging (env: TIMETABLE_DEBUG)")
	flags.StringVar(&actAs, "as", "", "User id recorded as the actor of role changes")

	_ = viper.BindPFlag("database_url", flags.Lookup("db-url"))
	_ = viper.BindPFlag("server_addr", flags.Lookup("server-addr"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(role.RoleCmd)
	rootCmd.AddCommand(permission.PermissionCmd)
	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
