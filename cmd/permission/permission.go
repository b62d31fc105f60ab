package permission

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/cmd/cmdutil"
)

// PermissionCmd is the parent command for permission operations
var PermissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Inspect the permission catalog",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List permissions grouped by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := cmdutil.MustFromContext(cmd.Context())
		bundle, err := cmdutil.NewServiceBundle(rt)
		if err != nil {
			return err
		}
		defer bundle.Close()

		groups, err := bundle.Permissions.ListByCategory(rt.OperationContext(cmd.Context()))
		if err != nil {
			return fmt.Errorf("failed to list permissions: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CATEGORY\tPERMISSION\tCORE\tDESCRIPTION")
		for _, g := range groups {
			for _, p := range g.Permissions {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", g.Label, p.Name, p.IsCore, p.Description)
			}
		}
		return w.Flush()
	},
}

func init() {
	PermissionCmd.AddCommand(listCmd)
}
