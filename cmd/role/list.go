package role

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		search, _ := cmd.Flags().GetString("search")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		return withManager(cmd, func(ctx context.Context, m *roles.Manager) error {
			list, err := m.List(ctx, roles.ListQuery{
				Filter:   roles.Filter(filter),
				Search:   search,
				Page:     page,
				PageSize: perPage,
			})
			if err != nil {
				return describe("list", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tCORE\tUSERS\tPERMISSIONS\tDESCRIPTION")
			for _, r := range list.Roles {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%d\t%s\n",
					r.ID, r.Name, r.IsCore, r.UsersCount, r.PermissionsCount, r.Description)
			}
			_ = w.Flush()

			p := list.Pagination
			fmt.Printf("\nPage %d of %d (%d roles)\n", p.Page, max(p.TotalPages, 1), p.Total)
			return nil
		})
	},
}

func init() {
	listCmd.Flags().String("filter", "all", "Which roles to list: all, core or dynamic")
	listCmd.Flags().String("search", "", "Case-insensitive substring of the role name")
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("per-page", 0, "Roles per page (defaults to page_size from config)")
}
