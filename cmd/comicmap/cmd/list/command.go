// Package list provides the command that prints the local collection.
package list

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/internal/cmd/output"
	"github.com/agentstation/comicmap/pkg/comics"
)

// NewCommand creates the list command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var q comics.Query

	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "core",
		Short:   "List tracked series from the local collection",
		Example: `  comicmap list                       # Table of all tracked series
  comicmap list --sort updated -n 10  # Ten most recently updated
  comicmap list --genre action -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			c, err := client.Collection(cmd.Context())
			if err != nil {
				return err
			}
			c, err = c.Query(q)
			if err != nil {
				return err
			}
			return output.FormatCollection(cmd.OutOrStdout(), c, output.DetectFormat(app.OutputFormat()))
		},
	}

	cmd.Flags().StringVar(&q.Sort, "sort", "", "sort by: title, chapters, updated")
	cmd.Flags().StringVar(&q.Genre, "genre", "", "only series tagged with this genre (case-insensitive)")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "maximum number of series to show")

	return cmd
}
