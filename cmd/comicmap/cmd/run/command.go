// Package run provides the command that runs both background cycles until interrupted.
package run

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/comicmap/internal/appcontext"
)

// NewCommand creates the run command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Run the ingest and refresh loops until interrupted",
		Long: `Run starts two independent loops. The ingest loop syncs the request
list and adds series that are not tracked yet; the refresh loop re-checks
every tracked series for a new chapter count. Both run once immediately,
then on their configured intervals (ingest_interval, refresh_interval).

Errors inside a cycle are logged and the loop continues. Ctrl+C stops both
loops after their in-flight cycles return.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := app.Logger()

			client, err := app.Client()
			if err != nil {
				return err
			}
			if err := client.AutoUpdatesOn(); err != nil {
				return err
			}

			logger.Info().Msg("comicmap running, press Ctrl+C to stop")
			<-ctx.Done()
			logger.Info().Msg("Shutting down")
			return client.AutoUpdatesOff()
		},
	}
}
