package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/comicmap/cmd/comicmap/cmd/cycle"
	"github.com/agentstation/comicmap/cmd/comicmap/cmd/list"
	"github.com/agentstation/comicmap/cmd/comicmap/cmd/man"
	"github.com/agentstation/comicmap/cmd/comicmap/cmd/run"
	"github.com/agentstation/comicmap/cmd/comicmap/cmd/serve"
	"github.com/agentstation/comicmap/cmd/comicmap/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(run.NewCommand(a))
	rootCmd.AddCommand(cycle.NewIngestCommand(a))
	rootCmd.AddCommand(cycle.NewRefreshCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(version.NewCommand(a))
	rootCmd.AddCommand(man.NewCommand())
}
