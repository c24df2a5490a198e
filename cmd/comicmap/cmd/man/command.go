// Package man provides the hidden command that renders the CLI man page.
package man

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// NewCommand creates the man command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Generate the comicmap(1) man page",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "COMICMAP",
				Section: "1",
				Source:  "comicmap",
				Manual:  "comicmap Manual",
			}
			return doc.GenMan(cmd.Root(), header, cmd.OutOrStdout())
		},
	}
}
