// Package version provides the version command.
package version

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/internal/cmd/output"
)

// Info is the build information printed by the command.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// NewCommand creates the version command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version:   app.Version(),
				Commit:    app.Commit(),
				Date:      app.Date(),
				BuiltBy:   app.BuiltBy(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			format := output.Format(app.OutputFormat())
			if format == "" {
				format = output.FormatTable
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), info)
		},
	}
}
