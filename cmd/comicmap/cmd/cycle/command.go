// Package cycle provides commands that run a single ingest or refresh pass.
package cycle

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/internal/cmd/output"
	"github.com/agentstation/comicmap/internal/cmd/table"
	"github.com/agentstation/comicmap/pkg/reconciler"
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "ingest",
		GroupID: "core",
		Short:   "Sync the request list and add new series once",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, app, func(ctx context.Context, c comicmap.Client) (*reconciler.Result, error) {
				return c.Ingest(ctx)
			})
		},
	}
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "refresh",
		GroupID: "core",
		Short:   "Re-check every tracked series for new chapters once",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, app, func(ctx context.Context, c comicmap.Client) (*reconciler.Result, error) {
				return c.Refresh(ctx)
			})
		},
	}
}

type cycleFunc func(context.Context, comicmap.Client) (*reconciler.Result, error)

func runOnce(cmd *cobra.Command, app appcontext.Interface, run cycleFunc) error {
	client, err := app.Client()
	if err != nil {
		return err
	}

	result, err := run(cmd.Context(), client)
	if result != nil {
		if perr := printResult(cmd.OutOrStdout(), result, output.DetectFormat(app.OutputFormat())); perr != nil {
			return perr
		}
	}
	return err
}

// Report is the structured view of a cycle result.
type Report struct {
	Cycle     string   `json:"cycle" yaml:"cycle"`
	Added     []string `json:"added" yaml:"added"`
	Updated   []Update `json:"updated" yaml:"updated"`
	Unchanged int      `json:"unchanged" yaml:"unchanged"`
	Failed    []Failed `json:"failed" yaml:"failed"`
	Saved     bool     `json:"saved" yaml:"saved"`
	Pushed    bool     `json:"pushed" yaml:"pushed"`
	Duration  string   `json:"duration" yaml:"duration"`
}

// Update is a chapter count change.
type Update struct {
	Source string `json:"source" yaml:"source"`
	Title  string `json:"title" yaml:"title"`
	Old    int    `json:"old" yaml:"old"`
	New    int    `json:"new" yaml:"new"`
}

// Failed is a source that could not be extracted.
type Failed struct {
	Source string `json:"source" yaml:"source"`
	Error  string `json:"error" yaml:"error"`
}

// NewReport converts a result for output.
func NewReport(r *reconciler.Result) Report {
	rep := Report{
		Cycle:     r.Cycle,
		Added:     []string{},
		Updated:   []Update{},
		Unchanged: r.Unchanged,
		Failed:    []Failed{},
		Saved:     r.Saved,
		Pushed:    r.Pushed,
		Duration:  r.Duration.Round(time.Millisecond).String(),
	}
	for _, rec := range r.Added {
		rep.Added = append(rep.Added, rec.Source)
	}
	for _, ch := range r.Updated {
		rep.Updated = append(rep.Updated, Update{
			Source: ch.New.Source,
			Title:  ch.New.Title,
			Old:    ch.Old.ChapterCount,
			New:    ch.New.ChapterCount,
		})
	}
	for _, f := range r.Failed {
		rep.Failed = append(rep.Failed, Failed{Source: f.Source, Error: f.Err.Error()})
	}
	return rep
}

func printResult(w io.Writer, r *reconciler.Result, format output.Format) error {
	if format == output.FormatJSON || format == output.FormatYAML {
		return output.NewFormatter(format).Format(w, NewReport(r))
	}

	data := table.Data{Headers: []string{"Change", "Source", "Detail"}}
	for _, rec := range r.Added {
		data.Rows = append(data.Rows, []string{"added", rec.Source, rec.Title})
	}
	for _, ch := range r.Updated {
		detail := strconv.Itoa(ch.Old.ChapterCount) + " -> " + strconv.Itoa(ch.New.ChapterCount)
		data.Rows = append(data.Rows, []string{"updated", ch.New.Source, detail})
	}
	for _, f := range r.Failed {
		data.Rows = append(data.Rows, []string{"failed", f.Source, f.Err.Error()})
	}
	if len(data.Rows) > 0 {
		if err := output.NewFormatter(output.FormatTable).Format(w, data); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, r.Summary())
	return err
}
