package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/comicmap/internal/server/events"
	"github.com/agentstation/comicmap/internal/server/response"
	"github.com/agentstation/comicmap/pkg/reconciler"
)

// CycleReport is the body of a cycle trigger response and of the
// cycle.completed event.
type CycleReport struct {
	Cycle       string   `json:"cycle"`
	Summary     string   `json:"summary"`
	Added       []string `json:"added"`
	Updated     []string `json:"updated"`
	Unchanged   int      `json:"unchanged"`
	Failed      []string `json:"failed"`
	Saved       bool     `json:"saved"`
	Pushed      bool     `json:"pushed"`
	Interrupted bool     `json:"interrupted,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func newCycleReport(res *reconciler.Result, err error) CycleReport {
	rep := CycleReport{
		Cycle:       res.Cycle,
		Summary:     res.Summary(),
		Added:       []string{},
		Updated:     []string{},
		Unchanged:   res.Unchanged,
		Failed:      []string{},
		Saved:       res.Saved,
		Pushed:      res.Pushed,
		Interrupted: res.Interrupted,
	}
	for _, rec := range res.Added {
		rep.Added = append(rep.Added, rec.Source)
	}
	for _, ch := range res.Updated {
		rep.Updated = append(rep.Updated, ch.New.Source)
	}
	for _, f := range res.Failed {
		rep.Failed = append(rep.Failed, f.Source)
	}
	if err != nil {
		rep.Error = err.Error()
	}
	return rep
}

// HandleIngest handles POST /api/v1/cycles/ingest.
func (h *Handlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	h.runCycle(w, r, h.client.Ingest)
}

// HandleRefresh handles POST /api/v1/cycles/refresh.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.runCycle(w, r, h.client.Refresh)
}

// runCycle runs one pass and publishes its report. A pass that saved locally
// but could not push still answers 200 with the push error in the report;
// the next cycle retries the push.
func (h *Handlers) runCycle(w http.ResponseWriter, r *http.Request, run func(context.Context) (*reconciler.Result, error)) {
	res, err := run(r.Context())
	if res == nil {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Cycle failed")
		response.ErrorFromType(w, err)
		return
	}

	rep := newCycleReport(res, err)
	h.broker.Publish(events.CycleCompleted, rep)

	if err != nil && !res.Saved {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, rep)
}
