package pipelines

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Status string

const (
	// StatusFetched means the item was downloaded during this run.
	StatusFetched Status = "fetched"
	// StatusSkipped means the destination already existed so nothing was requested.
	StatusSkipped Status = "skipped"
	// StatusWritten means a file was derived locally (combined table, extraction).
	StatusWritten Status = "written"
	StatusFailed  Status = "failed"
)

// Result is the outcome of processing a single item of a stage.
type Result struct {
	Stage  string
	Item   string
	Status Status
	Path   string
	Err    error
}

// Report collects the results of every stage of a run in the order they were produced.
type Report struct {
	Results []Result
}

func (r *Report) Add(results ...Result) {
	r.Results = append(r.Results, results...)
}

func (r Report) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Stages returns stage names in the order they first appear.
func (r Report) Stages() []string {
	var stages []string
	seen := map[string]bool{}
	for _, res := range r.Results {
		if seen[res.Stage] {
			continue
		}
		seen[res.Stage] = true
		stages = append(stages, res.Stage)
	}
	return stages
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Render writes a per-stage summary table followed by a table of failures, if any.
func (r Report) Render(w io.Writer) {
	counts := map[string]map[Status]int{}
	for _, res := range r.Results {
		if counts[res.Stage] == nil {
			counts[res.Stage] = map[Status]int{}
		}
		counts[res.Stage][res.Status]++
	}

	summary := newTable(w)
	summary.AppendHeader(table.Row{"Stage", "Fetched", "Skipped", "Written", "Failed"})
	for _, stage := range r.Stages() {
		c := counts[stage]
		summary.AppendRow(table.Row{
			stage,
			c[StatusFetched],
			c[StatusSkipped],
			c[StatusWritten],
			c[StatusFailed],
		})
	}
	summary.AppendFooter(table.Row{
		"Total",
		r.Count(StatusFetched),
		r.Count(StatusSkipped),
		r.Count(StatusWritten),
		r.Count(StatusFailed),
	})
	summary.Render()

	failures := r.Failures()
	if len(failures) == 0 {
		return
	}
	failed := newTable(w)
	failed.AppendHeader(table.Row{"Stage", "Item", "Error"})
	for _, res := range failures {
		failed.AppendRow(table.Row{res.Stage, res.Item, res.Err})
	}
	failed.Render()
}
