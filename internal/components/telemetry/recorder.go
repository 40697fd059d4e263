package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KindBroken ReportKind = iota
	KindWarning
	KindInfo
	KindDebug
	KindCount
)

type Report struct {
	Kind ReportKind
	// Id holds the message for info and debug reports.
	Id     string
	Params []any
	Count  int64
}

// Recorder implements API by keeping every report in memory so tests can assert on them.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(report Report) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: KindBroken, Id: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: KindWarning, Id: id, Params: params})
}

func (r *Recorder) ReportInfo(msg string, params ...any) {
	r.add(Report{Kind: KindInfo, Id: msg, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: KindDebug, Id: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: KindCount, Id: id, Count: count})
}

// Reports returns a copy of every report of the given kind.
func (r *Recorder) Reports(kind ReportKind) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Has returns true if a report of the given kind has an id ending with `suffix`,
// suffixes are matched so that scoped namespaces don't need to be spelled out.
func (r *Recorder) Has(kind ReportKind, suffix string) bool {
	for _, report := range r.Reports(kind) {
		if strings.HasSuffix(report.Id, suffix) {
			return true
		}
	}
	return false
}
