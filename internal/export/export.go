// Package export tracks print jobs. Jobs are appended in submission order
// and then updated in place as the print service answers, in any order.
package export

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covgis/meters/internal/feature"
	"github.com/covgis/meters/internal/pubsub"
)

type Status int

const (
	Pending Status = iota
	Complete
	Failed
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Failed:
		return "error"
	default:
		return "pending"
	}
}

func (s Status) Terminal() bool { return s != Pending }

// Template describes one print request: the page and the map to put on it.
type Template struct {
	Title  string
	Format string
	Layout string
	Extent feature.Extent
	Scale  float64
}

type Result struct {
	URL string
}

// Printer is the print collaborator.
type Printer interface {
	Print(ctx context.Context, tpl Template) (Result, error)
}

// Job is one export. ID is its position in submission order, from 1.
type Job struct {
	ID        int
	Title     string
	Status    Status
	URL       string
	Submitted time.Time
	Finished  time.Time
}

// Snapshot is the renderable job list, in submission order.
type Snapshot struct {
	Jobs []Job
}

// ResultMsg carries a print result back to the UI loop.
type ResultMsg struct {
	ID     int
	Result Result
	Err    error
}

// TitlePlaceholder in a title template is replaced by the job id.
const TitlePlaceholder = "{n}"

// Tracker owns the job arena. All methods must be called from the UI loop.
type Tracker struct {
	printer  Printer
	base     context.Context
	template func() Template
	now      func() time.Time

	jobs   []*Job
	broker *pubsub.Broker[Snapshot]
}

// NewTracker returns a tracker that prints the template returned by
// template at submission time.
func NewTracker(ctx context.Context, printer Printer, template func() Template) *Tracker {
	return &Tracker{
		printer:  printer,
		base:     ctx,
		template: template,
		now:      time.Now,
		broker:   pubsub.NewBroker[Snapshot](),
	}
}

// Submit appends a pending job and returns the command that prints it.
func (t *Tracker) Submit(titleTemplate string) (int, tea.Cmd) {
	id := len(t.jobs) + 1
	title := strings.ReplaceAll(titleTemplate, TitlePlaceholder, strconv.Itoa(id))
	t.jobs = append(t.jobs, &Job{ID: id, Title: title, Status: Pending, Submitted: t.now()})
	t.publish()

	tpl := t.template()
	tpl.Title = title
	printer, ctx := t.printer, t.base
	return id, func() tea.Msg {
		res, err := printer.Print(ctx, tpl)
		return ResultMsg{ID: id, Result: res, Err: err}
	}
}

// Apply resolves the job named by msg. It reports false, and changes
// nothing, for unknown ids and jobs that already left pending.
func (t *Tracker) Apply(msg ResultMsg) (Job, bool) {
	job := t.lookup(msg.ID)
	if job == nil || job.Status.Terminal() {
		return Job{}, false
	}
	job.Finished = t.now()
	if msg.Err != nil {
		slog.Error("export failed", "job", job.ID, "title", job.Title, "error", msg.Err)
		job.Status = Failed
	} else {
		job.Status = Complete
		job.URL = msg.Result.URL
	}
	t.publish()
	return *job, true
}

func (t *Tracker) lookup(id int) *Job {
	if id < 1 || id > len(t.jobs) {
		return nil
	}
	return t.jobs[id-1]
}

func (t *Tracker) Job(id int) (Job, bool) {
	job := t.lookup(id)
	if job == nil {
		return Job{}, false
	}
	return *job, true
}

func (t *Tracker) Len() int { return len(t.jobs) }

// PendingCount is the number of jobs still waiting on the print service.
func (t *Tracker) PendingCount() int {
	n := 0
	for _, j := range t.jobs {
		if j.Status == Pending {
			n++
		}
	}
	return n
}

func (t *Tracker) Snapshot() Snapshot {
	jobs := make([]Job, len(t.jobs))
	for i, j := range t.jobs {
		jobs[i] = *j
	}
	return Snapshot{Jobs: jobs}
}

func (t *Tracker) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return t.broker.Subscribe(ctx)
}

func (t *Tracker) Close() {
	t.broker.Shutdown()
}

func (t *Tracker) publish() {
	t.broker.Publish(pubsub.EventStateChanged, t.Snapshot())
}
