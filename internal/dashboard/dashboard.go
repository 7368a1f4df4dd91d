// Package dashboard wires one List Controller per view to its Resource
// Client and exposes the shared view state over JSON.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/domain/summary"
	"github.com/clinica/dashboard/internal/platform/debounce"
	"github.com/clinica/dashboard/internal/platform/listing"
)

const defaultDebounceWindow = 300 * time.Millisecond

// Clients are the upstream backends the dashboard reads from.
// Orchestrator may be nil, in which case Summaries serves orchestration.
type Clients struct {
	Patients     *patient.Client
	Doctors      *doctor.Client
	Exams        *exam.Client
	Summaries    *summary.Client
	Orchestrator *summary.Client
}

// Options tune the views.
type Options struct {
	ExamsLoadCap   int
	DebounceWindow time.Duration
	// DebounceClock replaces the wall clock of the doctors search box.
	DebounceClock debounce.Clock
}

// Dashboard holds the state of every view. A single instance is shared by
// all requests.
type Dashboard struct {
	Patients  *listing.Controller[patient.Patient, patient.ID]
	Doctors   *listing.Controller[doctor.Doctor, doctor.ID]
	Exams     *listing.Controller[exam.Exam, exam.ID]
	Summaries *SummaryView

	exams        *exam.Client
	orchestrator *summary.Client
	doctorQuery  *debounce.Debouncer[string]
	logger       zerolog.Logger
}

// New builds the views over clients.
func New(clients Clients, opts Options, logger zerolog.Logger) *Dashboard {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaultDebounceWindow
	}
	orchestrator := clients.Orchestrator
	if orchestrator == nil {
		orchestrator = clients.Summaries
	}

	d := &Dashboard{
		Patients:     listing.New(patient.ListConfig(), clients.Patients, logger),
		Doctors:      listing.New(doctor.ListConfig(), clients.Doctors, logger),
		Exams:        listing.New(exam.ListConfig(opts.ExamsLoadCap), clients.Exams, logger),
		Summaries:    NewSummaryView(clients.Summaries, logger),
		exams:        clients.Exams,
		orchestrator: orchestrator,
		logger:       logger.With().Str("component", "dashboard").Logger(),
	}

	var debounceOpts []debounce.Option
	if opts.DebounceClock != nil {
		debounceOpts = append(debounceOpts, debounce.WithClock(opts.DebounceClock))
	}
	d.doctorQuery = debounce.New(opts.DebounceWindow, d.applyDoctorQuery, debounceOpts...)
	return d
}

// Close drops any pending doctors query.
func (d *Dashboard) Close() {
	d.doctorQuery.Stop()
}

// QueueDoctorQuery feeds the doctors search box. The filter is applied
// once the box has been quiet for the debounce window.
func (d *Dashboard) QueueDoctorQuery(query string) {
	d.doctorQuery.Update(query)
}

// DoctorQueryPending reports whether a queued query is still waiting.
func (d *Dashboard) DoctorQueryPending() bool {
	return d.doctorQuery.Pending()
}

// FlushDoctorQuery applies a queued doctors query immediately.
func (d *Dashboard) FlushDoctorQuery() {
	d.doctorQuery.Flush()
}

func (d *Dashboard) applyDoctorQuery(query string) {
	if err := d.Doctors.Search(context.Background(), query); err != nil {
		d.logger.Error().Err(err).Str("query", query).Msg("apply doctors query")
	}
}

// EditExam re-fetches the full record before the edit form opens. The
// retained copy may be stale or truncated.
func (d *Dashboard) EditExam(ctx context.Context, id exam.ID) (exam.Exam, bool) {
	e, ok, _ := d.exams.GetByID(ctx, id)
	return e, ok
}

// Orchestrate fetches several summaries concurrently.
func (d *Dashboard) Orchestrate(ctx context.Context, kind summary.Kind, ids []int) []summary.Summary {
	return d.orchestrator.Orchestrate(ctx, kind, ids)
}

type pager interface {
	GoToPage(n int) bool
	Next() bool
	Prev() bool
	First() bool
	Last() bool
}

// navigate applies a navigation keyword. Unknown keywords do nothing.
func navigate(p pager, nav string) bool {
	switch nav {
	case "next":
		return p.Next()
	case "prev":
		return p.Prev()
	case "first":
		return p.First()
	case "last":
		return p.Last()
	}
	return false
}
