// Package aggregates folds session and ledger events into the running
// totals stored on each project. Totals are rolled forward on write so
// reads never scan history.
package aggregates

import (
	"context"

	"github.com/hustleboard/hustleboard/internal/app/domain/ledger"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// Recorder implements the tracker and finance hooks.
type Recorder struct {
	projects storage.ProjectStore
	log      *logging.Logger
}

// NewRecorder creates the aggregate recorder.
func NewRecorder(projects storage.ProjectStore, log *logging.Logger) *Recorder {
	return &Recorder{projects: projects, log: log}
}

// SessionStarted is a no-op; only stopped durations count.
func (r *Recorder) SessionStarted(ctx context.Context, sess *session.Session) {}

// SessionStopped adds the final duration to the project's invested time.
func (r *Recorder) SessionStopped(ctx context.Context, sess *session.Session) {
	r.apply(ctx, sess.ProjectID, func(p *projectTotals) {
		p.timeInvested += sess.Duration
	})
}

// IncomeRecorded adds the amount to the project's total revenue.
func (r *Recorder) IncomeRecorded(ctx context.Context, e *ledger.IncomeEntry) {
	r.apply(ctx, e.ProjectID, func(p *projectTotals) {
		p.revenue += e.Amount
	})
}

// ExpenseRecorded adds the amount to the project's total expenses.
func (r *Recorder) ExpenseRecorded(ctx context.Context, e *ledger.ExpenseEntry) {
	r.apply(ctx, e.ProjectID, func(p *projectTotals) {
		p.expenses += e.Amount
	})
}

type projectTotals struct {
	timeInvested int64
	revenue      float64
	expenses     float64
}

func (r *Recorder) apply(ctx context.Context, projectID string, mutate func(*projectTotals)) {
	p, err := r.projects.GetProject(ctx, projectID)
	if err != nil {
		r.log.WithError(err).WithField("project_id", projectID).Warn("aggregate update skipped")
		return
	}

	totals := projectTotals{
		timeInvested: p.TotalTimeInvested,
		revenue:      p.TotalRevenue,
		expenses:     p.TotalExpenses,
	}
	mutate(&totals)
	p.TotalTimeInvested = totals.timeInvested
	p.TotalRevenue = totals.revenue
	p.TotalExpenses = totals.expenses

	if err := r.projects.UpdateProject(ctx, p); err != nil {
		r.log.WithError(err).WithField("project_id", projectID).Warn("aggregate update failed")
	}
}
