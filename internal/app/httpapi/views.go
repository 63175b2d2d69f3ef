package httpapi

import (
	"github.com/hustleboard/hustleboard/internal/app/domain/metrics"
	"github.com/hustleboard/hustleboard/internal/app/domain/project"
	"github.com/hustleboard/hustleboard/internal/app/domain/session"
)

// projectView decorates a project with the formatted display strings
// the dashboard renders verbatim.
type projectView struct {
	*project.Project
	Display projectDisplay `json:"display"`
}

type projectDisplay struct {
	TimeInvested  string  `json:"time_invested"`
	TotalRevenue  string  `json:"total_revenue"`
	TotalExpenses string  `json:"total_expenses"`
	Profit        string  `json:"profit"`
	HourlyRate    float64 `json:"hourly_rate"`
}

func newProjectView(p *project.Project) *projectView {
	profit := p.TotalRevenue - p.TotalExpenses
	return &projectView{
		Project: p,
		Display: projectDisplay{
			TimeInvested:  metrics.FormatDuration(p.TotalTimeInvested),
			TotalRevenue:  metrics.FormatCurrency(p.TotalRevenue),
			TotalExpenses: metrics.FormatCurrency(p.TotalExpenses),
			Profit:        metrics.FormatCurrency(profit),
			HourlyRate:    metrics.HourlyRate(p.TotalRevenue, p.TotalExpenses, p.TotalTimeInvested),
		},
	}
}

// activeSessionView is the resume-on-load payload: the open session
// plus the server-computed elapsed seconds and display string.
type activeSessionView struct {
	Active  bool             `json:"active"`
	Session *session.Session `json:"session"`
	Elapsed int64            `json:"elapsed"`
	Display string           `json:"display"`
}

func newActiveSessionView(sess *session.Session, elapsed int64) *activeSessionView {
	return &activeSessionView{
		Active:  true,
		Session: sess,
		Elapsed: elapsed,
		Display: metrics.FormatDuration(elapsed),
	}
}
