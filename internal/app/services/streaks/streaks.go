// Package streaks maintains each user's consecutive-tracking-day
// count. A cron job recomputes every streak shortly after midnight UTC
// so a day without sessions resets the count even if the user never
// comes back.
package streaks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hustleboard/hustleboard/internal/app/domain/session"
	"github.com/hustleboard/hustleboard/internal/app/storage"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// lookback bounds how far the recomputation scans; streaks longer than
// this are clamped.
const lookback = 365

// Compute returns the number of consecutive days up to now (UTC) with
// at least one session start. Today counts when present; a streak that
// ended yesterday is still alive until tonight's recompute.
func Compute(sessions []*session.Session, now time.Time) int {
	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[s.StartTime.UTC().Format("2006-01-02")] = true
	}

	day := now.UTC()
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for streak < lookback && days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Refresher is the scheduled recompute job.
type Refresher struct {
	users    storage.UserStore
	sessions storage.SessionStore
	schedule string
	cron     *cron.Cron
	log      *logging.Logger
}

// NewRefresher creates the refresher. The schedule is standard cron
// syntax; empty defaults to ten past midnight UTC.
func NewRefresher(users storage.UserStore, sessions storage.SessionStore, schedule string, log *logging.Logger) *Refresher {
	if schedule == "" {
		schedule = "10 0 * * *"
	}
	return &Refresher{
		users:    users,
		sessions: sessions,
		schedule: schedule,
		log:      log,
	}
}

// Name implements system.Service.
func (r *Refresher) Name() string { return "streak-refresher" }

// Start schedules the recompute job.
func (r *Refresher) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(r.schedule, func() {
		r.RefreshAll(context.Background())
	})
	if err != nil {
		return err
	}
	c.Start()
	r.cron = c
	return nil
}

// Stop halts the schedule, waiting for a running job to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// RefreshAll recomputes every user's streak. Per-user failures are
// logged and skipped so one bad row cannot stall the rest.
func (r *Refresher) RefreshAll(ctx context.Context) {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		r.log.WithError(err).Error("streak refresh: list users failed")
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -lookback)
	updated := 0
	for _, u := range users {
		sessions, err := r.sessions.ListUserSessions(ctx, u.ID, &from, nil)
		if err != nil {
			r.log.WithError(err).WithField("user_id", u.ID).Warn("streak refresh: list sessions failed")
			continue
		}

		streak := Compute(sessions, now)
		if streak == u.StreakDays {
			continue
		}
		u.StreakDays = streak
		if err := r.users.UpdateUser(ctx, u); err != nil {
			r.log.WithError(err).WithField("user_id", u.ID).Warn("streak refresh: update failed")
			continue
		}
		updated++
	}

	r.log.WithFields(map[string]interface{}{
		"users":   len(users),
		"updated": updated,
	}).Info("streaks refreshed")
}
