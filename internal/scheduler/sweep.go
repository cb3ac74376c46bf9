package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const SweepJobName = "sweep-expired-state"

// FormSweeper drops registration forms left idle past their TTL.
type FormSweeper interface {
	Sweep(now time.Time) int
	CloseOwner(owner string) int
}

// SessionPruner forgets expired sessions and returns their ids.
type SessionPruner interface {
	Prune(now time.Time) []string
}

// AttemptPruner forgets stale login attempt records.
type AttemptPruner interface {
	Prune(now time.Time) int
}

// SweepTargets lists what the sweep job cleans. Nil targets are skipped.
type SweepTargets struct {
	Forms    FormSweeper
	Sessions SessionPruner
	Logins   AttemptPruner
}

type SweepResult struct {
	IdleForms       int
	ExpiredSessions int
	OrphanedForms   int
	LoginRecords    int
}

// RunSweep cleans every target once. Forms owned by a session that just
// expired are closed with it.
func RunSweep(now time.Time, targets SweepTargets) SweepResult {
	var result SweepResult

	if targets.Sessions != nil {
		expired := targets.Sessions.Prune(now)
		result.ExpiredSessions = len(expired)
		if targets.Forms != nil {
			for _, sessionID := range expired {
				result.OrphanedForms += targets.Forms.CloseOwner(sessionID)
			}
		}
	}
	if targets.Forms != nil {
		result.IdleForms = targets.Forms.Sweep(now)
	}
	if targets.Logins != nil {
		result.LoginRecords = targets.Logins.Prune(now)
	}
	return result
}

// AddSweepJob registers RunSweep on the given cron schedule. A run that is
// still going when the next one is due skips that tick.
func (s *Service) AddSweepJob(cronExpr string, clock clockwork.Clock, targets SweepTargets) (gocron.Job, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return s.AddJob(SweepJobName, cronExpr, func() {
		result := RunSweep(clock.Now(), targets)
		log.Info().
			Int("idle_forms", result.IdleForms).
			Int("expired_sessions", result.ExpiredSessions).
			Int("orphaned_forms", result.OrphanedForms).
			Int("login_records", result.LoginRecords).
			Msg("Swept expired state")
	}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
}
