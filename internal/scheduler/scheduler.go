// Package scheduler runs the site's periodic housekeeping on gocron.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
)

var (
	service     *Service
	serviceOnce sync.Once
	serviceErr  error
)

type Service struct {
	scheduler gocron.Scheduler

	stopOnce sync.Once
	stopErr  error
}

// zerologAdapter routes gocron's own diagnostics into zerolog.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debug(msg string, args ...any) { a.event(a.logger.Debug(), msg, args) }
func (a zerologAdapter) Info(msg string, args ...any)  { a.event(a.logger.Info(), msg, args) }
func (a zerologAdapter) Warn(msg string, args ...any)  { a.event(a.logger.Warn(), msg, args) }
func (a zerologAdapter) Error(msg string, args ...any) { a.event(a.logger.Error(), msg, args) }

// event treats args as alternating key/value pairs.
func (a zerologAdapter) event(e *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		e = e.Interface(fmt.Sprint(args[i]), args[i+1])
	}
	e.Msg(msg)
}

// New builds a scheduler that logs through zerolog and survives panicking jobs.
func New(opts ...gocron.SchedulerOption) (*Service, error) {
	base := []gocron.SchedulerOption{
		gocron.WithLogger(zerologAdapter{logger: log.With().Str("component", "gocron").Logger()}),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduled job panicked")
				}),
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					log.Error().Err(err).Str("job_name", jobName).Msg("Scheduled job failed")
				}),
			),
		),
	}

	sched, err := gocron.NewScheduler(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Service{scheduler: sched}, nil
}

// Init creates the process-wide scheduler once.
func Init(opts ...gocron.SchedulerOption) error {
	serviceOnce.Do(func() {
		service, serviceErr = New(opts...)
		if serviceErr == nil {
			log.Info().Msg("Scheduler initialized")
		}
	})
	return serviceErr
}

func ServiceInstance() (*Service, error) {
	if service == nil && serviceErr == nil {
		return nil, ErrNotInitialized
	}
	return service, serviceErr
}

func Start() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	svc.Start()
	return nil
}

func Stop() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	return svc.Stop()
}

func (s *Service) Start() {
	if s == nil {
		log.Error().Msg("Scheduler start requested before initialization")
		return
	}
	log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("Scheduler starting")
	s.scheduler.Start()
}

// Stop waits for running jobs and is safe to call more than once.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// AddJob runs task on a five-field cron schedule. Extra job options are
// applied after the name.
func (s *Service) AddJob(name, cronExpr string, task func(), opts ...gocron.JobOption) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	logger := log.With().Str("job_name", name).Str("cron", cronExpr).Logger()

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			logger.Debug().Msg("Scheduled job started")
			task()
		}),
		append([]gocron.JobOption{gocron.WithName(name)}, opts...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("add job %q: %w", name, err)
	}
	logger.Info().Msg("Scheduled job registered")
	return job, nil
}
