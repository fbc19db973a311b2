package service

import (
	"context"
	"fmt"
	"signals-service/config"
	"signals-service/internal/strategy"
	"signals-service/pkg/logger"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type SchedulerService interface {
	Start(ctx context.Context) error
	// Stop halts the cron loop; the returned context is done once running jobs finish.
	Stop() context.Context
	RunJob(ctx context.Context, jobType string) (strategy.JobResult, error)
}

type schedulerService struct {
	cfg          *config.Config
	log          *logger.Logger
	cronParser   cron.Parser
	taskExecutor TaskExecutor

	mu      sync.Mutex
	cron    *cron.Cron
	rootCtx context.Context
}

func NewSchedulerService(cfg *config.Config, log *logger.Logger, taskExecutor TaskExecutor) *schedulerService {
	return &schedulerService{
		cfg:          cfg,
		log:          log,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		taskExecutor: taskExecutor,
	}
}

// Start registers every configured job and starts the cron loop. Jobs run
// with ctx as parent so cancelling it aborts in-flight work.
func (s *schedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Scheduler.Enabled {
		s.log.InfoContext(ctx, "Scheduler disabled")
		return nil
	}
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	cronLog := &cronLogger{log: s.log}
	c := cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	for _, job := range s.cfg.Scheduler.Jobs {
		job := job
		if _, err := c.AddFunc(job.Cron, func() { s.runScheduled(job) }); err != nil {
			s.log.ErrorContext(ctx, "Failed to parse cron expression", logger.ErrorField(err), logger.StringField("job_type", job.Type), logger.StringField("cron", job.Cron))
			return fmt.Errorf("failed to schedule job %s: %w", job.Type, err)
		}
		s.log.InfoContext(ctx, "Job scheduled", logger.StringField("job_type", job.Type), logger.StringField("cron", job.Cron))
	}

	s.rootCtx = ctx
	s.cron = c
	c.Start()
	return nil
}

func (s *schedulerService) runScheduled(job config.ScheduledJob) {
	s.mu.Lock()
	ctx := s.rootCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if _, err := s.taskExecutor.Execute(ctx, job); err != nil {
		s.log.WarnContext(ctx, "Scheduled job failed", logger.ErrorField(err), logger.StringField("job_type", job.Type))
	}
}

func (s *schedulerService) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	done := s.cron.Stop()
	s.cron = nil
	return done
}

// RunJob executes the configured job of the given type immediately.
func (s *schedulerService) RunJob(ctx context.Context, jobType string) (strategy.JobResult, error) {
	for _, job := range s.cfg.Scheduler.Jobs {
		if job.Type == jobType {
			s.log.InfoContext(ctx, "Running job on demand", logger.StringField("job_type", jobType))
			return s.taskExecutor.Execute(ctx, job)
		}
	}
	return strategy.JobResult{}, fmt.Errorf("%w: %s", ErrUnknownJob, jobType)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, logger.KeysAndValues(keysAndValues...)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(logger.KeysAndValues(keysAndValues...), logger.ErrorField(err))...)
}
