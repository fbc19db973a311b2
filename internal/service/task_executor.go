package service

import (
	"context"
	"errors"
	"fmt"
	"signals-service/config"
	"signals-service/internal/strategy"
	"signals-service/pkg/logger"
	"signals-service/pkg/metrics"
	"time"
)

// ErrUnknownJob is returned for a job type with no registered strategy.
var ErrUnknownJob = errors.New("unknown job type")

type TaskExecutor interface {
	Execute(ctx context.Context, job config.ScheduledJob) (strategy.JobResult, error)
}

type taskExecutor struct {
	log                *logger.Logger
	metrics            *metrics.Metrics
	executorStrategies map[strategy.JobType]strategy.JobExecutionStrategy
}

func NewTaskExecutor(log *logger.Logger, m *metrics.Metrics, executorStrategies map[strategy.JobType]strategy.JobExecutionStrategy) TaskExecutor {
	return &taskExecutor{
		log:                log,
		metrics:            m,
		executorStrategies: executorStrategies,
	}
}

func (t *taskExecutor) Execute(ctx context.Context, job config.ScheduledJob) (strategy.JobResult, error) {
	executor := t.executorStrategies[strategy.JobType(job.Type)]
	if executor == nil {
		t.log.ErrorContext(ctx, "Job type not found", logger.StringField("job_type", job.Type))
		return strategy.JobResult{ExitCode: strategy.JOB_EXIT_CODE_FAILED, Output: "job type not found"}, fmt.Errorf("%w: %s", ErrUnknownJob, job.Type)
	}

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	started := time.Now()
	t.log.InfoContext(ctx, "Processing job", logger.StringField("job_type", job.Type))

	result, err := executor.Execute(ctx, job)
	if err != nil {
		t.metrics.JobRuns.WithLabelValues(job.Type, "failed").Inc()
		t.log.ErrorContextWithAlert(ctx, "Failed to execute job", logger.ErrorField(err), logger.StringField("job_type", job.Type))
		return result, err
	}

	outcome := "success"
	if result.ExitCode == strategy.JOB_EXIT_CODE_SKIPPED {
		outcome = "skipped"
	}
	t.metrics.JobRuns.WithLabelValues(job.Type, outcome).Inc()
	t.log.InfoContext(ctx, "Job execution completed",
		logger.StringField("job_type", job.Type),
		logger.IntField("exit_code", int(result.ExitCode)),
		logger.StringField("output", result.Output),
		logger.Field("duration", time.Since(started)),
	)
	return result, nil
}
