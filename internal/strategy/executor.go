package strategy

import (
	"context"
	"signals-service/config"
)

const (
	JOB_EXIT_CODE_SUCCESS = 200
	JOB_EXIT_CODE_FAILED  = 500
	JOB_EXIT_CODE_SKIPPED = 204
)

type JobType string

const (
	JobTypeSignalRetention JobType = "signal_retention"
	JobTypePendingExpiry   JobType = "pending_expiry"
)

type JobResult struct {
	ExitCode int32  `json:"exit_code"`
	Output   string `json:"output"`
}

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job config.ScheduledJob) (JobResult, error)
	GetType() JobType
}
