package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"signals-service/config"
	"signals-service/internal/contract"
	"signals-service/pkg/logger"
	"signals-service/pkg/utils"
)

type SignalRetentionResult struct {
	Cutoff string `json:"cutoff"`
	Total  int64  `json:"total"`
}

type SignalRetentionStrategy struct {
	log     *logger.Logger
	signals contract.SignalMaintenanceContract
}

func NewSignalRetentionStrategy(log *logger.Logger, signals contract.SignalMaintenanceContract) JobExecutionStrategy {
	return &SignalRetentionStrategy{
		log:     log,
		signals: signals,
	}
}

func (s *SignalRetentionStrategy) Execute(ctx context.Context, job config.ScheduledJob) (JobResult, error) {
	if job.RetentionDays <= 0 {
		s.log.InfoContext(ctx, "Signal retention disabled, skipping")
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "retention_days not set"}, nil
	}

	cutoff := utils.TimeNowUTC().AddDate(0, 0, -job.RetentionDays)
	s.log.InfoContext(ctx, "Starting signal retention", logger.StringField("cutoff", utils.ISOTimestampZ(cutoff)))

	total, err := s.signals.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to purge signals", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to purge signals: %v", err)}, err
	}

	res, err := json.Marshal(SignalRetentionResult{Cutoff: utils.ISOTimestampZ(cutoff), Total: total})
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
}

func (s *SignalRetentionStrategy) GetType() JobType {
	return JobTypeSignalRetention
}
