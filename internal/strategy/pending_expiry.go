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

// ExpiredReason is stored on signals rejected because nobody reviewed them in time.
const ExpiredReason = "expired"

type PendingExpiryResult struct {
	Cutoff  string `json:"cutoff"`
	Expired int    `json:"expired"`
}

type PendingExpiryStrategy struct {
	log     *logger.Logger
	signals contract.SignalMaintenanceContract
}

func NewPendingExpiryStrategy(log *logger.Logger, signals contract.SignalMaintenanceContract) JobExecutionStrategy {
	return &PendingExpiryStrategy{
		log:     log,
		signals: signals,
	}
}

func (s *PendingExpiryStrategy) Execute(ctx context.Context, job config.ScheduledJob) (JobResult, error) {
	if job.PendingTTL <= 0 {
		s.log.InfoContext(ctx, "Pending expiry disabled, skipping")
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "pending_ttl not set"}, nil
	}

	cutoff := utils.TimeNowUTC().Add(-job.PendingTTL)
	expired, err := s.signals.ExpirePending(ctx, cutoff, ExpiredReason)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to expire pending signals", logger.ErrorField(err), logger.IntField("expired", expired))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to expire pending signals: %v", err)}, err
	}
	if expired > 0 {
		s.log.InfoContext(ctx, "Pending signals expired", logger.IntField("expired", expired))
	}

	res, err := json.Marshal(PendingExpiryResult{Cutoff: utils.ISOTimestampZ(cutoff), Expired: expired})
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
}

func (s *PendingExpiryStrategy) GetType() JobType {
	return JobTypePendingExpiry
}
