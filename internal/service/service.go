package service

import (
	"signals-service/config"
	"signals-service/internal/repository"
	"signals-service/internal/strategy"
	"signals-service/pkg/cache"
	"signals-service/pkg/logger"
	"signals-service/pkg/metrics"
)

type Service struct {
	SignalService    SignalService
	SchedulerService SchedulerService
	TaskExecutor     TaskExecutor
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	notifier Notifier,
	m *metrics.Metrics,
) *Service {
	signalService := NewSignalService(cfg, log, repo.SignalRepo, repo.JournalRepo, notifier, inmemoryCache, m)

	executorStrategies := make(map[strategy.JobType]strategy.JobExecutionStrategy)
	executorStrategies[strategy.JobTypeSignalRetention] = strategy.NewSignalRetentionStrategy(log, signalService)
	executorStrategies[strategy.JobTypePendingExpiry] = strategy.NewPendingExpiryStrategy(log, signalService)

	taskExecutor := NewTaskExecutor(log, m, executorStrategies)
	schedulerService := NewSchedulerService(cfg, log, taskExecutor)
	return &Service{
		SignalService:    signalService,
		SchedulerService: schedulerService,
		TaskExecutor:     taskExecutor,
	}
}
