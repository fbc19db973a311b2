package cmd

import (
	"context"
	"errors"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"signals-service/internal/delivery/http"
	"signals-service/internal/delivery/telegram"
	"signals-service/internal/repository"
	"signals-service/internal/service"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the signals service",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	if err := run(ctx, appDep); err != nil {
		_ = appDep.Close()
		log.Fatalf("Server stopped with error: %v", err)
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}

// run serves until ctx is canceled or a component fails.
func run(ctx context.Context, appDep *AppDependency) error {
	repo, err := repository.NewRepository(appDep.cfg, appDep.gormDB(), appDep.log)
	if err != nil {
		return err
	}

	services := service.NewService(
		appDep.cfg,
		appDep.log,
		repo,
		appDep.cache,
		appDep.telegram,
		appDep.metrics,
	)
	httpHandler := http.NewHttpAPIHandler(appDep.cfg, appDep.log, appDep.echo, appDep.validator, services, appDep.registry)

	telegramHandler := telegram.NewTelegramBotHandler(
		ctx,
		appDep.cfg,
		appDep.log,
		appDep.telegramBot,
		appDep.telegram,
		appDep.echo,
		services,
	)

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	if err := apiServer.Listen(); err != nil {
		return err
	}
	telegramHandler.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := apiServer.Serve(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return services.SchedulerService.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		appDep.log.Info("Shutting down gracefully...")

		telegramHandler.Stop()
		waitScheduler(appDep, services.SchedulerService.Stop())
		return apiServer.Stop()
	})

	return g.Wait()
}

func waitScheduler(appDep *AppDependency, done context.Context) {
	timeout := appDep.cfg.API.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	select {
	case <-done.Done():
	case <-time.After(timeout):
		appDep.log.Warn("Scheduler jobs still running after shutdown timeout", zap.Duration("timeout", timeout))
	}
}
