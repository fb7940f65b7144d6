package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "coldchain_logger/docs"
	"coldchain_logger/internal/config"
	"coldchain_logger/internal/device"
	"coldchain_logger/internal/handlers"
	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/repository"
	"coldchain_logger/internal/repository/db"
	"coldchain_logger/internal/server"
	"coldchain_logger/internal/service"
	"coldchain_logger/internal/transport"
)

const (
	shutdownTimeout = 10 * time.Second

	// exitRestart tells the process supervisor the logger asked for a hard
	// restart after a failed Error-state cooldown.
	exitRestart = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel, logger.FormatConsole).Errorw("error reading config", "err", err)
		return 1
	}
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	sqlDB, err := openDB(cfg.Store, log)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return 1
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	if cfg.Store.Driver == config.StoreDriverMemory {
		repos.Blocks = repository.NewBlockMemory(repository.StoreCapacity)
	}

	// the restarter cancels this context to end the process
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := transport.NewHub(log.Named("hub"))
	cloud := transport.NewCloud(repos.EventRepo, hub, cfg.Transport.QueueSize, log.Named("transport"))
	restarter := device.NewRestarter(cancel, log.Named("device"))

	services := service.NewService(repos, service.Deps{
		Sensor:    device.NewSimSensor(cfg.Simulator, time.Now, uint64(time.Now().UnixNano())),
		Transport: cloud,
		LED:       device.NewLED(log.Named("led")),
		DonePin:   device.NewPulsePin(log.Named("watchdog")),
		Restarter: restarter,
	}, device.NewWatchdogTimer(cfg.Loop.WatchdogPeriod, log.Named("watchdog")), service.Options{
		Release:     cfg.Device.Release,
		ReportEvent: cfg.Transport.ReportEvent,
		Timing: service.Timing{
			SamplingInterval: cfg.Loop.SamplingInterval,
			AckWait:          cfg.Loop.AckWait,
			ResetWait:        cfg.Loop.ResetWait,
			ConnectTimeout:   cfg.Loop.ConnectTimeout,
		},
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
	}, log)

	seedOperator(ctx, services, cfg.Auth, log)

	var wg sync.WaitGroup
	background := func(run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}
	background(hub.Run)
	background(cloud.Run)
	background(func(ctx context.Context) { services.Run(ctx, cfg.Loop.Tick) })

	apiHandler := handlers.NewHandler(services, cfg.Device.ID, log.Named("http"),
		handlers.WithEventStream(hub),
		handlers.WithLink(cloud),
	)
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, cancel, log)

	waitForShutdown(ctx, cancel, srv, log)
	// the publish queue flushes into the journal, so the database stays open until it is done
	wg.Wait()

	if restarter.Requested() {
		return exitRestart
	}
	return 0
}

// openDB opens the SQLite database. The memory driver keeps the journal and
// operator accounts in a private in-memory database.
func openDB(cfg config.StoreConfig, log *logger.Logger) (*sql.DB, error) {
	path := cfg.Path
	if cfg.Driver == config.StoreDriverMemory {
		path = db.MemoryPath
	}
	log.Infow("opening database", "driver", cfg.Driver, "path", path)
	return db.InitDB(path)
}

// seedOperator creates the operator account on first start when a password
// is configured.
func seedOperator(ctx context.Context, auth service.Authorization, cfg config.AuthConfig, log *logger.Logger) {
	if cfg.OperatorPassword == "" {
		log.Warnw("no operator password configured; remote functions are unreachable until an account exists")
		return
	}
	created, err := auth.EnsureOperator(ctx, cfg.OperatorUser, cfg.OperatorPassword)
	if err != nil {
		log.Errorw("failed to seed operator", "username", cfg.OperatorUser, "err", err)
		return
	}
	if created {
		log.Infow("operator account created", "username", cfg.OperatorUser)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine. A failed
// listener stops the whole process.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, cancel context.CancelFunc, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Errorw("error starting server", "err", err)
			cancel()
		}
	}()
}

// waitForShutdown blocks until a termination signal arrives or ctx is
// cancelled from inside (restart request, listener failure), then stops the
// background goroutines and drains the HTTP server.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	case <-ctx.Done():
		log.Infow("shutting down server...", "reason", "internal stop")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
