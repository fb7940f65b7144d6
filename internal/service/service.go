package service

import (
	"context"
	"time"

	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/models"
	"coldchain_logger/internal/repository"
)

type Authorization interface {
	EnsureOperator(ctx context.Context, username, password string) (bool, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Controller is the remote surface of the running device: named functions,
// the inbound acknowledgement and read-only telemetry.
type Controller interface {
	Call(name, arg string) (int, error)
	Acknowledge(payload string, now time.Time) bool
	Telemetry() Telemetry
}

// EventLog exposes the journal of published events.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Runner drives the control loop. Stop via context cancellation in main().
type Runner interface {
	Run(ctx context.Context, tick time.Duration)
}

// Options carries the settings the services are built from.
type Options struct {
	Release     string
	ReportEvent string
	Timing      Timing
	SigningKey  string
	TokenTTL    time.Duration
}

// Service aggregates all sub-services.
type Service struct {
	Controller
	EventLog
	Runner
	Authorization
}

// NewService wires the repository layer and device collaborators into
// concrete services. deps.Store is filled from repos when left nil.
func NewService(repos *repository.Repository, deps Deps, liveness LivenessSource, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if deps.Store == nil {
		deps.Store = repository.NewPersistentStore(repos.Blocks)
	}
	sm := NewStateMachine(deps, opts.Timing, opts.ReportEvent, opts.Release, log.Named("statemachine"))
	return &Service{
		Controller:    sm,
		EventLog:      NewEventLogService(repos.EventRepo),
		Runner:        NewLoopRunner(sm, liveness, log.Named("loop")),
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}
}
