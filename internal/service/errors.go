package service

import (
	"errors"

	"coldchain_logger/internal/repository"
)

// Error taxonomy of the control loop. Only ErrInvalidConfigValue and
// ErrUnknownFunction ever reach a remote caller; the rest are logged and
// routed into the Error state.
var (
	ErrSensorRead         = errors.New("sensor read failed")
	ErrSchemaVerify       = repository.ErrSchemaVerify
	ErrNotConnected       = errors.New("not connected to the reporting endpoint")
	ErrAckTimeout         = errors.New("report acknowledgement timed out")
	ErrInvalidConfigValue = errors.New("invalid config value")
	ErrUnknownFunction    = errors.New("unknown function")
)
