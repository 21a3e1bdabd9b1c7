package service

import "errors"

// Sentinel errors for the service lifecycle.
var (
	ErrNoPlatform = errors.New("service: no platform configured")
	ErrNotStarted = errors.New("service: not started")
)
