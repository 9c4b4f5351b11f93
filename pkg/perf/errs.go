package perf

import "errors"

var (
	// ErrPerfNotFound indicates that the perf binary is not on PATH.
	ErrPerfNotFound = errors.New("perf: perf not found, please install and try again")

	// ErrSudoNotFound indicates that elevation was requested but sudo is not on PATH.
	ErrSudoNotFound = errors.New("perf: sudo not found")

	// ErrNoCommand indicates that no target command was given.
	ErrNoCommand = errors.New("perf: no target command")

	// ErrUnknownCounter indicates an event name outside the enumerated set.
	ErrUnknownCounter = errors.New("perf: unknown counter")
)
