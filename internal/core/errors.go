package core

import "errors"

// Standard errors returned by the core package.
var (
	// ErrDisconnected indicates the core's inbound stream has closed.
	ErrDisconnected = errors.New("core disconnected")

	// ErrAlreadyStopped indicates the core process was already stopped.
	ErrAlreadyStopped = errors.New("core process already stopped")
)
