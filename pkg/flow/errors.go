package flow

import (
	"errors"
	"fmt"
)

// NoAnswer is the sentinel returned by Invoke when execution ends without
// a generated answer.
const NoAnswer = "No answer generated"

// ErrIterationLimit is returned when an execution exceeds the configured
// iteration safety valve.
var ErrIterationLimit = errors.New("workflow iteration limit exceeded")

// ConfigurationError wraps a configuration validation failure that stopped
// an execution before its first step.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration invalid: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RoutingError reports a router label outside the closed routing domain.
// It is fatal for the execution; there is no fallback route.
type RoutingError struct {
	Label string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("router returned label outside its domain: %q", e.Label)
}
