package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigInvalid is returned when a configuration misses a required key or holds a value of the wrong kind.
var ErrConfigInvalid = errors.New("config invalid")

// ErrProtocolViolation is returned when a lifecycle call is made out of order.
// It signals a caller bug; the stage cannot recover from it.
var ErrProtocolViolation = errors.New("protocol violation")

// ErrConfigMismatch is returned when a payload references an extruder that is not configured.
var ErrConfigMismatch = errors.New("config mismatch")

// ErrPayloadTypeMismatch is returned when a stage receives a payload kind it does not accept.
var ErrPayloadTypeMismatch = errors.New("payload type mismatch")

// ErrUnknownStage is returned when a stage kind has no registered requirements.
var ErrUnknownStage = errors.New("unknown stage kind")

// ConfigInvalidError names every key that failed validation for a stage.
type ConfigInvalidError struct {
	Stage string
	Keys  []string
	Err   error // underlying validation error
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("%s: stage %q rejected keys [%s]: %v",
		ErrConfigInvalid, e.Stage, strings.Join(e.Keys, ", "), e.Err)
}

func (e *ConfigInvalidError) Unwrap() []error { return []error{ErrConfigInvalid, e.Err} }

// ProtocolViolationError reports a lifecycle operation attempted in the wrong state.
type ProtocolViolationError struct {
	Stage    string
	Op       string
	State    StageState
	Expected string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("%s: stage %q cannot %s while %s (expected %s)",
		ErrProtocolViolation, e.Stage, e.Op, e.State, e.Expected)
}

func (e *ProtocolViolationError) Unwrap() error { return ErrProtocolViolation }

// ConfigMismatchError reports a payload referencing an extruder beyond the configured count.
type ConfigMismatchError struct {
	ExtruderID int
	Configured int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("%s: payload references extruder %d, expected an id below %d",
		ErrConfigMismatch, e.ExtruderID, e.Configured)
}

func (e *ConfigMismatchError) Unwrap() error { return ErrConfigMismatch }

// PayloadTypeMismatchError reports a payload kind a stage does not accept.
type PayloadTypeMismatchError struct {
	Stage    string
	Expected PayloadKind
	Actual   string
}

func (e *PayloadTypeMismatchError) Error() string {
	return fmt.Sprintf("%s: stage %q expected %s payload, got %s",
		ErrPayloadTypeMismatch, e.Stage, e.Expected, e.Actual)
}

func (e *PayloadTypeMismatchError) Unwrap() error { return ErrPayloadTypeMismatch }

// IsFatal reports whether err must stop the stream.
// Only protocol violations are fatal; validation and mismatch errors are handled by the caller.
func IsFatal(err error) bool {
	return errors.Is(err, ErrProtocolViolation)
}
