package Hauling

import "errors"

var (
	// ErrInvalidTransition is returned when a lifecycle call does not
	// match the activity's current status
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrTerminalLocked is returned when equipment, route or shift fields
	// are written after the activity reached a terminal status
	ErrTerminalLocked = errors.New("activity is terminal, field is locked")

	// ErrTruckUnavailable is returned when a truck is inactive or already
	// claimed by another live activity
	ErrTruckUnavailable = errors.New("truck is not available")

	// ErrOperatorUnavailable is returned when an operator is not active or
	// already assigned to another live activity
	ErrOperatorUnavailable = errors.New("operator is not available")

	// ErrLicenseMismatch is returned when an operator's license class does
	// not match the equipment role
	ErrLicenseMismatch = errors.New("operator license does not match equipment")

	// ErrExcavatorUnavailable is returned when an excavator is inactive
	ErrExcavatorUnavailable = errors.New("excavator is not available")
)
