package customs

import "errors"

var (
	// ErrInvalidTransition is returned when a transition is applied to a
	// request that is not in the transition's source status.
	ErrInvalidTransition = errors.New("invalid custom request transition")

	// ErrTerminalStatus is returned when a request in a terminal status
	// (delivered or cancelled) is transitioned or edited.
	ErrTerminalStatus = errors.New("custom request is in a terminal status")

	// ErrAlreadyCompleted is returned when a completed request is marked
	// completed a second time.
	ErrAlreadyCompleted = errors.New("custom request is already completed")

	// ErrEstimatedDeliveryRequired is returned when a client approval is
	// recorded without an estimated delivery date.
	ErrEstimatedDeliveryRequired = errors.New("estimated delivery date is required")

	// ErrStaleRequest is returned when a transition write lost the
	// optimistic concurrency check against the stored lock version.
	ErrStaleRequest = errors.New("custom request was modified concurrently")
)
