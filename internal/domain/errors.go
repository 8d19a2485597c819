package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrProviderFailure = errors.New("provider failure")
	// ErrLastMotionVideo guards the business rule that the last remaining
	// motion reference clip cannot be deleted.
	ErrLastMotionVideo = errors.New("last motion video cannot be deleted")
	// ErrNotUpscalable is returned when an upscale is requested for a
	// generation whose primary output is not yet available.
	ErrNotUpscalable = errors.New("generation has no completed video to upscale")
)
