package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNoGPU is returned when no HAL backend yields an adapter.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrForeignObject is returned when a texture or view was not created
	// by this device.
	ErrForeignObject = errors.New("native: object not created by this device")

	// ErrReleased is returned when using an object after Release.
	ErrReleased = errors.New("native: object already released")

	// ErrInvalidDimensions is returned for zero-sized textures and buffers.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrCopyMismatch is returned when copy source and destination differ
	// in size or format.
	ErrCopyMismatch = errors.New("native: copy source and destination differ in size or format")

	// ErrNoComputePipeline is returned by Dispatch when no pipeline is bound.
	ErrNoComputePipeline = errors.New("native: dispatch without compute pipeline")

	// ErrSubmitted is returned when a command context is reused after
	// Submit or Discard.
	ErrSubmitted = errors.New("native: command context already submitted")
)
