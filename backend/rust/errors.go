package rust

import "errors"

// Package errors for the rust backend.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("rust: no GPU adapter available")

	// ErrLibraryNotFound is returned when the wgpu-native library is not found.
	ErrLibraryNotFound = errors.New("rust: wgpu-native library not found")

	// ErrForeignObject is returned for textures and views created by
	// another device.
	ErrForeignObject = errors.New("rust: object not created by this device")

	// ErrCreateFailed is returned when wgpu-native returns a null object.
	ErrCreateFailed = errors.New("rust: object creation failed")

	// ErrNoComputePipeline is returned by Dispatch when no pipeline is bound.
	ErrNoComputePipeline = errors.New("rust: dispatch without compute pipeline")

	// ErrInvalidDimensions is returned for zero-sized textures and buffers.
	ErrInvalidDimensions = errors.New("rust: invalid dimensions")

	// ErrCopyMismatch is returned when copy source and destination differ
	// in size or format.
	ErrCopyMismatch = errors.New("rust: copy source and destination differ in size or format")

	// ErrSubmitted is returned when a command context is reused after
	// Submit or Discard.
	ErrSubmitted = errors.New("rust: command context already submitted")
)
