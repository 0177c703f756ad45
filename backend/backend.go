package backend

import (
	"errors"

	"github.com/gogpu/framegraph"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// CommandContext is a framegraph.CmdContext that can be submitted.
// A context records one frame; Submit ends recording and hands the commands
// to the GPU. A context must not be used after Submit or Discard.
type CommandContext interface {
	framegraph.CmdContext

	// Submit finishes recording and submits the commands.
	Submit() error

	// Discard drops the recorded commands.
	Discard()
}

// DeviceBackend is the interface for graph backends.
// It owns a framegraph.Device and creates command contexts for it.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type DeviceBackend interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init acquires the device. It must be called before Device or
	// NewCommandContext.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Device returns the device graphs should be created with, or nil
	// before Init.
	Device() framegraph.Device

	// NewCommandContext starts recording a frame.
	NewCommandContext(label string) (CommandContext, error)
}
