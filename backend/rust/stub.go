//go:build !rust

package rust

import "github.com/gogpu/framegraph/backend"

// init registers a nil-returning factory when the rust tag is not set, so
// backend.Get(backend.BackendRust) returns nil and selection falls through
// to the next backend.
func init() {
	backend.Register(backend.BackendRust, func() backend.DeviceBackend {
		return nil
	})
}
