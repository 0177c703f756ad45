// Package rust runs frame graphs on wgpu-native through go-webgpu/webgpu.
//
// The backend is compiled only with the "rust" build tag. Without the tag
// the package registers a nil factory, so importing it is always safe:
//
//	// Build with: go build -tags rust
//	import _ "github.com/gogpu/framegraph/backend/rust"
//
// The wgpu-native shared library must be installed where go-webgpu can
// load it; Init reports ErrLibraryNotFound otherwise.
//
// # Selection
//
// When available the rust backend is preferred over native and software:
//
//	b, err := backend.InitDefault() // rust > native > software
//
// # Resource Lifetime
//
// wgpu-native keeps resources referenced by submitted command buffers
// alive, so Graph.EndFrame may release the frame's textures right after
// Submit returns.
package rust
