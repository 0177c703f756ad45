// Package backend provides pluggable devices for frame graphs.
//
// A DeviceBackend owns a framegraph.Device and creates command contexts
// that a graph executes into. The software backend lives in this package
// and is always available; GPU backends live in sub-packages and register
// themselves when imported:
//
//	import _ "github.com/gogpu/framegraph/backend/native"
//	import _ "github.com/gogpu/framegraph/backend/rust" // go build -tags rust
//
// # Backend Selection
//
// Use InitDefault() to initialize the best backend that works on this
// machine, or Open() to request one by name:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	g := framegraph.New(b.Device())
//
// # Frames
//
//	g.BeginFrame(i)
//	// ... AddPass ...
//	ctx, err := b.NewCommandContext("frame")
//	g.Execute(ctx)
//	err = ctx.Submit()
//	g.EndFrame()
//
// Submit must happen before EndFrame: EndFrame releases the graph-owned
// textures the commands refer to.
//
// # Available Backends
//
//   - "software": host memory, clears and copies only (always available)
//   - "native": gogpu/wgpu HAL device, Pure Go
//   - "rust": wgpu-native through go-webgpu/webgpu (requires the rust tag)
//
// Priority order for Default and InitDefault: rust > native > software.
package backend
