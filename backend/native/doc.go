// Package native runs frame graphs on GPUs through the Pure Go gogpu/wgpu
// HAL.
//
// Importing the package registers the "native" backend:
//
//	import (
//		_ "github.com/gogpu/framegraph/backend/native"
//		_ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	b, err := backend.Open(backend.BackendNative)
//
// The allbackends import makes Vulkan, Metal, DX12 and GLES visible to
// hal.SelectBestBackend. Without it only HAL backends imported elsewhere
// are considered.
//
// # Sharing a Device
//
// An application that already owns a device (for example a gogpu window)
// hands it over with NewFromHAL or NewFromProvider. The backend then never
// destroys the device.
//
// # Encoding
//
// CommandContext encodes straight into a hal.CommandEncoder. Execute
// callbacks reach the open render pass through RenderPass and bind compute
// work with SetComputePipeline before calling Dispatch. Submit waits for the
// GPU, so Graph.EndFrame may release the frame's textures right after it.
package native
