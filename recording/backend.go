package recording

import (
	"github.com/gogpu/framegraph"
)

// Backend is a command context that can replay every recorded command.
// The software, HAL and wgpu-native command contexts implement it.
//
// # Implementation Contract
//
// Each backend must:
//  1. Accept Draw only between BeginRenderPass and EndRenderPass
//  2. Accept Dispatch and CopyTexture only outside a render pass
//  3. Treat InsertMarker as optional (no-op is fine)
type Backend interface {
	framegraph.CmdContext

	// Draw issues a non-indexed draw in the open render pass.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)

	// Dispatch issues a compute dispatch.
	Dispatch(x, y, z uint32)

	// CopyTexture copies src into dst. Both textures must have been
	// created by the backend's device.
	CopyTexture(src, dst framegraph.Texture) error

	// InsertMarker inserts a debug label.
	InsertMarker(label string)
}
