package framegraph

import "github.com/gogpu/gputypes"

// Releaser is implemented by objects that own device or host resources.
// The graph calls Release exactly once for every object it created, and for
// every pass data value that implements it, when the frame is reset.
type Releaser interface {
	Release()
}

// Texture is a device texture.
type Texture interface {
	Releaser
}

// Buffer is a device buffer.
type Buffer interface {
	Releaser
}

// ShaderResourceView is a read-only view of a texture or buffer.
type ShaderResourceView interface {
	Releaser
}

// UnorderedAccessView is a read-write view of a texture or buffer.
type UnorderedAccessView interface {
	Releaser
}

// RenderTargetView is a color attachment view of a texture.
type RenderTargetView interface {
	Releaser
}

// DepthStencilView is a depth/stencil attachment view of a texture.
type DepthStencilView interface {
	Releaser
}

// Device creates the objects a graph realizes at compile time.
//
// Create methods may fail; the graph logs the error and treats the entry as
// unrealized for the rest of the frame. Implementations must not retain the
// descriptor pointers past the call.
type Device interface {
	CreateTexture(desc *TextureDescriptor) (Texture, error)
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateShaderResourceView(desc *ShaderResourceViewDescriptor) (ShaderResourceView, error)
	CreateUnorderedAccessView(desc *UnorderedAccessViewDescriptor) (UnorderedAccessView, error)
	CreateRenderTargetView(desc *RenderTargetViewDescriptor) (RenderTargetView, error)
	CreateDepthStencilView(desc *DepthStencilViewDescriptor) (DepthStencilView, error)

	// BeginFrame is forwarded from Graph.BeginFrame.
	BeginFrame(frameIndex uint64)
	// EndFrame is forwarded from Graph.EndFrame after the graph has released
	// its per-frame objects.
	EndFrame()
}

// ColorAttachment is a realized color attachment of a render pass.
type ColorAttachment struct {
	View       RenderTargetView
	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearValue gputypes.Color
}

// DepthStencilAttachment is a realized depth/stencil attachment.
type DepthStencilAttachment struct {
	View              DepthStencilView
	DepthLoadOp       gputypes.LoadOp
	DepthStoreOp      gputypes.StoreOp
	DepthClearValue   float32
	StencilLoadOp     gputypes.LoadOp
	StencilStoreOp    gputypes.StoreOp
	StencilClearValue uint32
}

// RenderPassDescriptor is what a raster pass hands to CmdContext.BeginRenderPass.
type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthStencilAttachment
}

// CmdContext records commands for a frame. The graph only opens and closes
// render passes; everything else is done by pass execute callbacks, which
// may type-assert the context to their backend's concrete type.
type CmdContext interface {
	BeginRenderPass(desc *RenderPassDescriptor)
	EndRenderPass()
}
