package framegraph

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// PassType selects how a pass is executed.
// Only PassRaster passes get a render pass opened around their execute callback.
type PassType uint8

const (
	PassRaster PassType = iota
	PassCompute
	PassCopy
)

// String returns the pass type name.
func (t PassType) String() string {
	switch t {
	case PassRaster:
		return "Raster"
	case PassCompute:
		return "Compute"
	case PassCopy:
		return "Copy"
	default:
		return "Unknown"
	}
}

// QueueType is the hardware queue a pass is intended for.
// It is recorded for tooling; all passes currently execute on one context.
type QueueType uint8

const (
	QueueGraphics QueueType = iota
	QueueCompute
	QueueCopy
)

// String returns the queue name.
func (q QueueType) String() string {
	switch q {
	case QueueGraphics:
		return "Graphics"
	case QueueCompute:
		return "Compute"
	case QueueCopy:
		return "Copy"
	default:
		return "Unknown"
	}
}

// PassFlags is a bit set of pass properties.
type PassFlags uint8

const (
	// PassFlagNeverCull marks a pass with side effects outside the graph.
	PassFlagNeverCull PassFlags = 1 << 0
	// PassFlagExternalOutput marks a pass that produces a texture consumed
	// outside the graph.
	PassFlagExternalOutput PassFlags = 1 << 1
)

// Has reports whether any of flags is set in f.
func (f PassFlags) Has(flags PassFlags) bool { return f&flags != 0 }

// String returns the set flag names joined by "|", or "None".
func (f PassFlags) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	if f.Has(PassFlagNeverCull) {
		parts = append(parts, "NeverCull")
	}
	if f.Has(PassFlagExternalOutput) {
		parts = append(parts, "ExternalOutput")
	}
	if rest := f &^ (PassFlagNeverCull | PassFlagExternalOutput); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// ResourceState is the usage state a pass declares for a resource.
type ResourceState uint8

const (
	StateUnknown ResourceState = iota
	StateCommon
	StateVertexBuffer
	StateIndexBuffer
	StateConstantBuffer
	StateIndirectArgs
	StateShaderResource
	StateUnorderedAccess
	StateRenderTarget
	StateDepthWrite
	StateDepthRead
	StateCopySrc
	StateCopyDst
	StatePresent
)

var stateNames = [...]string{
	StateUnknown:         "Unknown",
	StateCommon:          "Common",
	StateVertexBuffer:    "VertexBuffer",
	StateIndexBuffer:     "IndexBuffer",
	StateConstantBuffer:  "ConstantBuffer",
	StateIndirectArgs:    "IndirectArgs",
	StateShaderResource:  "ShaderResource",
	StateUnorderedAccess: "UnorderedAccess",
	StateRenderTarget:    "RenderTarget",
	StateDepthWrite:      "DepthWrite",
	StateDepthRead:       "DepthRead",
	StateCopySrc:         "CopySrc",
	StateCopyDst:         "CopyDst",
	StatePresent:         "Present",
}

// String returns the state name.
func (s ResourceState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// TextureDescriptor describes a device texture.
type TextureDescriptor struct {
	Label              string
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
	MipLevelCount      uint32
	SampleCount        uint32
	Dimension          gputypes.TextureDimension
	Format             gputypes.TextureFormat
	Usage              gputypes.TextureUsage
}

// BufferDescriptor describes a device buffer.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDesc is the graph-level texture declaration.
type TextureDesc struct {
	Descriptor   TextureDescriptor
	InitialState ResourceState
}

// BufferDesc is the graph-level buffer declaration.
type BufferDesc struct {
	Descriptor   BufferDescriptor
	InitialState ResourceState
}

// TextureViewRange selects a mip/array subrange of a texture.
// A zero count means "all remaining".
type TextureViewRange struct {
	BaseMipLevel    uint32
	MipLevelCount   uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// BufferViewRange selects a byte range of a buffer. A zero Size means
// "to the end of the buffer".
type BufferViewRange struct {
	Offset uint64
	Size   uint64
	// Stride is the element size for structured views; zero for raw views.
	Stride uint32
}

// ShaderResourceViewDescriptor describes a read-only view. Exactly one of
// Texture or Buffer is set when the descriptor reaches the Device; the graph
// fills it in at compile time.
type ShaderResourceViewDescriptor struct {
	Label       string
	Texture     Texture
	Buffer      Buffer
	Format      gputypes.TextureFormat
	Dimension   gputypes.TextureViewDimension
	Aspect      gputypes.TextureAspect
	Range       TextureViewRange
	BufferRange BufferViewRange
}

// UnorderedAccessViewDescriptor describes a read-write view. Exactly one of
// Texture or Buffer is set when the descriptor reaches the Device.
type UnorderedAccessViewDescriptor struct {
	Label       string
	Texture     Texture
	Buffer      Buffer
	Format      gputypes.TextureFormat
	Dimension   gputypes.TextureViewDimension
	MipLevel    uint32
	Range       TextureViewRange
	BufferRange BufferViewRange
}

// RenderTargetViewDescriptor describes a color attachment view.
type RenderTargetViewDescriptor struct {
	Label           string
	Texture         Texture
	Format          gputypes.TextureFormat
	MipLevel        uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// DepthStencilViewDescriptor describes a depth/stencil attachment view.
type DepthStencilViewDescriptor struct {
	Label           string
	Texture         Texture
	Format          gputypes.TextureFormat
	MipLevel        uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
	ReadOnlyDepth   bool
	ReadOnlyStencil bool
}

// RenderTargetBinding binds an RTV as a color attachment of a raster pass.
// Zero LoadOp/StoreOp values resolve to Load/Store.
type RenderTargetBinding struct {
	RTV        RTVRef
	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearColor gputypes.Color
}

// DepthStencilBinding binds a DSV as the depth/stencil attachment of a
// raster pass. Zero ops resolve to Load/Store.
type DepthStencilBinding struct {
	DSV            DSVRef
	DepthLoadOp    gputypes.LoadOp
	DepthStoreOp   gputypes.StoreOp
	StencilLoadOp  gputypes.LoadOp
	StencilStoreOp gputypes.StoreOp
	ClearDepth     float32
	ClearStencil   uint32
}

func loadOrDefault(op gputypes.LoadOp) gputypes.LoadOp {
	if op == gputypes.LoadOpUndefined {
		return gputypes.LoadOpLoad
	}
	return op
}

func storeOrDefault(op gputypes.StoreOp) gputypes.StoreOp {
	if op == gputypes.StoreOpUndefined {
		return gputypes.StoreOpStore
	}
	return op
}
