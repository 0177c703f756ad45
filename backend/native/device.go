package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/internal/shader"
)

// Device implements framegraph.Device on top of a hal.Device.
//
// Textures map to hal.Texture and every texture view kind maps to a
// hal.TextureView. Buffer views carry no HAL object: they record the
// byte range a shader binding will use.
//
// Thread Safety: Device is not safe for concurrent use. A graph drives
// it from a single goroutine.
type Device struct {
	device hal.Device
	queue  hal.Queue

	frame  uint64
	frames int
	live   int
}

// NewDevice wraps an opened HAL device and queue. The caller keeps
// ownership of both.
func NewDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{device: device, queue: queue}
}

// HAL returns the underlying device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Live returns the number of objects created and not yet released.
func (d *Device) Live() int { return d.live }

// Frame returns the index passed to the last BeginFrame.
func (d *Device) Frame() uint64 { return d.frame }

// Frames returns how many frames have ended.
func (d *Device) Frames() int { return d.frames }

// BeginFrame implements framegraph.Device.
func (d *Device) BeginFrame(frameIndex uint64) { d.frame = frameIndex }

// EndFrame implements framegraph.Device.
func (d *Device) EndFrame() { d.frames++ }

// halObject tracks release of one device object.
type halObject struct {
	dev      *Device
	released bool
	destroy  func()
}

func (o *halObject) Release() {
	if o.released {
		return
	}
	o.released = true
	if o.destroy != nil {
		o.destroy()
	}
	o.dev.live--
}

func (d *Device) track(destroy func()) halObject {
	d.live++
	return halObject{dev: d, destroy: destroy}
}

// Texture is a HAL-backed texture.
type Texture struct {
	halObject
	raw  hal.Texture
	desc framegraph.TextureDescriptor
}

// Raw returns the HAL texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() framegraph.TextureDescriptor { return t.desc }

func (t *Texture) extent() hal.Extent3D {
	return hal.Extent3D{
		Width:              t.desc.Width,
		Height:             t.desc.Height,
		DepthOrArrayLayers: max(t.desc.DepthOrArrayLayers, 1),
	}
}

// Buffer is a HAL-backed buffer.
type Buffer struct {
	halObject
	raw  hal.Buffer
	desc framegraph.BufferDescriptor
}

// Raw returns the HAL buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// TextureView is a HAL texture view. It backs SRVs, UAVs, RTVs and DSVs
// of textures.
type TextureView struct {
	halObject
	raw             hal.TextureView
	texture         *Texture
	readOnlyDepth   bool
	readOnlyStencil bool
}

// Raw returns the HAL texture view.
func (v *TextureView) Raw() hal.TextureView { return v.raw }

// Texture returns the viewed texture.
func (v *TextureView) Texture() *Texture { return v.texture }

// BufferView is a byte range of a Buffer.
type BufferView struct {
	halObject
	buffer *Buffer
	rng    framegraph.BufferViewRange
}

// Buffer returns the viewed buffer.
func (v *BufferView) Buffer() *Buffer { return v.buffer }

// Range returns the viewed byte range. A zero Size means the rest of the
// buffer.
func (v *BufferView) Range() framegraph.BufferViewRange { return v.rng }

// CreateTexture implements framegraph.Device.
func (d *Device) CreateTexture(desc *framegraph.TextureDescriptor) (framegraph.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDimensions, desc.Label, desc.Width, desc.Height)
	}
	t := &Texture{desc: *desc}
	dim := desc.Dimension
	if dim == gputypes.TextureDimensionUndefined {
		dim = gputypes.TextureDimension2D
	}
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          t.extent(),
		MipLevelCount: max(desc.MipLevelCount, 1),
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     dim,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}
	t.raw = raw
	t.halObject = d.track(func() { d.device.DestroyTexture(raw) })
	return t, nil
}

// CreateBuffer implements framegraph.Device.
func (d *Device) CreateBuffer(desc *framegraph.BufferDescriptor) (framegraph.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", ErrInvalidDimensions, desc.Label)
	}
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}
	return &Buffer{
		halObject: d.track(func() { d.device.DestroyBuffer(raw) }),
		raw:       raw,
		desc:      *desc,
	}, nil
}

func (d *Device) texture(tex framegraph.Texture) (*Texture, error) {
	t, ok := tex.(*Texture)
	if !ok || t.dev != d {
		return nil, ErrForeignObject
	}
	if t.released {
		return nil, ErrReleased
	}
	return t, nil
}

func (d *Device) newTextureView(tex framegraph.Texture, desc *hal.TextureViewDescriptor) (*TextureView, error) {
	t, err := d.texture(tex)
	if err != nil {
		return nil, err
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = t.desc.Format
	}
	raw, err := d.device.CreateTextureView(t.raw, desc)
	if err != nil {
		return nil, fmt.Errorf("native: create view %q: %w", desc.Label, err)
	}
	return &TextureView{
		halObject: d.track(func() { d.device.DestroyTextureView(raw) }),
		raw:       raw,
		texture:   t,
	}, nil
}

func (d *Device) newBufferView(buf framegraph.Buffer, rng framegraph.BufferViewRange) (*BufferView, error) {
	b, ok := buf.(*Buffer)
	if !ok || b.dev != d {
		return nil, ErrForeignObject
	}
	if b.released {
		return nil, ErrReleased
	}
	if rng.Offset > b.desc.Size || rng.Size > b.desc.Size-rng.Offset {
		return nil, fmt.Errorf("native: view range [%d,+%d) exceeds buffer %q of %d bytes",
			rng.Offset, rng.Size, b.desc.Label, b.desc.Size)
	}
	return &BufferView{halObject: d.track(nil), buffer: b, rng: rng}, nil
}

// layerDimension picks a 2D or 2D array view for attachment views.
func layerDimension(layers uint32) gputypes.TextureViewDimension {
	if layers > 1 {
		return gputypes.TextureViewDimension2DArray
	}
	return gputypes.TextureViewDimension2D
}

// CreateShaderResourceView implements framegraph.Device.
func (d *Device) CreateShaderResourceView(desc *framegraph.ShaderResourceViewDescriptor) (framegraph.ShaderResourceView, error) {
	if desc.Texture == nil {
		if desc.Buffer == nil {
			return nil, fmt.Errorf("native: view %q without resource", desc.Label)
		}
		v, err := d.newBufferView(desc.Buffer, desc.BufferRange)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	v, err := d.newTextureView(desc.Texture, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          desc.Format,
		Dimension:       desc.Dimension,
		Aspect:          desc.Aspect,
		BaseMipLevel:    desc.Range.BaseMipLevel,
		MipLevelCount:   desc.Range.MipLevelCount,
		BaseArrayLayer:  desc.Range.BaseArrayLayer,
		ArrayLayerCount: desc.Range.ArrayLayerCount,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateUnorderedAccessView implements framegraph.Device.
func (d *Device) CreateUnorderedAccessView(desc *framegraph.UnorderedAccessViewDescriptor) (framegraph.UnorderedAccessView, error) {
	if desc.Texture == nil {
		if desc.Buffer == nil {
			return nil, fmt.Errorf("native: view %q without resource", desc.Label)
		}
		v, err := d.newBufferView(desc.Buffer, desc.BufferRange)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	// Storage views address a single mip level.
	v, err := d.newTextureView(desc.Texture, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          desc.Format,
		Dimension:       desc.Dimension,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    desc.MipLevel,
		MipLevelCount:   1,
		BaseArrayLayer:  desc.Range.BaseArrayLayer,
		ArrayLayerCount: desc.Range.ArrayLayerCount,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateRenderTargetView implements framegraph.Device.
func (d *Device) CreateRenderTargetView(desc *framegraph.RenderTargetViewDescriptor) (framegraph.RenderTargetView, error) {
	v, err := d.newTextureView(desc.Texture, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          desc.Format,
		Dimension:       layerDimension(desc.ArrayLayerCount),
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    desc.MipLevel,
		MipLevelCount:   1,
		BaseArrayLayer:  desc.BaseArrayLayer,
		ArrayLayerCount: max(desc.ArrayLayerCount, 1),
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateDepthStencilView implements framegraph.Device.
func (d *Device) CreateDepthStencilView(desc *framegraph.DepthStencilViewDescriptor) (framegraph.DepthStencilView, error) {
	v, err := d.newTextureView(desc.Texture, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          desc.Format,
		Dimension:       layerDimension(desc.ArrayLayerCount),
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    desc.MipLevel,
		MipLevelCount:   1,
		BaseArrayLayer:  desc.BaseArrayLayer,
		ArrayLayerCount: max(desc.ArrayLayerCount, 1),
	})
	if err != nil {
		return nil, err
	}
	v.readOnlyDepth = desc.ReadOnlyDepth
	v.readOnlyStencil = desc.ReadOnlyStencil
	return v, nil
}

// CreateShaderModule compiles WGSL to SPIR-V and creates a HAL shader
// module from it. Destroy the module with DestroyShaderModule.
func (d *Device) CreateShaderModule(label, wgsl string) (hal.ShaderModule, error) {
	spirv, err := shader.CompileWGSL(label, wgsl)
	if err != nil {
		return nil, err
	}
	m, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %q: %w", label, err)
	}
	return m, nil
}

// DestroyShaderModule destroys a module created by CreateShaderModule.
func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	if m != nil {
		d.device.DestroyShaderModule(m)
	}
}

// CreateComputePipeline compiles WGSL and builds a compute pipeline with an
// implicit layout. The shader module is destroyed once the pipeline exists.
func (d *Device) CreateComputePipeline(label, wgsl, entryPoint string) (hal.ComputePipeline, error) {
	m, err := d.CreateShaderModule(label, wgsl)
	if err != nil {
		return nil, err
	}
	defer d.DestroyShaderModule(m)

	p, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label,
		Compute: hal.ComputeState{Module: m, EntryPoint: entryPoint},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create compute pipeline %q: %w", label, err)
	}
	return p, nil
}

// DestroyComputePipeline destroys a pipeline created by CreateComputePipeline.
func (d *Device) DestroyComputePipeline(p hal.ComputePipeline) {
	if p != nil {
		d.device.DestroyComputePipeline(p)
	}
}
