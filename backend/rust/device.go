//go:build rust

package rust

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

// Device implements framegraph.Device on a wgpu-native device.
// It is not safe for concurrent use.
type Device struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	frame  uint64
	live   int
}

// Live returns the number of objects created and not yet released.
func (d *Device) Live() int { return d.live }

// Frame returns the index passed to the last BeginFrame.
func (d *Device) Frame() uint64 { return d.frame }

// BeginFrame implements framegraph.Device.
func (d *Device) BeginFrame(frameIndex uint64) { d.frame = frameIndex }

// EndFrame implements framegraph.Device.
func (d *Device) EndFrame() {}

// stringView points at the bytes of s without copying. The caller keeps s
// reachable until the wgpu call returns.
func stringView(s string) wgpu.StringView {
	if s == "" {
		return wgpu.EmptyStringView()
	}
	return wgpu.StringView{Data: uintptr(unsafe.Pointer(unsafe.StringData(s))), Length: uintptr(len(s))}
}

func textureAspect(a gputypes.TextureAspect) wgpu.TextureAspect {
	switch a {
	case gputypes.TextureAspectStencilOnly:
		return wgpu.TextureAspectStencilOnly
	case gputypes.TextureAspectDepthOnly:
		return wgpu.TextureAspectDepthOnly
	default:
		return wgpu.TextureAspectAll
	}
}

type object struct {
	dev      *Device
	released bool
	release  func()
}

func (o *object) Release() {
	if o.released {
		return
	}
	o.released = true
	if o.release != nil {
		o.release()
	}
	o.dev.live--
}

func (d *Device) track(release func()) object {
	d.live++
	return object{dev: d, release: release}
}

// Texture is a wgpu-native texture.
type Texture struct {
	object
	raw  *wgpu.Texture
	desc framegraph.TextureDescriptor
}

func (t *Texture) extent() gputypes.Extent3D {
	return gputypes.Extent3D{
		Width:              t.desc.Width,
		Height:             t.desc.Height,
		DepthOrArrayLayers: max(t.desc.DepthOrArrayLayers, 1),
	}
}

type buffer struct {
	object
	raw  *wgpu.Buffer
	size uint64
}

// TextureView backs every texture view kind.
type TextureView struct {
	object
	raw             *wgpu.TextureView
	texture         *Texture
	readOnlyDepth   bool
	readOnlyStencil bool
}

type bufferView struct {
	object
	buffer *buffer
	rng    framegraph.BufferViewRange
}

// CreateTexture implements framegraph.Device.
func (d *Device) CreateTexture(desc *framegraph.TextureDescriptor) (framegraph.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q", ErrInvalidDimensions, desc.Label)
	}
	t := &Texture{desc: *desc}
	dim := desc.Dimension
	if dim == gputypes.TextureDimensionUndefined {
		dim = gputypes.TextureDimension2D
	}
	raw := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         stringView(desc.Label),
		Usage:         desc.Usage,
		Dimension:     dim,
		Size:          t.extent(),
		Format:        desc.Format,
		MipLevelCount: max(desc.MipLevelCount, 1),
		SampleCount:   max(desc.SampleCount, 1),
	})
	runtime.KeepAlive(desc)
	if raw == nil {
		return nil, fmt.Errorf("%w: texture %q", ErrCreateFailed, desc.Label)
	}
	t.raw = raw
	t.object = d.track(raw.Release)
	return t, nil
}

// CreateBuffer implements framegraph.Device.
func (d *Device) CreateBuffer(desc *framegraph.BufferDescriptor) (framegraph.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q", ErrInvalidDimensions, desc.Label)
	}
	raw := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: stringView(desc.Label),
		Usage: desc.Usage,
		Size:  desc.Size,
	})
	runtime.KeepAlive(desc)
	if raw == nil {
		return nil, fmt.Errorf("%w: buffer %q", ErrCreateFailed, desc.Label)
	}
	return &buffer{object: d.track(raw.Release), raw: raw, size: desc.Size}, nil
}

type viewParams struct {
	label                 string
	format                gputypes.TextureFormat
	dimension             gputypes.TextureViewDimension
	aspect                gputypes.TextureAspect
	baseMip, mipCount     uint32
	baseLayer, layerCount uint32
}

func (d *Device) textureView(tex framegraph.Texture, p viewParams) (*TextureView, error) {
	t, ok := tex.(*Texture)
	if !ok || t.dev != d || t.released {
		return nil, ErrForeignObject
	}
	if p.format == gputypes.TextureFormatUndefined {
		p.format = t.desc.Format
	}
	if p.aspect == gputypes.TextureAspectUndefined {
		p.aspect = gputypes.TextureAspectAll
	}
	raw := t.raw.CreateView(&wgpu.TextureViewDescriptor{
		Label:           stringView(p.label),
		Format:          p.format,
		Dimension:       p.dimension,
		BaseMipLevel:    p.baseMip,
		MipLevelCount:   p.mipCount,
		BaseArrayLayer:  p.baseLayer,
		ArrayLayerCount: p.layerCount,
		Aspect:          textureAspect(p.aspect),
	})
	runtime.KeepAlive(p.label)
	if raw == nil {
		return nil, fmt.Errorf("%w: view %q", ErrCreateFailed, p.label)
	}
	return &TextureView{object: d.track(raw.Release), raw: raw, texture: t}, nil
}

func (d *Device) bufferView(buf framegraph.Buffer, rng framegraph.BufferViewRange) (*bufferView, error) {
	b, ok := buf.(*buffer)
	if !ok || b.dev != d || b.released {
		return nil, ErrForeignObject
	}
	if rng.Offset > b.size || rng.Size > b.size-rng.Offset {
		return nil, fmt.Errorf("rust: view range [%d,+%d) exceeds %d byte buffer", rng.Offset, rng.Size, b.size)
	}
	return &bufferView{object: d.track(nil), buffer: b, rng: rng}, nil
}

func attachmentDimension(layers uint32) gputypes.TextureViewDimension {
	if layers > 1 {
		return gputypes.TextureViewDimension2DArray
	}
	return gputypes.TextureViewDimension2D
}

// CreateShaderResourceView implements framegraph.Device.
func (d *Device) CreateShaderResourceView(desc *framegraph.ShaderResourceViewDescriptor) (framegraph.ShaderResourceView, error) {
	if desc.Texture == nil {
		v, err := d.bufferView(desc.Buffer, desc.BufferRange)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	v, err := d.textureView(desc.Texture, viewParams{
		label: desc.Label, format: desc.Format, dimension: desc.Dimension, aspect: desc.Aspect,
		baseMip: desc.Range.BaseMipLevel, mipCount: desc.Range.MipLevelCount,
		baseLayer: desc.Range.BaseArrayLayer, layerCount: desc.Range.ArrayLayerCount,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateUnorderedAccessView implements framegraph.Device.
func (d *Device) CreateUnorderedAccessView(desc *framegraph.UnorderedAccessViewDescriptor) (framegraph.UnorderedAccessView, error) {
	if desc.Texture == nil {
		v, err := d.bufferView(desc.Buffer, desc.BufferRange)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	v, err := d.textureView(desc.Texture, viewParams{
		label: desc.Label, format: desc.Format, dimension: desc.Dimension,
		baseMip: desc.MipLevel, mipCount: 1,
		baseLayer: desc.Range.BaseArrayLayer, layerCount: desc.Range.ArrayLayerCount,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateRenderTargetView implements framegraph.Device.
func (d *Device) CreateRenderTargetView(desc *framegraph.RenderTargetViewDescriptor) (framegraph.RenderTargetView, error) {
	v, err := d.textureView(desc.Texture, viewParams{
		label: desc.Label, format: desc.Format, dimension: attachmentDimension(desc.ArrayLayerCount),
		baseMip: desc.MipLevel, mipCount: 1,
		baseLayer: desc.BaseArrayLayer, layerCount: max(desc.ArrayLayerCount, 1),
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateDepthStencilView implements framegraph.Device.
func (d *Device) CreateDepthStencilView(desc *framegraph.DepthStencilViewDescriptor) (framegraph.DepthStencilView, error) {
	v, err := d.textureView(desc.Texture, viewParams{
		label: desc.Label, format: desc.Format, dimension: attachmentDimension(desc.ArrayLayerCount),
		baseMip: desc.MipLevel, mipCount: 1,
		baseLayer: desc.BaseArrayLayer, layerCount: max(desc.ArrayLayerCount, 1),
	})
	if err != nil {
		return nil, err
	}
	v.readOnlyDepth = desc.ReadOnlyDepth
	v.readOnlyStencil = desc.ReadOnlyStencil
	return v, nil
}

// CreateComputePipeline compiles wgsl and builds a compute pipeline with an
// automatic layout. The caller releases it.
func (d *Device) CreateComputePipeline(wgsl, entryPoint string) (*wgpu.ComputePipeline, error) {
	module := d.device.CreateShaderModuleWGSL(wgsl)
	if module == nil {
		return nil, fmt.Errorf("%w: shader module", ErrCreateFailed)
	}
	defer module.Release()
	p := d.device.CreateComputePipelineSimple(nil, module, entryPoint)
	if p == nil {
		return nil, fmt.Errorf("%w: compute pipeline %q", ErrCreateFailed, entryPoint)
	}
	return p, nil
}
