package backend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/recording"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the host-memory software device.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU backend (gogpu/wgpu HAL).
	BackendNative = "native"
	// BackendRust is the name of the wgpu-native backend (go-webgpu/webgpu).
	BackendRust = "rust"
)

var (
	errForeignTexture = errors.New("backend: texture not created by this device")
	errCopyMismatch   = errors.New("backend: copy source and destination differ in size or format")
	errReleased       = errors.New("backend: object already released")
)

// SoftwareBackend keeps every texture and buffer in host memory. Render
// passes apply their clear load ops and CopyTexture copies texels; draws
// and dispatches are only counted. It is meant for tests, tools and
// headless validation of graph wiring.
type SoftwareBackend struct {
	device *SoftwareDevice
}

func init() {
	Register(BackendSoftware, func() DeviceBackend {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init creates the device.
func (b *SoftwareBackend) Init() error {
	if b.device == nil {
		b.device = &SoftwareDevice{}
	}
	return nil
}

// Close drops the device. Objects still alive are leaked to the GC.
func (b *SoftwareBackend) Close() {
	if b.device != nil && b.device.live != 0 {
		framegraph.Logger().Warn("backend: software device closed with live objects",
			"live", b.device.live)
	}
	b.device = nil
}

// Device returns the software device, or nil before Init.
func (b *SoftwareBackend) Device() framegraph.Device {
	if b.device == nil {
		return nil
	}
	return b.device
}

// SoftwareDevice returns the concrete device for pixel readback.
func (b *SoftwareBackend) SoftwareDevice() *SoftwareDevice {
	return b.device
}

// NewCommandContext starts recording a frame.
func (b *SoftwareBackend) NewCommandContext(label string) (CommandContext, error) {
	if b.device == nil {
		return nil, ErrNotInitialized
	}
	return &SoftwareCommandContext{
		Recorder: recording.NewRecorder(label),
		device:   b.device,
	}, nil
}

// SoftwareStats counts what submitted command streams did.
type SoftwareStats struct {
	Submits      int
	RenderPasses int
	Clears       int
	Draws        int
	Dispatches   int
	Copies       int
}

// SoftwareDevice implements framegraph.Device in host memory.
// It is not safe for concurrent use.
type SoftwareDevice struct {
	frame  uint64
	frames int
	live   int
	stats  SoftwareStats
}

// Live returns the number of objects created and not yet released.
func (d *SoftwareDevice) Live() int { return d.live }

// Frame returns the index of the current frame.
func (d *SoftwareDevice) Frame() uint64 { return d.frame }

// Frames returns how many frames have ended.
func (d *SoftwareDevice) Frames() int { return d.frames }

// Stats returns the accumulated submission counters.
func (d *SoftwareDevice) Stats() SoftwareStats { return d.stats }

// BeginFrame implements framegraph.Device.
func (d *SoftwareDevice) BeginFrame(frameIndex uint64) { d.frame = frameIndex }

// EndFrame implements framegraph.Device.
func (d *SoftwareDevice) EndFrame() { d.frames++ }

type softwareObject struct {
	dev      *SoftwareDevice
	released bool
}

func (o *softwareObject) Release() {
	if o.released {
		return
	}
	o.released = true
	o.dev.live--
}

// SoftwareTexture is a host-memory texture.
type SoftwareTexture struct {
	softwareObject
	desc   framegraph.TextureDescriptor
	bpp    int
	pixels []byte
}

// Descriptor returns the descriptor the texture was created with.
func (t *SoftwareTexture) Descriptor() framegraph.TextureDescriptor { return t.desc }

type softwareBuffer struct {
	softwareObject
	desc framegraph.BufferDescriptor
	data []byte
}

// softwareView is shared by all four view kinds.
type softwareView struct {
	softwareObject
	tex *SoftwareTexture
	buf *softwareBuffer
}

// CreateTexture implements framegraph.Device.
func (d *SoftwareDevice) CreateTexture(desc *framegraph.TextureDescriptor) (framegraph.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("backend: texture %q has zero size", desc.Label)
	}
	layers := max(desc.DepthOrArrayLayers, 1)
	bpp := bytesPerTexel(desc.Format)
	d.live++
	return &SoftwareTexture{
		softwareObject: softwareObject{dev: d},
		desc:           *desc,
		bpp:            bpp,
		pixels:         make([]byte, int(desc.Width)*int(desc.Height)*int(layers)*bpp),
	}, nil
}

// CreateBuffer implements framegraph.Device.
func (d *SoftwareDevice) CreateBuffer(desc *framegraph.BufferDescriptor) (framegraph.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("backend: buffer %q has zero size", desc.Label)
	}
	d.live++
	return &softwareBuffer{
		softwareObject: softwareObject{dev: d},
		desc:           *desc,
		data:           make([]byte, desc.Size),
	}, nil
}

func (d *SoftwareDevice) newView(tex framegraph.Texture, buf framegraph.Buffer) (*softwareView, error) {
	v := &softwareView{softwareObject: softwareObject{dev: d}}
	switch {
	case tex != nil:
		t, ok := tex.(*SoftwareTexture)
		if !ok {
			return nil, errForeignTexture
		}
		v.tex = t
	case buf != nil:
		b, ok := buf.(*softwareBuffer)
		if !ok {
			return nil, errors.New("backend: buffer not created by this device")
		}
		v.buf = b
	default:
		return nil, errors.New("backend: view without resource")
	}
	d.live++
	return v, nil
}

// CreateShaderResourceView implements framegraph.Device.
func (d *SoftwareDevice) CreateShaderResourceView(desc *framegraph.ShaderResourceViewDescriptor) (framegraph.ShaderResourceView, error) {
	v, err := d.newView(desc.Texture, desc.Buffer)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateUnorderedAccessView implements framegraph.Device.
func (d *SoftwareDevice) CreateUnorderedAccessView(desc *framegraph.UnorderedAccessViewDescriptor) (framegraph.UnorderedAccessView, error) {
	v, err := d.newView(desc.Texture, desc.Buffer)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateRenderTargetView implements framegraph.Device.
func (d *SoftwareDevice) CreateRenderTargetView(desc *framegraph.RenderTargetViewDescriptor) (framegraph.RenderTargetView, error) {
	if desc.Texture == nil {
		return nil, errors.New("backend: render target view without texture")
	}
	v, err := d.newView(desc.Texture, nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateDepthStencilView implements framegraph.Device.
func (d *SoftwareDevice) CreateDepthStencilView(desc *framegraph.DepthStencilViewDescriptor) (framegraph.DepthStencilView, error) {
	if desc.Texture == nil {
		return nil, errors.New("backend: depth stencil view without texture")
	}
	v, err := d.newView(desc.Texture, nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ReadPixels returns a copy of the texel data of a texture created by d.
func (d *SoftwareDevice) ReadPixels(tex framegraph.Texture) ([]byte, error) {
	t, ok := tex.(*SoftwareTexture)
	if !ok || t.dev != d {
		return nil, errForeignTexture
	}
	if t.released {
		return nil, errReleased
	}
	return append([]byte(nil), t.pixels...), nil
}

// SoftwareCommandContext records into a recording.Recorder and plays the
// recording back onto host memory at Submit.
type SoftwareCommandContext struct {
	*recording.Recorder
	device *SoftwareDevice
	done   bool
}

// Submit finishes the recording and executes it.
func (c *SoftwareCommandContext) Submit() error {
	if c.done {
		return errors.New("backend: command context already submitted")
	}
	c.done = true
	r, err := c.FinishRecording()
	if err != nil {
		return err
	}
	if err := r.Playback(&softwareExecutor{dev: c.device}); err != nil {
		return err
	}
	c.device.stats.Submits++
	return nil
}

// Discard drops the recorded commands.
func (c *SoftwareCommandContext) Discard() { c.done = true }

// softwareExecutor applies recorded commands to host memory.
type softwareExecutor struct {
	dev *SoftwareDevice
}

func (e *softwareExecutor) BeginRenderPass(desc *framegraph.RenderPassDescriptor) {
	e.dev.stats.RenderPasses++
	for _, att := range desc.ColorAttachments {
		v, ok := att.View.(*softwareView)
		if !ok || v.tex == nil || att.LoadOp != gputypes.LoadOpClear {
			continue
		}
		if fillColor(v.tex, att.ClearValue) {
			e.dev.stats.Clears++
		}
	}
	if ds := desc.DepthStencilAttachment; ds != nil && ds.DepthLoadOp == gputypes.LoadOpClear {
		if v, ok := ds.View.(*softwareView); ok && v.tex != nil && fillDepth(v.tex, ds.DepthClearValue) {
			e.dev.stats.Clears++
		}
	}
}

func (e *softwareExecutor) EndRenderPass()          {}
func (e *softwareExecutor) Draw(_, _, _, _ uint32)  { e.dev.stats.Draws++ }
func (e *softwareExecutor) Dispatch(_, _, _ uint32) { e.dev.stats.Dispatches++ }
func (e *softwareExecutor) InsertMarker(string)     {}

func (e *softwareExecutor) CopyTexture(src, dst framegraph.Texture) error {
	s, ok1 := src.(*SoftwareTexture)
	d, ok2 := dst.(*SoftwareTexture)
	if !ok1 || !ok2 {
		return errForeignTexture
	}
	if s.released || d.released {
		return errReleased
	}
	if len(s.pixels) != len(d.pixels) || s.desc.Format != d.desc.Format {
		return errCopyMismatch
	}
	copy(d.pixels, s.pixels)
	e.dev.stats.Copies++
	return nil
}

func bytesPerTexel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float,
		gputypes.TextureFormatRG8Unorm, gputypes.TextureFormatRG8Snorm,
		gputypes.TextureFormatRG8Uint, gputypes.TextureFormatRG8Sint,
		gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatRGBA16Unorm, gputypes.TextureFormatRGBA16Snorm,
		gputypes.TextureFormatRGBA16Uint, gputypes.TextureFormatRGBA16Sint,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16
	default:
		// 8-bit RGBA/BGRA, packed 32-bit, R32, RG16 and 32-bit depth.
		return 4
	}
}

func unorm8(v float64) byte {
	return byte(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func unorm16(v float64) uint16 {
	return uint16(math.Round(math.Max(0, math.Min(1, v)) * 65535))
}

// halfBits converts v to IEEE 754 binary16, rounding to nearest even.
func halfBits(v float32) uint16 {
	b := math.Float32bits(v)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case b&0x7fffffff > 0x7f800000:
		return sign | 0x7e00
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		h := mant >> shift
		rem := mant & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && h&1 == 1) {
			h++
		}
		return sign | uint16(h)
	}

	h := uint32(exp)<<10 | mant>>13
	rem := mant & 0x1fff
	// A carry out of the mantissa bumps the exponent, up to infinity.
	if rem > 0x1000 || (rem == 0x1000 && h&1 == 1) {
		h++
	}
	return sign | uint16(h)
}

func appendHalfs(dst []byte, vs ...float64) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint16(dst, halfBits(float32(v)))
	}
	return dst
}

func appendFloats(dst []byte, vs ...float64) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))
	}
	return dst
}

// colorTexel encodes c in format f, or returns nil when the software device
// cannot clear f.
func colorTexel(f gputypes.TextureFormat, c gputypes.Color) []byte {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return []byte{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return []byte{unorm8(c.B), unorm8(c.G), unorm8(c.R), unorm8(c.A)}
	case gputypes.TextureFormatRG8Unorm:
		return []byte{unorm8(c.R), unorm8(c.G)}
	case gputypes.TextureFormatR8Unorm:
		return []byte{unorm8(c.R)}
	case gputypes.TextureFormatR16Unorm:
		return binary.LittleEndian.AppendUint16(nil, unorm16(c.R))
	case gputypes.TextureFormatR16Float:
		return appendHalfs(nil, c.R)
	case gputypes.TextureFormatRG16Float:
		return appendHalfs(nil, c.R, c.G)
	case gputypes.TextureFormatRGBA16Float:
		return appendHalfs(nil, c.R, c.G, c.B, c.A)
	case gputypes.TextureFormatR32Float:
		return appendFloats(nil, c.R)
	case gputypes.TextureFormatRG32Float:
		return appendFloats(nil, c.R, c.G)
	case gputypes.TextureFormatRGBA32Float:
		return appendFloats(nil, c.R, c.G, c.B, c.A)
	}
	return nil
}

// depthTexel encodes depth in format f, or returns nil for formats without
// a depth aspect.
func depthTexel(f gputypes.TextureFormat, depth float32) []byte {
	switch f {
	case gputypes.TextureFormatDepth16Unorm:
		return binary.LittleEndian.AppendUint16(nil, unorm16(float64(depth)))
	case gputypes.TextureFormatDepth24Plus, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return appendFloats(nil, float64(depth))
	case gputypes.TextureFormatDepth32FloatStencil8:
		return append(appendFloats(nil, float64(depth)), 0, 0, 0, 0)
	}
	return nil
}

// fillColor clears t to c and reports whether the format was handled.
func fillColor(t *SoftwareTexture, c gputypes.Color) bool {
	return fillTexels(t, colorTexel(t.desc.Format, c))
}

func fillDepth(t *SoftwareTexture, depth float32) bool {
	return fillTexels(t, depthTexel(t.desc.Format, depth))
}

// fillTexels repeats texel over the texture. Texels that do not match the
// texture's stride are skipped.
func fillTexels(t *SoftwareTexture, texel []byte) bool {
	if len(texel) == 0 || len(texel) != t.bpp {
		return false
	}
	for off := 0; off+t.bpp <= len(t.pixels); off += t.bpp {
		copy(t.pixels[off:], texel)
	}
	return true
}
