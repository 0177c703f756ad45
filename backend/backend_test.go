package backend

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/recording"
)

func TestSoftwareBackendName(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
}

func TestSoftwareBackendInit(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Device() != nil {
		t.Error("Device() before Init should be nil")
	}
	if _, err := b.NewCommandContext("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewCommandContext before Init: err = %v, want ErrNotInitialized", err)
	}
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if b.Device() == nil {
		t.Error("Device() after Init is nil")
	}
	b.Close()
	if b.Device() != nil {
		t.Error("Device() after Close should be nil")
	}
}

func rgba8(w, h uint32) framegraph.TextureDesc {
	return framegraph.TextureDesc{Descriptor: framegraph.TextureDescriptor{
		Label: "color", Width: w, Height: h, DepthOrArrayLayers: 1,
		MipLevelCount: 1, SampleCount: 1,
		Dimension: gputypes.TextureDimension2D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Usage:     gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	}}
}

type clearData struct {
	color, depth, copyDst framegraph.TextureRef
}

func TestSoftwareBackendRendersGraph(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()
	dev := b.SoftwareDevice()

	g := framegraph.New(b.Device())
	g.BeginFrame(7)
	if dev.Frame() != 7 {
		t.Errorf("device frame = %d, want 7", dev.Frame())
	}

	var data *clearData
	framegraph.AddPass(g, framegraph.PassDesc{Name: "Clear"},
		func(pb *framegraph.PassBuilder, d *clearData) {
			data = d
			d.color = pb.WriteTexture(pb.CreateTexture(rgba8(2, 2)), framegraph.StateRenderTarget)
			depth := rgba8(2, 2)
			depth.Descriptor.Format = gputypes.TextureFormatDepth32Float
			d.depth = pb.WriteTexture(pb.CreateTexture(depth), framegraph.StateDepthWrite)
			pb.SetRenderTargets([]framegraph.RenderTargetBinding{{
				RTV:        pb.CreateRTV(d.color, framegraph.RenderTargetViewDescriptor{}),
				LoadOp:     gputypes.LoadOpClear,
				ClearColor: gputypes.Color{R: 1, G: 0.5, B: 0, A: 1},
			}}, &framegraph.DepthStencilBinding{
				DSV:         pb.CreateDSV(d.depth, framegraph.DepthStencilViewDescriptor{}),
				DepthLoadOp: gputypes.LoadOpClear,
				ClearDepth:  0.25,
			})
		},
		func(ctx framegraph.CmdContext, _ *framegraph.PassResources, _ *clearData) {
			ctx.(recording.Backend).Draw(3, 1, 0, 0)
		})

	framegraph.AddPass(g, framegraph.PassDesc{Name: "Copy", Type: framegraph.PassCopy},
		func(pb *framegraph.PassBuilder, d *clearData) {
			pb.ReadTexture(data.color, framegraph.StateCopySrc)
			d.copyDst = pb.WriteTexture(pb.CreateTexture(rgba8(2, 2)), framegraph.StateCopyDst)
			d.color = data.color
			data.copyDst = d.copyDst
		},
		func(ctx framegraph.CmdContext, r *framegraph.PassResources, d *clearData) {
			if err := ctx.(recording.Backend).CopyTexture(r.Texture(d.color), r.Texture(d.copyDst)); err != nil {
				t.Errorf("CopyTexture() error = %v", err)
			}
		})

	ctx, err := b.NewCommandContext("frame 7")
	if err != nil {
		t.Fatal(err)
	}
	g.Execute(ctx)
	if err := ctx.Submit(); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	px, err := dev.ReadPixels(g.ResolveTexture(data.copyDst))
	if err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{255, 128, 0, 255}, 4)
	if !bytes.Equal(px, want) {
		t.Errorf("copied pixels = %v, want %v", px, want)
	}

	dpx, err := dev.ReadPixels(g.ResolveTexture(data.depth))
	if err != nil {
		t.Fatal(err)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(dpx)); got != 0.25 {
		t.Errorf("depth = %v, want 0.25", got)
	}

	st := dev.Stats()
	if st.Submits != 1 || st.RenderPasses != 1 || st.Clears != 2 || st.Draws != 1 || st.Copies != 1 {
		t.Errorf("stats = %+v", st)
	}

	g.EndFrame()
	if dev.Live() != 0 {
		t.Errorf("Live() = %d after EndFrame, want 0", dev.Live())
	}
	if dev.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", dev.Frames())
	}
}

func TestSoftwareCommandContextSubmitOnce(t *testing.T) {
	b := NewSoftwareBackend()
	_ = b.Init()
	ctx, _ := b.NewCommandContext("x")
	if err := ctx.Submit(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Submit(); err == nil {
		t.Error("second Submit() should fail")
	}
}

func TestSoftwareCommandContextUnbalanced(t *testing.T) {
	b := NewSoftwareBackend()
	_ = b.Init()
	ctx, _ := b.NewCommandContext("x")
	ctx.BeginRenderPass(&framegraph.RenderPassDescriptor{})
	if err := ctx.Submit(); !errors.Is(err, recording.ErrUnbalancedRenderPass) {
		t.Errorf("Submit() error = %v, want ErrUnbalancedRenderPass", err)
	}
}

func TestSoftwareDeviceRejectsInvalid(t *testing.T) {
	d := &SoftwareDevice{}
	if _, err := d.CreateTexture(&framegraph.TextureDescriptor{Label: "empty"}); err == nil {
		t.Error("zero-size texture should fail")
	}
	if _, err := d.CreateBuffer(&framegraph.BufferDescriptor{}); err == nil {
		t.Error("zero-size buffer should fail")
	}
	if _, err := d.CreateRenderTargetView(&framegraph.RenderTargetViewDescriptor{}); err == nil {
		t.Error("RTV without texture should fail")
	}
	if _, err := d.CreateShaderResourceView(&framegraph.ShaderResourceViewDescriptor{}); err == nil {
		t.Error("SRV without resource should fail")
	}
	if d.Live() != 0 {
		t.Errorf("Live() = %d after failures", d.Live())
	}
}

func TestSoftwareCopyMismatch(t *testing.T) {
	d := &SoftwareDevice{}
	big, one := rgba8(2, 2).Descriptor, rgba8(1, 1).Descriptor
	a, _ := d.CreateTexture(&big)
	small, _ := d.CreateTexture(&one)
	e := &softwareExecutor{dev: d}
	if err := e.CopyTexture(a, small); !errors.Is(err, errCopyMismatch) {
		t.Errorf("CopyTexture() error = %v, want errCopyMismatch", err)
	}
	a.Release()
	a.Release()
	if d.Live() != 1 {
		t.Errorf("Live() = %d, want 1 (double release must be ignored)", d.Live())
	}
}

func TestFillColorFormats(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		want   []byte
	}{
		{gputypes.TextureFormatRGBA8Unorm, []byte{255, 0, 0, 255}},
		{gputypes.TextureFormatRGBA8UnormSrgb, []byte{255, 0, 0, 255}},
		{gputypes.TextureFormatBGRA8Unorm, []byte{0, 0, 255, 255}},
		{gputypes.TextureFormatRG8Unorm, []byte{255, 0}},
		{gputypes.TextureFormatR8Unorm, []byte{255}},
		{gputypes.TextureFormatR16Unorm, []byte{0xff, 0xff}},
		{gputypes.TextureFormatR16Float, []byte{0x00, 0x3c}},
		{gputypes.TextureFormatRG16Float, []byte{0x00, 0x3c, 0, 0}},
		{gputypes.TextureFormatRGBA16Float, []byte{0x00, 0x3c, 0, 0, 0, 0, 0x00, 0x3c}},
		{gputypes.TextureFormatR32Float, []byte{0, 0, 0x80, 0x3f}},
		{gputypes.TextureFormatRG32Float, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0}},
		{gputypes.TextureFormatRGBA32Float, []byte{
			0, 0, 0x80, 0x3f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x80, 0x3f,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			d := &SoftwareDevice{}
			desc := rgba8(1, 1).Descriptor
			desc.Format = tt.format
			tex, err := d.CreateTexture(&desc)
			if err != nil {
				t.Fatal(err)
			}
			if !fillColor(tex.(*SoftwareTexture), gputypes.Color{R: 1, A: 1}) {
				t.Fatal("fillColor() = false")
			}
			px, _ := d.ReadPixels(tex)
			if !bytes.Equal(px, tt.want) {
				t.Errorf("pixels = %v, want %v", px, tt.want)
			}
		})
	}
}

func TestFillDepthFormats(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		want   []byte
	}{
		{gputypes.TextureFormatDepth16Unorm, []byte{0x00, 0x80}},
		{gputypes.TextureFormatDepth24Plus, []byte{0, 0, 0, 0x3f}},
		{gputypes.TextureFormatDepth24PlusStencil8, []byte{0, 0, 0, 0x3f}},
		{gputypes.TextureFormatDepth32Float, []byte{0, 0, 0, 0x3f}},
		{gputypes.TextureFormatDepth32FloatStencil8, []byte{0, 0, 0, 0x3f, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			d := &SoftwareDevice{}
			desc := rgba8(1, 1).Descriptor
			desc.Format = tt.format
			tex, err := d.CreateTexture(&desc)
			if err != nil {
				t.Fatal(err)
			}
			if !fillDepth(tex.(*SoftwareTexture), 0.5) {
				t.Fatal("fillDepth() = false")
			}
			px, _ := d.ReadPixels(tex)
			if !bytes.Equal(px, tt.want) {
				t.Errorf("pixels = %v, want %v", px, tt.want)
			}
		})
	}
}

func TestHalfBits(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{0.5, 0x3800},
		{-2, 0xc000},
		{65504, 0x7bff},
		{1e6, 0x7c00},
		{float32(math.Inf(-1)), 0xfc00},
		{float32(math.NaN()), 0x7e00},
		{1.0 / (1 << 24), 0x0001},
		{1.0 / (1 << 14), 0x0400},
	}
	for _, tt := range tests {
		if got := halfBits(tt.in); got != tt.want {
			t.Errorf("halfBits(%g) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
}

func TestUnsupportedClearIsNotCounted(t *testing.T) {
	d := &SoftwareDevice{}
	desc := rgba8(1, 1).Descriptor
	desc.Format = gputypes.TextureFormatRGBA32Uint
	tex, err := d.CreateTexture(&desc)
	if err != nil {
		t.Fatal(err)
	}
	st := tex.(*SoftwareTexture)
	if len(st.pixels) != 16 {
		t.Fatalf("RGBA32Uint texel = %d bytes, want 16", len(st.pixels))
	}

	e := &softwareExecutor{dev: d}
	e.BeginRenderPass(&framegraph.RenderPassDescriptor{
		ColorAttachments: []framegraph.ColorAttachment{{
			View:       &softwareView{tex: st},
			LoadOp:     gputypes.LoadOpClear,
			ClearValue: gputypes.Color{R: 1, A: 1},
		}},
		DepthStencilAttachment: &framegraph.DepthStencilAttachment{
			View:        &softwareView{tex: st},
			DepthLoadOp: gputypes.LoadOpClear,
		},
	})
	if got := d.Stats().Clears; got != 0 {
		t.Errorf("Clears = %d, want 0 for a format the device cannot fill", got)
	}
	if !bytes.Equal(st.pixels, make([]byte, 16)) {
		t.Errorf("pixels = %v, want untouched", st.pixels)
	}
}
