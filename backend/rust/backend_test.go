//go:build rust

package rust

import (
	"errors"
	"testing"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

func TestBackendRegistration(t *testing.T) {
	if !backend.IsRegistered(backend.BackendRust) {
		t.Fatal("rust backend should be registered")
	}
	b := backend.Get(backend.BackendRust)
	if b == nil {
		t.Fatal("backend.Get(BackendRust) should not return nil")
	}
	if b.Name() != backend.BackendRust {
		t.Errorf("Name() = %q, want %q", b.Name(), backend.BackendRust)
	}
}

func TestBackendNotInitialized(t *testing.T) {
	b := NewRustBackend()
	if b.Device() != nil {
		t.Error("Device() should return nil before Init()")
	}
	if _, err := b.NewCommandContext("x"); err != backend.ErrNotInitialized {
		t.Errorf("NewCommandContext() error = %v, want ErrNotInitialized", err)
	}
}

// TestClearFrame needs wgpu-native and a GPU; it skips otherwise.
func TestClearFrame(t *testing.T) {
	b := NewRustBackend()
	if err := b.Init(); err != nil {
		t.Skipf("wgpu-native unavailable: %v", err)
	}
	defer b.Close()

	g := framegraph.New(b.Device())
	g.BeginFrame(1)
	g.AddPass(framegraph.PassDesc{Name: "Clear"}, func(pb *framegraph.PassBuilder) {
		tex := pb.WriteTexture(pb.CreateTexture(framegraph.TextureDesc{Descriptor: framegraph.TextureDescriptor{
			Label: "target", Width: 16, Height: 16,
			Format: gputypes.TextureFormatRGBA8Unorm,
			Usage:  gputypes.TextureUsageRenderAttachment,
		}}), framegraph.StateRenderTarget)
		pb.SetRenderTargets([]framegraph.RenderTargetBinding{{
			RTV:    pb.CreateRTV(tex, framegraph.RenderTargetViewDescriptor{}),
			LoadOp: gputypes.LoadOpClear,
		}}, nil)
	})

	ctx, err := b.NewCommandContext("frame")
	if err != nil {
		t.Fatal(err)
	}
	g.Execute(ctx)
	if err := ctx.Submit(); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	g.EndFrame()
	if live := b.Device().(*Device).Live(); live != 0 {
		t.Errorf("Live() = %d after EndFrame", live)
	}
}

func TestStringView(t *testing.T) {
	if sv := stringView(""); sv != wgpu.EmptyStringView() {
		t.Errorf("stringView(\"\") = %+v, want empty", sv)
	}
	label := "gbuffer"
	sv := stringView(label)
	if sv.Length != uintptr(len(label)) || sv.Data == 0 {
		t.Errorf("stringView(%q) = %+v", label, sv)
	}
}

func TestTextureAspect(t *testing.T) {
	tests := []struct {
		in   gputypes.TextureAspect
		want wgpu.TextureAspect
	}{
		{gputypes.TextureAspectUndefined, wgpu.TextureAspectAll},
		{gputypes.TextureAspectAll, wgpu.TextureAspectAll},
		{gputypes.TextureAspectDepthOnly, wgpu.TextureAspectDepthOnly},
		{gputypes.TextureAspectStencilOnly, wgpu.TextureAspectStencilOnly},
	}
	for _, tt := range tests {
		if got := textureAspect(tt.in); got != tt.want {
			t.Errorf("textureAspect(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeviceRejectsInvalid(t *testing.T) {
	d := &Device{}
	if _, err := d.CreateTexture(&framegraph.TextureDescriptor{Label: "empty"}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("CreateTexture(0x0) error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := d.CreateBuffer(&framegraph.BufferDescriptor{Label: "empty"}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("CreateBuffer(0) error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := d.CreateRenderTargetView(&framegraph.RenderTargetViewDescriptor{}); !errors.Is(err, ErrForeignObject) {
		t.Errorf("CreateRenderTargetView(nil texture) error = %v, want ErrForeignObject", err)
	}
}
