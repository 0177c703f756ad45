package graphdesc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/framegraph/internal/shader"
)

func loadDeferred(t *testing.T, cache *shader.Cache) *Description {
	t.Helper()
	d, err := LoadFile("testdata/deferred.hcl", cache)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return d
}

func findPass(t *testing.T, d *Description, name string) *Pass {
	t.Helper()
	for i := range d.Passes {
		if d.Passes[i].Name == name {
			return &d.Passes[i]
		}
	}
	t.Fatalf("pass %q not found", name)
	return nil
}

func TestLoadDeferred(t *testing.T) {
	cache := shader.NewCache()
	d := loadDeferred(t, cache)

	if d.Width != 64 || d.Height != 32 {
		t.Errorf("viewport = %dx%d, want 64x32", d.Width, d.Height)
	}
	if len(d.Imports) != 1 || d.Imports[0].State != framegraph.StatePresent {
		t.Fatalf("Imports = %+v", d.Imports)
	}
	if got := d.Imports[0].Desc.Format; got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("import format = %v", got)
	}

	var names []string
	for _, p := range d.Passes {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "GBuffer,Lighting,Tonemap,Present" {
		t.Errorf("passes = %s", got)
	}

	gbuf := findPass(t, d, "GBuffer")
	if gbuf.Type != framegraph.PassRaster || gbuf.Queue != framegraph.QueueGraphics {
		t.Errorf("GBuffer type/queue = %v/%v", gbuf.Type, gbuf.Queue)
	}
	if gbuf.ClearDepth == nil || *gbuf.ClearDepth != 1 {
		t.Errorf("GBuffer clear depth = %v", gbuf.ClearDepth)
	}
	if len(gbuf.SPIRV) == 0 || gbuf.SPIRV[0] != 0x07230203 {
		t.Error("GBuffer shader not compiled to SPIR-V")
	}

	light := findPass(t, d, "Lighting")
	if light.Queue != framegraph.QueueCompute {
		t.Errorf("Lighting queue = %v, want Compute", light.Queue)
	}
	if light.Dispatch != [3]uint32{8, 4, 1} {
		t.Errorf("Lighting dispatch = %v, want [8 4 1]", light.Dispatch)
	}
	if light.EntryPoint != "main" {
		t.Errorf("Lighting entry point = %q", light.EntryPoint)
	}
	hdr := light.Textures[0].Desc.Descriptor
	if hdr.Width != 64 || hdr.Height != 32 {
		t.Errorf("hdr size = %dx%d", hdr.Width, hdr.Height)
	}

	present := findPass(t, d, "Present")
	if present.CopySrc != "lit" || present.CopyDst != "backbuffer" || present.Output != "backbuffer" {
		t.Errorf("Present = %+v", present)
	}
	if present.OutputState != framegraph.StatePresent {
		t.Errorf("Present output state = %v", present.OutputState)
	}

	// GBuffer and Tonemap share the fullscreen shader, so one load compiles
	// two modules and a second load hits both.
	if cache.Len() != 2 || cache.Hits() != 0 {
		t.Errorf("cache Len/Hits = %d/%d, want 2/0", cache.Len(), cache.Hits())
	}
	loadDeferred(t, cache)
	if cache.Len() != 2 || cache.Hits() != 2 {
		t.Errorf("after reload cache Len/Hits = %d/%d, want 2/2", cache.Len(), cache.Hits())
	}
}

func TestDerivedUsage(t *testing.T) {
	d := loadDeferred(t, nil)

	usage := make(map[string]gputypes.TextureUsage)
	var tiles gputypes.BufferUsage
	for _, p := range d.Passes {
		for _, tex := range p.Textures {
			usage[tex.Name] = tex.Desc.Descriptor.Usage
		}
		for _, buf := range p.Buffers {
			tiles = buf.Desc.Descriptor.Usage
		}
	}

	tests := []struct {
		name string
		want gputypes.TextureUsage
	}{
		{"albedo", gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding},
		{"depth", gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding},
		{"hdr", gputypes.TextureUsageStorageBinding | gputypes.TextureUsageTextureBinding},
		{"lit", gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc},
	}
	for _, tt := range tests {
		if usage[tt.name] != tt.want {
			t.Errorf("%s usage = %#x, want %#x", tt.name, usage[tt.name], tt.want)
		}
	}
	if tiles != gputypes.BufferUsageStorage {
		t.Errorf("tiles usage = %#x, want Storage", tiles)
	}
}

func TestLoadErrors(t *testing.T) {
	const vp = "viewport {\n width = 8\n height = 8\n}\n"
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `pass "A" {`, "parse"},
		{"unknown attribute", vp + `pass "A" { colour = 1 }`, "decode"},
		{"unknown format", vp + `pass "A" {
  texture "t" { format = "rgb565" }
}`, `unknown format "rgb565"`},
		{"undeclared read", vp + `pass "A" { reads = ["ghost"] }`, `"ghost" is not declared`},
		{"duplicate", vp + `pass "A" {
  texture "t" { format = "rgba8unorm" }
  texture "t" { format = "rgba8unorm" }
}`, "declared twice"},
		{"depth color target", vp + `pass "A" {
  texture "d" { format = "depth32float" }
  color_targets = ["d"]
}`, "has depth format"},
		{"color depth target", vp + `pass "A" {
  texture "c" { format = "rgba8unorm" }
  depth_target = "c"
}`, "has color format"},
		{"dispatch in raster", vp + `pass "A" { dispatch = [1] }`, "dispatch needs a compute pass"},
		{"targets in compute", vp + `pass "A" {
  type = "compute"
  texture "c" { format = "rgba8unorm" }
  color_targets = ["c"]
}`, "only raster passes"},
		{"unknown shader", vp + `pass "A" { shader = "bloom" }`, `unknown shader "bloom"`},
		{"bad wgsl", vp + `pass "A" { wgsl = "fn (" }`, `shader "A"`},
		{"clear color", vp + `pass "A" { clear_color = [1, 1, 1] }`, "4 components"},
		{"copy in compute", vp + `pass "A" {
  type = "compute"
  copy {
    src = "x"
    dst = "y"
  }
}`, "copy needs a copy pass"},
		{"no size", `pass "A" {
  texture "t" { format = "rgba8unorm" }
}`, "no size and no viewport"},
		{"unknown type", vp + `pass "A" { type = "mesh" }`, `unknown type "mesh"`},
		{"unknown usage", vp + `pass "A" {
  buffer "b" {
    size  = 16
    usage = ["sparkly"]
  }
}`, `unknown usage "sparkly"`},
		{"bad viewport", "viewport {\n width = 0\n height = 8\n}\n", "viewport must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("test.hcl", []byte(tt.src), nil)
			if err == nil {
				t.Fatal("Load() succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadReportsEveryPass(t *testing.T) {
	src := `
viewport {
  width  = 8
  height = 8
}
pass "A" { reads = ["x"] }
pass "B" { reads = ["y"] }
`
	_, err := Load("test.hcl", []byte(src), nil)
	if err == nil {
		t.Fatal("Load() succeeded")
	}
	for _, want := range []string{`"x"`, `"y"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %v does not mention %s", err, want)
		}
	}
}

func TestShaderErrorsInPassOrder(t *testing.T) {
	src := `
viewport {
  width  = 8
  height = 8
}
pass "First" { wgsl = "fn (" }
pass "Second" {
  type = "compute"
  wgsl = "@compute fn"
}
pass "Third" { wgsl = "fn (" }
`
	_, err := Load("test.hcl", []byte(src), nil)
	if err == nil {
		t.Fatal("Load() succeeded")
	}
	msg := err.Error()
	first := strings.Index(msg, `pass "First"`)
	second := strings.Index(msg, `pass "Second"`)
	third := strings.Index(msg, `pass "Third"`)
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("error %v does not name every pass", err)
	}
	if !(first < second && second < third) {
		t.Errorf("errors out of pass order: %v", err)
	}
}

func TestBuildNotInFrame(t *testing.T) {
	g := framegraph.New(nil)
	if _, err := Build(g, &Description{}, Options{}); !errors.Is(err, ErrNotInFrame) {
		t.Errorf("Build() error = %v, want ErrNotInFrame", err)
	}
}

func TestBuildTables(t *testing.T) {
	d := loadDeferred(t, nil)
	g := framegraph.New(nil)
	g.BeginFrame(1)
	defer g.EndFrame()

	refs, err := Build(g, d, Options{})
	if err != nil {
		t.Fatal(err)
	}
	st := g.Stats()
	want := framegraph.Stats{
		Passes: 4, Textures: 6, Buffers: 1,
		SRVs: 4, UAVs: 2, RTVs: 3, DSVs: 1,
		InFrame: true, FrameIndex: 1,
	}
	if st != want {
		t.Errorf("Stats() = %+v\nwant %+v", st, want)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if state, ok := g.TextureExternalOutput(refs.Textures["backbuffer"]); !ok || state != framegraph.StatePresent {
		t.Errorf("backbuffer external output = %v, %v", state, ok)
	}

	passes := g.Passes()
	if !passes[3].Flags.Has(framegraph.PassFlagExternalOutput) {
		t.Errorf("Present flags = %v", passes[3].Flags)
	}
	if passes[0].ColorTargets != 2 || !passes[0].HasDepth {
		t.Errorf("GBuffer targets = %d, depth %v", passes[0].ColorTargets, passes[0].HasDepth)
	}

	// Nil contexts are tolerated.
	g.Execute(nil)
}

func TestRunOnSoftwareBackend(t *testing.T) {
	d := loadDeferred(t, nil)
	b := backend.NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	dev := b.SoftwareDevice()

	imp := d.Imports[0].Desc
	backbuffer, err := dev.CreateTexture(&imp)
	if err != nil {
		t.Fatal(err)
	}
	defer backbuffer.Release()

	var before []string
	g := framegraph.New(dev)
	g.BeginFrame(7)
	if _, err := Build(g, d, Options{
		Externals: map[string]framegraph.Texture{"backbuffer": backbuffer},
		BeforeWork: func(_ framegraph.CmdContext, p *Pass) bool {
			before = append(before, p.Name)
			return true
		},
	}); err != nil {
		t.Fatal(err)
	}

	ctx, err := b.NewCommandContext("frame")
	if err != nil {
		t.Fatal(err)
	}
	g.Execute(ctx)
	if err := ctx.Submit(); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if n := g.Stats().FailedCreations; n != 0 {
		t.Errorf("FailedCreations = %d", n)
	}
	g.EndFrame()

	got := dev.Stats()
	want := backend.SoftwareStats{Submits: 1, RenderPasses: 2, Clears: 4, Draws: 3, Dispatches: 1, Copies: 1}
	if got != want {
		t.Errorf("Stats() = %+v\nwant %+v", got, want)
	}
	if strings.Join(before, ",") != "GBuffer,Lighting,Tonemap" {
		t.Errorf("BeforeWork ran for %v", before)
	}
	if dev.Live() != 1 {
		t.Errorf("Live() = %d after EndFrame, want only the backbuffer", dev.Live())
	}

	px, err := dev.ReadPixels(backbuffer)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(px[:4], []byte{191, 128, 64, 255}) {
		t.Errorf("backbuffer texel = %v, want the tonemap clear color in BGRA", px[:4])
	}
}

func TestBeforeWorkSkips(t *testing.T) {
	d := loadDeferred(t, nil)
	b := backend.NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	imp := d.Imports[0].Desc
	backbuffer, err := b.Device().CreateTexture(&imp)
	if err != nil {
		t.Fatal(err)
	}
	defer backbuffer.Release()

	g := framegraph.New(b.Device())
	g.BeginFrame(1)
	if _, err := Build(g, d, Options{
		Externals: map[string]framegraph.Texture{"backbuffer": backbuffer},
		BeforeWork: func(_ framegraph.CmdContext, p *Pass) bool {
			return p.Type != framegraph.PassRaster
		},
	}); err != nil {
		t.Fatal(err)
	}
	ctx, _ := b.NewCommandContext("frame")
	g.Execute(ctx)
	if err := ctx.Submit(); err != nil {
		t.Fatal(err)
	}
	g.EndFrame()

	st := b.SoftwareDevice().Stats()
	if st.Draws != 0 || st.Dispatches != 1 || st.RenderPasses != 2 {
		t.Errorf("Stats() = %+v, want no draws, 1 dispatch, 2 render passes", st)
	}
}
