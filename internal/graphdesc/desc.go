package graphdesc

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/internal/parallel"
	"github.com/gogpu/framegraph/internal/shader"
)

// Description is a decoded and checked frame description.
type Description struct {
	Width, Height uint32
	Imports       []Import
	Passes        []Pass
}

// Import names a texture owned outside the graph. Desc says what a
// stand-in for it should look like when the caller has none.
type Import struct {
	Name  string
	Desc  framegraph.TextureDescriptor
	State framegraph.ResourceState
}

// Texture is a transient texture declared by a pass.
type Texture struct {
	Name string
	Desc framegraph.TextureDesc
}

// Buffer is a transient buffer declared by a pass.
type Buffer struct {
	Name string
	Desc framegraph.BufferDesc
}

// Pass is one pass block.
type Pass struct {
	Name  string
	Type  framegraph.PassType
	Queue framegraph.QueueType

	Textures []Texture
	Buffers  []Buffer

	Reads        []string
	Writes       []string
	ColorTargets []string
	DepthTarget  string
	ClearColor   *gputypes.Color
	ClearDepth   *float32

	Output      string
	OutputState framegraph.ResourceState
	SideEffect  bool

	// Shader is the builtin shader name, or the pass name for inline WGSL.
	Shader     string
	WGSL       string
	EntryPoint string
	SPIRV      []uint32

	Draws    int
	Dispatch [3]uint32
	CopySrc  string
	CopyDst  string
}

// LoadFile reads and decodes the description at path.
func LoadFile(path string, cache *shader.Cache) (*Description, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphdesc: %w", err)
	}
	return Load(path, src, cache)
}

// Load decodes a description. Shaders are compiled through cache, which
// may be nil.
func Load(filename string, src []byte, cache *shader.Cache) (*Description, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("graphdesc: parse %s: %w", filename, diags)
	}

	var top fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &top); diags.HasErrors() {
		return nil, fmt.Errorf("graphdesc: decode %s: %w", filename, diags)
	}

	d := &Description{}
	if top.Viewport != nil {
		if top.Viewport.Width <= 0 || top.Viewport.Height <= 0 {
			return nil, fmt.Errorf("graphdesc: %s: viewport must be positive, got %dx%d",
				filename, top.Viewport.Width, top.Viewport.Height)
		}
		d.Width, d.Height = uint32(top.Viewport.Width), uint32(top.Viewport.Height)
	}

	var body bodySchema
	if diags := gohcl.DecodeBody(top.Remain, d.evalContext(), &body); diags.HasErrors() {
		return nil, fmt.Errorf("graphdesc: decode %s: %w", filename, diags)
	}

	if cache == nil {
		cache = shader.NewCache()
	}
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	c := newChecker(d, cache, pool)
	for _, ib := range body.Imports {
		c.addImport(ib)
	}
	for _, pb := range body.Passes {
		c.addPass(pb)
	}
	c.finish()
	if err := errors.Join(c.errs...); err != nil {
		return nil, fmt.Errorf("graphdesc: %s: %w", filename, err)
	}
	return d, nil
}

func (d *Description) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"viewport": cty.ObjectVal(map[string]cty.Value{
				"width":  cty.NumberUIntVal(uint64(d.Width)),
				"height": cty.NumberUIntVal(uint64(d.Height)),
			}),
		},
	}
}

type resourceKind uint8

const (
	kindTexture resourceKind = iota + 1
	kindBuffer
)

// checker converts decoded blocks and collects every problem it finds.
type checker struct {
	d     *Description
	cache *shader.Cache
	pool  *parallel.WorkerPool
	errs  []error

	kinds   map[string]resourceKind
	formats map[string]gputypes.TextureFormat

	// Declared textures and buffers without an explicit usage get the union
	// of what their accesses need.
	autoTex  map[string]gputypes.TextureUsage
	autoBuf  map[string]gputypes.BufferUsage
	explicit map[string]bool
}

func newChecker(d *Description, cache *shader.Cache, pool *parallel.WorkerPool) *checker {
	return &checker{
		d:        d,
		cache:    cache,
		pool:     pool,
		kinds:    make(map[string]resourceKind),
		formats:  make(map[string]gputypes.TextureFormat),
		autoTex:  make(map[string]gputypes.TextureUsage),
		autoBuf:  make(map[string]gputypes.BufferUsage),
		explicit: make(map[string]bool),
	}
}

func (c *checker) errorf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *checker) declare(name string, kind resourceKind, where string) bool {
	if _, dup := c.kinds[name]; dup {
		c.errorf("%s: %q declared twice", where, name)
		return false
	}
	c.kinds[name] = kind
	return true
}

// size falls back to the viewport for zero dimensions.
func (c *checker) size(w, h int, where string) (uint32, uint32, bool) {
	if w < 0 || h < 0 {
		c.errorf("%s: negative size %dx%d", where, w, h)
		return 0, 0, false
	}
	width, height := uint32(w), uint32(h)
	if width == 0 {
		width = c.d.Width
	}
	if height == 0 {
		height = c.d.Height
	}
	if width == 0 || height == 0 {
		c.errorf("%s: no size and no viewport", where)
		return 0, 0, false
	}
	return width, height, true
}

func (c *checker) addImport(ib *importBlock) {
	where := fmt.Sprintf("import %q", ib.Name)
	if !c.declare(ib.Name, kindTexture, where) {
		return
	}
	format := gputypes.TextureFormatBGRA8Unorm
	if ib.Format != "" {
		f, ok := parseFormat(ib.Format)
		if !ok {
			c.errorf("%s: unknown format %q", where, ib.Format)
			return
		}
		format = f
	}
	state := framegraph.StateCommon
	if ib.State != "" {
		s, ok := parseState(ib.State)
		if !ok {
			c.errorf("%s: unknown state %q", where, ib.State)
			return
		}
		state = s
	}
	w, h, ok := c.size(ib.Width, ib.Height, where)
	if !ok {
		return
	}
	c.formats[ib.Name] = format
	c.explicit[ib.Name] = true
	c.d.Imports = append(c.d.Imports, Import{
		Name: ib.Name,
		Desc: framegraph.TextureDescriptor{
			Label:  ib.Name,
			Width:  w,
			Height: h,
			Format: format,
			Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc |
				gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
		},
		State: state,
	})
}

func (c *checker) texture(tb *textureBlock, where string) (Texture, bool) {
	where = fmt.Sprintf("%s texture %q", where, tb.Name)
	if !c.declare(tb.Name, kindTexture, where) {
		return Texture{}, false
	}
	format, ok := parseFormat(tb.Format)
	if !ok {
		c.errorf("%s: unknown format %q", where, tb.Format)
		return Texture{}, false
	}
	usage, bad, ok := parseUsages(tb.Usage, textureUsages)
	if !ok {
		c.errorf("%s: unknown usage %q", where, bad)
		return Texture{}, false
	}
	w, h, ok := c.size(tb.Width, tb.Height, where)
	if !ok {
		return Texture{}, false
	}
	if tb.Layers < 0 || tb.Mips < 0 {
		c.errorf("%s: negative layers or mips", where)
		return Texture{}, false
	}
	c.formats[tb.Name] = format
	c.explicit[tb.Name] = len(tb.Usage) > 0
	return Texture{
		Name: tb.Name,
		Desc: framegraph.TextureDesc{Descriptor: framegraph.TextureDescriptor{
			Label:              tb.Name,
			Width:              w,
			Height:             h,
			DepthOrArrayLayers: uint32(max(tb.Layers, 1)),
			MipLevelCount:      uint32(max(tb.Mips, 1)),
			SampleCount:        1,
			Dimension:          gputypes.TextureDimension2D,
			Format:             format,
			Usage:              usage,
		}},
	}, true
}

func (c *checker) buffer(bb *bufferBlock, where string) (Buffer, bool) {
	where = fmt.Sprintf("%s buffer %q", where, bb.Name)
	if !c.declare(bb.Name, kindBuffer, where) {
		return Buffer{}, false
	}
	if bb.Size <= 0 {
		c.errorf("%s: size must be positive", where)
		return Buffer{}, false
	}
	usage, bad, ok := parseUsages(bb.Usage, bufferUsages)
	if !ok {
		c.errorf("%s: unknown usage %q", where, bad)
		return Buffer{}, false
	}
	c.explicit[bb.Name] = len(bb.Usage) > 0
	return Buffer{
		Name: bb.Name,
		Desc: framegraph.BufferDesc{Descriptor: framegraph.BufferDescriptor{
			Label: bb.Name,
			Size:  uint64(bb.Size),
			Usage: usage,
		}},
	}, true
}

// ref checks that name was declared earlier (or in the same pass) with the
// wanted kind. A zero want accepts either kind.
func (c *checker) ref(name string, want resourceKind, where string) (resourceKind, bool) {
	kind, ok := c.kinds[name]
	if !ok {
		c.errorf("%s: %q is not declared", where, name)
		return 0, false
	}
	if want != 0 && kind != want {
		c.errorf("%s: %q is not a texture", where, name)
		return 0, false
	}
	return kind, true
}

func (c *checker) useTexture(name string, u gputypes.TextureUsage) { c.autoTex[name] |= u }
func (c *checker) useBuffer(name string, u gputypes.BufferUsage)   { c.autoBuf[name] |= u }

func (c *checker) addPass(pb *passBlock) {
	where := fmt.Sprintf("pass %q", pb.Name)
	nerr := len(c.errs)

	p := Pass{Name: pb.Name, SideEffect: pb.SideEffect, Draws: pb.Draws}
	t, ok := parsePassType(pb.Type)
	if !ok {
		c.errorf("%s: unknown type %q", where, pb.Type)
		return
	}
	p.Type = t
	if p.Queue, ok = parseQueue(pb.Queue, t); !ok {
		c.errorf("%s: unknown queue %q", where, pb.Queue)
	}

	for _, tb := range pb.Textures {
		if tex, ok := c.texture(tb, where); ok {
			p.Textures = append(p.Textures, tex)
		}
	}
	for _, bb := range pb.Buffers {
		if buf, ok := c.buffer(bb, where); ok {
			p.Buffers = append(p.Buffers, buf)
		}
	}

	c.passTargets(pb, &p, where)
	c.passAccesses(pb, &p, where)
	c.passWork(pb, &p, where)
	c.passShader(pb, &p, where)

	if pb.Output != "" {
		if _, ok := c.ref(pb.Output, kindTexture, where+" output"); ok {
			p.Output = pb.Output
			p.OutputState = framegraph.StatePresent
			if pb.OutputState != "" {
				if p.OutputState, ok = parseState(pb.OutputState); !ok {
					c.errorf("%s: unknown output_state %q", where, pb.OutputState)
				}
			}
		}
	}

	if len(c.errs) == nerr {
		c.d.Passes = append(c.d.Passes, p)
	}
}

func (c *checker) passTargets(pb *passBlock, p *Pass, where string) {
	if (len(pb.ColorTargets) > 0 || pb.DepthTarget != "") && p.Type != framegraph.PassRaster {
		c.errorf("%s: only raster passes have render targets", where)
		return
	}
	for _, name := range pb.ColorTargets {
		if _, ok := c.ref(name, kindTexture, where+" color_targets"); !ok {
			continue
		}
		if c.formats[name].IsDepthStencil() {
			c.errorf("%s: color target %q has depth format %s", where, name, c.formats[name])
			continue
		}
		p.ColorTargets = append(p.ColorTargets, name)
		c.useTexture(name, gputypes.TextureUsageRenderAttachment)
	}
	if name := pb.DepthTarget; name != "" {
		if _, ok := c.ref(name, kindTexture, where+" depth_target"); ok {
			if !c.formats[name].IsDepthStencil() {
				c.errorf("%s: depth target %q has color format %s", where, name, c.formats[name])
			} else {
				p.DepthTarget = name
				c.useTexture(name, gputypes.TextureUsageRenderAttachment)
			}
		}
	}

	switch len(pb.ClearColor) {
	case 0:
	case 4:
		cc := gputypes.Color{R: pb.ClearColor[0], G: pb.ClearColor[1], B: pb.ClearColor[2], A: pb.ClearColor[3]}
		p.ClearColor = &cc
	default:
		c.errorf("%s: clear_color needs 4 components, got %d", where, len(pb.ClearColor))
	}
	if pb.ClearDepth != nil {
		v := float32(*pb.ClearDepth)
		p.ClearDepth = &v
	}
}

func (c *checker) passAccesses(pb *passBlock, p *Pass, where string) {
	for _, name := range pb.Reads {
		kind, ok := c.ref(name, 0, where+" reads")
		if !ok {
			continue
		}
		p.Reads = append(p.Reads, name)
		switch {
		case kind == kindBuffer && p.Type == framegraph.PassCopy:
			c.useBuffer(name, gputypes.BufferUsageCopySrc)
		case kind == kindBuffer:
			c.useBuffer(name, gputypes.BufferUsageStorage)
		case p.Type == framegraph.PassCopy:
			c.useTexture(name, gputypes.TextureUsageCopySrc)
		default:
			c.useTexture(name, gputypes.TextureUsageTextureBinding)
		}
	}
	for _, name := range pb.Writes {
		kind, ok := c.ref(name, 0, where+" writes")
		if !ok {
			continue
		}
		p.Writes = append(p.Writes, name)
		switch {
		case kind == kindBuffer && p.Type == framegraph.PassCopy:
			c.useBuffer(name, gputypes.BufferUsageCopyDst)
		case kind == kindBuffer:
			c.useBuffer(name, gputypes.BufferUsageStorage)
		case p.Type == framegraph.PassCopy:
			c.useTexture(name, gputypes.TextureUsageCopyDst)
		case p.isTarget(name):
		default:
			c.useTexture(name, gputypes.TextureUsageStorageBinding)
		}
	}
}

func (p *Pass) isTarget(name string) bool {
	if name == p.DepthTarget {
		return true
	}
	for _, t := range p.ColorTargets {
		if t == name {
			return true
		}
	}
	return false
}

func (c *checker) passWork(pb *passBlock, p *Pass, where string) {
	if pb.Draws < 0 {
		c.errorf("%s: negative draws", where)
	}
	if pb.Draws > 0 && p.Type != framegraph.PassRaster {
		c.errorf("%s: draws need a raster pass", where)
	}

	if len(pb.Dispatch) > 0 {
		if p.Type != framegraph.PassCompute {
			c.errorf("%s: dispatch needs a compute pass", where)
		} else if len(pb.Dispatch) > 3 {
			c.errorf("%s: dispatch has %d dimensions", where, len(pb.Dispatch))
		} else {
			p.Dispatch = [3]uint32{1, 1, 1}
			for i, n := range pb.Dispatch {
				if n <= 0 {
					c.errorf("%s: dispatch dimension %d must be positive", where, i)
				}
				p.Dispatch[i] = uint32(max(n, 0))
			}
		}
	}

	if pb.Copy != nil {
		if p.Type != framegraph.PassCopy {
			c.errorf("%s: copy needs a copy pass", where)
			return
		}
		_, okSrc := c.ref(pb.Copy.Src, kindTexture, where+" copy src")
		_, okDst := c.ref(pb.Copy.Dst, kindTexture, where+" copy dst")
		if okSrc && okDst {
			p.CopySrc, p.CopyDst = pb.Copy.Src, pb.Copy.Dst
			c.useTexture(p.CopySrc, gputypes.TextureUsageCopySrc)
			c.useTexture(p.CopyDst, gputypes.TextureUsageCopyDst)
		}
	}
}

func (c *checker) passShader(pb *passBlock, p *Pass, where string) {
	switch {
	case pb.Shader != "" && pb.WGSL != "":
		c.errorf("%s: shader and wgsl are mutually exclusive", where)
		return
	case pb.Shader != "":
		src, ok := shader.Builtin[pb.Shader]
		if !ok {
			c.errorf("%s: unknown shader %q", where, pb.Shader)
			return
		}
		p.Shader, p.WGSL = pb.Shader, src
	case pb.WGSL != "":
		p.Shader, p.WGSL = pb.Name, pb.WGSL
	default:
		return
	}
	if p.Type == framegraph.PassCopy {
		c.errorf("%s: copy passes take no shader", where)
		return
	}
	p.EntryPoint = pb.EntryPoint
	if p.EntryPoint == "" && p.Type == framegraph.PassCompute {
		p.EntryPoint = "main"
	}
}

// compileShaders compiles every distinct source once, on the pool.
// Errors are reported in pass order.
func (c *checker) compileShaders() {
	type module struct {
		label, src string
		code       []uint32
		err        error
	}
	var modules []*module
	bySource := make(map[string]*module)
	for i := range c.d.Passes {
		p := &c.d.Passes[i]
		if p.WGSL == "" || bySource[p.WGSL] != nil {
			continue
		}
		m := &module{label: p.Shader, src: p.WGSL}
		bySource[p.WGSL] = m
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		return
	}

	jobs := make([]func(), len(modules))
	for i, m := range modules {
		jobs[i] = func() { m.code, m.err = c.cache.Compile(m.label, m.src) }
	}
	c.pool.ExecuteAll(jobs)

	for i := range c.d.Passes {
		p := &c.d.Passes[i]
		m := bySource[p.WGSL]
		if m == nil {
			continue
		}
		if m.err != nil {
			c.errorf("pass %q: %w", p.Name, m.err)
			continue
		}
		p.SPIRV = m.code
	}
}

// finish compiles pass shaders and fills in derived usages.
func (c *checker) finish() {
	c.compileShaders()
	for i := range c.d.Passes {
		p := &c.d.Passes[i]
		for j := range p.Textures {
			t := &p.Textures[j]
			if !c.explicit[t.Name] {
				t.Desc.Descriptor.Usage = c.autoTex[t.Name]
			}
		}
		for j := range p.Buffers {
			b := &p.Buffers[j]
			if !c.explicit[b.Name] {
				b.Desc.Descriptor.Usage = c.autoBuf[b.Name]
			}
		}
	}
}
