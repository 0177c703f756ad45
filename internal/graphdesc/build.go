package graphdesc

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/recording"
)

// ErrNotInFrame is returned by Build outside BeginFrame/EndFrame.
var ErrNotInFrame = errors.New("graphdesc: graph is not in a frame")

// Options controls how Build binds a description to a graph.
type Options struct {
	// Externals holds the objects behind import blocks. Missing names are
	// imported as nil.
	Externals map[string]framegraph.Texture

	// BeforeWork runs ahead of a pass's draws or dispatch. Backends that
	// need a bound pipeline set it here; returning false skips the work.
	BeforeWork func(ctx framegraph.CmdContext, p *Pass) bool
}

// Refs maps description names to the refs Build declared. It is valid for
// the frame Build ran in.
type Refs struct {
	Textures map[string]framegraph.TextureRef
	Buffers  map[string]framegraph.BufferRef
}

// Build imports the description's external textures and registers its
// passes on g in order. Pass setup runs immediately.
func Build(g *framegraph.Graph, d *Description, opts Options) (*Refs, error) {
	if !g.InFrame() {
		return nil, ErrNotInFrame
	}
	refs := &Refs{
		Textures: make(map[string]framegraph.TextureRef),
		Buffers:  make(map[string]framegraph.BufferRef),
	}
	for _, imp := range d.Imports {
		refs.Textures[imp.Name] = g.ImportTexture(opts.Externals[imp.Name], imp.State)
	}
	for i := range d.Passes {
		p := &d.Passes[i]
		framegraph.AddPass(g, framegraph.PassDesc{Name: p.Name, Type: p.Type, Queue: p.Queue},
			func(b *framegraph.PassBuilder, data *passData) {
				data.pass = p
				data.before = opts.BeforeWork
				data.setup(b, refs)
			},
			func(ctx framegraph.CmdContext, res *framegraph.PassResources, data *passData) {
				data.execute(ctx, res)
			})
	}
	return refs, nil
}

type passData struct {
	pass   *Pass
	before func(framegraph.CmdContext, *Pass) bool

	src, dst framegraph.TextureRef
	srvs     []framegraph.SRVRef
	uavs     []framegraph.UAVRef
}

func (d *passData) setup(b *framegraph.PassBuilder, refs *Refs) {
	p := d.pass
	for _, t := range p.Textures {
		refs.Textures[t.Name] = b.CreateTexture(t.Desc)
	}
	for _, buf := range p.Buffers {
		refs.Buffers[buf.Name] = b.CreateBuffer(buf.Desc)
	}

	var rts []framegraph.RenderTargetBinding
	for _, name := range p.ColorTargets {
		tex := b.WriteTexture(refs.Textures[name], framegraph.StateRenderTarget)
		rt := framegraph.RenderTargetBinding{
			RTV: b.CreateRTV(tex, framegraph.RenderTargetViewDescriptor{Label: name}),
		}
		if p.ClearColor != nil {
			rt.LoadOp = gputypes.LoadOpClear
			rt.ClearColor = *p.ClearColor
		}
		rts = append(rts, rt)
	}
	var ds *framegraph.DepthStencilBinding
	if p.DepthTarget != "" {
		tex := b.WriteTexture(refs.Textures[p.DepthTarget], framegraph.StateDepthWrite)
		ds = &framegraph.DepthStencilBinding{
			DSV: b.CreateDSV(tex, framegraph.DepthStencilViewDescriptor{Label: p.DepthTarget}),
		}
		if p.ClearDepth != nil {
			ds.DepthLoadOp = gputypes.LoadOpClear
			ds.ClearDepth = *p.ClearDepth
			ds.StencilLoadOp = gputypes.LoadOpClear
		}
	}
	if len(rts) > 0 || ds != nil {
		b.SetRenderTargets(rts, ds)
	}

	copyPass := p.Type == framegraph.PassCopy
	for _, name := range p.Reads {
		if tex, ok := refs.Textures[name]; ok {
			if copyPass {
				b.ReadTexture(tex, framegraph.StateCopySrc)
				continue
			}
			tex = b.ReadTexture(tex, framegraph.StateShaderResource)
			d.srvs = append(d.srvs, b.CreateTextureSRV(tex, framegraph.ShaderResourceViewDescriptor{Label: name}))
			continue
		}
		buf := refs.Buffers[name]
		if copyPass {
			b.ReadBuffer(buf, framegraph.StateCopySrc)
			continue
		}
		buf = b.ReadBuffer(buf, framegraph.StateShaderResource)
		d.srvs = append(d.srvs, b.CreateBufferSRV(buf, framegraph.ShaderResourceViewDescriptor{Label: name}))
	}
	for _, name := range p.Writes {
		if p.isTarget(name) {
			continue
		}
		if tex, ok := refs.Textures[name]; ok {
			if copyPass {
				b.WriteTexture(tex, framegraph.StateCopyDst)
				continue
			}
			tex = b.WriteTexture(tex, framegraph.StateUnorderedAccess)
			d.uavs = append(d.uavs, b.CreateTextureUAV(tex, framegraph.UnorderedAccessViewDescriptor{Label: name}))
			continue
		}
		buf := refs.Buffers[name]
		if copyPass {
			b.WriteBuffer(buf, framegraph.StateCopyDst)
			continue
		}
		buf = b.WriteBuffer(buf, framegraph.StateUnorderedAccess)
		d.uavs = append(d.uavs, b.CreateBufferUAV(buf, framegraph.UnorderedAccessViewDescriptor{Label: name}))
	}

	if p.CopySrc != "" {
		d.src = b.ReadTexture(refs.Textures[p.CopySrc], framegraph.StateCopySrc)
		d.dst = b.WriteTexture(refs.Textures[p.CopyDst], framegraph.StateCopyDst)
	}
	if p.Output != "" {
		b.SetExternalOutput(refs.Textures[p.Output], p.OutputState)
	}
	if p.SideEffect {
		b.SetSideEffect()
	}
}

// execute issues the pass's work on contexts that can replay recorded
// commands; other contexts only get the render pass the graph opens.
func (d *passData) execute(ctx framegraph.CmdContext, res *framegraph.PassResources) {
	rb, ok := ctx.(recording.Backend)
	if !ok {
		return
	}
	p := d.pass
	rb.InsertMarker(p.Name)
	if d.before != nil && (p.Draws > 0 || p.Dispatch[0] > 0) && !d.before(ctx, p) {
		return
	}
	switch p.Type {
	case framegraph.PassRaster:
		for range p.Draws {
			rb.Draw(3, 1, 0, 0)
		}
	case framegraph.PassCompute:
		if p.Dispatch[0] > 0 {
			rb.Dispatch(p.Dispatch[0], p.Dispatch[1], p.Dispatch[2])
		}
	case framegraph.PassCopy:
		if !d.src.IsValid() {
			return
		}
		if err := rb.CopyTexture(res.Texture(d.src), res.Texture(d.dst)); err != nil {
			framegraph.Logger().Warn("graphdesc: copy failed",
				"pass", p.Name, "src", p.CopySrc, "dst", p.CopyDst, "err", err)
		}
	}
}
