package framegraph

import (
	"fmt"
	"log/slog"
)

// Graph schedules the passes of one frame.
//
// A Graph is driven through BeginFrame, AddPass (any number of times),
// Compile, Execute and EndFrame. Device objects for declared resources and
// views are created lazily in Compile and released when the frame ends.
// Imported objects are never released by the graph.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	device Device
	opts   graphOptions

	passes   []passEntry
	textures []textureEntry
	buffers  []bufferEntry
	srvs     []srvEntry
	uavs     []uavEntry
	rtvs     []rtvEntry
	dsvs     []dsvEntry

	inFrame    bool
	compiled   bool
	frameIndex uint64
	failed     int
}

// New creates a graph that realizes resources on device.
// A nil device is allowed: Compile then only marks the graph compiled and
// every resolve of a declared resource returns nil.
func New(device Device, opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph{device: device, opts: o}
}

func (g *Graph) logger() *slog.Logger {
	if g.opts.logger != nil {
		return g.opts.logger
	}
	return Logger()
}

// Device returns the device the graph was created with.
func (g *Graph) Device() Device { return g.device }

// BeginFrame starts a new frame. If a frame is already open its state is
// discarded first, exactly as EndFrame would, except that the device does
// not see an EndFrame call.
func (g *Graph) BeginFrame(frameIndex uint64) {
	if g.inFrame {
		g.logger().Warn("framegraph: BeginFrame while in frame, resetting",
			"previous", g.frameIndex, "next", frameIndex)
		g.reset()
	}
	g.frameIndex = frameIndex
	g.inFrame = true
	g.compiled = false
	if g.device != nil {
		g.device.BeginFrame(frameIndex)
	}
}

// EndFrame releases all per-frame state and notifies the device.
// Refs issued during the frame become invalid.
func (g *Graph) EndFrame() {
	g.reset()
	if g.device != nil {
		g.device.EndFrame()
	}
	g.inFrame = false
	g.frameIndex = 0
}

// Close releases everything the graph still holds. It does not notify the
// device. The graph may be reused after Close.
func (g *Graph) Close() {
	g.reset()
	g.inFrame = false
	g.frameIndex = 0
}

// InFrame reports whether BeginFrame has been called without a matching EndFrame.
func (g *Graph) InFrame() bool { return g.inFrame }

// Compiled reports whether the graph has been compiled since the last
// declaration change.
func (g *Graph) Compiled() bool { return g.compiled }

// FrameIndex returns the index passed to the last BeginFrame, or zero
// outside a frame.
func (g *Graph) FrameIndex() uint64 { return g.frameIndex }

// reset runs pass release hooks, releases owned device objects and empties
// every table. Views go before the resources they were created from.
func (g *Graph) reset() {
	for i := range g.passes {
		g.passes[i].release()
	}
	for i := range g.srvs {
		releaseObject(&g.srvs[i].view)
	}
	for i := range g.uavs {
		releaseObject(&g.uavs[i].view)
	}
	for i := range g.rtvs {
		releaseObject(&g.rtvs[i].view)
	}
	for i := range g.dsvs {
		releaseObject(&g.dsvs[i].view)
	}
	for i := range g.textures {
		releaseObject(&g.textures[i].owned)
	}
	for i := range g.buffers {
		releaseObject(&g.buffers[i].owned)
	}

	g.passes = g.passes[:0]
	g.textures = g.textures[:0]
	g.buffers = g.buffers[:0]
	g.srvs = g.srvs[:0]
	g.uavs = g.uavs[:0]
	g.rtvs = g.rtvs[:0]
	g.dsvs = g.dsvs[:0]
	g.compiled = false
	g.failed = 0
}

// releaseObject releases *obj if set and clears it.
func releaseObject[T Releaser](obj *T) {
	var zero T
	if any(*obj) == nil {
		return
	}
	(*obj).Release()
	*obj = zero
}

// Compile realizes every declared resource and view and resolves the
// render-pass attachments of each pass. It is idempotent: a second call
// without intervening declarations does nothing. Resources already realized
// are kept when new declarations force a recompile.
//
// Creation failures are logged and leave the entry unrealized.
func (g *Graph) Compile() {
	if g.compiled {
		return
	}
	if g.device == nil {
		g.compiled = true
		return
	}

	// Unrealized entries are retried below, so the count covers this
	// compile only.
	g.failed = 0
	log := g.logger()
	if g.opts.validate {
		if err := g.Validate(); err != nil {
			log.Warn("framegraph: validation failed", "frame", g.frameIndex, "err", err)
		}
	}

	g.realizeResources()
	g.realizeViews()

	for i := range g.passes {
		g.compileAttachments(&g.passes[i])
	}

	g.compiled = true
	log.Debug("framegraph: compiled",
		"frame", g.frameIndex,
		"passes", len(g.passes),
		"textures", len(g.textures),
		"buffers", len(g.buffers),
		"failed", g.failed)
}

func (g *Graph) realizeResources() {
	for i := range g.textures {
		e := &g.textures[i]
		if e.external || e.owned != nil {
			continue
		}
		desc := e.desc.Descriptor
		tex, err := g.device.CreateTexture(&desc)
		if err != nil || tex == nil {
			g.creationFailed("texture", desc.Label, err)
			continue
		}
		e.owned = tex
	}

	for i := range g.buffers {
		e := &g.buffers[i]
		if e.external || e.owned != nil {
			continue
		}
		desc := e.desc.Descriptor
		buf, err := g.device.CreateBuffer(&desc)
		if err != nil || buf == nil {
			g.creationFailed("buffer", desc.Label, err)
			continue
		}
		e.owned = buf
	}
}

func (g *Graph) realizeViews() {
	for i := range g.srvs {
		e := &g.srvs[i]
		if e.view != nil {
			continue
		}
		desc := e.desc
		if !g.bindViewResource(e.isTexture, e.resource, &desc.Texture, &desc.Buffer) {
			g.viewSkipped("srv", desc.Label)
			continue
		}
		view, err := g.device.CreateShaderResourceView(&desc)
		if err != nil || view == nil {
			g.creationFailed("srv", desc.Label, err)
			continue
		}
		e.view = view
	}

	for i := range g.uavs {
		e := &g.uavs[i]
		if e.view != nil {
			continue
		}
		desc := e.desc
		if !g.bindViewResource(e.isTexture, e.resource, &desc.Texture, &desc.Buffer) {
			g.viewSkipped("uav", desc.Label)
			continue
		}
		view, err := g.device.CreateUnorderedAccessView(&desc)
		if err != nil || view == nil {
			g.creationFailed("uav", desc.Label, err)
			continue
		}
		e.view = view
	}

	for i := range g.rtvs {
		e := &g.rtvs[i]
		if e.view != nil {
			continue
		}
		desc := e.desc
		desc.Texture = g.ResolveTexture(TextureRef{e.resource})
		if desc.Texture == nil {
			g.viewSkipped("rtv", desc.Label)
			continue
		}
		view, err := g.device.CreateRenderTargetView(&desc)
		if err != nil || view == nil {
			g.creationFailed("rtv", desc.Label, err)
			continue
		}
		e.view = view
	}

	for i := range g.dsvs {
		e := &g.dsvs[i]
		if e.view != nil {
			continue
		}
		desc := e.desc
		desc.Texture = g.ResolveTexture(TextureRef{e.resource})
		if desc.Texture == nil {
			g.viewSkipped("dsv", desc.Label)
			continue
		}
		view, err := g.device.CreateDepthStencilView(&desc)
		if err != nil || view == nil {
			g.creationFailed("dsv", desc.Label, err)
			continue
		}
		e.view = view
	}
}

// bindViewResource resolves the resource a view was declared on into the
// matching descriptor field and clears the other one.
func (g *Graph) bindViewResource(isTexture bool, id uint32, tex *Texture, buf *Buffer) bool {
	*tex, *buf = nil, nil
	if isTexture {
		*tex = g.ResolveTexture(TextureRef{id})
		return *tex != nil
	}
	*buf = g.ResolveBuffer(BufferRef{id})
	return *buf != nil
}

func (g *Graph) creationFailed(kind, label string, err error) {
	g.failed++
	if err == nil {
		err = errNilObject
	}
	g.logger().Warn("framegraph: device creation failed",
		"frame", g.frameIndex,
		"err", fmt.Errorf("framegraph: create %s %q: %w", kind, label, err))
}

func (g *Graph) viewSkipped(kind, label string) {
	g.failed++
	g.logger().Warn("framegraph: view resource not realized",
		"frame", g.frameIndex, "kind", kind, "label", label)
}

func (g *Graph) compileAttachments(p *passEntry) {
	p.colorAttachments = p.colorAttachments[:0]
	p.depthAttachment = nil

	for _, b := range p.renderTargets {
		p.colorAttachments = append(p.colorAttachments, ColorAttachment{
			View:       g.ResolveRTV(b.RTV),
			LoadOp:     loadOrDefault(b.LoadOp),
			StoreOp:    storeOrDefault(b.StoreOp),
			ClearValue: b.ClearColor,
		})
	}

	if p.depthStencil != nil {
		b := p.depthStencil
		p.depthAttachment = &DepthStencilAttachment{
			View:              g.ResolveDSV(b.DSV),
			DepthLoadOp:       loadOrDefault(b.DepthLoadOp),
			DepthStoreOp:      storeOrDefault(b.DepthStoreOp),
			DepthClearValue:   b.ClearDepth,
			StencilLoadOp:     loadOrDefault(b.StencilLoadOp),
			StencilStoreOp:    storeOrDefault(b.StencilStoreOp),
			StencilClearValue: b.ClearStencil,
		}
	}
}

// Execute runs every pass in registration order, compiling first if needed.
// Raster passes with at least one attachment are wrapped in a render pass on
// ctx. A pass runs its registered callback, or PassDesc.Execute when it was
// added without one.
func (g *Graph) Execute(ctx CmdContext) {
	if !g.compiled {
		g.Compile()
	}

	res := &PassResources{graph: g}
	for i := range g.passes {
		p := &g.passes[i]
		hasRenderPass := p.desc.Type == PassRaster &&
			(len(p.colorAttachments) > 0 || p.depthAttachment != nil)

		if hasRenderPass {
			ctx.BeginRenderPass(&RenderPassDescriptor{
				Label:                  p.desc.Name,
				ColorAttachments:       p.colorAttachments,
				DepthStencilAttachment: p.depthAttachment,
			})
		}

		switch {
		case p.execute != nil:
			p.execute(ctx, res)
		case p.desc.Execute != nil:
			p.desc.Execute(ctx, res)
		}

		if hasRenderPass {
			ctx.EndRenderPass()
		}
	}
}

// Stats is a snapshot of the graph's per-frame tables.
type Stats struct {
	Passes   int
	Textures int
	Buffers  int
	SRVs     int
	UAVs     int
	RTVs     int
	DSVs     int

	// FailedCreations counts device objects that could not be realized in
	// the current frame.
	FailedCreations int

	Compiled   bool
	InFrame    bool
	FrameIndex uint64
}

// Stats returns the current table sizes and lifecycle state.
func (g *Graph) Stats() Stats {
	return Stats{
		Passes:          len(g.passes),
		Textures:        len(g.textures),
		Buffers:         len(g.buffers),
		SRVs:            len(g.srvs),
		UAVs:            len(g.uavs),
		RTVs:            len(g.rtvs),
		DSVs:            len(g.dsvs),
		FailedCreations: g.failed,
		Compiled:        g.compiled,
		InFrame:         g.inFrame,
		FrameIndex:      g.frameIndex,
	}
}
