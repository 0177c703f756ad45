package framegraph

// ExecuteFunc is the set of callbacks AddPass accepts: with or without
// access to the pass data filled in during setup.
type ExecuteFunc[T any] interface {
	func(CmdContext, *PassResources, *T) | func(CmdContext, *PassResources)
}

// PassDesc describes a pass.
type PassDesc struct {
	// Name labels the pass in logs and render pass descriptors.
	// Empty names become "UnnamedPass".
	Name  string
	Type  PassType
	Queue QueueType
	Flags PassFlags

	// Execute runs the pass when it was added without a callback.
	Execute func(CmdContext, *PassResources)
}

const defaultPassName = "UnnamedPass"

// ResourceKind distinguishes texture and buffer accesses.
type ResourceKind uint8

const (
	ResourceTexture ResourceKind = iota
	ResourceBuffer
)

func (k ResourceKind) String() string {
	if k == ResourceBuffer {
		return "Buffer"
	}
	return "Texture"
}

// ResourceAccess records one read or write a pass declared.
type ResourceAccess struct {
	Kind     ResourceKind
	ID       uint32
	State    ResourceState
	Write    bool
	HasRange bool
	Range    TextureViewRange
}

type passEntry struct {
	desc          PassDesc
	accesses      []ResourceAccess
	renderTargets []RenderTargetBinding
	depthStencil  *DepthStencilBinding

	execute     func(CmdContext, *PassResources)
	releaseData func()

	colorAttachments []ColorAttachment
	depthAttachment  *DepthStencilAttachment
}

// release runs the data release hook once and drops the callbacks.
func (p *passEntry) release() {
	if p.releaseData != nil {
		p.releaseData()
	}
	p.releaseData = nil
	p.execute = nil
}

func (g *Graph) allocatePass(desc PassDesc) int {
	if desc.Name == "" {
		desc.Name = defaultPassName
	}
	g.passes = append(g.passes, passEntry{desc: desc})
	g.compiled = false
	return len(g.passes) - 1
}

// AddPass registers a pass that carries a value of type T from setup to
// execute. setup runs immediately with a fresh builder and a pointer to a
// zero T; execute runs during Graph.Execute with the same pointer, or
// without it for the two-argument form.
//
// If *T implements Releaser, Release is called when the frame is reset.
//
// Example:
//
//	type blurData struct{ src framegraph.SRVRef }
//
//	framegraph.AddPass(g, framegraph.PassDesc{Name: "Blur", Type: framegraph.PassCompute},
//	    func(b *framegraph.PassBuilder, d *blurData) {
//	        tex := b.ReadTexture(hdr, framegraph.StateShaderResource)
//	        d.src = b.CreateTextureSRV(tex, framegraph.ShaderResourceViewDescriptor{})
//	    },
//	    func(ctx framegraph.CmdContext, r *framegraph.PassResources, d *blurData) {
//	        dispatch(ctx, r.SRV(d.src))
//	    })
func AddPass[T any, E ExecuteFunc[T]](g *Graph, desc PassDesc, setup func(*PassBuilder, *T), execute E) {
	index := g.allocatePass(desc)
	data := new(T)

	if r, ok := any(data).(Releaser); ok {
		g.passes[index].releaseData = r.Release
	}

	switch fn := any(execute).(type) {
	case func(CmdContext, *PassResources, *T):
		if fn != nil {
			g.passes[index].execute = func(ctx CmdContext, res *PassResources) {
				fn(ctx, res, data)
			}
		}
	case func(CmdContext, *PassResources):
		g.passes[index].execute = fn
	}

	if setup != nil {
		setup(&PassBuilder{graph: g, pass: index}, data)
	}
}

// AddPass registers a pass without pass data. It executes through
// desc.Execute.
func (g *Graph) AddPass(desc PassDesc, setup func(*PassBuilder)) {
	index := g.allocatePass(desc)
	if setup != nil {
		setup(&PassBuilder{graph: g, pass: index})
	}
}

func (g *Graph) validPass(index int) bool {
	return index >= 0 && index < len(g.passes)
}

func (g *Graph) registerTextureAccess(pass int, ref TextureRef, state ResourceState, write bool, rng *TextureViewRange) {
	if !ref.IsValid() || !g.validPass(pass) {
		return
	}
	if _, ok := refIndex(ref.ID, len(g.textures)); !ok {
		return
	}
	access := ResourceAccess{Kind: ResourceTexture, ID: ref.ID, State: state, Write: write}
	if rng != nil {
		access.HasRange = true
		access.Range = *rng
	}
	g.passes[pass].accesses = append(g.passes[pass].accesses, access)
	g.compiled = false
}

func (g *Graph) registerBufferAccess(pass int, ref BufferRef, state ResourceState, write bool) {
	if !ref.IsValid() || !g.validPass(pass) {
		return
	}
	if _, ok := refIndex(ref.ID, len(g.buffers)); !ok {
		return
	}
	g.passes[pass].accesses = append(g.passes[pass].accesses,
		ResourceAccess{Kind: ResourceBuffer, ID: ref.ID, State: state, Write: write})
	g.compiled = false
}

func (g *Graph) setRenderTargets(pass int, rtvs []RenderTargetBinding, dsv *DepthStencilBinding) {
	if !g.validPass(pass) {
		return
	}
	p := &g.passes[pass]
	p.renderTargets = append(p.renderTargets[:0], rtvs...)
	p.depthStencil = nil
	if dsv != nil {
		b := *dsv
		p.depthStencil = &b
	}
	g.compiled = false
}

// setExternalOutput flags the pass even when ref does not name a texture.
func (g *Graph) setExternalOutput(pass int, ref TextureRef, finalState ResourceState) {
	if !g.validPass(pass) {
		return
	}
	if ref.IsValid() {
		if i, ok := refIndex(ref.ID, len(g.textures)); ok {
			g.textures[i].externalOutput = true
			g.textures[i].finalState = finalState
		}
	}
	g.passes[pass].desc.Flags |= PassFlagExternalOutput
	g.compiled = false
}

func (g *Graph) setSideEffect(pass int) {
	if !g.validPass(pass) {
		return
	}
	g.passes[pass].desc.Flags |= PassFlagNeverCull
	g.compiled = false
}

// PassInfo is a read-only description of a registered pass.
type PassInfo struct {
	Index        int
	Name         string
	Type         PassType
	Queue        QueueType
	Flags        PassFlags
	Accesses     []ResourceAccess
	ColorTargets int
	HasDepth     bool
}

// Passes returns a snapshot of the registered passes in execution order.
func (g *Graph) Passes() []PassInfo {
	infos := make([]PassInfo, len(g.passes))
	for i := range g.passes {
		p := &g.passes[i]
		infos[i] = PassInfo{
			Index:        i,
			Name:         p.desc.Name,
			Type:         p.desc.Type,
			Queue:        p.desc.Queue,
			Flags:        p.desc.Flags,
			Accesses:     append([]ResourceAccess(nil), p.accesses...),
			ColorTargets: len(p.renderTargets),
			HasDepth:     p.depthStencil != nil,
		}
	}
	return infos
}

// TextureExternalOutput reports whether ref was marked as an external output
// and the state it must be left in.
func (g *Graph) TextureExternalOutput(ref TextureRef) (ResourceState, bool) {
	i, ok := refIndex(ref.ID, len(g.textures))
	if !ok || !g.textures[i].externalOutput {
		return StateUnknown, false
	}
	return g.textures[i].finalState, true
}
