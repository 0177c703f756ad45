package framegraph

// PassBuilder declares the resources, views and attachments of one pass.
// A builder is only valid inside the setup callback it was passed to.
type PassBuilder struct {
	graph *Graph
	pass  int
}

// PassIndex returns the 0-based position of the pass being built.
func (b *PassBuilder) PassIndex() int { return b.pass }

// CreateTexture declares a graph-owned texture. It is created at compile
// time and released when the frame ends.
func (b *PassBuilder) CreateTexture(desc TextureDesc) TextureRef {
	return b.graph.createTexture(desc)
}

// CreateBuffer declares a graph-owned buffer.
func (b *PassBuilder) CreateBuffer(desc BufferDesc) BufferRef {
	return b.graph.createBuffer(desc)
}

// ImportTexture registers an externally owned texture. See Graph.ImportTexture.
func (b *PassBuilder) ImportTexture(tex Texture, state ResourceState) TextureRef {
	return b.graph.ImportTexture(tex, state)
}

// ImportBuffer registers an externally owned buffer. See Graph.ImportBuffer.
func (b *PassBuilder) ImportBuffer(buf Buffer, state ResourceState) BufferRef {
	return b.graph.ImportBuffer(buf, state)
}

// ReadTexture records that the pass reads tex in state and returns tex.
// Invalid refs are ignored.
func (b *PassBuilder) ReadTexture(tex TextureRef, state ResourceState) TextureRef {
	b.graph.registerTextureAccess(b.pass, tex, state, false, nil)
	return tex
}

// WriteTexture records that the pass writes tex in state and returns tex.
func (b *PassBuilder) WriteTexture(tex TextureRef, state ResourceState) TextureRef {
	b.graph.registerTextureAccess(b.pass, tex, state, true, nil)
	return tex
}

// ReadTextureRange is ReadTexture restricted to a subresource range.
func (b *PassBuilder) ReadTextureRange(tex TextureRef, state ResourceState, rng TextureViewRange) TextureRef {
	b.graph.registerTextureAccess(b.pass, tex, state, false, &rng)
	return tex
}

// WriteTextureRange is WriteTexture restricted to a subresource range.
func (b *PassBuilder) WriteTextureRange(tex TextureRef, state ResourceState, rng TextureViewRange) TextureRef {
	b.graph.registerTextureAccess(b.pass, tex, state, true, &rng)
	return tex
}

// ReadBuffer records that the pass reads buf in state and returns buf.
func (b *PassBuilder) ReadBuffer(buf BufferRef, state ResourceState) BufferRef {
	b.graph.registerBufferAccess(b.pass, buf, state, false)
	return buf
}

// WriteBuffer records that the pass writes buf in state and returns buf.
func (b *PassBuilder) WriteBuffer(buf BufferRef, state ResourceState) BufferRef {
	b.graph.registerBufferAccess(b.pass, buf, state, true)
	return buf
}

// CreateTextureSRV declares a shader resource view of tex. Any Texture or
// Buffer set in desc is ignored; the view is bound to tex at compile time.
func (b *PassBuilder) CreateTextureSRV(tex TextureRef, desc ShaderResourceViewDescriptor) SRVRef {
	return b.graph.createSRV(true, tex.ID, desc)
}

// CreateBufferSRV declares a shader resource view of buf.
func (b *PassBuilder) CreateBufferSRV(buf BufferRef, desc ShaderResourceViewDescriptor) SRVRef {
	return b.graph.createSRV(false, buf.ID, desc)
}

// CreateTextureUAV declares an unordered access view of tex.
func (b *PassBuilder) CreateTextureUAV(tex TextureRef, desc UnorderedAccessViewDescriptor) UAVRef {
	return b.graph.createUAV(true, tex.ID, desc)
}

// CreateBufferUAV declares an unordered access view of buf.
func (b *PassBuilder) CreateBufferUAV(buf BufferRef, desc UnorderedAccessViewDescriptor) UAVRef {
	return b.graph.createUAV(false, buf.ID, desc)
}

// CreateRTV declares a render target view of tex.
func (b *PassBuilder) CreateRTV(tex TextureRef, desc RenderTargetViewDescriptor) RTVRef {
	return b.graph.createRTV(tex, desc)
}

// CreateDSV declares a depth stencil view of tex.
func (b *PassBuilder) CreateDSV(tex TextureRef, desc DepthStencilViewDescriptor) DSVRef {
	return b.graph.createDSV(tex, desc)
}

// SetRenderTargets replaces the pass attachments. dsv may be nil. The
// bindings are copied.
func (b *PassBuilder) SetRenderTargets(rtvs []RenderTargetBinding, dsv *DepthStencilBinding) {
	b.graph.setRenderTargets(b.pass, rtvs, dsv)
}

// SetExternalOutput marks tex as consumed outside the graph, to be left in
// finalState, and flags the pass as producing an external output.
func (b *PassBuilder) SetExternalOutput(tex TextureRef, finalState ResourceState) {
	b.graph.setExternalOutput(b.pass, tex, finalState)
}

// SetSideEffect marks the pass as never cullable.
func (b *PassBuilder) SetSideEffect() {
	b.graph.setSideEffect(b.pass)
}
