package framegraph

import "errors"

var errNilObject = errors.New("device returned nil object")

type textureEntry struct {
	desc     TextureDesc
	imported Texture
	owned    Texture
	external bool

	externalOutput bool
	finalState     ResourceState
}

func (e *textureEntry) object() Texture {
	if e.external {
		return e.imported
	}
	return e.owned
}

type bufferEntry struct {
	desc     BufferDesc
	imported Buffer
	owned    Buffer
	external bool
}

func (e *bufferEntry) object() Buffer {
	if e.external {
		return e.imported
	}
	return e.owned
}

func (g *Graph) createTexture(desc TextureDesc) TextureRef {
	g.textures = append(g.textures, textureEntry{desc: desc})
	g.compiled = false
	return TextureRef{uint32(len(g.textures))}
}

func (g *Graph) createBuffer(desc BufferDesc) BufferRef {
	g.buffers = append(g.buffers, bufferEntry{desc: desc})
	g.compiled = false
	return BufferRef{uint32(len(g.buffers))}
}

// ImportTexture registers an externally owned texture for this frame.
// The graph never releases tex. A nil tex yields a valid ref that resolves
// to nil.
func (g *Graph) ImportTexture(tex Texture, state ResourceState) TextureRef {
	g.textures = append(g.textures, textureEntry{
		desc:     TextureDesc{InitialState: state},
		imported: tex,
		external: true,
	})
	g.compiled = false
	return TextureRef{uint32(len(g.textures))}
}

// ImportBuffer registers an externally owned buffer for this frame.
func (g *Graph) ImportBuffer(buf Buffer, state ResourceState) BufferRef {
	g.buffers = append(g.buffers, bufferEntry{
		desc:     BufferDesc{InitialState: state},
		imported: buf,
		external: true,
	})
	g.compiled = false
	return BufferRef{uint32(len(g.buffers))}
}

// ResolveTexture returns the texture behind ref: the imported object for
// imports, the realized object for declared textures, nil otherwise.
func (g *Graph) ResolveTexture(ref TextureRef) Texture {
	i, ok := refIndex(ref.ID, len(g.textures))
	if !ok {
		return nil
	}
	return g.textures[i].object()
}

// ResolveBuffer returns the buffer behind ref, or nil.
func (g *Graph) ResolveBuffer(ref BufferRef) Buffer {
	i, ok := refIndex(ref.ID, len(g.buffers))
	if !ok {
		return nil
	}
	return g.buffers[i].object()
}

// PassResources resolves refs while a pass executes.
type PassResources struct {
	graph *Graph
}

// Texture resolves a texture ref.
func (r *PassResources) Texture(ref TextureRef) Texture {
	if r == nil || r.graph == nil {
		return nil
	}
	return r.graph.ResolveTexture(ref)
}

// Buffer resolves a buffer ref.
func (r *PassResources) Buffer(ref BufferRef) Buffer {
	if r == nil || r.graph == nil {
		return nil
	}
	return r.graph.ResolveBuffer(ref)
}

// SRV resolves a shader resource view ref.
func (r *PassResources) SRV(ref SRVRef) ShaderResourceView {
	if r == nil || r.graph == nil {
		return nil
	}
	return r.graph.ResolveSRV(ref)
}

// UAV resolves an unordered access view ref.
func (r *PassResources) UAV(ref UAVRef) UnorderedAccessView {
	if r == nil || r.graph == nil {
		return nil
	}
	return r.graph.ResolveUAV(ref)
}

// RTV resolves a render target view ref.
func (r *PassResources) RTV(ref RTVRef) RenderTargetView {
	if r == nil || r.graph == nil {
		return nil
	}
	return r.graph.ResolveRTV(ref)
}

// DSV resolves a depth stencil view ref.
func (r *PassResources) DSV(ref DSVRef) DepthStencilView {
	if r == nil || r.graph == nil {
		return nil
	}
	return r.graph.ResolveDSV(ref)
}
