package framegraph

// View entries keep the id of the resource they were declared on. The
// descriptor's resource fields are cleared at declaration and filled in from
// the resource table at compile time, so a view always sees the object its
// resource was realized as.

type srvEntry struct {
	isTexture bool
	resource  uint32
	desc      ShaderResourceViewDescriptor
	view      ShaderResourceView
}

type uavEntry struct {
	isTexture bool
	resource  uint32
	desc      UnorderedAccessViewDescriptor
	view      UnorderedAccessView
}

type rtvEntry struct {
	resource uint32
	desc     RenderTargetViewDescriptor
	view     RenderTargetView
}

type dsvEntry struct {
	resource uint32
	desc     DepthStencilViewDescriptor
	view     DepthStencilView
}

func (g *Graph) createSRV(isTexture bool, resource uint32, desc ShaderResourceViewDescriptor) SRVRef {
	desc.Texture, desc.Buffer = nil, nil
	g.srvs = append(g.srvs, srvEntry{isTexture: isTexture, resource: resource, desc: desc})
	g.compiled = false
	return SRVRef{uint32(len(g.srvs))}
}

func (g *Graph) createUAV(isTexture bool, resource uint32, desc UnorderedAccessViewDescriptor) UAVRef {
	desc.Texture, desc.Buffer = nil, nil
	g.uavs = append(g.uavs, uavEntry{isTexture: isTexture, resource: resource, desc: desc})
	g.compiled = false
	return UAVRef{uint32(len(g.uavs))}
}

func (g *Graph) createRTV(tex TextureRef, desc RenderTargetViewDescriptor) RTVRef {
	desc.Texture = nil
	g.rtvs = append(g.rtvs, rtvEntry{resource: tex.ID, desc: desc})
	g.compiled = false
	return RTVRef{uint32(len(g.rtvs))}
}

func (g *Graph) createDSV(tex TextureRef, desc DepthStencilViewDescriptor) DSVRef {
	desc.Texture = nil
	g.dsvs = append(g.dsvs, dsvEntry{resource: tex.ID, desc: desc})
	g.compiled = false
	return DSVRef{uint32(len(g.dsvs))}
}

// ResolveSRV returns the realized view behind ref, or nil.
func (g *Graph) ResolveSRV(ref SRVRef) ShaderResourceView {
	i, ok := refIndex(ref.ID, len(g.srvs))
	if !ok {
		return nil
	}
	return g.srvs[i].view
}

// ResolveUAV returns the realized view behind ref, or nil.
func (g *Graph) ResolveUAV(ref UAVRef) UnorderedAccessView {
	i, ok := refIndex(ref.ID, len(g.uavs))
	if !ok {
		return nil
	}
	return g.uavs[i].view
}

// ResolveRTV returns the realized view behind ref, or nil.
func (g *Graph) ResolveRTV(ref RTVRef) RenderTargetView {
	i, ok := refIndex(ref.ID, len(g.rtvs))
	if !ok {
		return nil
	}
	return g.rtvs[i].view
}

// ResolveDSV returns the realized view behind ref, or nil.
func (g *Graph) ResolveDSV(ref DSVRef) DepthStencilView {
	i, ok := refIndex(ref.ID, len(g.dsvs))
	if !ok {
		return nil
	}
	return g.dsvs[i].view
}
