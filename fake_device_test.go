package framegraph

import "fmt"

// fakeDevice records every call so tests can check what the graph realized.
type fakeDevice struct {
	textures, buffers      int
	srvs, uavs, rtvs, dsvs int
	released               int

	beginFrames []uint64
	endFrames   int

	failTextures error
	failRTVs     error
}

func newFakeDevice() *fakeDevice { return &fakeDevice{} }

func (d *fakeDevice) created() int {
	return d.textures + d.buffers + d.srvs + d.uavs + d.rtvs + d.dsvs
}

type fakeObject struct {
	dev      *fakeDevice
	kind     string
	label    string
	released bool
}

func (o *fakeObject) Release() {
	if o.released {
		panic(fmt.Sprintf("double release of %s %q", o.kind, o.label))
	}
	o.released = true
	if o.dev != nil {
		o.dev.released++
	}
}

type fakeTexture struct {
	fakeObject
	desc TextureDescriptor
}

type fakeBuffer struct {
	fakeObject
	desc BufferDescriptor
}

// fakeView keeps the resource it was created from.
type fakeView struct {
	fakeObject
	texture Texture
	buffer  Buffer
}

func (d *fakeDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if d.failTextures != nil {
		return nil, d.failTextures
	}
	d.textures++
	return &fakeTexture{fakeObject: fakeObject{dev: d, kind: "texture", label: desc.Label}, desc: *desc}, nil
}

func (d *fakeDevice) CreateBuffer(desc *BufferDescriptor) (Buffer, error) {
	d.buffers++
	return &fakeBuffer{fakeObject: fakeObject{dev: d, kind: "buffer", label: desc.Label}, desc: *desc}, nil
}

func (d *fakeDevice) CreateShaderResourceView(desc *ShaderResourceViewDescriptor) (ShaderResourceView, error) {
	d.srvs++
	return &fakeView{fakeObject: fakeObject{dev: d, kind: "srv", label: desc.Label}, texture: desc.Texture, buffer: desc.Buffer}, nil
}

func (d *fakeDevice) CreateUnorderedAccessView(desc *UnorderedAccessViewDescriptor) (UnorderedAccessView, error) {
	d.uavs++
	return &fakeView{fakeObject: fakeObject{dev: d, kind: "uav", label: desc.Label}, texture: desc.Texture, buffer: desc.Buffer}, nil
}

func (d *fakeDevice) CreateRenderTargetView(desc *RenderTargetViewDescriptor) (RenderTargetView, error) {
	if d.failRTVs != nil {
		return nil, d.failRTVs
	}
	d.rtvs++
	return &fakeView{fakeObject: fakeObject{dev: d, kind: "rtv", label: desc.Label}, texture: desc.Texture}, nil
}

func (d *fakeDevice) CreateDepthStencilView(desc *DepthStencilViewDescriptor) (DepthStencilView, error) {
	d.dsvs++
	return &fakeView{fakeObject: fakeObject{dev: d, kind: "dsv", label: desc.Label}, texture: desc.Texture}, nil
}

func (d *fakeDevice) BeginFrame(frameIndex uint64) { d.beginFrames = append(d.beginFrames, frameIndex) }
func (d *fakeDevice) EndFrame()                    { d.endFrames++ }

// fakeCmd records render pass boundaries and pass callbacks in order.
type fakeCmd struct {
	events []string
	passes []RenderPassDescriptor
}

func (c *fakeCmd) BeginRenderPass(desc *RenderPassDescriptor) {
	c.events = append(c.events, "begin:"+desc.Label)
	cp := *desc
	cp.ColorAttachments = append([]ColorAttachment(nil), desc.ColorAttachments...)
	c.passes = append(c.passes, cp)
}

func (c *fakeCmd) EndRenderPass() { c.events = append(c.events, "end") }

func (c *fakeCmd) mark(s string) { c.events = append(c.events, s) }

// externalTexture is owned by the test, never by the graph.
type externalTexture struct{ releases int }

func (t *externalTexture) Release() { t.releases++ }

type externalBuffer struct{ releases int }

func (b *externalBuffer) Release() { b.releases++ }
