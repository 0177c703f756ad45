package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/recording"
)

// CommandContext encodes one frame into a hal.CommandEncoder.
//
// It implements backend.CommandContext and recording.Backend. The first
// error encountered while encoding is kept and returned by Submit; the
// calls that follow it are dropped.
//
// Lifecycle:
//  1. Created by NativeBackend.NewCommandContext (encoding has begun)
//  2. framegraph.Graph.Execute records passes into it
//  3. Submit or Discard
type CommandContext struct {
	dev     *Device
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	compute hal.ComputePipeline
	groups  []hal.BindGroup
	err     error
	done    bool

	renderPasses int
	draws        int
	dispatches   int
	copies       int
}

func newCommandContext(dev *Device, label string) (*CommandContext, error) {
	enc, err := dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		enc.Destroy()
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	return &CommandContext{dev: dev, encoder: enc}, nil
}

func (c *CommandContext) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *CommandContext) usable() bool { return !c.done && c.err == nil }

// Err returns the first encoding error, if any.
func (c *CommandContext) Err() error { return c.err }

// Encoder returns the HAL encoder for work a pass records directly.
// It must not be used inside an open render pass.
func (c *CommandContext) Encoder() hal.CommandEncoder { return c.encoder }

// RenderPass returns the open render pass encoder, or nil outside a
// render pass. Execute callbacks use it to bind pipelines and buffers.
func (c *CommandContext) RenderPass() hal.RenderPassEncoder { return c.pass }

// SetComputePipeline binds the pipeline and bind groups used by the
// following Dispatch calls.
func (c *CommandContext) SetComputePipeline(p hal.ComputePipeline, groups ...hal.BindGroup) {
	c.compute = p
	c.groups = groups
}

func colorView(v framegraph.RenderTargetView) (*TextureView, bool) {
	tv, ok := v.(*TextureView)
	return tv, ok && !tv.released
}

// BeginRenderPass implements framegraph.CmdContext.
func (c *CommandContext) BeginRenderPass(desc *framegraph.RenderPassDescriptor) {
	if !c.usable() {
		return
	}
	if c.pass != nil {
		c.fail(recording.ErrUnbalancedRenderPass)
		return
	}
	rp := &hal.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: make([]hal.RenderPassColorAttachment, 0, len(desc.ColorAttachments)),
	}
	for i, att := range desc.ColorAttachments {
		v, ok := colorView(att.View)
		if !ok {
			c.fail(fmt.Errorf("native: pass %q color attachment %d: %w", desc.Label, i, ErrForeignObject))
			return
		}
		rp.ColorAttachments = append(rp.ColorAttachments, hal.RenderPassColorAttachment{
			View:       v.raw,
			LoadOp:     att.LoadOp,
			StoreOp:    att.StoreOp,
			ClearValue: att.ClearValue,
		})
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		v, ok := ds.View.(*TextureView)
		if !ok || v.released {
			c.fail(fmt.Errorf("native: pass %q depth attachment: %w", desc.Label, ErrForeignObject))
			return
		}
		att := &hal.RenderPassDepthStencilAttachment{
			View:              v.raw,
			DepthLoadOp:       ds.DepthLoadOp,
			DepthStoreOp:      ds.DepthStoreOp,
			DepthClearValue:   ds.DepthClearValue,
			DepthReadOnly:     v.readOnlyDepth,
			StencilLoadOp:     ds.StencilLoadOp,
			StencilStoreOp:    ds.StencilStoreOp,
			StencilClearValue: ds.StencilClearValue,
			StencilReadOnly:   v.readOnlyStencil,
		}
		// Stencil ops must be left undefined for depth-only formats.
		if !v.texture.desc.Format.HasStencil() {
			att.StencilLoadOp = gputypes.LoadOpUndefined
			att.StencilStoreOp = gputypes.StoreOpUndefined
		}
		rp.DepthStencilAttachment = att
	}
	c.pass = c.encoder.BeginRenderPass(rp)
	c.renderPasses++
}

// EndRenderPass implements framegraph.CmdContext.
func (c *CommandContext) EndRenderPass() {
	if !c.usable() {
		return
	}
	if c.pass == nil {
		c.fail(recording.ErrUnbalancedRenderPass)
		return
	}
	c.pass.End()
	c.pass = nil
}

// Draw implements recording.Backend.
func (c *CommandContext) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !c.usable() {
		return
	}
	if c.pass == nil {
		c.fail(fmt.Errorf("native: draw: %w", recording.ErrOutsideRenderPass))
		return
	}
	c.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	c.draws++
}

// Dispatch implements recording.Backend. It runs in its own compute pass
// with the pipeline set by SetComputePipeline.
func (c *CommandContext) Dispatch(x, y, z uint32) {
	if !c.usable() {
		return
	}
	if c.pass != nil {
		c.fail(fmt.Errorf("native: dispatch: %w", recording.ErrInsideRenderPass))
		return
	}
	if c.compute == nil {
		c.fail(ErrNoComputePipeline)
		return
	}
	cp := c.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "dispatch"})
	cp.SetPipeline(c.compute)
	for i, g := range c.groups {
		cp.SetBindGroup(uint32(i), g, nil)
	}
	cp.Dispatch(x, y, z)
	cp.End()
	c.dispatches++
}

// CopyTexture implements recording.Backend. Source and destination must
// match in size and format.
func (c *CommandContext) CopyTexture(src, dst framegraph.Texture) error {
	if c.done {
		return ErrSubmitted
	}
	if c.pass != nil {
		return fmt.Errorf("native: copy: %w", recording.ErrInsideRenderPass)
	}
	s, err := c.dev.texture(src)
	if err != nil {
		return err
	}
	d, err := c.dev.texture(dst)
	if err != nil {
		return err
	}
	if s.extent() != d.extent() || s.desc.Format != d.desc.Format {
		return ErrCopyMismatch
	}
	c.encoder.CopyTextureToTexture(s.raw, d.raw, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: s.raw, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: d.raw, Aspect: gputypes.TextureAspectAll},
		Size:    s.extent(),
	}})
	c.copies++
	return nil
}

// InsertMarker implements recording.Backend. The HAL encoder has no debug
// markers, so the label only reaches the log.
func (c *CommandContext) InsertMarker(label string) {
	framegraph.Logger().Debug("native: marker", "label", label)
}

// Submit ends encoding, submits the command buffer and waits for the
// device to go idle, so the frame's textures may be released right after.
func (c *CommandContext) Submit() error {
	if c.done {
		return ErrSubmitted
	}
	c.done = true
	defer c.encoder.Destroy()

	if c.pass != nil {
		c.pass.End()
		c.pass = nil
		c.fail(recording.ErrUnbalancedRenderPass)
	}
	if c.err != nil {
		c.encoder.DiscardEncoding()
		return c.err
	}

	cmdBuf, err := c.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer c.dev.device.FreeCommandBuffer(cmdBuf)

	if _, err := c.dev.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := c.dev.device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait idle: %w", err)
	}
	framegraph.Logger().Debug("native: submitted frame",
		"renderPasses", c.renderPasses, "draws", c.draws,
		"dispatches", c.dispatches, "copies", c.copies)
	return nil
}

// Discard drops the encoded commands.
func (c *CommandContext) Discard() {
	if c.done {
		return
	}
	c.done = true
	if c.pass != nil {
		c.pass.End()
		c.pass = nil
	}
	c.encoder.DiscardEncoding()
	c.encoder.Destroy()
}

// ContextStats counts encoded work.
type ContextStats struct {
	RenderPasses int
	Draws        int
	Dispatches   int
	Copies       int
}

// Stats returns what has been encoded so far.
func (c *CommandContext) Stats() ContextStats {
	return ContextStats{
		RenderPasses: c.renderPasses,
		Draws:        c.draws,
		Dispatches:   c.dispatches,
		Copies:       c.copies,
	}
}
