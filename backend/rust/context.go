//go:build rust

package rust

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/recording"
)

// CommandContext encodes a frame into a wgpu-native command encoder. It
// implements backend.CommandContext and recording.Backend. The first
// encoding error is returned by Submit.
type CommandContext struct {
	dev     *Device
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	compute *wgpu.ComputePipeline
	err     error
	done    bool
}

func (c *CommandContext) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// RenderPass returns the open render pass encoder, or nil.
func (c *CommandContext) RenderPass() *wgpu.RenderPassEncoder { return c.pass }

// SetComputePipeline binds the pipeline used by the following Dispatch
// calls.
func (c *CommandContext) SetComputePipeline(p *wgpu.ComputePipeline) { c.compute = p }

func clearColor(c gputypes.Color) wgpu.Color {
	return wgpu.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// BeginRenderPass implements framegraph.CmdContext.
func (c *CommandContext) BeginRenderPass(desc *framegraph.RenderPassDescriptor) {
	if c.done || c.err != nil {
		return
	}
	if c.pass != nil {
		c.fail(recording.ErrUnbalancedRenderPass)
		return
	}
	rp := &wgpu.RenderPassDescriptor{Label: desc.Label}
	for i, att := range desc.ColorAttachments {
		v, ok := att.View.(*TextureView)
		if !ok || v.released {
			c.fail(fmt.Errorf("rust: pass %q color attachment %d: %w", desc.Label, i, ErrForeignObject))
			return
		}
		rp.ColorAttachments = append(rp.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       v.raw,
			LoadOp:     att.LoadOp,
			StoreOp:    att.StoreOp,
			ClearValue: clearColor(att.ClearValue),
		})
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		v, ok := ds.View.(*TextureView)
		if !ok || v.released {
			c.fail(fmt.Errorf("rust: pass %q depth attachment: %w", desc.Label, ErrForeignObject))
			return
		}
		att := &wgpu.RenderPassDepthStencilAttachment{
			View:              v.raw,
			DepthLoadOp:       ds.DepthLoadOp,
			DepthStoreOp:      ds.DepthStoreOp,
			DepthClearValue:   ds.DepthClearValue,
			DepthReadOnly:     v.readOnlyDepth,
			StencilClearValue: ds.StencilClearValue,
			StencilReadOnly:   v.readOnlyStencil,
		}
		if v.texture.desc.Format.HasStencil() {
			att.StencilLoadOp = ds.StencilLoadOp
			att.StencilStoreOp = ds.StencilStoreOp
		}
		rp.DepthStencilAttachment = att
	}
	// wgpu-native rejects render passes without color attachments.
	if len(rp.ColorAttachments) == 0 {
		c.fail(fmt.Errorf("rust: pass %q has no color attachment", desc.Label))
		return
	}
	c.pass = c.encoder.BeginRenderPass(rp)
	if c.pass == nil {
		c.fail(fmt.Errorf("%w: render pass %q", ErrCreateFailed, desc.Label))
	}
}

// EndRenderPass implements framegraph.CmdContext.
func (c *CommandContext) EndRenderPass() {
	if c.done || c.err != nil {
		return
	}
	if c.pass == nil {
		c.fail(recording.ErrUnbalancedRenderPass)
		return
	}
	c.pass.End()
	c.pass.Release()
	c.pass = nil
}

// Draw implements recording.Backend.
func (c *CommandContext) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if c.done || c.err != nil {
		return
	}
	if c.pass == nil {
		c.fail(fmt.Errorf("rust: draw: %w", recording.ErrOutsideRenderPass))
		return
	}
	c.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// Dispatch implements recording.Backend.
func (c *CommandContext) Dispatch(x, y, z uint32) {
	if c.done || c.err != nil {
		return
	}
	if c.pass != nil {
		c.fail(fmt.Errorf("rust: dispatch: %w", recording.ErrInsideRenderPass))
		return
	}
	if c.compute == nil {
		c.fail(ErrNoComputePipeline)
		return
	}
	cp := c.encoder.BeginComputePass(nil)
	if cp == nil {
		c.fail(fmt.Errorf("%w: compute pass", ErrCreateFailed))
		return
	}
	cp.SetPipeline(c.compute)
	cp.DispatchWorkgroups(x, y, z)
	cp.End()
	cp.Release()
}

// CopyTexture implements recording.Backend.
func (c *CommandContext) CopyTexture(src, dst framegraph.Texture) error {
	if c.done {
		return ErrSubmitted
	}
	if c.pass != nil {
		return fmt.Errorf("rust: copy: %w", recording.ErrInsideRenderPass)
	}
	s, ok1 := src.(*Texture)
	d, ok2 := dst.(*Texture)
	if !ok1 || !ok2 || s.dev != c.dev || d.dev != c.dev {
		return ErrForeignObject
	}
	if s.extent() != d.extent() || s.desc.Format != d.desc.Format {
		return ErrCopyMismatch
	}
	size := s.extent()
	c.encoder.CopyTextureToTexture(
		&wgpu.TexelCopyTextureInfo{Texture: s.raw.Handle(), Aspect: wgpu.TextureAspectAll},
		&wgpu.TexelCopyTextureInfo{Texture: d.raw.Handle(), Aspect: wgpu.TextureAspectAll},
		&size,
	)
	return nil
}

// InsertMarker implements recording.Backend.
func (c *CommandContext) InsertMarker(label string) {
	if c.done || c.err != nil {
		return
	}
	c.encoder.InsertDebugMarker(label)
}

// Submit finishes the encoder and submits the command buffer.
func (c *CommandContext) Submit() error {
	if c.done {
		return ErrSubmitted
	}
	c.done = true
	defer c.encoder.Release()

	if c.pass != nil {
		c.pass.End()
		c.pass.Release()
		c.pass = nil
		c.fail(recording.ErrUnbalancedRenderPass)
	}
	if c.err != nil {
		return c.err
	}
	cmd := c.encoder.Finish(nil)
	if cmd == nil {
		return fmt.Errorf("%w: command buffer", ErrCreateFailed)
	}
	defer cmd.Release()
	c.dev.queue.Submit(cmd)
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
		c.pass.Release()
		c.pass = nil
	}
	c.encoder.Release()
}
