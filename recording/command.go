package recording

import (
	"github.com/gogpu/framegraph"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Pass commands
	CmdBeginRenderPass CommandType = iota // Open a render pass
	CmdEndRenderPass                      // Close the open render pass

	// Work commands
	CmdDraw        // Non-indexed draw
	CmdDispatch    // Compute dispatch
	CmdCopyTexture // Whole-texture copy

	// Debug commands
	CmdMarker // Debug label
)

var commandTypeNames = [...]string{
	CmdBeginRenderPass: "BeginRenderPass",
	CmdEndRenderPass:   "EndRenderPass",
	CmdDraw:            "Draw",
	CmdDispatch:        "Dispatch",
	CmdCopyTexture:     "CopyTexture",
	CmdMarker:          "Marker",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// BeginRenderPassCommand opens a render pass. The descriptor is a deep
// copy of what the graph passed in, so it stays valid after the frame.
type BeginRenderPassCommand struct {
	Desc framegraph.RenderPassDescriptor
}

// Type implements Command.
func (BeginRenderPassCommand) Type() CommandType { return CmdBeginRenderPass }

// EndRenderPassCommand closes the open render pass.
type EndRenderPassCommand struct{}

// Type implements Command.
func (EndRenderPassCommand) Type() CommandType { return CmdEndRenderPass }

// DrawCommand records a non-indexed draw inside a render pass.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// DispatchCommand records a compute dispatch.
type DispatchCommand struct {
	X, Y, Z uint32
}

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

// CopyTextureCommand copies the whole of Src into Dst.
type CopyTextureCommand struct {
	Src framegraph.Texture
	Dst framegraph.Texture
}

// Type implements Command.
func (CopyTextureCommand) Type() CommandType { return CmdCopyTexture }

// MarkerCommand is a debug label.
type MarkerCommand struct {
	Label string
}

// Type implements Command.
func (MarkerCommand) Type() CommandType { return CmdMarker }

func cloneRenderPass(desc *framegraph.RenderPassDescriptor) framegraph.RenderPassDescriptor {
	out := framegraph.RenderPassDescriptor{Label: desc.Label}
	if len(desc.ColorAttachments) > 0 {
		out.ColorAttachments = append([]framegraph.ColorAttachment(nil), desc.ColorAttachments...)
	}
	if desc.DepthStencilAttachment != nil {
		ds := *desc.DepthStencilAttachment
		out.DepthStencilAttachment = &ds
	}
	return out
}
