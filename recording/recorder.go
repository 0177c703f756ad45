package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph"
)

// Recording errors.
var (
	// ErrUnbalancedRenderPass is returned when render pass begin/end
	// commands do not pair up.
	ErrUnbalancedRenderPass = errors.New("recording: unbalanced render pass")

	// ErrOutsideRenderPass is returned when a draw is recorded outside a
	// render pass.
	ErrOutsideRenderPass = errors.New("recording: draw outside render pass")

	// ErrInsideRenderPass is returned when a dispatch or copy is recorded
	// inside a render pass.
	ErrInsideRenderPass = errors.New("recording: command inside render pass")
)

// Recorder captures the commands a frame graph issues as typed commands.
// It implements framegraph.CmdContext and Backend, so it can stand in for
// a real command context and be replayed later.
//
//	rec := recording.NewRecorder("frame 1")
//	g.Execute(rec)
//	r, err := rec.FinishRecording()
//	if err == nil {
//	    err = r.Playback(halCtx)
//	}
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	label    string
	commands []Command
	depth    int
	err      error
}

// NewRecorder creates an empty recorder.
func NewRecorder(label string) *Recorder {
	return &Recorder{
		label:    label,
		commands: make([]Command, 0, 64),
	}
}

// Label returns the label the recorder was created with.
func (r *Recorder) Label() string { return r.label }

// Len returns the number of recorded commands.
func (r *Recorder) Len() int { return len(r.commands) }

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// BeginRenderPass implements framegraph.CmdContext.
func (r *Recorder) BeginRenderPass(desc *framegraph.RenderPassDescriptor) {
	if r.depth != 0 {
		r.fail(fmt.Errorf("%w: %q begins inside another pass", ErrUnbalancedRenderPass, desc.Label))
	}
	r.depth++
	r.commands = append(r.commands, BeginRenderPassCommand{Desc: cloneRenderPass(desc)})
}

// EndRenderPass implements framegraph.CmdContext.
func (r *Recorder) EndRenderPass() {
	if r.depth == 0 {
		r.fail(fmt.Errorf("%w: end without begin", ErrUnbalancedRenderPass))
	} else {
		r.depth--
	}
	r.commands = append(r.commands, EndRenderPassCommand{})
}

// Draw implements Backend.
func (r *Recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if r.depth == 0 {
		r.fail(fmt.Errorf("%w: draw", ErrOutsideRenderPass))
	}
	r.commands = append(r.commands, DrawCommand{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
}

// Dispatch implements Backend.
func (r *Recorder) Dispatch(x, y, z uint32) {
	if r.depth != 0 {
		r.fail(fmt.Errorf("%w: dispatch", ErrInsideRenderPass))
	}
	r.commands = append(r.commands, DispatchCommand{X: x, Y: y, Z: z})
}

// CopyTexture implements Backend. The copy is only validated on playback.
func (r *Recorder) CopyTexture(src, dst framegraph.Texture) error {
	if r.depth != 0 {
		err := fmt.Errorf("%w: copy", ErrInsideRenderPass)
		r.fail(err)
		return err
	}
	r.commands = append(r.commands, CopyTextureCommand{Src: src, Dst: dst})
	return nil
}

// InsertMarker implements Backend.
func (r *Recorder) InsertMarker(label string) {
	r.commands = append(r.commands, MarkerCommand{Label: label})
}

// FinishRecording returns the recorded commands. It fails if the commands
// were not well formed. After calling FinishRecording, the Recorder should
// not be used again.
func (r *Recorder) FinishRecording() (*Recording, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.depth != 0 {
		return nil, fmt.Errorf("%w: %d pass(es) left open", ErrUnbalancedRenderPass, r.depth)
	}
	return &Recording{label: r.label, commands: r.commands}, nil
}

// Recording is an immutable list of frame commands.
type Recording struct {
	label    string
	commands []Command
}

// Label returns the recorder label.
func (r *Recording) Label() string { return r.label }

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command { return r.commands }

// Count returns how many commands of type t were recorded.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Playback replays the recording to the given backend.
func (r *Recording) Playback(backend Backend) error {
	for i, cmd := range r.commands {
		switch c := cmd.(type) {
		case BeginRenderPassCommand:
			desc := c.Desc
			backend.BeginRenderPass(&desc)
		case EndRenderPassCommand:
			backend.EndRenderPass()
		case DrawCommand:
			backend.Draw(c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)
		case DispatchCommand:
			backend.Dispatch(c.X, c.Y, c.Z)
		case CopyTextureCommand:
			if err := backend.CopyTexture(c.Src, c.Dst); err != nil {
				return fmt.Errorf("recording: command %d (%s): %w", i, cmd.Type(), err)
			}
		case MarkerCommand:
			backend.InsertMarker(c.Label)
		}
	}
	return nil
}
