// Package recording captures frame graph command streams.
//
// A Recorder implements framegraph.CmdContext. Executing a graph into a
// Recorder yields a Recording: a list of typed commands (render pass
// boundaries, draws, dispatches, copies, markers) that can be inspected in
// tests and tools or replayed to any Backend.
//
// # Basic Usage
//
//	rec := recording.NewRecorder("frame")
//	g.Execute(rec)
//	r, err := rec.FinishRecording()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(r.Count(recording.CmdBeginRenderPass), "render passes")
//
// # Playback
//
// Recordings replay to any Backend. Every command context in backend/
// implements Backend:
//
//	ctx, _ := b.NewCommandContext("replay")
//	if err := r.Playback(ctx.(recording.Backend)); err != nil {
//	    ctx.Discard()
//	    return err
//	}
//	return ctx.Submit()
//
// Pass execute callbacks issue work by type-asserting the CmdContext they
// receive to Backend.
package recording
