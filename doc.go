// Package framegraph provides a per-frame render dependency graph.
//
// # Overview
//
// Rendering code declares logical passes together with the textures and
// buffers they create, read and write. The graph defers creation of every
// declared GPU object until the frame is compiled, opens render passes for
// raster passes, and releases everything it created when the frame ends.
//
// # Quick Start
//
//	g := framegraph.New(device)
//
//	g.BeginFrame(frame)
//	framegraph.AddPass(g, framegraph.PassDesc{Name: "GBuffer"},
//	    func(b *framegraph.PassBuilder, d *gbuffer) {
//	        d.albedo = b.CreateTexture(albedoDesc)
//	        b.WriteTexture(d.albedo, framegraph.StateRenderTarget)
//	        rtv := b.CreateRTV(d.albedo, framegraph.RenderTargetViewDescriptor{})
//	        b.SetRenderTargets([]framegraph.RenderTargetBinding{{
//	            RTV:    rtv,
//	            LoadOp: gputypes.LoadOpClear,
//	        }}, nil)
//	    },
//	    func(ctx framegraph.CmdContext, r *framegraph.PassResources, d *gbuffer) {
//	        drawScene(ctx)
//	    })
//	g.Compile()
//	g.Execute(cmd)
//	g.EndFrame()
//
// # Handles
//
// Every declaration returns a small value handle (TextureRef, SRVRef, ...).
// Handles are 1-based; the zero value is invalid. They index per-frame
// tables and must not be kept across EndFrame.
//
// # Lifecycle
//
// Compile is idempotent and runs automatically from Execute. Any
// declaration after Compile marks the graph dirty again; the next Compile
// creates only what is missing. Calling BeginFrame twice without EndFrame
// discards the open frame.
//
// # Scheduling
//
// Passes run in registration order. There is no culling, reordering,
// barrier insertion or aliasing; the recorded access states and pass flags
// are exposed through Passes and Validate for tooling.
//
// # Backends
//
// The graph talks to GPUs through the small Device and CmdContext
// interfaces. Implementations live under backend/: a software device for
// tests and tools, a gogpu/wgpu HAL device, and a wgpu-native device.
package framegraph
