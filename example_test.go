package framegraph_test

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

type blitData struct {
	src framegraph.TextureRef
	dst framegraph.TextureRef
}

func ExampleAddPass() {
	g := framegraph.New(nil)
	g.BeginFrame(1)

	framegraph.AddPass(g, framegraph.PassDesc{Name: "Blit", Type: framegraph.PassCopy},
		func(b *framegraph.PassBuilder, d *blitData) {
			d.src = b.CreateTexture(framegraph.TextureDesc{Descriptor: framegraph.TextureDescriptor{
				Label: "src", Width: 64, Height: 64, Format: gputypes.TextureFormatRGBA8Unorm,
			}})
			d.dst = b.CreateTexture(framegraph.TextureDesc{Descriptor: framegraph.TextureDescriptor{
				Label: "dst", Width: 64, Height: 64, Format: gputypes.TextureFormatRGBA8Unorm,
			}})
			b.WriteTexture(d.src, framegraph.StateCopyDst)
			b.ReadTexture(d.src, framegraph.StateCopySrc)
			b.WriteTexture(d.dst, framegraph.StateCopyDst)
		},
		func(_ framegraph.CmdContext, _ *framegraph.PassResources, d *blitData) {
			fmt.Println("copy", d.src.ID, "->", d.dst.ID)
		})

	g.Execute(nil)
	st := g.Stats()
	fmt.Println("passes:", st.Passes, "textures:", st.Textures)
	g.EndFrame()
	fmt.Println("after EndFrame:", g.Stats().Textures)

	// Output:
	// copy 1 -> 2
	// passes: 1 textures: 2
	// after EndFrame: 0
}

func ExampleGraph_Passes() {
	g := framegraph.New(nil)
	g.BeginFrame(1)
	g.AddPass(framegraph.PassDesc{Name: "Present", Type: framegraph.PassRaster}, func(b *framegraph.PassBuilder) {
		out := b.ImportTexture(nil, framegraph.StateCommon)
		b.WriteTexture(out, framegraph.StateRenderTarget)
		b.SetExternalOutput(out, framegraph.StatePresent)
	})
	for _, p := range g.Passes() {
		fmt.Println(p.Name, p.Type, p.Flags, len(p.Accesses))
	}
	g.EndFrame()

	// Output:
	// Present Raster ExternalOutput 1
}
