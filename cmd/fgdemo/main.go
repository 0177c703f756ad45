// Command fgdemo runs a frame description through a frame graph for a few
// frames and prints what each frame declared.
//
// Usage:
//
//	fgdemo [-file desc.hcl] [-backend software|native|rust] [-frames N]
//	       [-out frame.png] [-scale F] [-v]
//
// Without -file the built-in deferred shading description is used. Without
// -backend the best available backend is picked. On the software backend
// -out writes the first imported texture after the last frame as PNG, BMP
// or TIFF, resized by -scale.
package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/framegraph/backend/native"
	_ "github.com/gogpu/framegraph/backend/rust"
	"github.com/gogpu/framegraph/internal/graphdesc"
	"github.com/gogpu/framegraph/internal/shader"
)

//go:embed default.hcl
var defaultDesc []byte

// config holds the command line.
type config struct {
	file    string
	backend string
	frames  int
	out     string
	scale   float64
}

func main() {
	var cfg config
	flag.StringVar(&cfg.file, "file", "", "frame description (HCL); built-in deferred example if empty")
	flag.StringVar(&cfg.backend, "backend", "", "backend name; best available if empty")
	flag.IntVar(&cfg.frames, "frames", 3, "number of frames to run")
	flag.StringVar(&cfg.out, "out", "", "write the first import after the last frame (.png, .bmp, .tiff; software only)")
	flag.Float64Var(&cfg.scale, "scale", 1, "scale factor for -out")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	framegraph.SetLogger(logger)

	if err := run(cfg, logger); err != nil {
		log.Fatalf("fgdemo: %v", err)
	}
}

func run(cfg config, logger *slog.Logger) error {
	cache := shader.NewCache()
	var (
		desc *graphdesc.Description
		err  error
	)
	if cfg.file == "" {
		desc, err = graphdesc.Load("default.hcl", defaultDesc, cache)
	} else {
		desc, err = graphdesc.LoadFile(cfg.file, cache)
	}
	if err != nil {
		return err
	}

	var b backend.DeviceBackend
	if cfg.backend == "" {
		b, err = backend.InitDefault()
	} else {
		b, err = backend.Open(cfg.backend)
	}
	if err != nil {
		return fmt.Errorf("backend %q: %w", cfg.backend, err)
	}
	defer b.Close()
	logger.Info("backend ready", "backend", b.Name(), "passes", len(desc.Passes))

	dev := b.Device()
	externals := make(map[string]framegraph.Texture, len(desc.Imports))
	for _, imp := range desc.Imports {
		td := imp.Desc
		tex, err := dev.CreateTexture(&td)
		if err != nil {
			return fmt.Errorf("import %q: %w", imp.Name, err)
		}
		defer tex.Release()
		externals[imp.Name] = tex
	}

	work := newWorkBinder(b, logger)
	defer work.close()

	g := framegraph.New(dev, framegraph.WithValidation(true))
	defer g.Close()

	for i := 1; i <= cfg.frames; i++ {
		if err := runFrame(g, b, desc, uint64(i), graphdesc.Options{
			Externals:  externals,
			BeforeWork: work.before,
		}); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}

	sw, isSoftware := b.(*backend.SoftwareBackend)
	if isSoftware {
		st := sw.SoftwareDevice().Stats()
		fmt.Printf("software: submits=%d renderPasses=%d clears=%d draws=%d dispatches=%d copies=%d\n",
			st.Submits, st.RenderPasses, st.Clears, st.Draws, st.Dispatches, st.Copies)
	}
	if cfg.out != "" {
		switch {
		case !isSoftware:
			logger.Warn("-out needs the software backend", "backend", b.Name())
		case len(desc.Imports) == 0:
			logger.Warn("-out needs an imported texture")
		default:
			imp := desc.Imports[0]
			if err := snapshot(sw.SoftwareDevice(), externals[imp.Name], imp.Desc, cfg.out, cfg.scale); err != nil {
				return err
			}
			logger.Info("wrote snapshot", "texture", imp.Name, "path", cfg.out)
		}
	}
	logger.Debug("shader cache", "modules", cache.Len(), "hits", cache.Hits())
	return nil
}

func runFrame(g *framegraph.Graph, b backend.DeviceBackend, desc *graphdesc.Description, index uint64, opts graphdesc.Options) error {
	g.BeginFrame(index)
	defer g.EndFrame()

	if _, err := graphdesc.Build(g, desc, opts); err != nil {
		return err
	}
	g.Compile()

	ctx, err := b.NewCommandContext(fmt.Sprintf("frame %d", index))
	if err != nil {
		return err
	}
	g.Execute(ctx)
	if err := ctx.Submit(); err != nil {
		return err
	}

	st := g.Stats()
	fmt.Printf("frame %d: passes=%d textures=%d buffers=%d srvs=%d uavs=%d rtvs=%d dsvs=%d failed=%d\n",
		index, st.Passes, st.Textures, st.Buffers, st.SRVs, st.UAVs, st.RTVs, st.DSVs, st.FailedCreations)
	return nil
}

// workBinder decides which passes may issue draws and dispatches on the
// selected backend. The native backend gets compute pipelines built from
// the pass shaders; render pipelines are not built, so raster work is only
// issued on the software backend.
type workBinder struct {
	name      string
	native    *native.Device
	pipelines map[string]hal.ComputePipeline
	failed    map[string]bool
	logger    *slog.Logger
}

func newWorkBinder(b backend.DeviceBackend, logger *slog.Logger) *workBinder {
	w := &workBinder{
		name:      b.Name(),
		pipelines: make(map[string]hal.ComputePipeline),
		failed:    make(map[string]bool),
		logger:    logger,
	}
	if nb, ok := b.(*native.NativeBackend); ok {
		w.native = nb.HALDevice()
	}
	return w
}

func (w *workBinder) before(ctx framegraph.CmdContext, p *graphdesc.Pass) bool {
	if w.name == backend.BackendSoftware {
		return true
	}
	cc, ok := ctx.(*native.CommandContext)
	if !ok || p.Type != framegraph.PassCompute || p.WGSL == "" {
		w.logger.Debug("skipping pass work", "pass", p.Name, "backend", w.name)
		return false
	}
	pl, ok := w.pipeline(p)
	if !ok {
		return false
	}
	cc.SetComputePipeline(pl)
	return true
}

// pipeline builds the pass pipeline on first use. Failures are logged once.
func (w *workBinder) pipeline(p *graphdesc.Pass) (hal.ComputePipeline, bool) {
	if pl, ok := w.pipelines[p.Name]; ok {
		return pl, true
	}
	if w.failed[p.Name] {
		return nil, false
	}
	pl, err := w.native.CreateComputePipeline(p.Shader, p.WGSL, p.EntryPoint)
	if err != nil {
		w.failed[p.Name] = true
		w.logger.Warn("compute pipeline unavailable", "pass", p.Name, "err", err)
		return nil, false
	}
	w.pipelines[p.Name] = pl
	return pl, true
}

func (w *workBinder) close() {
	for _, pl := range w.pipelines {
		w.native.DestroyComputePipeline(pl)
	}
}
