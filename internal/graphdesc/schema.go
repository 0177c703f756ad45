package graphdesc

import "github.com/hashicorp/hcl/v2"

// fileSchema is decoded first, without an evaluation context, so the
// viewport can feed the variables of everything else.
type fileSchema struct {
	Viewport *viewportBlock `hcl:"viewport,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

type viewportBlock struct {
	Width  int `hcl:"width"`
	Height int `hcl:"height"`
}

type bodySchema struct {
	Imports []*importBlock `hcl:"import,block"`
	Passes  []*passBlock   `hcl:"pass,block"`
}

type importBlock struct {
	Name   string `hcl:"name,label"`
	Format string `hcl:"format,optional"`
	Width  int    `hcl:"width,optional"`
	Height int    `hcl:"height,optional"`
	State  string `hcl:"state,optional"`
}

type textureBlock struct {
	Name   string   `hcl:"name,label"`
	Format string   `hcl:"format"`
	Width  int      `hcl:"width,optional"`
	Height int      `hcl:"height,optional"`
	Layers int      `hcl:"layers,optional"`
	Mips   int      `hcl:"mips,optional"`
	Usage  []string `hcl:"usage,optional"`
}

type bufferBlock struct {
	Name  string   `hcl:"name,label"`
	Size  int      `hcl:"size"`
	Usage []string `hcl:"usage,optional"`
}

type copyBlock struct {
	Src string `hcl:"src"`
	Dst string `hcl:"dst"`
}

type passBlock struct {
	Name         string          `hcl:"name,label"`
	Type         string          `hcl:"type,optional"`
	Queue        string          `hcl:"queue,optional"`
	Textures     []*textureBlock `hcl:"texture,block"`
	Buffers      []*bufferBlock  `hcl:"buffer,block"`
	Reads        []string        `hcl:"reads,optional"`
	Writes       []string        `hcl:"writes,optional"`
	ColorTargets []string        `hcl:"color_targets,optional"`
	DepthTarget  string          `hcl:"depth_target,optional"`
	ClearColor   []float64       `hcl:"clear_color,optional"`
	ClearDepth   *float64        `hcl:"clear_depth,optional"`
	Output       string          `hcl:"output,optional"`
	OutputState  string          `hcl:"output_state,optional"`
	SideEffect   bool            `hcl:"side_effect,optional"`
	Shader       string          `hcl:"shader,optional"`
	WGSL         string          `hcl:"wgsl,optional"`
	EntryPoint   string          `hcl:"entry_point,optional"`
	Draws        int             `hcl:"draws,optional"`
	Dispatch     []int           `hcl:"dispatch,optional"`
	Copy         *copyBlock      `hcl:"copy,block"`
}
