package graphdesc

import (
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
)

// normalize lowercases s and drops separators, so "depth24plus-stencil8",
// "Depth24PlusStencil8" and "depth24plus_stencil8" compare equal.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

const lastTextureFormat = gputypes.TextureFormatASTC12x12UnormSrgb

var textureFormats = func() map[string]gputypes.TextureFormat {
	m := make(map[string]gputypes.TextureFormat)
	for f := gputypes.TextureFormat(1); f <= lastTextureFormat; f++ {
		if name := f.String(); name != "Undefined" && name != "Unknown" {
			m[normalize(name)] = f
		}
	}
	return m
}()

func parseFormat(s string) (gputypes.TextureFormat, bool) {
	f, ok := textureFormats[normalize(s)]
	return f, ok
}

func parseState(s string) (framegraph.ResourceState, bool) {
	n := normalize(s)
	for st := framegraph.StateUnknown; st <= framegraph.StatePresent; st++ {
		if normalize(st.String()) == n {
			return st, true
		}
	}
	return framegraph.StateUnknown, false
}

func parsePassType(s string) (framegraph.PassType, bool) {
	switch normalize(s) {
	case "", "raster", "graphics":
		return framegraph.PassRaster, true
	case "compute":
		return framegraph.PassCompute, true
	case "copy":
		return framegraph.PassCopy, true
	}
	return 0, false
}

// parseQueue defaults the queue from the pass type.
func parseQueue(s string, t framegraph.PassType) (framegraph.QueueType, bool) {
	switch normalize(s) {
	case "":
		switch t {
		case framegraph.PassCompute:
			return framegraph.QueueCompute, true
		case framegraph.PassCopy:
			return framegraph.QueueCopy, true
		}
		return framegraph.QueueGraphics, true
	case "graphics":
		return framegraph.QueueGraphics, true
	case "compute":
		return framegraph.QueueCompute, true
	case "copy":
		return framegraph.QueueCopy, true
	}
	return 0, false
}

var textureUsages = map[string]gputypes.TextureUsage{
	"copysrc":          gputypes.TextureUsageCopySrc,
	"copydst":          gputypes.TextureUsageCopyDst,
	"texturebinding":   gputypes.TextureUsageTextureBinding,
	"storagebinding":   gputypes.TextureUsageStorageBinding,
	"renderattachment": gputypes.TextureUsageRenderAttachment,
}

var bufferUsages = map[string]gputypes.BufferUsage{
	"mapread":      gputypes.BufferUsageMapRead,
	"mapwrite":     gputypes.BufferUsageMapWrite,
	"copysrc":      gputypes.BufferUsageCopySrc,
	"copydst":      gputypes.BufferUsageCopyDst,
	"index":        gputypes.BufferUsageIndex,
	"vertex":       gputypes.BufferUsageVertex,
	"uniform":      gputypes.BufferUsageUniform,
	"storage":      gputypes.BufferUsageStorage,
	"indirect":     gputypes.BufferUsageIndirect,
	"queryresolve": gputypes.BufferUsageQueryResolve,
}

func parseUsages[U ~uint64](names []string, table map[string]U) (U, string, bool) {
	var u U
	for _, n := range names {
		bit, ok := table[normalize(n)]
		if !ok {
			return 0, n, false
		}
		u |= bit
	}
	return u, "", true
}
