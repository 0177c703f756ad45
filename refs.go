package framegraph

// Handles returned by the graph are 1-based indices into per-frame tables.
// The zero value of every ref is invalid. Refs are only meaningful until the
// next reset of the graph that issued them (EndFrame, a re-entrant
// BeginFrame, or Close).

// TextureRef identifies a texture declared or imported in the current frame.
type TextureRef struct{ ID uint32 }

// IsValid reports whether r refers to a table entry.
func (r TextureRef) IsValid() bool { return r.ID != 0 }

// BufferRef identifies a buffer declared or imported in the current frame.
type BufferRef struct{ ID uint32 }

// IsValid reports whether r refers to a table entry.
func (r BufferRef) IsValid() bool { return r.ID != 0 }

// SRVRef identifies a shader resource view.
type SRVRef struct{ ID uint32 }

// IsValid reports whether r refers to a table entry.
func (r SRVRef) IsValid() bool { return r.ID != 0 }

// UAVRef identifies an unordered access view.
type UAVRef struct{ ID uint32 }

// IsValid reports whether r refers to a table entry.
func (r UAVRef) IsValid() bool { return r.ID != 0 }

// RTVRef identifies a render target view.
type RTVRef struct{ ID uint32 }

// IsValid reports whether r refers to a table entry.
func (r RTVRef) IsValid() bool { return r.ID != 0 }

// DSVRef identifies a depth stencil view.
type DSVRef struct{ ID uint32 }

// IsValid reports whether r refers to a table entry.
func (r DSVRef) IsValid() bool { return r.ID != 0 }

// refIndex converts a 1-based id into a slice index for a table of length n.
// ok is false for the zero id and for ids past the end of the table.
func refIndex(id uint32, n int) (int, bool) {
	if id == 0 || int(id) > n {
		return 0, false
	}
	return int(id) - 1, true
}
