package framegraph

import (
	"errors"
	"fmt"
)

// Validation problem kinds.
var (
	ErrReadBeforeWrite    = errors.New("read before any write")
	ErrInvalidAttachment  = errors.New("invalid attachment ref")
	ErrUnwrittenOutput    = errors.New("external output never written")
	ErrViewOfInvalidTable = errors.New("view declared on invalid resource")
)

// ValidationError describes one problem found by Validate.
type ValidationError struct {
	Pass string
	Err  error
	// Detail identifies the offending resource or binding.
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Pass == "" {
		return fmt.Sprintf("framegraph: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("framegraph: pass %q: %s: %v", e.Pass, e.Detail, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks the declarations of the current frame for bookkeeping
// mistakes and returns them joined, or nil. It reports:
//   - reads of graph-owned resources that no earlier access wrote
//   - attachments whose RTV or DSV ref is not in the view tables
//   - views declared on refs that are not in the resource tables
//   - textures marked as external output that no pass writes
//
// Imported resources are assumed initialized. Validate never changes what
// Compile or Execute do.
func (g *Graph) Validate() error {
	var errs []error

	writtenTex := make([]bool, len(g.textures))
	writtenBuf := make([]bool, len(g.buffers))

	for i := range g.passes {
		p := &g.passes[i]
		for _, a := range p.accesses {
			switch a.Kind {
			case ResourceTexture:
				idx := int(a.ID) - 1
				if a.Write {
					writtenTex[idx] = true
				} else if !writtenTex[idx] && !g.textures[idx].external {
					errs = append(errs, &ValidationError{
						Pass:   p.desc.Name,
						Err:    ErrReadBeforeWrite,
						Detail: fmt.Sprintf("texture %d (%s)", a.ID, g.textures[idx].desc.Descriptor.Label),
					})
				}
			case ResourceBuffer:
				idx := int(a.ID) - 1
				if a.Write {
					writtenBuf[idx] = true
				} else if !writtenBuf[idx] && !g.buffers[idx].external {
					errs = append(errs, &ValidationError{
						Pass:   p.desc.Name,
						Err:    ErrReadBeforeWrite,
						Detail: fmt.Sprintf("buffer %d (%s)", a.ID, g.buffers[idx].desc.Descriptor.Label),
					})
				}
			}
		}

		for j, rt := range p.renderTargets {
			if _, ok := refIndex(rt.RTV.ID, len(g.rtvs)); !ok {
				errs = append(errs, &ValidationError{
					Pass:   p.desc.Name,
					Err:    ErrInvalidAttachment,
					Detail: fmt.Sprintf("color target %d (rtv %d)", j, rt.RTV.ID),
				})
			}
		}
		if p.depthStencil != nil {
			if _, ok := refIndex(p.depthStencil.DSV.ID, len(g.dsvs)); !ok {
				errs = append(errs, &ValidationError{
					Pass:   p.desc.Name,
					Err:    ErrInvalidAttachment,
					Detail: fmt.Sprintf("depth target (dsv %d)", p.depthStencil.DSV.ID),
				})
			}
		}
	}

	errs = g.validateViews(errs)

	for i := range g.textures {
		if g.textures[i].externalOutput && !writtenTex[i] {
			errs = append(errs, &ValidationError{
				Err:    ErrUnwrittenOutput,
				Detail: fmt.Sprintf("texture %d (%s)", i+1, g.textures[i].desc.Descriptor.Label),
			})
		}
	}

	return errors.Join(errs...)
}

func (g *Graph) validateViews(errs []error) []error {
	check := func(kind string, n int, isTexture bool, id uint32, label string) {
		limit := len(g.buffers)
		if isTexture {
			limit = len(g.textures)
		}
		if _, ok := refIndex(id, limit); !ok {
			errs = append(errs, &ValidationError{
				Err:    ErrViewOfInvalidTable,
				Detail: fmt.Sprintf("%s %d (%s)", kind, n, label),
			})
		}
	}
	for i, v := range g.srvs {
		check("srv", i+1, v.isTexture, v.resource, v.desc.Label)
	}
	for i, v := range g.uavs {
		check("uav", i+1, v.isTexture, v.resource, v.desc.Label)
	}
	for i, v := range g.rtvs {
		check("rtv", i+1, true, v.resource, v.desc.Label)
	}
	for i, v := range g.dsvs {
		check("dsv", i+1, true, v.resource, v.desc.Label)
	}
	return errs
}
