// Package shader compiles WGSL for the GPU backends.
package shader

import (
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/framegraph/internal/cache"
)

// CompileWGSL compiles WGSL source to SPIR-V words with IR validation.
// The label only appears in errors.
func CompileWGSL(label, source string) ([]uint32, error) {
	spirvBytes, err := naga.CompileWithOptions(source, naga.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", label, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader %q: SPIR-V length %d is not a multiple of 4", label, len(spirvBytes))
	}
	return Words(spirvBytes), nil
}

// Words converts a little-endian SPIR-V byte stream to 32-bit words.
// Trailing bytes that do not fill a word are dropped.
func Words(spirvBytes []byte) []uint32 {
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code
}

// DefaultCacheSize bounds caches made by NewCache.
const DefaultCacheSize = 128

// Cache memoizes compiled modules by source, evicting the least recently
// used. It is safe for concurrent use.
type Cache struct {
	modules *cache.Cache[string, []uint32]
}

// NewCache returns an empty cache holding up to DefaultCacheSize modules.
func NewCache() *Cache {
	return NewCacheSize(DefaultCacheSize)
}

// NewCacheSize returns an empty cache holding up to n modules; n <= 0
// means unbounded.
func NewCacheSize(n int) *Cache {
	return &Cache{modules: cache.New[string, []uint32](n)}
}

// Compile returns the SPIR-V for source, compiling it on first use.
// Failed compilations are not cached.
func (c *Cache) Compile(label, source string) ([]uint32, error) {
	if code, ok := c.modules.Get(source); ok {
		return code, nil
	}
	code, err := CompileWGSL(label, source)
	if err != nil {
		return nil, err
	}
	c.modules.Set(source, code)
	return code, nil
}

// Len returns the number of cached modules.
func (c *Cache) Len() int { return c.modules.Len() }

// Hits returns how many Compile calls were served from the cache.
func (c *Cache) Hits() int { return int(c.modules.Stats().Hits) }
