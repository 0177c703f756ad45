// Package cache provides a bounded LRU cache for compiled artifacts that
// are expensive to rebuild, such as shader modules.
//
//	c := cache.New[string, []uint32](64)
//	c.Set(source, spirv)
//	spirv, ok := c.Get(source)
//
// Cache is safe for concurrent use and must not be copied.
package cache
