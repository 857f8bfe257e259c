package images

import (
	"image"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ThumbnailCache keeps encoded PNG bytes for sample thumbnails so the samples
// strip can be rebuilt without re-encoding. The zero value is not usable; a
// nil *ThumbnailCache encodes on every call.
type ThumbnailCache struct {
	cache *lru.Cache[string, []byte]
}

// NewThumbnailCache returns a cache holding up to size entries.
func NewThumbnailCache(size int) *ThumbnailCache {
	if size < 1 {
		size = 1
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil
	}
	return &ThumbnailCache{cache: c}
}

// PNG returns the cached encoding for key, rendering and storing it on a miss.
func (c *ThumbnailCache) PNG(key string, render func() image.Image) []byte {
	if c != nil {
		if data, ok := c.cache.Get(key); ok {
			return data
		}
	}
	if render == nil {
		return nil
	}
	data := EncodePNG(render())
	if c != nil && len(data) > 0 {
		c.cache.Add(key, data)
	}
	return data
}

// Forget drops key from the cache.
func (c *ThumbnailCache) Forget(key string) {
	if c == nil {
		return
	}
	c.cache.Remove(key)
}

// Len reports the number of cached entries.
func (c *ThumbnailCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
