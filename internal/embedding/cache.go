package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedProvider memoises vectors per text in a bounded LRU cache
type CachedProvider struct {
	next       Provider
	model      string
	maxEntries int
	entries    *lru.Cache[string, []float64]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedProvider wraps next with an in-memory vector cache holding at
// most maxEntries vectors.
func NewCachedProvider(next Provider, model string, maxEntries int) *CachedProvider {
	maxEntries = max(maxEntries, 1)
	entries, _ := lru.New[string, []float64](maxEntries)
	return &CachedProvider{
		next:       next,
		model:      model,
		maxEntries: maxEntries,
		entries:    entries,
	}
}

func (c *CachedProvider) Name() string { return c.next.Name() }

// Embed serves cached vectors and forwards only the misses
func (c *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	keys := make([]string, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.get(keys[i]); ok {
			out[i] = vec
			c.hits.Add(1)
			continue
		}
		c.misses.Add(1)
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		// let the caller's count check report the protocol error
		return vectors, nil
	}

	for j, i := range missIdx {
		c.put(keys[i], vectors[j])
		out[i] = slices.Clone(vectors[j])
	}
	return out, nil
}

func (c *CachedProvider) Health(ctx context.Context) error {
	if hc, ok := c.next.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

func (c *CachedProvider) Stats() map[string]any {
	return map[string]any{
		"cache": map[string]any{
			"size":     c.entries.Len(),
			"capacity": c.maxEntries,
			"hits":     c.hits.Load(),
			"misses":   c.misses.Load(),
		},
	}
}

func (c *CachedProvider) cacheKey(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.model)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedProvider) get(key string) ([]float64, bool) {
	vec, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(vec), true
}

func (c *CachedProvider) put(key string, vec []float64) {
	c.entries.ContainsOrAdd(key, slices.Clone(vec))
}
