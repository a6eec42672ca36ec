package similarity

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 4096

type fingerprint struct {
	owner uuid.UUID
	final int
	size  int
	sum   uint64
}

type pairKey struct {
	a, b fingerprint
}

// Cached memoizes another comparator. Contexts are keyed by content, so a
// context mutated after a comparison gets a fresh entry.
type Cached struct {
	inner Comparator
	cache *lru.Cache[pairKey, float64]
}

func NewCached(inner Comparator, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[pairKey, float64](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

func (c *Cached) Compare(a, b *domain.Context) float64 {
	key := pairKey{a: fingerprintOf(a), b: fingerprintOf(b)}
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := c.inner.Compare(a, b)
	c.cache.Add(key, v)
	return v
}

func (c *Cached) Len() int {
	return c.cache.Len()
}

func fingerprintOf(ctx *domain.Context) fingerprint {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range ctx.Values() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	h.Write([]byte(ctx.Info()))
	return fingerprint{owner: ctx.OwnerID(), final: ctx.FinalIndex(), size: ctx.Size(), sum: h.Sum64()}
}
