package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Cache persists geocode results keyed by a normalized address hash.
// Implementations must return found=false (not an error) on a miss.
type Cache interface {
	GetGeocode(ctx context.Context, key string, maxAge time.Duration) (result *Result, found bool, err error)
	PutGeocode(ctx context.Context, key, address string, result *Result) error
}

// CacheKey returns SHA-256 hex of the normalized address. Case, diacritics,
// punctuation runs and whitespace runs do not change the key.
func CacheKey(address string) string {
	h := sha256.Sum256([]byte(normalizeAddress(address)))
	return fmt.Sprintf("%x", h)
}

func normalizeAddress(address string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, address)
	if err != nil {
		folded = address
	}
	folded = strings.ToLower(folded)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.' || r == '#'
	})
	return strings.Join(fields, " ")
}

// CachedClient decorates a Client with a persistent lookup cache. Misses are
// cached too so repeated unmatched venues don't cost provider quota.
type CachedClient struct {
	inner  Client
	cache  Cache
	maxAge time.Duration
}

// NewCachedClient wraps inner with cache. maxAge <= 0 means entries never expire.
func NewCachedClient(inner Client, cache Cache, maxAge time.Duration) *CachedClient {
	return &CachedClient{inner: inner, cache: cache, maxAge: maxAge}
}

// Geocode returns the cached result when present, otherwise delegates and
// stores the answer. Cache failures are logged and never fail the lookup.
func (c *CachedClient) Geocode(ctx context.Context, address string) (*Result, error) {
	key := CacheKey(address)

	cached, found, err := c.cache.GetGeocode(ctx, key, c.maxAge)
	if err != nil {
		zap.L().Warn("geocode: cache read failed", zap.Error(err))
	} else if found {
		zap.L().Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", cached.Matched))
		cached.Source = "cache"
		return cached, nil
	}

	result, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutGeocode(ctx, key, address, result); err != nil {
		zap.L().Warn("geocode: cache write failed", zap.Error(err))
	}
	return result, nil
}

// BatchGeocode serves each address through Geocode, sequentially, so that
// duplicate addresses in one batch hit the provider once.
func (c *CachedClient) BatchGeocode(ctx context.Context, addresses []string) ([]Result, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	results := make([]Result, len(addresses))
	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := c.Geocode(ctx, addr)
		if err != nil || r == nil {
			results[i] = Result{Matched: false}
			continue
		}
		results[i] = *r
	}
	return results, nil
}
