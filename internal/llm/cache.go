package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/raine/skybet/internal/imagedata"
	"github.com/raine/skybet/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	cacheKindRounds   = "rounds"
	cacheKindFairness = "fairness"
)

// CacheStore is the subset of storage.Store used for caching.
type CacheStore interface {
	GetAnalysisCache(hash string) (*storage.CacheEntry, error)
	SetAnalysisCache(hash string, entry *storage.CacheEntry) error
}

// CachedAnalyzer wraps an Analyzer with SQLite caching.
type CachedAnalyzer struct {
	inner Analyzer
	store CacheStore
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store CacheStore) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

// hashInputs creates a SHA256 hash over the request kind, strings and images.
// Includes length prefix for each field to prevent boundary collisions.
func hashInputs(kind string, texts []string, images []imagedata.Image) string {
	h := sha256.New()
	writeField := func(b []byte) {
		// Write length to prevent boundary collisions (e.g. [A,B] vs [AB])
		binary.Write(h, binary.LittleEndian, int64(len(b)))
		h.Write(b)
	}
	writeField([]byte(kind))
	for _, t := range texts {
		writeField([]byte(t))
	}
	for _, img := range images {
		writeField([]byte(img.MIMEType))
		writeField(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeRounds implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeRounds(ctx context.Context, req RoundsRequest) (*RoundAnalysis, error) {
	hash := hashInputs(cacheKindRounds, []string{req.Text, req.History}, req.Images)

	var cached RoundAnalysis
	if c.lookup(hash, &cached) {
		cached.ID = uuid.NewString()
		cached.Usage = Usage{} // Zero usage for cached result
		return &cached, nil
	}

	result, err := c.inner.AnalyzeRounds(ctx, req)
	if err != nil {
		return nil, err
	}
	c.save(hash, cacheKindRounds, result)
	return result, nil
}

// AnalyzeFairness implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeFairness(ctx context.Context, req FairnessRequest) (*FairnessSignal, error) {
	hash := hashInputs(cacheKindFairness, []string{req.Text}, req.Images)

	var cached FairnessSignal
	if c.lookup(hash, &cached) {
		cached.ID = uuid.NewString()
		cached.Usage = Usage{}
		return &cached, nil
	}

	result, err := c.inner.AnalyzeFairness(ctx, req)
	if err != nil {
		return nil, err
	}
	c.save(hash, cacheKindFairness, result)
	return result, nil
}

func (c *CachedAnalyzer) lookup(hash string, dst any) bool {
	if c.store == nil {
		return false
	}
	entry, err := c.store.GetAnalysisCache(hash)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check analysis cache")
		return false
	}
	if entry == nil {
		return false
	}
	if err := json.Unmarshal(entry.Payload, dst); err != nil {
		log.Warn().Err(err).Str("hash", hash[:16]).Msg("ignoring unreadable analysis cache entry")
		return false
	}
	log.Debug().Str("hash", hash[:16]).Str("kind", entry.Kind).Msg("analysis cache hit")
	return true
}

func (c *CachedAnalyzer) save(hash, kind string, result any) {
	if c.store == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode analysis result for cache")
		return
	}
	if err := c.store.SetAnalysisCache(hash, &storage.CacheEntry{Kind: kind, Payload: payload}); err != nil {
		log.Warn().Err(err).Msg("failed to cache analysis result")
	} else {
		log.Debug().Str("hash", hash[:16]).Msg("cached analysis result")
	}
}
