package service

import (
	"context"
	"log/slog"
	"time"
	"unicode"

	"github.com/contractmind/backend/config"
	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/store"
)

// TableTextCache is the record-store table memoizing extracted text.
const TableTextCache = "extracted_texts"

// TextCache memoizes extracted contract text, keyed by contract id and
// invalidated purely by the contract's last-modified timestamp. There is
// no TTL.
type TextCache struct {
	store store.Store
	cfg   *config.AnalysisConfig
}

func NewTextCache(st store.Store, cfg *config.AnalysisConfig) *TextCache {
	return &TextCache{store: st, cfg: cfg}
}

// Get returns the cached entry for a contract, or nil on a miss. It is a hit
// only when the contract has not been modified since the text was cached,
// i.e. contractUpdatedAt is not newer than the entry's ContractUpdatedAt.
// A hit bumps the entry's own updated_at without touching its content.
func (c *TextCache) Get(ctx context.Context, contractID string, contractUpdatedAt time.Time) (*model.TextCacheEntry, error) {
	var entries []model.TextCacheEntry
	err := c.store.Select(ctx, TableTextCache, store.Filter{"contract_id": contractID}, &store.QueryOptions{Limit: 1}, &entries)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	entry := entries[0]
	if contractUpdatedAt.After(entry.ContractUpdatedAt) {
		// Stale: the file changed after the text was cached.
		return nil, nil
	}

	// Access-time bump, best effort.
	patch := map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	if err := c.store.Update(ctx, TableTextCache, entry.ID, patch, nil); err != nil {
		slog.Warn("failed to bump text cache access time", "contract_id", contractID, "error", err)
	}

	return &entry, nil
}

// Put upserts the cache entry for a contract, overwriting any prior entry.
// method is "auto" for real extractions and "fallback" for synthesized
// text written after a failed extraction; the fallback path always records
// the configured fallback quality score regardless of content.
func (c *TextCache) Put(ctx context.Context, contractID, text string, contractUpdatedAt time.Time, method string) (*model.TextCacheEntry, error) {
	quality := c.scoreQuality(text)
	if method == model.ExtractionFallback {
		quality = c.cfg.QualityScoreFallback
	}

	entry := &model.TextCacheEntry{
		ContractID:        contractID,
		Content:           text,
		ContentLength:     len([]rune(text)),
		WordCount:         countWords(text),
		ExtractionMethod:  method,
		QualityScore:      quality,
		ContractUpdatedAt: contractUpdatedAt,
		UpdatedAt:         time.Now().UTC(),
	}

	var saved model.TextCacheEntry
	if err := c.store.Upsert(ctx, TableTextCache, "contract_id", entry, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// scoreQuality derives a coarse quality score from the ratio of recognized
// script characters (CJK and Latin letters) to total length. The bucket
// thresholds are tuning constants, configurable per deployment.
func (c *TextCache) scoreQuality(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return c.cfg.QualityScorePoor
	}

	recognized := 0
	for _, r := range runes {
		if unicode.In(r, unicode.Han, unicode.Latin) {
			recognized++
		}
	}
	ratio := float64(recognized) / float64(len(runes))

	switch {
	case ratio >= c.cfg.QualityExcellentThreshold:
		return c.cfg.QualityScoreExcellent
	case ratio >= c.cfg.QualityGoodThreshold:
		return c.cfg.QualityScoreGood
	case ratio >= c.cfg.QualityFairThreshold:
		return c.cfg.QualityScoreFair
	default:
		return c.cfg.QualityScorePoor
	}
}

// countWords counts whitespace-separated Latin words plus individual CJK
// characters, since CJK text carries no word-delimiting spaces.
func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}
