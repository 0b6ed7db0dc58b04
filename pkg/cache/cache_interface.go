package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
)

// Entry is one cached detection result.
type Entry struct {
	Result    detection.EnsembleResult `json:"result"`
	Decision  detection.Decision       `json:"decision"`
	CreatedAt time.Time                `json:"created_at"`
}

// Backend stores detection results keyed by request fingerprint so repeated
// inputs skip the pipeline entirely.
type Backend interface {
	// IsEnabled returns whether caching is currently active
	IsEnabled() bool

	// CheckConnection verifies the backend is healthy. For the in-memory
	// backend this is a no-op.
	CheckConnection(ctx context.Context) error

	// Get returns the cached entry for a key and whether it was found.
	// Expired entries count as misses.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Set stores an entry under a key with the backend's TTL.
	Set(ctx context.Context, key string, entry *Entry) error

	// Close releases all resources held by the backend
	Close() error

	// GetStats provides cache performance and usage metrics
	GetStats() Stats
}

// Stats holds hit/miss counters and current size.
type Stats struct {
	TotalEntries int     `json:"total_entries"`
	HitCount     int64   `json:"hit_count"`
	MissCount    int64   `json:"miss_count"`
	HitRatio     float64 `json:"hit_ratio"`
}

// Key fingerprints everything that can change a detection outcome: the raw
// text, the language hints, the effective thresholds and the highlight flag.
func Key(text string, hints []string, thresholds detection.Thresholds, includeHighlights bool) string {
	sorted := append([]string(nil), hints...)
	sort.Strings(sorted)
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%.6f\x00%.6f\x00%t",
		text, strings.Join(sorted, ","), thresholds.AllowBelow, thresholds.BlockAtOrAbove, includeHighlights)
	return "hg:result:" + hex.EncodeToString(h.Sum(nil))
}

func hitRatio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
