// Package export writes the weekly digest to disk as formatted JSON.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hrdigest/internal/core"
	"hrdigest/internal/logger"
)

// WriteDigest serializes the digest and writes it twice under
// outDir/<year>/: once keyed by ISO week and once keyed by calendar date,
// so both "this week" and "this run" lookups hit a stable path. Both files
// are byte-identical. An empty digest is still written.
func WriteDigest(digest core.Digest, outDir string, generatedAt time.Time) (string, string, error) {
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode digest: %w", err)
	}

	dir := filepath.Join(outDir, fmt.Sprintf("%d", digest.Year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	weekPath := filepath.Join(dir, digest.Week+".json")
	dayPath := filepath.Join(dir, generatedAt.Format("2006-01-02")+".json")

	if err := os.WriteFile(weekPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", weekPath, err)
	}
	if err := os.WriteFile(dayPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", dayPath, err)
	}

	logger.Info("Wrote weekly digest", "week", weekPath, "day", dayPath, "items", len(digest.Items))
	return weekPath, dayPath, nil
}
