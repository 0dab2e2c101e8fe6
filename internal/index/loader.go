package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/techvocates/nyaya/internal/domain"
)

// snapshotChunk mirrors one entry of the persisted chunk snapshot written by
// the offline ingestion job. Format and versioning of the snapshot are the
// ingestion side's contract; the service only reads it.
type snapshotChunk struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Source    string    `json:"source"`
}

// Load reads the persisted chunk snapshot for one act from
// <dir>/<actID>/chunks.json and builds a read-only store over it.
// A missing snapshot file yields an empty store, not an error: a newly
// registered act may not have been ingested yet.
func Load(dir, actID string) (*Store, error) {
	path := filepath.Join(dir, actID, "chunks.json")

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return New(actID, nil)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var raw []snapshotChunk
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	chunks := make([]domain.Chunk, len(raw))
	for i, r := range raw {
		chunks[i] = domain.Chunk{Text: r.Text, Embedding: r.Embedding, Source: r.Source}
	}

	store, err := New(actID, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index for act %s: %w", actID, err)
	}
	return store, nil
}
