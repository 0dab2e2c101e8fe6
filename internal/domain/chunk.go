package domain

// Chunk is one embedded passage of statute text. Chunks are produced by the
// offline ingestion job and are read-only at query time.
type Chunk struct {
	Text      string
	Embedding []float32
	// Source locates the passage in its source document (file + page).
	Source string
	ActID  string
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
