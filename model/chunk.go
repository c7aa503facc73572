package model

import "time"

// StoredChunk is one persisted chunk: its content, embedding and retrieval
// metadata. Similarity is only populated by similarity queries.
type StoredChunk struct {
	Hash       string    `json:"hash"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Meta       ChunkMeta `json:"meta"`
	MessageAge int       `json:"message_age"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Similarity float64   `json:"similarity,omitempty"`
}
