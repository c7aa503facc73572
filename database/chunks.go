package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/cbrandt/rescore/helper"
	"github.com/cbrandt/rescore/model"
	loadSql "github.com/cbrandt/rescore/sql"
)

// ChunksDBHandlerFunctions defines the interface for chunk database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunk(chunk *model.StoredChunk) error
	SelectChunk(hash string) (*model.StoredChunk, error)
	SelectAllChunks() ([]*model.StoredChunk, error)
	UpdateChunkMeta(hash string, meta model.ChunkMeta) (*model.StoredChunk, error)
	DeleteChunk(hash string) error
	SelectCandidatesBySimilarity(embedding []float32, limit int) ([]model.Candidate, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// UpsertChunk inserts a chunk or updates it in place if the hash exists
func (h *ChunksDBHandler) UpsertChunk(chunk *model.StoredChunk) error {
	embedding := pgvector.NewVector(chunk.Embedding)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_chunk($1, $2, $3, $4, $5)`,
		chunk.Hash,
		chunk.Content,
		embedding,
		chunk.Meta,
		chunk.MessageAge,
	)

	err := row.Scan(
		&chunk.Hash,
		&chunk.Content,
		&embedding,
		&chunk.Meta,
		&chunk.MessageAge,
		&chunk.CreatedAt,
		&chunk.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	chunk.Embedding = embedding.Slice()

	return nil
}

// SelectChunk retrieves a chunk by hash
func (h *ChunksDBHandler) SelectChunk(hash string) (*model.StoredChunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		hash,
	)

	chunk := &model.StoredChunk{}
	var embedding pgvector.Vector
	err := row.Scan(
		&chunk.Hash,
		&chunk.Content,
		&embedding,
		&chunk.Meta,
		&chunk.MessageAge,
		&chunk.CreatedAt,
		&chunk.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	chunk.Embedding = embedding.Slice()

	return chunk, nil
}

// SelectAllChunks retrieves every stored chunk in creation order
func (h *ChunksDBHandler) SelectAllChunks() ([]*model.StoredChunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_chunks()`,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.StoredChunk
	for rows.Next() {
		chunk := &model.StoredChunk{}
		var embedding pgvector.Vector
		err := rows.Scan(
			&chunk.Hash,
			&chunk.Content,
			&embedding,
			&chunk.Meta,
			&chunk.MessageAge,
			&chunk.CreatedAt,
			&chunk.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Embedding = embedding.Slice()

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// UpdateChunkMeta replaces the retrieval metadata of a chunk
func (h *ChunksDBHandler) UpdateChunkMeta(hash string, meta model.ChunkMeta) (*model.StoredChunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_chunk_meta($1, $2)`,
		hash,
		meta,
	)

	chunk := &model.StoredChunk{}
	var embedding pgvector.Vector
	err := row.Scan(
		&chunk.Hash,
		&chunk.Content,
		&embedding,
		&chunk.Meta,
		&chunk.MessageAge,
		&chunk.CreatedAt,
		&chunk.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	chunk.Embedding = embedding.Slice()

	return chunk, nil
}

// DeleteChunk deletes a chunk by hash
func (h *ChunksDBHandler) DeleteChunk(hash string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_chunk($1)`,
		hash,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectCandidatesBySimilarity performs vector similarity search and returns
// the result as pipeline candidates, best match first
func (h *ChunksDBHandler) SelectCandidatesBySimilarity(embedding []float32, limit int) ([]model.Candidate, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_candidates_by_similarity($1, $2)`,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var meta model.ChunkMeta
		c := model.Candidate{Index: len(candidates)}
		err := rows.Scan(
			&c.Hash,
			&c.Text,
			&meta,
			&c.MessageAge,
			&c.VectorScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		c.Meta = &meta

		candidates = append(candidates, c)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}
