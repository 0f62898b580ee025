package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// createTestDocument persists a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, id, fingerprint string) {
	t.Helper()
	doc := &domain.Document{
		ID:          id,
		Filename:    id + ".pdf",
		Title:       "Test Document " + id,
		Pages:       3,
		Fingerprint: fingerprint,
		Path:        "/tmp/docs/" + id + ".pdf",
	}
	require.NoError(t, store.SaveDocument(context.Background(), doc))
}

// createTestChunks persists n chunks for a document.
func createTestChunks(t *testing.T, store *Store, docID string, n int) []domain.Chunk {
	t.Helper()
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:         docID + "-chunk-" + string(rune('a'+i)),
			DocumentID: docID,
			Index:      i,
			Page:       i + 1,
			Start:      0,
			End:        10,
			Text:       "chunk text " + string(rune('a'+i)),
		}
	}
	require.NoError(t, store.SaveChunks(context.Background(), chunks))
	return chunks
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestDocument_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc := &domain.Document{
		ID:          "doc-1",
		Filename:    "report.pdf",
		Title:       "Annual Report",
		Author:      "Jane Doe",
		Year:        2021,
		Pages:       12,
		Fingerprint: "abc123",
		Path:        "/tmp/docs/report.pdf",
	}
	require.NoError(t, store.SaveDocument(ctx, doc))
	assert.False(t, doc.UploadedAt.IsZero())

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Annual Report", got.Title)
	assert.Equal(t, "Jane Doe", got.Author)
	assert.Equal(t, 2021, got.Year)
	assert.Equal(t, "abc123", got.Fingerprint)
}

func TestDocument_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocument_GetByFingerprint(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")

	got, err := store.GetDocumentByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	_, err = store.GetDocumentByFingerprint(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocument_FingerprintUnique(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "same-fp")

	dup := &domain.Document{
		ID:          "doc-2",
		Filename:    "copy.pdf",
		Fingerprint: "same-fp",
		Path:        "/tmp/docs/copy.pdf",
	}
	assert.Error(t, store.SaveDocument(ctx, dup))
}

func TestDocument_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	doc.Title = "Renamed"
	doc.Author = "New Author"
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "New Author", got.Author)
}

func TestDocument_List(t *testing.T) {
	store := setupTestStore(t)
	createTestDocument(t, store, "doc-1", "fp-1")
	createTestDocument(t, store, "doc-2", "fp-2")

	docs, err := store.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestChunks_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")
	chunks := createTestChunks(t, store, "doc-1", 3)

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	count, err := store.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	single, err := store.GetChunk(ctx, chunks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, chunks[0].Text, single.Text)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunks_DuplicateWindowDropped(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")

	chunk := domain.Chunk{
		ID: "c-1", DocumentID: "doc-1", Index: 0, Page: 1,
		Start: 0, End: 5, Text: "hello",
	}
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk}))

	// Same window under a different id hits the uniqueness constraint
	// and is silently dropped.
	dup := chunk
	dup.ID = "c-2"
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{dup}))

	count, err := store.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChunks_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")
	createTestChunks(t, store, "doc-1", 2)

	n, err := store.DeleteChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMappings_SaveAndResolve(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")
	chunks := createTestChunks(t, store, "doc-1", 2)

	mappings := []domain.VectorMapping{
		{VectorID: 0, ChunkID: chunks[0].ID},
		{VectorID: 1, ChunkID: chunks[1].ID},
	}
	require.NoError(t, store.SaveMappings(ctx, mappings))

	m, err := store.GetMapping(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, chunks[1].ID, m.ChunkID)

	_, err = store.GetMapping(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byDoc, err := store.GetMappingsForDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)
}

func TestMappings_ChunkUnique(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")
	chunks := createTestChunks(t, store, "doc-1", 1)

	require.NoError(t, store.SaveMappings(ctx, []domain.VectorMapping{{VectorID: 0, ChunkID: chunks[0].ID}}))

	// A chunk has at most one live mapping.
	err := store.SaveMappings(ctx, []domain.VectorMapping{{VectorID: 1, ChunkID: chunks[0].ID}})
	assert.Error(t, err)
}

func TestMappings_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")
	chunks := createTestChunks(t, store, "doc-1", 3)

	mappings := make([]domain.VectorMapping, len(chunks))
	for i, c := range chunks {
		mappings[i] = domain.VectorMapping{VectorID: uint64(i), ChunkID: c.ID}
	}
	require.NoError(t, store.SaveMappings(ctx, mappings))

	n, err := store.DeleteMappings(ctx, []uint64{0, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.GetMapping(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetMapping(ctx, 1)
	assert.NoError(t, err)
}

func TestUnmappedChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	createTestDocument(t, store, "doc-1", "fp-1")
	chunks := createTestChunks(t, store, "doc-1", 3)

	// Map only the first chunk; the other two are repair candidates.
	require.NoError(t, store.SaveMappings(ctx, []domain.VectorMapping{{VectorID: 0, ChunkID: chunks[0].ID}}))

	unmapped, err := store.UnmappedChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, unmapped, 2)
	assert.Equal(t, chunks[1].ID, unmapped[0].ID)
	assert.Equal(t, chunks[2].ID, unmapped[1].ID)
}
