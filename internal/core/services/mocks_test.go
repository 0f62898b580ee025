package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
)

// memStore is an in-memory DocumentStore for service tests.
type memStore struct {
	docs     map[string]domain.Document
	chunks   map[string]domain.Chunk
	mappings map[uint64]string // vector id -> chunk id
}

var _ driven.DocumentStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		docs:     make(map[string]domain.Document),
		chunks:   make(map[string]domain.Chunk),
		mappings: make(map[uint64]string),
	}
}

func (m *memStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

func (m *memStore) GetDocumentByFingerprint(_ context.Context, fp string) (*domain.Document, error) {
	for _, doc := range m.docs {
		if doc.Fingerprint == fp {
			d := doc
			return &d, nil
		}
	}
	return nil, fmt.Errorf("fingerprint %s: %w", fp, domain.ErrNotFound)
}

func (m *memStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

func (m *memStore) DeleteDocument(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

func (m *memStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *memStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	c, ok := m.chunks[id]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (m *memStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			chunks = append(chunks, c)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Page != chunks[j].Page {
			return chunks[i].Page < chunks[j].Page
		}
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

func (m *memStore) CountChunks(_ context.Context, documentID string) (int, error) {
	count := 0
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) DeleteChunks(_ context.Context, documentID string) (int, error) {
	count := 0
	for id, c := range m.chunks {
		if c.DocumentID == documentID {
			delete(m.chunks, id)
			count++
		}
	}
	return count, nil
}

func (m *memStore) SaveMappings(_ context.Context, mappings []domain.VectorMapping) error {
	for _, vm := range mappings {
		m.mappings[vm.VectorID] = vm.ChunkID
	}
	return nil
}

func (m *memStore) GetMapping(_ context.Context, vectorID uint64) (*domain.VectorMapping, error) {
	chunkID, ok := m.mappings[vectorID]
	if !ok {
		return nil, fmt.Errorf("vector %d: %w", vectorID, domain.ErrNotFound)
	}
	return &domain.VectorMapping{VectorID: vectorID, ChunkID: chunkID}, nil
}

func (m *memStore) GetMappingsForDocument(_ context.Context, documentID string) ([]domain.VectorMapping, error) {
	var out []domain.VectorMapping
	for vid, chunkID := range m.mappings {
		if c, ok := m.chunks[chunkID]; ok && c.DocumentID == documentID {
			out = append(out, domain.VectorMapping{VectorID: vid, ChunkID: chunkID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VectorID < out[j].VectorID })
	return out, nil
}

func (m *memStore) DeleteMappings(_ context.Context, vectorIDs []uint64) (int, error) {
	count := 0
	for _, vid := range vectorIDs {
		if _, ok := m.mappings[vid]; ok {
			delete(m.mappings, vid)
			count++
		}
	}
	return count, nil
}

func (m *memStore) UnmappedChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	mapped := make(map[string]struct{}, len(m.mappings))
	for _, chunkID := range m.mappings {
		mapped[chunkID] = struct{}{}
	}

	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.DocumentID != documentID {
			continue
		}
		if _, ok := mapped[c.ID]; !ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

// fakeIndex is an in-memory VectorIndex with monotonic ids.
type fakeIndex struct {
	entries   []fakeEntry
	nextID    uint64
	dim       int
	appendErr error
	removeErr error
}

type fakeEntry struct {
	id  uint64
	vec []float32
}

var _ driven.VectorIndex = (*fakeIndex)(nil)

func (f *fakeIndex) Append(_ context.Context, vectors [][]float32) ([]uint64, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	if len(f.entries) == 0 {
		f.dim = len(vectors[0])
	}
	ids := make([]uint64, len(vectors))
	for i, v := range vectors {
		if len(v) != f.dim {
			return nil, domain.ErrDimensionMismatch
		}
		ids[i] = f.nextID
		f.entries = append(f.entries, fakeEntry{id: f.nextID, vec: v})
		f.nextID++
	}
	return ids, nil
}

func (f *fakeIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(f.entries) == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, domain.ErrDimensionMismatch
	}
	hits := make([]driven.VectorHit, 0, len(f.entries))
	for _, e := range f.entries {
		var score float64
		for i := range query {
			score += float64(query[i]) * float64(e.vec[i])
		}
		hits = append(hits, driven.VectorHit{VectorID: e.id, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeIndex) Remove(_ context.Context, ids []uint64) (int, error) {
	if f.removeErr != nil {
		return 0, f.removeErr
	}
	drop := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := f.entries[:0]
	removed := 0
	for _, e := range f.entries {
		if _, ok := drop[e.id]; ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return removed, nil
}

func (f *fakeIndex) Dimension() int { return f.dim }
func (f *fakeIndex) Count() int     { return len(f.entries) }
func (f *fakeIndex) Close() error   { return nil }

// fakeEmbedder returns canned vectors per text, with a deterministic
// fallback so any text embeds to something.
type fakeEmbedder struct {
	dims    int
	vectors map[string][]float32
	err     error
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 4, vectors: make(map[string][]float32)}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	}
	out := make([]float32, f.dims)
	out[len(text)%f.dims] = 1
	return out, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return f.dims }
func (f *fakeEmbedder) ModelName() string          { return "fake-embedder" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeExtractor returns canned pages and cleans by squeezing whitespace.
type fakeExtractor struct {
	pages []domain.PageText
	err   error
}

var _ driven.PageExtractor = (*fakeExtractor)(nil)

func (f *fakeExtractor) Extract(context.Context, string) ([]domain.PageText, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func (f *fakeExtractor) Clean(raw string) string {
	out := make([]rune, 0, len(raw))
	space := false
	for _, r := range raw {
		if r == ' ' || r == '\n' || r == '\t' || r == '\f' {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, r)
	}
	return string(out)
}

// fakeLLM records its inputs and returns a canned answer.
type fakeLLM struct {
	answer      string
	err         error
	question    string
	contexts    []domain.Context
	personality []string
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (f *fakeLLM) GenerateAnswer(
	_ context.Context, question string, contexts []domain.Context, personality []string,
) (string, error) {
	f.question = question
	f.contexts = contexts
	f.personality = personality
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

// seedDocument inserts a document with one chunk per given page text,
// each chunk embedded as the given vector and appended to the index.
func seedDocument(
	store *memStore, index *fakeIndex, docID, filename string, pages map[int]string, vecs map[int][]float32,
) {
	store.docs[docID] = domain.Document{
		ID:         docID,
		Filename:   filename,
		Title:      filename,
		Pages:      len(pages),
		UploadedAt: time.Now().UTC(),
	}
	pageNums := make([]int, 0, len(pages))
	for p := range pages {
		pageNums = append(pageNums, p)
	}
	sort.Ints(pageNums)
	for _, p := range pageNums {
		chunkID := fmt.Sprintf("%s-p%d", docID, p)
		store.chunks[chunkID] = domain.Chunk{
			ID:         chunkID,
			DocumentID: docID,
			Page:       p,
			Text:       pages[p],
		}
		ids, _ := index.Append(context.Background(), [][]float32{vecs[p]})
		store.mappings[ids[0]] = chunkID
	}
}
