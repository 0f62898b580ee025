package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio-cli/internal/chunker"
	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driving"
	"github.com/custodia-labs/folio-cli/internal/fingerprint"
	"github.com/custodia-labs/folio-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize bounds the number of chunk texts sent to the embedding
// provider per request. Smaller batches also bound the repair surface:
// chunks of an already-appended batch keep their mappings when a later
// batch fails.
const embedBatchSize = 64

// duplicateNote is returned when an upload's fingerprint already exists.
const duplicateNote = "duplicate upload, using existing index"

// IngestService turns uploaded PDF files into indexed, searchable chunks.
type IngestService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	extractor   driven.PageExtractor
	chunker     *chunker.Chunker
	uploadDir   string
}

// NewIngestService creates a new ingest service. Uploaded files are
// copied under uploadDir so later reindexing and serving never depend on
// the original path surviving.
func NewIngestService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	extractor driven.PageExtractor,
	ch *chunker.Chunker,
	uploadDir string,
) *IngestService {
	return &IngestService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		extractor:   extractor,
		chunker:     ch,
		uploadDir:   uploadDir,
	}
}

// Ingest fingerprints, stores, extracts, chunks, embeds, and indexes the
// file at path.
//
// The pipeline is deliberately ordered so that every failure leaves a
// consistent, detectable state: the document and its chunks are committed
// before any embedding happens, so an embedding or index failure leaves
// chunks without mappings, which Reindex repairs.
func (s *IngestService) Ingest(ctx context.Context, path string) (*domain.IngestResult, error) {
	logger.Section("Ingest")
	logger.Debug("File: %s", path)

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filepath.Base(path))
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("ingest: %w", domain.ErrEmbeddingUnavailable)
	}

	fp, err := fingerprint.File(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprint file: %w", err)
	}
	logger.Debug("Fingerprint: %s", fp)

	// Identical bytes resolve to the existing document; nothing is
	// re-extracted, re-embedded, or re-indexed.
	existing, err := s.docStore.GetDocumentByFingerprint(ctx, fp)
	if err == nil {
		count, err := s.docStore.CountChunks(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("count chunks: %w", err)
		}
		logger.Info("Duplicate upload of %s (document %s)", existing.Filename, existing.ID)
		return &domain.IngestResult{
			DocumentID:    existing.ID,
			Filename:      existing.Filename,
			Pages:         existing.Pages,
			ChunksIndexed: count,
			Duplicate:     true,
			Note:          duplicateNote,
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup fingerprint: %w", err)
	}

	pages, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	logger.Debug("Extracted %d pages", len(pages))

	docID := uuid.NewString()
	now := time.Now().UTC()

	doc := &domain.Document{
		ID:          docID,
		Filename:    filepath.Base(path),
		Title:       filepath.Base(path),
		Pages:       len(pages),
		Fingerprint: fp,
		UploadedAt:  now,
		UpdatedAt:   now,
	}

	// Best-effort metadata from the first page's raw text. The raw text
	// still has line structure; cleaned text does not.
	if len(pages) > 0 {
		guessMetadata(doc, pages[0].Text)
	}

	chunks := s.buildChunks(docID, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", domain.ErrInvalidInput, doc.Filename)
	}
	logger.Debug("Built %d chunks", len(chunks))

	storedPath, err := s.storeUpload(path, docID)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	doc.Path = storedPath

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	indexed, err := embedAndIndex(ctx, s.embedder, s.vectorIndex, s.docStore, chunks)
	if err != nil {
		// Document and chunks are committed; the chunks without
		// mappings are exactly what Reindex repairs.
		return nil, fmt.Errorf("index document %s (run reindex to repair): %w", docID, err)
	}

	logger.Info("Ingested %s: %d pages, %d chunks", doc.Filename, doc.Pages, indexed)

	return &domain.IngestResult{
		DocumentID:    docID,
		Filename:      doc.Filename,
		Pages:         doc.Pages,
		ChunksIndexed: indexed,
	}, nil
}

// buildChunks cleans each page and windows it into chunks.
func (s *IngestService) buildChunks(docID string, pages []domain.PageText) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		text := s.extractor.Clean(page.Text)
		if text == "" {
			continue
		}
		for i, w := range s.chunker.Split(text) {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.NewString(),
				DocumentID: docID,
				Index:      i,
				Page:       page.Page,
				Start:      w.Start,
				End:        w.End,
				Text:       w.Text,
			})
		}
	}
	return chunks
}

// embedAndIndex embeds chunk texts in batches, appends the unit vectors
// to the index, and persists the vector mappings. Returns the number of
// chunks that received a mapping. Earlier batches keep their mappings
// when a later batch fails.
func embedAndIndex(
	ctx context.Context,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	store driven.DocumentStore,
	chunks []domain.Chunk,
) (int, error) {
	indexed := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return indexed, fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
		}

		ids, err := index.Append(ctx, l2NormalizeBatch(vectors))
		if err != nil {
			return indexed, fmt.Errorf("append vectors: %w", err)
		}

		mappings := make([]domain.VectorMapping, len(batch))
		for i, c := range batch {
			mappings[i] = domain.VectorMapping{VectorID: ids[i], ChunkID: c.ID}
		}
		if err := store.SaveMappings(ctx, mappings); err != nil {
			return indexed, fmt.Errorf("save mappings: %w", err)
		}

		indexed += len(batch)
	}
	return indexed, nil
}

// storeUpload copies the uploaded file under the upload directory,
// named by document id.
func (s *IngestService) storeUpload(path, docID string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0700); err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dest := filepath.Join(s.uploadDir, docID+".pdf")
	dst, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

// yearRe matches plausible publication years.
var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// authorRe matches an explicit author line ("by Jane Doe", "Author: …").
var authorRe = regexp.MustCompile(`(?im)^\s*(?:by|authors?:?)\s+(.{2,80})$`)

// guessMetadata fills Title, Author, and Year from the first page's raw
// text when it can. Guesses are conservative: a field is only set when a
// plausible candidate exists, and the title keeps its filename default
// otherwise.
func guessMetadata(doc *domain.Document, firstPage string) {
	lines := strings.Split(firstPage, "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 8 || len(line) > 120 {
			continue
		}
		// Skip lines that are mostly digits or punctuation
		letters := 0
		for _, r := range line {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				letters++
			}
		}
		if letters*2 < len(line) {
			continue
		}
		doc.Title = line
		break
	}

	if m := authorRe.FindStringSubmatch(firstPage); m != nil {
		doc.Author = strings.TrimSpace(m[1])
	}

	if m := yearRe.FindString(firstPage); m != "" {
		if year, err := strconv.Atoi(m); err == nil {
			doc.Year = year
		}
	}
}
