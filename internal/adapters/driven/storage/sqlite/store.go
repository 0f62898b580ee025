// Package sqlite provides the SQLite-backed record store for documents,
// chunks, and vector mappings.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/folio-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed metadata store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.folio/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".folio", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, title, author, year, pages, fingerprint, path, uploaded_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			title = excluded.title,
			author = excluded.author,
			year = excluded.year,
			pages = excluded.pages,
			fingerprint = excluded.fingerprint,
			path = excluded.path,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Filename, doc.Title, doc.Author, doc.Year, doc.Pages,
		doc.Fingerprint, doc.Path, doc.UploadedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, title, author, year, pages, fingerprint, path, uploaded_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByFingerprint retrieves a document by its content fingerprint.
func (s *Store) GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, title, author, year, pages, fingerprint, path, uploaded_at, updated_at
		FROM documents WHERE fingerprint = ?
	`, fingerprint)

	return scanDocument(row)
}

// ListDocuments returns all documents, newest upload first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, title, author, year, pages, fingerprint, path, uploaded_at, updated_at
		FROM documents ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Title, &doc.Author, &doc.Year,
			&doc.Pages, &doc.Fingerprint, &doc.Path, &doc.UploadedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document row.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Chunks ====================

// SaveChunks stores chunks for a document in one transaction.
// The unique (document, page, start, end, text) constraint silently
// drops exact duplicate windows.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, page, start_char, end_char, text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, page, start_char, end_char, text) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Index,
			chunk.Page, chunk.Start, chunk.End, chunk.Text); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_index, page, start_char, end_char, text
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Page,
		&chunk.Start, &chunk.End, &chunk.Text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	return &chunk, nil
}

// GetChunks retrieves all chunks for a document in page/index order.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, page, start_char, end_char, text
		FROM chunks WHERE document_id = ?
		ORDER BY page, chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// CountChunks returns the number of chunks stored for a document.
func (s *Store) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteChunks removes all chunk rows for a document.
func (s *Store) DeleteChunks(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// ==================== Vector Mappings ====================

// SaveMappings stores vector mappings in one transaction.
func (s *Store) SaveMappings(ctx context.Context, mappings []domain.VectorMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_mappings (vector_id, chunk_id) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range mappings {
		if _, err := stmt.ExecContext(ctx, m.VectorID, m.ChunkID); err != nil {
			return fmt.Errorf("saving mapping %d: %w", m.VectorID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetMapping resolves a vector identifier to its mapping.
func (s *Store) GetMapping(ctx context.Context, vectorID uint64) (*domain.VectorMapping, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT vector_id, chunk_id FROM vector_mappings WHERE vector_id = ?
	`, vectorID)

	var m domain.VectorMapping
	if err := row.Scan(&m.VectorID, &m.ChunkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning mapping: %w", err)
	}

	return &m, nil
}

// GetMappingsForDocument returns the mappings of every chunk of a document.
func (s *Store) GetMappingsForDocument(ctx context.Context, documentID string) ([]domain.VectorMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vm.vector_id, vm.chunk_id
		FROM vector_mappings vm
		JOIN chunks c ON c.id = vm.chunk_id
		WHERE c.document_id = ?
		ORDER BY vm.vector_id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var mappings []domain.VectorMapping //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.VectorMapping
		if err := rows.Scan(&m.VectorID, &m.ChunkID); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}

	return mappings, nil
}

// DeleteMappings removes the mapping rows for the given vector ids.
func (s *Store) DeleteMappings(ctx context.Context, vectorIDs []uint64) (int, error) {
	if len(vectorIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(vectorIDs)-1) + "?"
	args := make([]any, len(vectorIDs))
	for i, id := range vectorIDs {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM vector_mappings WHERE vector_id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("deleting mappings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted mappings: %w", err)
	}
	return int(n), nil
}

// UnmappedChunks returns the chunks of a document with no live vector
// mapping. A non-empty result means an ingestion was interrupted between
// chunk persistence and indexing.
func (s *Store) UnmappedChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.chunk_index, c.page, c.start_char, c.end_char, c.text
		FROM chunks c
		LEFT JOIN vector_mappings vm ON vm.chunk_id = c.id
		WHERE c.document_id = ? AND vm.vector_id IS NULL
		ORDER BY c.page, c.chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying unmapped chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ==================== Helper Functions ====================

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Title, &doc.Author, &doc.Year,
		&doc.Pages, &doc.Fingerprint, &doc.Path, &doc.UploadedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// scanChunks scans multiple chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Page,
			&chunk.Start, &chunk.End, &chunk.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
