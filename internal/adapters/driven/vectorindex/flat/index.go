// Package flat provides an exact inner-product vector index with a
// durable on-disk representation.
//
// The index is append-mostly: vectors receive consecutive identifiers
// from a monotonic counter that survives removals and restarts, so an
// identifier is never reused. Removal tombstones entries: they drop out
// of search results and out of the persisted file, but the counter keeps
// advancing. Every committed append is persisted before the call
// returns, keeping the file in lockstep with the vector mappings in the
// record store.
package flat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// File format constants.
const (
	fileMagic   = uint32(0x464C4958) // "FLIX"
	fileVersion = uint32(1)
)

// entry is one live vector with its assigned identifier.
type entry struct {
	id  uint64
	vec []float32
}

// Index is a flat (exact) inner-product index over float32 vectors.
//
// A single RWMutex serializes mutations (Append, Remove) against each
// other and against reads; searches share the read lock and may run
// concurrently with each other but never observe a half-applied append.
type Index struct {
	mu      sync.RWMutex
	path    string
	dim     int
	nextID  uint64
	entries []entry
}

// Open loads the index file at path, or creates an empty unbound index
// when the file does not exist yet.
func Open(path string) (*Index, error) {
	idx := &Index{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	if err := idx.decode(data); err != nil {
		return nil, fmt.Errorf("decoding index file %s: %w", path, err)
	}
	return idx, nil
}

// Append adds vectors and returns their assigned identifiers.
//
// On an empty index the bound dimensionality is (re)set to the incoming
// vector length; this is the only state in which the dimension may
// change, which allows switching embedding providers once the index has
// been fully drained. On a non-empty index a length mismatch is a fatal
// configuration error, never silently truncated or padded. The file is
// durably rewritten before Append returns.
func (x *Index) Append(_ context.Context, vectors [][]float32) ([]uint64, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	want := len(vectors[0])
	if want == 0 {
		return nil, fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	for i, v := range vectors {
		if len(v) != want {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, batch has %d",
				domain.ErrDimensionMismatch, i, len(v), want)
		}
	}

	if len(x.entries) == 0 {
		// Rebinding is only legal while the index is logically empty.
		x.dim = want
	} else if want != x.dim {
		return nil, fmt.Errorf("%w: got %d, index is bound to %d",
			domain.ErrDimensionMismatch, want, x.dim)
	}

	prevLen := len(x.entries)
	prevNext := x.nextID

	ids := make([]uint64, len(vectors))
	for i, v := range vectors {
		ids[i] = x.nextID
		vec := make([]float32, len(v))
		copy(vec, v)
		x.entries = append(x.entries, entry{id: x.nextID, vec: vec})
		x.nextID++
	}

	if err := x.persist(); err != nil {
		// Roll back the in-memory append so a failed persist does not
		// diverge from the file.
		x.entries = x.entries[:prevLen]
		x.nextID = prevNext
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	return ids, nil
}

// Search returns the k highest-scoring live entries by inner product in
// descending score order. Ties keep insertion order, so results are
// deterministic for a fixed index state and query. An empty index
// returns an empty slice.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index is bound to %d",
			domain.ErrDimensionMismatch, len(query), x.dim)
	}

	hits := make([]driven.VectorHit, len(x.entries))
	for i, e := range x.entries {
		hits[i] = driven.VectorHit{VectorID: e.id, Score: dot(query, e.vec)}
	}

	// Stable keeps the lower insertion index first on equal scores.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Remove tombstones the given identifiers and rewrites the file without
// them. Unknown identifiers are ignored. It returns the number of
// entries actually removed.
func (x *Index) Remove(_ context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dead := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		dead[id] = struct{}{}
	}

	prev := x.entries
	kept := x.entries[:0:0]
	for _, e := range x.entries {
		if _, ok := dead[e.id]; !ok {
			kept = append(kept, e)
		}
	}
	removed := len(prev) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	x.entries = kept
	if err := x.persist(); err != nil {
		x.entries = prev
		return 0, fmt.Errorf("persisting index after removal: %w", err)
	}

	return removed, nil
}

// Dimension returns the bound dimensionality, or 0 when the index has
// never held a vector.
func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// Count returns the number of live entries.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Path returns the index file path.
func (x *Index) Path() string {
	return x.path
}

// Close releases resources. The file is already in sync with memory
// after every mutation, so Close has nothing to flush.
func (x *Index) Close() error {
	return nil
}

// persist atomically rewrites the index file. Callers hold the write
// lock.
func (x *Index) persist() error {
	if err := os.MkdirAll(filepath.Dir(x.path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(x.path), ".index-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(x.encode()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), x.path); err != nil {
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// encode serializes the index: magic, version, dim, nextID, entry
// count, then id + vector per entry, all little-endian.
func (x *Index) encode() []byte {
	size := 4 + 4 + 4 + 8 + 8 + len(x.entries)*(8+4*x.dim)
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint32(buf, fileMagic)
	buf = binary.LittleEndian.AppendUint32(buf, fileVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.dim))
	buf = binary.LittleEndian.AppendUint64(buf, x.nextID)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(x.entries)))

	for _, e := range x.entries {
		buf = binary.LittleEndian.AppendUint64(buf, e.id)
		for _, f := range e.vec {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}

// decode restores the index from its serialized form.
func (x *Index) decode(data []byte) error {
	const header = 4 + 4 + 4 + 8 + 8
	if len(data) < header {
		return errors.New("truncated header")
	}

	if got := binary.LittleEndian.Uint32(data[0:4]); got != fileMagic {
		return fmt.Errorf("bad magic 0x%08x", got)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != fileVersion {
		return fmt.Errorf("unsupported version %d", got)
	}

	dim := int(binary.LittleEndian.Uint32(data[8:12]))
	nextID := binary.LittleEndian.Uint64(data[12:20])
	count := int(binary.LittleEndian.Uint64(data[20:28]))

	want := header + count*(8+4*dim)
	if len(data) != want {
		return fmt.Errorf("expected %d bytes, got %d", want, len(data))
	}

	entries := make([]entry, count)
	off := header
	for i := 0; i < count; i++ {
		id := binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		entries[i] = entry{id: id, vec: vec}
	}

	x.dim = dim
	x.nextID = nextID
	x.entries = entries
	return nil
}

// dot computes the inner product with float64 accumulation.
func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
