package driven

import "context"

// VectorIndex provides nearest-neighbour storage and search over
// fixed-dimension float vectors. Implementations own a durable on-disk
// representation and must serialize mutating operations against each
// other and against reads.
//
// Callers are responsible for L2-normalizing vectors before Append and
// Search; the index only performs inner-product comparison, which equals
// cosine similarity on unit vectors.
type VectorIndex interface {
	// Append adds equal-length vectors and returns their assigned
	// identifiers. Identifiers are consecutive, monotonically increasing,
	// and never reused, even across removals. On a non-empty index a
	// vector whose length differs from the bound dimensionality fails
	// with domain.ErrDimensionMismatch. On an empty index the bound
	// dimensionality is (re)set to the incoming vector length. The
	// append is durably persisted before Append returns.
	Append(ctx context.Context, vectors [][]float32) ([]uint64, error)

	// Search returns the k highest-scoring live entries by inner product
	// in descending score order. Fewer than k are returned when the
	// index holds fewer entries; an empty index returns an empty slice,
	// not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Remove tombstones the given identifiers, keeping them out of
	// search results and out of the persisted file. It reports the
	// number actually removed. Removal is best-effort from the caller's
	// perspective: a failure must not abort a broader deletion workflow.
	Remove(ctx context.Context, ids []uint64) (int, error)

	// Dimension returns the bound dimensionality, or 0 when unbound.
	Dimension() int

	// Count returns the number of live entries.
	Count() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// VectorID is the matched entry's index-assigned identifier.
	VectorID uint64

	// Score is the inner-product similarity (cosine on unit vectors).
	Score float64
}
