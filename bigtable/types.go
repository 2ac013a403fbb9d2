package bigtable

import (
	"bytes"
)

// TimestampUnset marks a cell whose timestamp will be assigned by the server
// at write time. A mutation carrying it cannot be blindly retried, because a
// second attempt would write a second, differently-stamped cell.
const TimestampUnset int64 = -1

// RowKey is an opaque byte sequence, totally ordered by byte-lexicographic
// comparison. Keys are never interpreted beyond that ordering.
type RowKey []byte

// Compare orders two keys lexicographically. A nil key compares equal to an
// empty one.
func (k RowKey) Compare(other RowKey) int {
	return bytes.Compare(k, other)
}

// Equal reports whether two keys hold the same bytes.
func (k RowKey) Equal(other RowKey) bool {
	return bytes.Equal(k, other)
}

// Cell is a single versioned value inside a row.
type Cell struct {
	Family          string `json:"family"`
	Qualifier       []byte `json:"qualifier"`
	TimestampMicros int64  `json:"timestamp"`
	Value           []byte `json:"value"`
}

// Row is a key plus an ordered collection of cells. Rows are produced only as
// complete units; a consumer never observes a partially assembled row.
type Row struct {
	Key   RowKey `json:"key"`
	Cells []Cell `json:"cells"`
}

// Filter is an opaque row-filter expression. Filters are compared only for
// equality, which is what batching on a shared filter requires.
type Filter string

// SamplePoint is a service-reported (key, cumulative byte offset) pair
// describing the approximate data distribution of a table. Both fields are
// monotonically non-decreasing across the reported sequence, and the final
// sample carries a nil Key meaning the unbounded end of the key space.
type SamplePoint struct {
	Key         RowKey `json:"key"`
	OffsetBytes int64  `json:"offset"`
}

// WorkUnit is a bounded key range assigned to one parallel worker. A nil
// Start or End bound is unbounded. Units produced for one table are
// contiguous, non-overlapping, and together cover the key space of the scan
// they were derived from.
type WorkUnit struct {
	Start     RowKey `json:"start"`
	End       RowKey `json:"end"`
	SizeBytes int64  `json:"size"`
}
