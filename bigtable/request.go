package bigtable

// RowRange is a half-open key range [Start, End). A nil Start or End is
// unbounded on that side. OpenStart excludes Start itself, turning the range
// into (Start, End); a resumed scan uses it to restart strictly after the
// last delivered key without synthesizing a successor key.
type RowRange struct {
	Start     RowKey `json:"start"`
	OpenStart bool   `json:"openStart"`
	End       RowKey `json:"end"`
}

// Contains reports whether key falls inside the range.
func (r RowRange) Contains(key RowKey) bool {
	if r.Start != nil {
		if c := key.Compare(r.Start); c < 0 || (c == 0 && r.OpenStart) {
			return false
		}
	}
	if r.End != nil && key.Compare(r.End) >= 0 {
		return false
	}
	return true
}

// ReadRowsRequest describes one read: an exact key, a key range, or an
// explicit key set, plus a filter and delivery limits. Requests are treated
// as immutable; a reissued copy differs only in a narrowed start boundary or
// a reduced row limit.
type ReadRowsRequest struct {
	Table string `json:"table"`

	// Exactly one of Key, Range, or Set describes the target. An empty
	// target scans the whole table.
	Key   RowKey   `json:"rowKey,omitempty"`
	Range RowRange `json:"rowRange,omitempty"`
	Set   []RowKey `json:"rowSet,omitempty"`

	Filter   Filter `json:"filter,omitempty"`
	RowLimit int64  `json:"rowLimit,omitempty"`

	// AllowRowInterleaving permits out-of-order delivery. Bulk reads set it
	// because the whole batch is retried together, so ordering buys nothing.
	AllowRowInterleaving bool `json:"allowRowInterleaving,omitempty"`
}

// IsGet reports whether the request targets a single exact key, in which case
// at most one row will ever be delivered.
func (r *ReadRowsRequest) IsGet() bool {
	return len(r.Key) > 0
}

// WithStartAfter returns a copy of the request whose target is narrowed to
// start strictly after key, preserving the original end boundary. remaining
// replaces the row limit (zero keeps it unlimited). The receiver is not
// modified.
func (r *ReadRowsRequest) WithStartAfter(key RowKey, remaining int64) *ReadRowsRequest {
	narrowed := *r
	narrowed.Key = nil
	narrowed.Set = nil
	narrowed.Range = RowRange{
		Start:     key,
		OpenStart: true,
		End:       r.Range.End,
	}
	narrowed.RowLimit = remaining
	return &narrowed
}

// SampleRowKeysRequest asks for the approximate key-space distribution of a
// table.
type SampleRowKeysRequest struct {
	Table string `json:"table"`
}

// SampleRowKeysResponse carries the sample points, in key order.
type SampleRowKeysResponse struct {
	Samples []SamplePoint `json:"samples"`
}

// ReadRowsResponse is one row fragment from the stream. Consecutive fragments
// sharing the same key belong to the same row and are merged by the reader
// before the row is delivered.
type ReadRowsResponse struct {
	Key   RowKey `json:"key"`
	Cells []Cell `json:"cells"`
}
