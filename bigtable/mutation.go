package bigtable

// MutationKind enumerates the row mutation types the service accepts.
type MutationKind int

const (
	// MutationSetCell overwrites one cell. Idempotency-safe only when the
	// cell carries an explicit timestamp.
	MutationSetCell MutationKind = iota
	// MutationDeleteFromColumn removes all versions of one cell.
	MutationDeleteFromColumn
	// MutationDeleteFromFamily removes every cell in one family.
	MutationDeleteFromFamily
	// MutationDeleteRow removes the entire row.
	MutationDeleteRow
	// MutationIncrement adds to a counter cell. Never idempotency-safe.
	MutationIncrement
	// MutationAppend appends to a cell value. Never idempotency-safe.
	MutationAppend
)

func (k MutationKind) String() string {
	switch k {
	case MutationSetCell:
		return "set_cell"
	case MutationDeleteFromColumn:
		return "delete_from_column"
	case MutationDeleteFromFamily:
		return "delete_from_family"
	case MutationDeleteRow:
		return "delete_row"
	case MutationIncrement:
		return "increment"
	case MutationAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Mutation is one change to a row.
type Mutation struct {
	Kind            MutationKind `json:"kind"`
	Family          string       `json:"family,omitempty"`
	Qualifier       []byte       `json:"qualifier,omitempty"`
	TimestampMicros int64        `json:"timestamp,omitempty"`
	Value           []byte       `json:"value,omitempty"`
}

// MutateRowRequest applies a set of mutations to one row atomically.
type MutateRowRequest struct {
	Table     string     `json:"table"`
	Key       RowKey     `json:"key"`
	Mutations []Mutation `json:"mutations"`
}

// MutateRowResponse acknowledges a row mutation.
type MutateRowResponse struct{}

// MutateRowsEntry is one row's worth of mutations inside a batch.
type MutateRowsEntry struct {
	Key       RowKey     `json:"key"`
	Mutations []Mutation `json:"mutations"`
}

// MutateRowsRequest applies mutations to many rows in one exchange.
type MutateRowsRequest struct {
	Table   string            `json:"table"`
	Entries []MutateRowsEntry `json:"entries"`
}

// MutateRowsResponse acknowledges a batch mutation.
type MutateRowsResponse struct{}

// CheckAndMutateRowRequest conditionally mutates one row: TrueMutations apply
// when the predicate filter matches any cell, FalseMutations otherwise.
type CheckAndMutateRowRequest struct {
	Table           string     `json:"table"`
	Key             RowKey     `json:"key"`
	PredicateFilter Filter     `json:"predicateFilter,omitempty"`
	TrueMutations   []Mutation `json:"trueMutations,omitempty"`
	FalseMutations  []Mutation `json:"falseMutations,omitempty"`
}

// CheckAndMutateRowResponse reports which branch was taken.
type CheckAndMutateRowResponse struct {
	PredicateMatched bool `json:"predicateMatched"`
}

// ReadModifyWriteRowRequest atomically transforms a row server-side. The
// transform assigns server timestamps, so the request is never retried.
type ReadModifyWriteRowRequest struct {
	Table     string     `json:"table"`
	Key       RowKey     `json:"key"`
	Mutations []Mutation `json:"mutations"`
}

// AllCellsTimestamped reports whether every set-cell mutation carries an
// explicit timestamp. Only then is a blind retry of the write safe: a
// server-assigned timestamp would differ between attempts.
func AllCellsTimestamped(mutations []Mutation) bool {
	for _, m := range mutations {
		if m.Kind == MutationSetCell && m.TimestampMicros == TimestampUnset {
			return false
		}
	}
	return true
}

// IsRetryableMutation is the retryability predicate for MutateRow.
func IsRetryableMutation(req *MutateRowRequest) bool {
	return req != nil && AllCellsTimestamped(req.Mutations)
}

// AreRetryableMutations is the retryability predicate for MutateRows: every
// entry must be independently safe to reapply.
func AreRetryableMutations(req *MutateRowsRequest) bool {
	if req == nil {
		return false
	}
	for _, entry := range req.Entries {
		if !AllCellsTimestamped(entry.Mutations) {
			return false
		}
	}
	return true
}

// IsRetryableCheckAndMutate is the retryability predicate for
// CheckAndMutateRow; both branches must be safe.
func IsRetryableCheckAndMutate(req *CheckAndMutateRowRequest) bool {
	return req != nil &&
		AllCellsTimestamped(req.TrueMutations) &&
		AllCellsTimestamped(req.FalseMutations)
}
