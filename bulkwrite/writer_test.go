package bulkwrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
)

func entry(key string, kinds ...bigtable.MutationKind) bigtable.MutateRowsEntry {
	e := bigtable.MutateRowsEntry{Key: bigtable.RowKey(key)}
	for _, k := range kinds {
		e.Mutations = append(e.Mutations, bigtable.Mutation{
			Kind:            k,
			Family:          "cf",
			Qualifier:       []byte("q"),
			TimestampMicros: 1_000_000,
			Value:           []byte("v"),
		})
	}
	return e
}

func newTestWriter(t *testing.T, m mutator) *Writer {
	t.Helper()
	w, err := New(&Config{Mutator: m})
	require.NoError(t, err)
	return w
}

func TestWriter_AcceptsIdempotentKinds(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	m := NewMockmutator(ctrl)
	w := newTestWriter(t, m)

	batch := &bigtable.MutateRowsRequest{
		Table: "events",
		Entries: []bigtable.MutateRowsEntry{
			entry("a", bigtable.MutationSetCell),
			entry("b", bigtable.MutationDeleteFromColumn, bigtable.MutationDeleteFromFamily),
			entry("c", bigtable.MutationDeleteRow),
		},
	}
	m.EXPECT().MutateRows(gomock.Any(), batch).Return(nil)

	req.NoError(w.Apply(context.Background(), batch))
}

func TestWriter_RejectsUnsafeKinds(t *testing.T) {
	testCases := map[string]bigtable.MutationKind{
		"increment": bigtable.MutationIncrement,
		"append":    bigtable.MutationAppend,
	}

	for name, kind := range testCases {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			m := NewMockmutator(ctrl)
			w := newTestWriter(t, m)

			// no MutateRows expectation: nothing may reach the wire
			batch := &bigtable.MutateRowsRequest{
				Table: "events",
				Entries: []bigtable.MutateRowsEntry{
					entry("a", bigtable.MutationSetCell),
					entry("b", kind),
				},
			}
			err := w.Apply(context.Background(), batch)
			req.ErrorIs(err, ErrNotIdempotent)
			req.Contains(err.Error(), `row "b"`)
		})
	}
}

func TestWriter_PropagatesSubmitError(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	m := NewMockmutator(ctrl)
	w := newTestWriter(t, m)

	submitErr := status.Error(codes.Unavailable, "transport unavailable")
	m.EXPECT().MutateRows(gomock.Any(), gomock.Any()).Return(submitErr)

	err := w.Apply(context.Background(), &bigtable.MutateRowsRequest{
		Table:   "events",
		Entries: []bigtable.MutateRowsEntry{entry("a", bigtable.MutationSetCell)},
	})
	req.ErrorIs(err, submitErr)
}

func TestWriter_ConfigValidate(t *testing.T) {
	req := require.New(t)
	_, err := New(&Config{})
	req.Error(err)
	req.Contains(err.Error(), "mutator is required")
}
