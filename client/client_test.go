package client

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/retry"
	"github.com/mgarolera/cloud-bigtable-client/scanner"
	"github.com/mgarolera/cloud-bigtable-client/transport"
)

var errUnavailable = status.Error(codes.Unavailable, "transport unavailable")

// fakeRowStream plays back fragments, then terr (io.EOF for a clean end).
type fakeRowStream struct {
	fragments []*bigtable.ReadRowsResponse
	terr      error
	idx       int
	canceled  bool
}

func (s *fakeRowStream) Recv() (*bigtable.ReadRowsResponse, error) {
	if s.idx < len(s.fragments) {
		s.idx++
		return s.fragments[s.idx-1], nil
	}
	return nil, s.terr
}

func (s *fakeRowStream) Cancel() {
	s.canceled = true
}

func fragment(key, value string) *bigtable.ReadRowsResponse {
	return &bigtable.ReadRowsResponse{
		Key: bigtable.RowKey(key),
		Cells: []bigtable.Cell{
			{Family: "cf", Qualifier: []byte("q"), Value: []byte(value)},
		},
	}
}

func setCell(ts int64) bigtable.Mutation {
	return bigtable.Mutation{
		Kind:            bigtable.MutationSetCell,
		Family:          "cf",
		Qualifier:       []byte("q"),
		TimestampMicros: ts,
		Value:           []byte("v"),
	}
}

func newTestClient(t *testing.T, ch channel, enabled bool) *Client {
	t.Helper()
	c, err := New(&Config{
		Channel: ch,
		Policy: retry.Policy{
			Enabled:        enabled,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			MaxElapsed:     time.Second,
		},
	})
	require.NoError(t, err)
	return c
}

func TestClient_MutateRowRetriesTimestampedCells(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	gomock.InOrder(
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodMutateRow, gomock.Any(), gomock.Any()).
			Return(errUnavailable),
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodMutateRow, gomock.Any(), gomock.Any()).
			Return(errUnavailable),
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodMutateRow, gomock.Any(), gomock.Any()).
			Return(nil),
	)

	err := c.MutateRow(context.Background(), &bigtable.MutateRowRequest{
		Table:     "events",
		Key:       bigtable.RowKey("a"),
		Mutations: []bigtable.Mutation{setCell(1_000_000)},
	})
	req.NoError(err)
}

func TestClient_MutateRowUnsetTimestampNotRetried(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	ch.EXPECT().Invoke(gomock.Any(), transport.MethodMutateRow, gomock.Any(), gomock.Any()).
		Return(errUnavailable).
		Times(1)

	err := c.MutateRow(context.Background(), &bigtable.MutateRowRequest{
		Table:     "events",
		Key:       bigtable.RowKey("a"),
		Mutations: []bigtable.Mutation{setCell(bigtable.TimestampUnset)},
	})
	req.ErrorIs(err, errUnavailable)
}

func TestClient_MutateRowsRetryability(t *testing.T) {
	testCases := map[string]struct {
		entries  []bigtable.MutateRowsEntry
		attempts int
	}{
		"all entries timestamped retries": {
			entries: []bigtable.MutateRowsEntry{
				{Key: bigtable.RowKey("a"), Mutations: []bigtable.Mutation{setCell(1)}},
				{Key: bigtable.RowKey("b"), Mutations: []bigtable.Mutation{{Kind: bigtable.MutationDeleteRow}}},
			},
			attempts: 2,
		},
		"one unset timestamp pins the batch": {
			entries: []bigtable.MutateRowsEntry{
				{Key: bigtable.RowKey("a"), Mutations: []bigtable.Mutation{setCell(1)}},
				{Key: bigtable.RowKey("b"), Mutations: []bigtable.Mutation{setCell(bigtable.TimestampUnset)}},
			},
			attempts: 1,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			ch := NewMockchannel(ctrl)
			c := newTestClient(t, ch, true)

			if tc.attempts > 1 {
				gomock.InOrder(
					ch.EXPECT().
						Invoke(gomock.Any(), transport.MethodMutateRows, gomock.Any(), gomock.Any()).
						Return(errUnavailable),
					ch.EXPECT().
						Invoke(gomock.Any(), transport.MethodMutateRows, gomock.Any(), gomock.Any()).
						Return(nil),
				)
			} else {
				ch.EXPECT().
					Invoke(gomock.Any(), transport.MethodMutateRows, gomock.Any(), gomock.Any()).
					Return(errUnavailable).
					Times(1)
			}

			err := c.MutateRows(context.Background(), &bigtable.MutateRowsRequest{
				Table:   "events",
				Entries: tc.entries,
			})
			if tc.attempts > 1 {
				req.NoError(err)
			} else {
				req.ErrorIs(err, errUnavailable)
			}
		})
	}
}

func TestClient_CheckAndMutateRow(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	gomock.InOrder(
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodCheckAndMutateRow, gomock.Any(), gomock.Any()).
			Return(errUnavailable),
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodCheckAndMutateRow, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _, resp any) error {
				resp.(*bigtable.CheckAndMutateRowResponse).PredicateMatched = true
				return nil
			}),
	)

	resp, err := c.CheckAndMutateRow(context.Background(), &bigtable.CheckAndMutateRowRequest{
		Table:           "events",
		Key:             bigtable.RowKey("a"),
		PredicateFilter: "latest-cell",
		TrueMutations:   []bigtable.Mutation{setCell(1)},
	})
	req.NoError(err)
	req.True(resp.PredicateMatched)
}

func TestClient_CheckAndMutateRowUnsafeBranchNotRetried(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	ch.EXPECT().Invoke(gomock.Any(), transport.MethodCheckAndMutateRow, gomock.Any(), gomock.Any()).
		Return(errUnavailable).
		Times(1)

	_, err := c.CheckAndMutateRow(context.Background(), &bigtable.CheckAndMutateRowRequest{
		Table:          "events",
		Key:            bigtable.RowKey("a"),
		TrueMutations:  []bigtable.Mutation{setCell(1)},
		FalseMutations: []bigtable.Mutation{setCell(bigtable.TimestampUnset)},
	})
	req.ErrorIs(err, errUnavailable)
}

func TestClient_ReadModifyWriteRowIssuedExactlyOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	// server-assigned timestamps make a blind reissue unsafe, even for a
	// retryable status
	ch.EXPECT().Invoke(gomock.Any(), transport.MethodReadModifyWriteRow, gomock.Any(), gomock.Any()).
		Return(errUnavailable).
		Times(1)

	_, err := c.ReadModifyWriteRow(context.Background(), &bigtable.ReadModifyWriteRowRequest{
		Table: "events",
		Key:   bigtable.RowKey("a"),
		Mutations: []bigtable.Mutation{
			{Kind: bigtable.MutationIncrement, Family: "cf", Qualifier: []byte("q"), Value: []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		},
	})
	req.ErrorIs(err, errUnavailable)
}

func TestClient_ReadModifyWriteRowReturnsRow(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	ch.EXPECT().Invoke(gomock.Any(), transport.MethodReadModifyWriteRow, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, resp any) error {
			row := resp.(*bigtable.Row)
			row.Key = bigtable.RowKey("a")
			row.Cells = []bigtable.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte("2")}}
			return nil
		})

	row, err := c.ReadModifyWriteRow(context.Background(), &bigtable.ReadModifyWriteRowRequest{
		Table:     "events",
		Key:       bigtable.RowKey("a"),
		Mutations: []bigtable.Mutation{{Kind: bigtable.MutationAppend, Family: "cf", Qualifier: []byte("q"), Value: []byte("2")}},
	})
	req.NoError(err)
	req.Equal(bigtable.RowKey("a"), row.Key)
	req.Len(row.Cells, 1)
}

func TestClient_SampleRowKeysRetries(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	gomock.InOrder(
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodSampleRowKeys, gomock.Any(), gomock.Any()).
			Return(errUnavailable),
		ch.EXPECT().Invoke(gomock.Any(), transport.MethodSampleRowKeys, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, got, resp any) error {
				req.Equal("events", got.(*bigtable.SampleRowKeysRequest).Table)
				resp.(*bigtable.SampleRowKeysResponse).Samples = []bigtable.SamplePoint{
					{Key: bigtable.RowKey("m"), OffsetBytes: 100},
					{OffsetBytes: 200},
				}
				return nil
			}),
	)

	samples, err := c.SampleRowKeys(context.Background(), "events")
	req.NoError(err)
	req.Len(samples, 2)
	req.Equal(bigtable.RowKey("m"), samples[0].Key)
}

func TestClient_ReadRowsScannerKind(t *testing.T) {
	ctx := context.Background()
	request := &bigtable.ReadRowsRequest{Table: "events"}

	t.Run("retries enabled yields resuming scanner", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		ch := NewMockchannel(ctrl)
		c := newTestClient(t, ch, true)

		// the resuming scanner opens its stream lazily, so no transport
		// call happens yet
		sc, err := c.ReadRows(ctx, request)
		req.NoError(err)
		req.IsType(&scanner.Resuming{}, sc)
	})

	t.Run("retries disabled yields one-shot reader", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		ch := NewMockchannel(ctrl)
		c := newTestClient(t, ch, false)

		stream := &fakeRowStream{terr: io.EOF}
		ch.EXPECT().OpenStream(gomock.Any(), transport.MethodReadRows, request).Return(stream, nil)

		sc, err := c.ReadRows(ctx, request)
		req.NoError(err)
		req.IsType(&scanner.StreamReader{}, sc)
		sc.Close()
	})
}

func TestClient_ReadRowsListDrainsStream(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	stream := &fakeRowStream{
		fragments: []*bigtable.ReadRowsResponse{
			fragment("a", "v1"),
			fragment("a", "v2"), // continuation of row a
			fragment("b", "v3"),
		},
		terr: io.EOF,
	}
	ch.EXPECT().OpenStream(gomock.Any(), transport.MethodReadRows, gomock.Any()).Return(stream, nil)

	rows, err := c.ReadRowsList(context.Background(), &bigtable.ReadRowsRequest{
		Table: "events",
		Set:   []bigtable.RowKey{bigtable.RowKey("a"), bigtable.RowKey("b")},
	})
	req.NoError(err)
	req.Len(rows, 2)
	req.Equal(bigtable.RowKey("a"), rows[0].Key)
	req.Len(rows[0].Cells, 2, "continuation fragments merge into one row")
	req.Equal(bigtable.RowKey("b"), rows[1].Key)
}

func TestClient_ReadRowsListRetriesWholeBatch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ch := NewMockchannel(ctrl)
	c := newTestClient(t, ch, true)

	broken := &fakeRowStream{
		fragments: []*bigtable.ReadRowsResponse{fragment("a", "v1")},
		terr:      errUnavailable,
	}
	whole := &fakeRowStream{
		fragments: []*bigtable.ReadRowsResponse{fragment("a", "v1"), fragment("b", "v2")},
		terr:      io.EOF,
	}
	gomock.InOrder(
		ch.EXPECT().OpenStream(gomock.Any(), transport.MethodReadRows, gomock.Any()).Return(broken, nil),
		ch.EXPECT().OpenStream(gomock.Any(), transport.MethodReadRows, gomock.Any()).Return(whole, nil),
	)

	rows, err := c.ReadRowsList(context.Background(), &bigtable.ReadRowsRequest{
		Table: "events",
		Set:   []bigtable.RowKey{bigtable.RowKey("a"), bigtable.RowKey("b")},
	})
	req.NoError(err)
	req.Len(rows, 2, "the reissued batch replaces the partial one")
}

func TestClient_ConfigValidate(t *testing.T) {
	req := require.New(t)
	_, err := New(&Config{})
	req.Error(err)
	req.Contains(err.Error(), "channel is required")
}
