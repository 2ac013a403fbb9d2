// Package bulkread coalesces independent single-key read requests that share
// a filter into one multi-key request, and fans the results back out to the
// per-key callers. A batcher is NOT safe for uncoordinated concurrent use:
// it trades internal locking for lower overhead on the assumption of a single
// feeding goroutine, so callers must serialize Add and Flush themselves.
package bulkread

//go:generate mockgen -destination=./batcher_mock.go -package=bulkread -source=batcher.go

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/future"
	"github.com/mgarolera/cloud-bigtable-client/telemetry"
)

// DefaultMaxBatchKeys bounds the distinct keys one batch may hold. The
// multi-key request format has no inherent ceiling, but an unbounded batch
// only defers the cost to one oversized exchange.
const DefaultMaxBatchKeys = 1000

// ErrEmptyKey reports an Add with no row key.
var ErrEmptyKey = errors.New("row key required")

// reader issues the coalesced multi-key request.
type reader interface {
	ReadRowsList(ctx context.Context, req *bigtable.ReadRowsRequest) ([]*bigtable.Row, error)
}

// Batcher accumulates point reads between flush boundaries. All pending
// requests share one filter, because the multi-key request format accepts a
// single filter for the whole set.
type Batcher struct {
	reader  reader
	table   string
	maxKeys int
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	filter  bigtable.Filter
	pending map[string][]*future.Future[[]*bigtable.Row]
}

type Config struct {
	// Reader issues the flushed multi-key requests.
	Reader reader
	// Table every batched read targets.
	Table string
	// MaxBatchKeys caps distinct pending keys; 0 selects
	// DefaultMaxBatchKeys. Reaching the cap flushes before accepting more.
	MaxBatchKeys int
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Metrics defaults to the noop bundle.
	Metrics *telemetry.Metrics
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Reader == nil {
		errGrp = append(errGrp, errors.New("reader is required"))
	}
	if c.Table == "" {
		errGrp = append(errGrp, errors.New("table is required"))
	}
	if c.MaxBatchKeys < 0 {
		errGrp = append(errGrp, errors.New("max batch keys must not be negative"))
	}
	return errors.Join(errGrp...)
}

// New returns an empty batcher.
func New(cfg *Config) (*Batcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	maxKeys := cfg.MaxBatchKeys
	if maxKeys == 0 {
		maxKeys = DefaultMaxBatchKeys
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Batcher{
		reader:  cfg.Reader,
		table:   cfg.Table,
		maxKeys: maxKeys,
		logger:  logger,
		metrics: metrics,
		pending: make(map[string][]*future.Future[[]*bigtable.Row]),
	}, nil
}

// Add registers a single-key read and returns the future that will carry its
// rows. A request under a different filter than the pending batch flushes
// that batch first, fire-and-forget. The same key may be added more than
// once; every occurrence gets its own future and all resolve identically.
func (b *Batcher) Add(ctx context.Context, req *bigtable.ReadRowsRequest) (*future.Future[[]*bigtable.Row], error) {
	if req == nil || !req.IsGet() {
		return nil, ErrEmptyKey
	}
	if len(b.pending) > 0 && req.Filter != b.filter {
		b.Flush(ctx)
	}
	if _, dup := b.pending[string(req.Key)]; !dup && len(b.pending) >= b.maxKeys {
		b.Flush(ctx)
	}
	if len(b.pending) == 0 {
		b.filter = req.Filter
	}
	f := future.New[[]*bigtable.Row]()
	b.pending[string(req.Key)] = append(b.pending[string(req.Key)], f)
	return f, nil
}

// Flush issues one multi-key request carrying every distinct pending key and
// returns without waiting for it. Out-of-order delivery is explicitly
// permitted: the whole batch is retried together on failure, so ordering
// brings no benefit. Batcher state is cleared regardless of the outcome.
func (b *Batcher) Flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	filter := b.filter
	b.pending = make(map[string][]*future.Future[[]*bigtable.Row])
	b.filter = ""

	keys := make([]bigtable.RowKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, bigtable.RowKey(k))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })

	req := &bigtable.ReadRowsRequest{
		Table:                b.table,
		Set:                  keys,
		Filter:               filter,
		AllowRowInterleaving: true,
	}
	b.metrics.BulkFlushes.Add(ctx, 1)
	b.logger.Debug().Int("keys", len(keys)).Msg("flushing bulk read batch")

	go b.settle(ctx, req, batch)
}

// settle resolves every future of one flushed batch: per returned row for
// matched keys, an explicit empty result for keys the service had no row
// for, or the batch-wide error when the exchange itself failed.
func (b *Batcher) settle(ctx context.Context, req *bigtable.ReadRowsRequest, batch map[string][]*future.Future[[]*bigtable.Row]) {
	rows, err := b.reader.ReadRowsList(ctx, req)
	if err != nil {
		for _, waiters := range batch {
			for _, f := range waiters {
				f.Fail(err)
			}
		}
		return
	}
	for _, row := range rows {
		for _, f := range batch[string(row.Key)] {
			f.Resolve([]*bigtable.Row{row})
		}
		delete(batch, string(row.Key))
	}
	for _, waiters := range batch {
		for _, f := range waiters {
			f.Resolve([]*bigtable.Row{})
		}
	}
}
