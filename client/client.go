// Package client is the data-facing entry point of the engine. It binds the
// channel capability, the retry policy, and the streaming machinery into the
// row operations applications call: point and range reads, mutations, key
// sampling, bulk reads and writes, and parallel work sources.
package client

//go:generate mockgen -destination=./client_mock.go -package=client -source=client.go

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/bulkread"
	"github.com/mgarolera/cloud-bigtable-client/bulkwrite"
	"github.com/mgarolera/cloud-bigtable-client/retry"
	"github.com/mgarolera/cloud-bigtable-client/scanner"
	"github.com/mgarolera/cloud-bigtable-client/telemetry"
	"github.com/mgarolera/cloud-bigtable-client/transport"
	"github.com/mgarolera/cloud-bigtable-client/worksource"
)

// Single-row gets expect exactly one row, so they prefetch almost nothing: a
// credit of one with a small buffer beats scan-sized batches there.
const (
	getBatchCredit = 1
	getBufferSize  = 10
)

// channel is the transport capability the client consumes. It must be safe
// for concurrent use by many simultaneous in-flight calls; multiplexing and
// load balancing are its job, not the client's.
type channel interface {
	Invoke(ctx context.Context, method string, req, resp any) error
	OpenStream(ctx context.Context, method string, req any) (transport.RowStream, error)
}

// Client issues row operations over one channel. Safe for concurrent use;
// every invocation owns independent retry state, and abandoning a call's
// context cancels its in-flight transport call.
type Client struct {
	channel channel
	exec    *retry.Executor
	policy  retry.Policy
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

type Config struct {
	// Channel is the transport capability, typically a *transport.GRPCChannel.
	Channel channel
	// Policy is the retry policy; zero fields take defaults.
	Policy retry.Policy
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Metrics defaults to the noop bundle.
	Metrics *telemetry.Metrics
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Channel == nil {
		errGrp = append(errGrp, errors.New("channel is required"))
	}
	return errors.Join(errGrp...)
}

func New(cfg *Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	exec, err := retry.New(&retry.Config{
		Policy:  cfg.Policy,
		Logger:  &logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		channel: cfg.Channel,
		exec:    exec,
		policy:  exec.Policy(),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// MutateRow applies mutations to one row, retried only when every set cell
// carries an explicit timestamp.
func (c *Client) MutateRow(ctx context.Context, req *bigtable.MutateRowRequest) error {
	return c.exec.Execute(ctx, func(ctx context.Context) error {
		var resp bigtable.MutateRowResponse
		return c.channel.Invoke(ctx, transport.MethodMutateRow, req, &resp)
	}, bigtable.IsRetryableMutation(req))
}

// MutateRows applies a batch of row mutations, retried only when every entry
// is independently idempotency-safe.
func (c *Client) MutateRows(ctx context.Context, req *bigtable.MutateRowsRequest) error {
	return c.exec.Execute(ctx, func(ctx context.Context) error {
		var resp bigtable.MutateRowsResponse
		return c.channel.Invoke(ctx, transport.MethodMutateRows, req, &resp)
	}, bigtable.AreRetryableMutations(req))
}

// CheckAndMutateRow conditionally mutates one row.
func (c *Client) CheckAndMutateRow(ctx context.Context, req *bigtable.CheckAndMutateRowRequest) (*bigtable.CheckAndMutateRowResponse, error) {
	return retry.Value(ctx, c.exec, func(ctx context.Context) (*bigtable.CheckAndMutateRowResponse, error) {
		var resp bigtable.CheckAndMutateRowResponse
		if err := c.channel.Invoke(ctx, transport.MethodCheckAndMutateRow, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}, bigtable.IsRetryableCheckAndMutate(req))
}

// ReadModifyWriteRow transforms a row server-side. The server assigns the
// result's timestamps, so the call is issued exactly once, never retried.
func (c *Client) ReadModifyWriteRow(ctx context.Context, req *bigtable.ReadModifyWriteRowRequest) (*bigtable.Row, error) {
	var row bigtable.Row
	if err := c.channel.Invoke(ctx, transport.MethodReadModifyWriteRow, req, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// SampleRowKeys fetches the table's approximate key-space distribution.
// Always idempotent, always retryable.
func (c *Client) SampleRowKeys(ctx context.Context, table string) ([]bigtable.SamplePoint, error) {
	resp, err := retry.Value(ctx, c.exec, func(ctx context.Context) (*bigtable.SampleRowKeysResponse, error) {
		var resp bigtable.SampleRowKeysResponse
		req := &bigtable.SampleRowKeysRequest{Table: table}
		if err := c.channel.Invoke(ctx, transport.MethodSampleRowKeys, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}, true)
	if err != nil {
		return nil, err
	}
	return resp.Samples, nil
}

// ReadRows returns a scanner over req's rows. With retries enabled the
// scanner survives mid-stream failures by resuming past the last delivered
// key; otherwise a plain one-shot stream reader is returned.
func (c *Client) ReadRows(ctx context.Context, req *bigtable.ReadRowsRequest) (scanner.RowScanner, error) {
	if c.policy.Enabled {
		return scanner.NewResuming(&scanner.ResumingConfig{
			Request:  req,
			Open:     c.openReader,
			Executor: c.exec,
			Logger:   &c.logger,
			Metrics:  c.metrics,
		})
	}
	return c.openReader(ctx, req)
}

// ReadRowsList reads req to completion and returns the rows as one slice.
// The whole read is retried as a unit, which is what bulk reads want: the
// batch either fully resolves or fully fails.
func (c *Client) ReadRowsList(ctx context.Context, req *bigtable.ReadRowsRequest) ([]*bigtable.Row, error) {
	return retry.Value(ctx, c.exec, func(ctx context.Context) ([]*bigtable.Row, error) {
		reader, err := c.openReader(ctx, req)
		if err != nil {
			return nil, err
		}
		defer reader.Close()

		var rows []*bigtable.Row
		for {
			row, err := reader.Next(ctx)
			if err != nil {
				return nil, err
			}
			if row == nil {
				return rows, nil
			}
			rows = append(rows, row)
		}
	}, true)
}

// NewBulkReader returns a point-read batcher for table. The batcher is not
// safe for uncoordinated concurrent use; see bulkread.
func (c *Client) NewBulkReader(table string) (*bulkread.Batcher, error) {
	return bulkread.New(&bulkread.Config{
		Reader:  c,
		Table:   table,
		Logger:  &c.logger,
		Metrics: c.metrics,
	})
}

// NewBulkWriter returns the batch write boundary bound to this client.
func (c *Client) NewBulkWriter() (*bulkwrite.Writer, error) {
	return bulkwrite.New(&bulkwrite.Config{
		Mutator: c,
		Logger:  &c.logger,
	})
}

// NewWorkSource returns a work source partitioning req's key space.
func (c *Client) NewWorkSource(req *bigtable.ReadRowsRequest) (*worksource.Source, error) {
	return worksource.New(&worksource.Config{
		Sampler: c,
		Scans:   c,
		Request: req,
		Logger:  &c.logger,
	})
}

// openReader opens one non-resuming stream reader for req, sized for its
// target kind.
func (c *Client) openReader(ctx context.Context, req *bigtable.ReadRowsRequest) (scanner.RowScanner, error) {
	stream, err := c.channel.OpenStream(ctx, transport.MethodReadRows, req)
	if err != nil {
		return nil, err
	}

	bufferSize := c.policy.StreamingBufferSize
	batchCredit := c.policy.StreamingBatchSize
	if req.IsGet() {
		bufferSize = getBufferSize
		batchCredit = getBatchCredit
	}
	return scanner.NewReader(&scanner.ReaderConfig{
		Stream:            stream,
		BufferSize:        bufferSize,
		BatchCredit:       batchCredit,
		PartialRowTimeout: c.policy.ReadPartialRowTimeout,
		Logger:            &c.logger,
		Metrics:           c.metrics,
	})
}
