// Package scanner turns a server-streaming row-fragment call into a pull
// sequence of complete rows, and layers scan resumption on top of it so a
// mid-stream transport failure does not restart the whole scan.
package scanner

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/telemetry"
)

// ErrRowTimeout reports that no row fragment arrived within the configured
// partial-row timeout. It classifies as retryable so a resuming scan treats a
// stalled stream like a broken one.
var ErrRowTimeout = status.Error(codes.DeadlineExceeded, "timed out waiting for next row fragment")

// RowScanner is a finite pull sequence of complete rows. Next returns
// (nil, nil) after the final row; it is not safe for concurrent use by more
// than one consumer.
type RowScanner interface {
	Next(ctx context.Context) (*bigtable.Row, error)
	Close()
}

// rowStream is the transport capability a reader consumes.
type rowStream interface {
	Recv() (*bigtable.ReadRowsResponse, error)
	Cancel()
}

type item struct {
	row *bigtable.Row
	err error
}

// StreamReader assembles row fragments from one stream into complete rows
// behind a bounded queue. The transport is granted BatchCredit flow-control
// tokens up front and one more per row the consumer pulls, so buffering never
// grows past the configured bound. A reader is not restartable; resumption
// creates a new one.
type StreamReader struct {
	stream  rowStream
	items   chan item
	tokens  chan struct{}
	closed  chan struct{}
	once    sync.Once
	timeout time.Duration
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	// consumer-side terminal state; single consumer, no locking.
	done    bool
	termErr error
}

type ReaderConfig struct {
	// Stream is the open server-streaming call to drain.
	Stream rowStream
	// BufferSize bounds undelivered rows held by the reader.
	BufferSize int
	// BatchCredit is the initial flow-control grant. At most BufferSize;
	// a single-key get wants 1 because exactly one row is expected.
	BatchCredit int
	// PartialRowTimeout bounds the wait for the next fragment.
	PartialRowTimeout time.Duration
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Metrics defaults to the noop bundle.
	Metrics *telemetry.Metrics
}

func (c *ReaderConfig) validate() error {
	var errGrp []error
	if c.Stream == nil {
		errGrp = append(errGrp, errors.New("stream is required"))
	}
	if c.BufferSize <= 0 {
		errGrp = append(errGrp, errors.New("buffer size must be positive"))
	}
	if c.BatchCredit <= 0 {
		errGrp = append(errGrp, errors.New("batch credit must be positive"))
	}
	if c.BatchCredit > c.BufferSize {
		errGrp = append(errGrp, errors.New("batch credit must not exceed buffer size"))
	}
	if c.PartialRowTimeout <= 0 {
		errGrp = append(errGrp, errors.New("partial row timeout must be positive"))
	}
	return errors.Join(errGrp...)
}

// NewReader starts draining cfg.Stream and returns the reader.
func NewReader(cfg *ReaderConfig) (*StreamReader, error) {
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
	r := &StreamReader{
		stream:  cfg.Stream,
		items:   make(chan item, cfg.BufferSize),
		tokens:  make(chan struct{}, cfg.BufferSize),
		closed:  make(chan struct{}),
		timeout: cfg.PartialRowTimeout,
		logger:  logger,
		metrics: metrics,
	}
	for i := 0; i < cfg.BatchCredit; i++ {
		r.tokens <- struct{}{}
	}
	go r.pump()
	return r, nil
}

// pump receives fragments while credit is available, merges fragments that
// share the preceding row's key, and queues each row once fully assembled.
func (r *StreamReader) pump() {
	defer close(r.items)
	var cur *bigtable.Row
	for {
		select {
		case <-r.tokens:
		case <-r.closed:
			return
		}
		resp, err := r.stream.Recv()
		if err == io.EOF {
			if cur != nil {
				r.emit(item{row: cur})
			}
			return
		}
		if err != nil {
			// A partially assembled row is dropped, never delivered; a
			// resumed scan re-reads it from its own first fragment.
			r.emit(item{err: err})
			return
		}
		switch {
		case cur != nil && cur.Key.Equal(resp.Key):
			cur.Cells = append(cur.Cells, resp.Cells...)
			r.replenish()
		case cur == nil:
			cur = &bigtable.Row{Key: resp.Key, Cells: resp.Cells}
		default:
			if !r.emit(item{row: cur}) {
				return
			}
			cur = &bigtable.Row{Key: resp.Key, Cells: resp.Cells}
		}
	}
}

func (r *StreamReader) emit(it item) bool {
	select {
	case r.items <- it:
		return true
	case <-r.closed:
		return false
	}
}

func (r *StreamReader) replenish() {
	select {
	case r.tokens <- struct{}{}:
	default:
	}
}

// Next blocks for the next complete row. It returns (nil, nil) once the
// stream completed cleanly, the transport's error verbatim when the stream
// broke, or ErrRowTimeout when no fragment arrived in time. Terminal results
// repeat on subsequent calls.
func (r *StreamReader) Next(ctx context.Context) (*bigtable.Row, error) {
	if r.done {
		return nil, r.termErr
	}
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case it, ok := <-r.items:
		if !ok {
			r.done = true
			return nil, nil
		}
		if it.err != nil {
			r.done = true
			r.termErr = it.err
			return nil, it.err
		}
		r.replenish()
		r.metrics.RowsDelivered.Add(ctx, 1)
		return it.row, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		r.done = true
		r.termErr = ErrRowTimeout
		return nil, ErrRowTimeout
	}
}

// Close cancels the underlying call. Safe to call more than once.
func (r *StreamReader) Close() {
	r.once.Do(func() {
		close(r.closed)
		r.stream.Cancel()
	})
}
