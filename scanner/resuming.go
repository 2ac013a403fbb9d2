package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/retry"
	"github.com/mgarolera/cloud-bigtable-client/telemetry"
)

// State is the resuming scanner's position in its lifecycle.
type State int32

const (
	// StateActive means rows are flowing from a live reader.
	StateActive State = iota
	// StateRetrying means the last reader broke retryably and a narrowed
	// reissue is pending.
	StateRetrying
	// StateExhausted means the retry budget was consumed without recovering.
	StateExhausted
	// StateDone means the scan completed cleanly.
	StateDone
	// StateFailed means a non-retryable error crossed to the consumer.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OpenFunc obtains a fresh reader for a scan request.
type OpenFunc func(ctx context.Context, req *bigtable.ReadRowsRequest) (RowScanner, error)

// Resuming delivers a scan's rows across transport failures. On a retryable
// stream error it reissues the scan starting strictly after the last fully
// delivered row key, so every row reaches the consumer at most once and in
// strictly increasing key order across resumptions. Single consumer only; the
// cursor is mutated exclusively on the consumption goroutine.
type Resuming struct {
	request *bigtable.ReadRowsRequest
	open    OpenFunc
	exec    *retry.Executor
	policy  retry.Policy
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	sleep   func(ctx context.Context, d time.Duration) error

	state     State
	reader    RowScanner
	lastKey   bigtable.RowKey
	delivered int64
	err       error

	// retry window, opened on the first failure after progress.
	deadline    time.Time
	windowStart time.Time
	backoff     time.Duration
	attempts    int
	lastErr     error
}

type ResumingConfig struct {
	// Request is the original scan descriptor; never mutated, only copied
	// with a narrowed start boundary.
	Request *bigtable.ReadRowsRequest
	// Open obtains a reader for a (possibly narrowed) request. Reissues go
	// through Executor, so Open itself should not retry.
	Open OpenFunc
	// Executor drives reissue attempts and supplies the retry policy.
	Executor *retry.Executor
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Metrics defaults to the noop bundle.
	Metrics *telemetry.Metrics
}

func (c *ResumingConfig) validate() error {
	var errGrp []error
	if c.Request == nil {
		errGrp = append(errGrp, errors.New("request is required"))
	}
	if c.Open == nil {
		errGrp = append(errGrp, errors.New("open func is required"))
	}
	if c.Executor == nil {
		errGrp = append(errGrp, errors.New("executor is required"))
	}
	return errors.Join(errGrp...)
}

// NewResuming returns a scanner for cfg.Request. The first reader is opened
// lazily on the first Next call.
func NewResuming(cfg *ResumingConfig) (*Resuming, error) {
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
	policy := cfg.Executor.Policy()
	logger = logger.With().Str("scan_id", uuid.NewString()).Logger()
	return &Resuming{
		request: cfg.Request,
		open:    cfg.Open,
		exec:    cfg.Executor,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
		sleep:   sleepCtx,
		state:   StateActive,
		backoff: policy.InitialBackoff,
	}, nil
}

// State reports the scanner's current lifecycle state.
func (s *Resuming) State() State {
	return s.state
}

// Next returns the next row, (nil, nil) once the scan is complete, a
// *retry.ExhaustedError once the retry budget is consumed, or the underlying
// error when it is not retryable.
func (s *Resuming) Next(ctx context.Context) (*bigtable.Row, error) {
	for {
		switch s.state {
		case StateDone:
			return nil, nil
		case StateFailed, StateExhausted:
			return nil, s.err
		case StateActive:
			if s.reader == nil {
				// initial open, before any rows have been delivered
				if !s.reopen(ctx, s.request) {
					continue
				}
			}
			row, err := s.reader.Next(ctx)
			if err == nil && row == nil {
				s.toDone()
				return nil, nil
			}
			if err == nil {
				s.lastKey = row.Key
				s.delivered++
				s.resetWindow()
				return row, nil
			}
			s.onReadError(ctx, err)
		case StateRetrying:
			if !s.resume(ctx) {
				continue
			}
		}
	}
}

func (s *Resuming) onReadError(ctx context.Context, err error) {
	s.reader.Close()
	s.reader = nil

	if ctx.Err() != nil {
		s.toFailed(err)
		return
	}
	if !s.policy.Enabled || !retry.Retryable(err) {
		s.toFailed(err)
		return
	}
	// A get delivers at most one row; once it arrived there is nothing
	// left to resume.
	if s.request.IsGet() && s.delivered > 0 {
		s.toDone()
		return
	}
	if s.request.RowLimit > 0 && s.delivered >= s.request.RowLimit {
		s.toDone()
		return
	}
	if s.deadline.IsZero() {
		s.windowStart = time.Now()
		s.deadline = s.windowStart.Add(s.policy.MaxElapsed)
	}
	s.lastErr = err
	s.state = StateRetrying
	s.logger.Debug().Err(err).
		Str("state", s.state.String()).
		Int64("rows_delivered", s.delivered).
		Msg("stream broke, scheduling resumption")
}

// resume reissues the scan past the last delivered key. It reports whether a
// fresh reader is active; on false the state machine has moved to a terminal
// or retriable state and the caller should loop.
func (s *Resuming) resume(ctx context.Context) bool {
	if !time.Now().Before(s.deadline) {
		s.toExhausted()
		return false
	}
	if err := s.sleep(ctx, retry.Jitter(s.backoff)); err != nil {
		s.toFailed(err)
		return false
	}
	s.backoff = min(s.backoff*2, s.policy.MaxBackoff)
	s.attempts++

	req := s.request
	if s.delivered > 0 {
		var remaining int64
		if s.request.RowLimit > 0 {
			remaining = s.request.RowLimit - s.delivered
		}
		req = s.request.WithStartAfter(s.lastKey, remaining)
	}
	if !s.reopen(ctx, req) {
		return false
	}
	s.metrics.ScanResumptions.Add(ctx, 1)
	s.logger.Debug().Int("attempts", s.attempts).Msg("scan resumed")
	return true
}

// reopen obtains a reader through the retrying executor. It reports whether
// the scanner is ACTIVE with a live reader.
func (s *Resuming) reopen(ctx context.Context, req *bigtable.ReadRowsRequest) bool {
	reader, err := retry.Value(ctx, s.exec, func(ctx context.Context) (RowScanner, error) {
		return s.open(ctx, req)
	}, true)
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			s.err = err
			s.state = StateExhausted
		} else {
			s.toFailed(err)
		}
		return false
	}
	s.reader = reader
	s.state = StateActive
	return true
}

func (s *Resuming) resetWindow() {
	s.deadline = time.Time{}
	s.backoff = s.policy.InitialBackoff
	s.attempts = 0
	s.lastErr = nil
}

func (s *Resuming) toDone() {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	s.state = StateDone
	s.logger.Debug().Int64("rows_delivered", s.delivered).Msg("scan complete")
}

func (s *Resuming) toFailed(err error) {
	s.state = StateFailed
	s.err = err
	s.logger.Debug().Err(err).Msg("scan failed")
}

func (s *Resuming) toExhausted() {
	s.state = StateExhausted
	s.err = &retry.ExhaustedError{
		Attempts: s.attempts,
		Elapsed:  time.Since(s.windowStart),
		Last:     s.lastErr,
	}
	s.logger.Debug().Err(s.err).Msg("scan retry budget exhausted")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the current reader. A scan closed before completion reports
// done to subsequent Next calls.
func (s *Resuming) Close() {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	if s.state == StateActive || s.state == StateRetrying {
		s.state = StateDone
	}
}
