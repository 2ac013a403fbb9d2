package retry

import (
	"errors"
	"time"
)

// Default policy values, applied to zero fields when an executor is built.
const (
	DefaultInitialBackoff        = 5 * time.Millisecond
	DefaultMaxBackoff            = 60 * time.Second
	DefaultMaxElapsed            = 60 * time.Second
	DefaultStreamingBufferSize   = 60
	DefaultStreamingBatchSize    = 30
	DefaultReadPartialRowTimeout = 60 * time.Second
)

// Policy is the retry configuration shared by the executor and the streaming
// readers.
type Policy struct {
	// Enabled turns retries on. When false every request is issued exactly
	// once and streaming reads are not resumed.
	Enabled bool
	// InitialBackoff is the wait before the first retry; it doubles each
	// attempt up to MaxBackoff, with jitter.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxElapsed bounds the cumulative time spent on one logical operation,
	// attempts and backoff included.
	MaxElapsed time.Duration
	// StreamingBufferSize bounds undelivered rows held by a scan reader.
	StreamingBufferSize int
	// StreamingBatchSize is the flow-control credit granted to the transport
	// for a scan; single-key gets always use a credit of one.
	StreamingBatchSize int
	// ReadPartialRowTimeout bounds the wait for the next row fragment.
	ReadPartialRowTimeout time.Duration
}

// DefaultPolicy returns the policy used when callers have no opinion.
func DefaultPolicy() Policy {
	p := Policy{Enabled: true}
	p.applyDefaults()
	return p
}

func (p *Policy) applyDefaults() {
	if p.InitialBackoff == 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = DefaultMaxBackoff
	}
	if p.MaxElapsed == 0 {
		p.MaxElapsed = DefaultMaxElapsed
	}
	if p.StreamingBufferSize == 0 {
		p.StreamingBufferSize = DefaultStreamingBufferSize
	}
	if p.StreamingBatchSize == 0 {
		p.StreamingBatchSize = DefaultStreamingBatchSize
	}
	if p.ReadPartialRowTimeout == 0 {
		p.ReadPartialRowTimeout = DefaultReadPartialRowTimeout
	}
}

func (p *Policy) validate() error {
	var errGrp []error
	if p.InitialBackoff < 0 || p.MaxBackoff < 0 || p.MaxElapsed < 0 {
		errGrp = append(errGrp, errors.New("backoff durations must not be negative"))
	}
	if p.InitialBackoff > p.MaxBackoff {
		errGrp = append(errGrp, errors.New("initial backoff must not exceed max backoff"))
	}
	if p.StreamingBufferSize < 0 || p.StreamingBatchSize < 0 {
		errGrp = append(errGrp, errors.New("streaming sizes must not be negative"))
	}
	if p.StreamingBatchSize > p.StreamingBufferSize {
		errGrp = append(errGrp, errors.New("streaming batch size must not exceed buffer size"))
	}
	return errors.Join(errGrp...)
}
