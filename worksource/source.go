// Package worksource converts a table's approximate key-size distribution
// into balanced, non-overlapping key-range work units, and hands out a lazy
// per-unit row reader so independent workers can consume units in parallel.
package worksource

//go:generate mockgen -destination=./source_mock.go -package=worksource -source=source.go

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/scanner"
)

// sampler fetches the table's sample points. Retrying lives behind it.
type sampler interface {
	SampleRowKeys(ctx context.Context, table string) ([]bigtable.SamplePoint, error)
}

// scans opens row scanners for work-unit ranges.
type scans interface {
	ReadRows(ctx context.Context, req *bigtable.ReadRowsRequest) (scanner.RowScanner, error)
}

// Source is the work-source boundary for one scan over one table. Sample
// points are fetched once and cached for the source's lifetime, so the size
// estimate and the computed work units are idempotent reads.
type Source struct {
	sampler sampler
	scans   scans
	request *bigtable.ReadRowsRequest
	logger  zerolog.Logger

	mu       sync.Mutex
	sampled  bool
	samples  []bigtable.SamplePoint
	estimate int64
	units    map[int64][]bigtable.WorkUnit
}

type Config struct {
	// Sampler fetches sample points for Request's table.
	Sampler sampler
	// Scans opens the per-unit row scanners.
	Scans scans
	// Request is the source scan whose key space is being partitioned.
	Request *bigtable.ReadRowsRequest
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Sampler == nil {
		errGrp = append(errGrp, errors.New("sampler is required"))
	}
	if c.Scans == nil {
		errGrp = append(errGrp, errors.New("scans is required"))
	}
	if c.Request == nil {
		errGrp = append(errGrp, errors.New("request is required"))
	}
	return errors.Join(errGrp...)
}

func New(cfg *Config) (*Source, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Source{
		sampler: cfg.Sampler,
		scans:   cfg.Scans,
		request: cfg.Request,
		logger:  logger,
		units:   make(map[int64][]bigtable.WorkUnit),
	}, nil
}

// samplePoints fetches and caches the table's samples. Only a successful
// fetch is cached; a failed one is retried on the next call.
func (s *Source) samplePoints(ctx context.Context) ([]bigtable.SamplePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sampled {
		return s.samples, nil
	}
	samples, err := s.sampler.SampleRowKeys(ctx, s.request.Table)
	if err != nil {
		return nil, err
	}
	s.samples = samples
	s.sampled = true
	if n := len(samples); n > 0 {
		s.estimate = samples[n-1].OffsetBytes
	}
	s.logger.Debug().Int("samples", len(samples)).
		Int64("estimate_bytes", s.estimate).
		Msg("cached table sample points")
	return s.samples, nil
}

// EstimatedSizeBytes reports the table's estimated total size: the last
// sample's cumulative offset. Idempotent once computed.
func (s *Source) EstimatedSizeBytes(ctx context.Context) (int64, error) {
	if _, err := s.samplePoints(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimate, nil
}

// ComputeWorkUnits partitions the source scan's key space into size-bounded
// units. The result is cached per target size: repeated calls with the same
// target return the identical slice. Units are contiguous, non-overlapping,
// ordered, and together span exactly the scan's boundaries; a span of zero
// estimated bytes still yields one unit so coverage never has gaps.
func (s *Source) ComputeWorkUnits(ctx context.Context, targetUnitSizeBytes int64) ([]bigtable.WorkUnit, error) {
	if targetUnitSizeBytes <= 0 {
		return nil, errors.New("target unit size must be positive")
	}
	samples, err := s.samplePoints(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.units[targetUnitSizeBytes]; ok {
		return cached, nil
	}
	units := partition(samples, s.request.Range, targetUnitSizeBytes)
	s.units[targetUnitSizeBytes] = units
	s.logger.Debug().Int("units", len(units)).
		Int64("target_bytes", targetUnitSizeBytes).
		Msg("computed work units")
	return units, nil
}

// partition clips samples to the scan's boundaries, computes inter-sample
// byte deltas, and splits any span larger than target evenly by byte offset.
func partition(samples []bigtable.SamplePoint, bounds bigtable.RowRange, target int64) []bigtable.WorkUnit {
	scanStart := bounds.Start
	scanEnd := bounds.End
	if len(samples) == 0 {
		// No distribution data: the whole key space is one unsplittable unit.
		return []bigtable.WorkUnit{{Start: scanStart, End: scanEnd}}
	}

	var units []bigtable.WorkUnit
	prev := scanStart
	prevOff := int64(0)
	for _, sample := range samples {
		// Samples entirely before the scan start only move the baseline.
		if sample.Key != nil && scanStart != nil && sample.Key.Compare(scanStart) <= 0 {
			prevOff = sample.OffsetBytes
			continue
		}
		delta := max(sample.OffsetBytes-prevOff, 0)
		if scanEnd != nil && (sample.Key == nil || sample.Key.Compare(scanEnd) >= 0) {
			return append(units, splitSpan(prev, scanEnd, delta, target)...)
		}
		units = append(units, splitSpan(prev, sample.Key, delta, target)...)
		prev = sample.Key
		prevOff = sample.OffsetBytes
	}
	// The final sample's nil key is the unbounded end, so an unbounded scan
	// always terminates here with full coverage.
	return units
}

// splitSpan turns one inter-sample span into ceil(delta/target) units when it
// exceeds the target, estimating interior keys by interpolating between the
// bounding sample keys. Spans with an unbounded side are unsplittable: there
// is no second bounding key to interpolate toward.
func splitSpan(start, end bigtable.RowKey, delta, target int64) []bigtable.WorkUnit {
	if start != nil && end != nil && start.Compare(end) == 0 {
		return nil
	}
	if delta <= target || start == nil || end == nil {
		return []bigtable.WorkUnit{{Start: start, End: end, SizeBytes: delta}}
	}
	n := (delta + target - 1) / target
	per := delta / n

	units := make([]bigtable.WorkUnit, 0, n)
	prev := start
	var used int64
	for i := int64(1); i < n; i++ {
		split := interpolateKey(start, end, i, n)
		// A collapsed interpolation merges its share into the neighbor.
		if split == nil || split.Compare(prev) <= 0 || split.Compare(end) >= 0 {
			continue
		}
		units = append(units, bigtable.WorkUnit{Start: prev, End: split, SizeBytes: per})
		prev = split
		used += per
	}
	return append(units, bigtable.WorkUnit{Start: prev, End: end, SizeBytes: delta - used})
}
