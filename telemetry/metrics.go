// Package telemetry is the engine's explicit metrics sink. Components receive
// a *Metrics value instead of bumping package-level counters, so nothing in
// the engine holds process-wide mutable state.
package telemetry

import (
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/mgarolera/cloud-bigtable-client"

// Metrics bundles the counters the engine records. All instruments are
// non-nil once built; with the default noop provider every Add is free.
type Metrics struct {
	// RetryAttempts counts RPC attempts beyond the first.
	RetryAttempts metric.Int64Counter
	// ScanResumptions counts scans reissued after a mid-stream failure.
	ScanResumptions metric.Int64Counter
	// BulkFlushes counts coalesced multi-key read requests issued.
	BulkFlushes metric.Int64Counter
	// RowsDelivered counts complete rows handed to consumers.
	RowsDelivered metric.Int64Counter
}

type Config struct {
	// MeterProvider supplies the meter. Defaults to a noop provider.
	MeterProvider metric.MeterProvider
}

// New builds the counter bundle from cfg.
func New(cfg *Config) (*Metrics, error) {
	provider := cfg.MeterProvider
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(meterName)

	var errGrp []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			errGrp = append(errGrp, err)
		}
		return c
	}

	m := &Metrics{
		RetryAttempts:   counter("rpc.retry.attempts", "RPC attempts beyond the first"),
		ScanResumptions: counter("scan.resumptions", "Scans reissued after a stream failure"),
		BulkFlushes:     counter("bulkread.flushes", "Coalesced multi-key read requests issued"),
		RowsDelivered:   counter("rows.delivered", "Complete rows delivered to consumers"),
	}
	if err := errors.Join(errGrp...); err != nil {
		return nil, err
	}
	return m, nil
}

// Nop returns a bundle that records nothing.
func Nop() *Metrics {
	m, _ := New(&Config{})
	return m
}
