package worksource

import (
	"context"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
	"github.com/mgarolera/cloud-bigtable-client/scanner"
)

// Reader consumes one work unit lazily through a start/advance/current
// protocol. Each reader owns its own scanner, so independent readers are safe
// to run on their own goroutines; a single reader is not safe for concurrent
// use.
type Reader struct {
	scans   scans
	request *bigtable.ReadRowsRequest
	scanner scanner.RowScanner
	cur     *bigtable.Row
	err     error
}

// NewReader returns a reader over unit. The scan request inherits the
// source's filter and limits, clipped to the unit's key range.
func (s *Source) NewReader(unit bigtable.WorkUnit) *Reader {
	req := *s.request
	req.Key = nil
	req.Set = nil
	req.Range = bigtable.RowRange{Start: unit.Start, End: unit.End}
	return &Reader{
		scans:   s.scans,
		request: &req,
	}
}

// Start opens the unit's scanner. Must be called once, before Advance.
func (r *Reader) Start(ctx context.Context) error {
	sc, err := r.scans.ReadRows(ctx, r.request)
	if err != nil {
		r.err = err
		return err
	}
	r.scanner = sc
	return nil
}

// Advance moves to the next row, reporting false at the end of the unit or
// on error; Err distinguishes the two.
func (r *Reader) Advance(ctx context.Context) bool {
	if r.err != nil || r.scanner == nil {
		return false
	}
	row, err := r.scanner.Next(ctx)
	if err != nil {
		r.err = err
		return false
	}
	if row == nil {
		return false
	}
	r.cur = row
	return true
}

// Current returns the row the last successful Advance stopped on.
func (r *Reader) Current() *bigtable.Row {
	return r.cur
}

// Err returns the error that terminated the reader, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying scanner.
func (r *Reader) Close() {
	if r.scanner != nil {
		r.scanner.Close()
	}
}
