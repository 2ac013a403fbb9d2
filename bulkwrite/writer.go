// Package bulkwrite is the batch write boundary. It gates a sequence of row
// mutations on idempotency safety before anything reaches the wire: only
// full-cell overwrites and deletes may be submitted, because anything else
// cannot be blindly retried by the layers below.
package bulkwrite

//go:generate mockgen -destination=./writer_mock.go -package=bulkwrite -source=writer.go

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
)

// ErrNotIdempotent reports a mutation kind that is unsafe to retry.
// It is a hard rejection, never a transient failure.
var ErrNotIdempotent = errors.New("mutation is not idempotency-safe")

// mutator submits the validated batch; the client facade applies the
// retryability predicate and backoff policy.
type mutator interface {
	MutateRows(ctx context.Context, req *bigtable.MutateRowsRequest) error
}

// Writer validates and submits batches of row mutations.
type Writer struct {
	mutator mutator
	logger  zerolog.Logger
}

type Config struct {
	// Mutator submits validated batches.
	Mutator mutator
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Mutator == nil {
		errGrp = append(errGrp, errors.New("mutator is required"))
	}
	return errors.Join(errGrp...)
}

func New(cfg *Config) (*Writer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Writer{
		mutator: cfg.Mutator,
		logger:  logger,
	}, nil
}

// Apply submits req after rejecting any entry that carries a mutation kind
// outside the idempotency-safe set. Rejection happens before anything is
// sent, so a rejected batch has no partial effects.
func (w *Writer) Apply(ctx context.Context, req *bigtable.MutateRowsRequest) error {
	for _, entry := range req.Entries {
		for _, m := range entry.Mutations {
			if err := checkIdempotent(m); err != nil {
				return fmt.Errorf("row %q: %w", entry.Key, err)
			}
		}
	}
	w.logger.Debug().Int("entries", len(req.Entries)).Msg("submitting mutation batch")
	return w.mutator.MutateRows(ctx, req)
}

func checkIdempotent(m bigtable.Mutation) error {
	switch m.Kind {
	case bigtable.MutationSetCell,
		bigtable.MutationDeleteFromColumn,
		bigtable.MutationDeleteFromFamily,
		bigtable.MutationDeleteRow:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrNotIdempotent, m.Kind)
	}
}
