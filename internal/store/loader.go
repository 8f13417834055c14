package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// StagingSession is the collaborator contract the bulk loader needs: stage a
// record for write-back, force staged writes durable, drop tracking of what
// was written.
type StagingSession interface {
	Stage(rec *Record)
	Flush(ctx context.Context) error
	Release()
	StagedCount() int
}

// BulkLoader inserts a sequence of records while bounding peak memory held by
// the in-flight write session. Every batchSize-th staged record triggers a
// flush-and-release, so at most batchSize records are tracked at once
// regardless of input size. Smaller batches bound memory more tightly at the
// cost of more round-trips.
type BulkLoader struct {
	session StagingSession
}

// NewBulkLoader creates a bulk loader over the given session.
func NewBulkLoader(session StagingSession) *BulkLoader {
	return &BulkLoader{session: session}
}

// BulkInsert validates and inserts all inputs in order, flushing once per
// batchSize staged records plus one trailing flush for any remainder. An
// empty input succeeds with zero flushes. Whatever was flush-and-released
// before a failing step remains durably written; the call itself fails.
func (l *BulkLoader) BulkInsert(ctx context.Context, inputs []RecordInput, batchSize int) error {
	if batchSize < 1 {
		return fmt.Errorf("bulk insert: batch size %d must be >= 1", batchSize)
	}
	if err := validateInputs(inputs); err != nil {
		return err
	}
	if len(inputs) == 0 {
		return nil
	}

	flushes := 0
	records := make([]Record, len(inputs))
	for i, in := range inputs {
		records[i] = in.toRecord()
		l.session.Stage(&records[i])

		// One-based count: the first flush happens only after a full batch
		// has accumulated, never on the first staged record.
		if (i+1)%batchSize == 0 {
			if err := l.session.Flush(ctx); err != nil {
				return err
			}
			l.session.Release()
			flushes++
		}
	}

	// Trailing flush covers any remainder smaller than batchSize.
	if l.session.StagedCount() > 0 {
		if err := l.session.Flush(ctx); err != nil {
			return err
		}
		l.session.Release()
		flushes++
	}

	log.Debug().
		Int("records", len(inputs)).
		Int("batch_size", batchSize).
		Int("flushes", flushes).
		Msg("Bulk insert complete")

	return nil
}
