package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSession records flush cadence and peak staged size without touching
// a database.
type countingSession struct {
	staged     []*Record
	flushes    int
	flushSizes []int
	peakStaged int
	failFlush  error
}

func (c *countingSession) Stage(rec *Record) {
	c.staged = append(c.staged, rec)
	if len(c.staged) > c.peakStaged {
		c.peakStaged = len(c.staged)
	}
}

func (c *countingSession) Flush(ctx context.Context) error {
	if c.failFlush != nil {
		return c.failFlush
	}
	if len(c.staged) == 0 {
		return nil
	}
	c.flushes++
	c.flushSizes = append(c.flushSizes, len(c.staged))
	return nil
}

func (c *countingSession) Release()         { c.staged = nil }
func (c *countingSession) StagedCount() int { return len(c.staged) }

// makeInputs builds n valid inputs with sequential numbers.
func makeInputs(n int) []RecordInput {
	inputs := make([]RecordInput, n)
	for i := range inputs {
		inputs[i] = RecordInput{Number: int64p(int64(i + 1))}
	}
	return inputs
}

func TestBulkLoader_FlushCadence(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		batchSize   int
		wantFlushes int
		wantSizes   []int
	}{
		{"empty input", 0, 5, 0, nil},
		{"exact multiple", 6, 3, 2, []int{3, 3}},
		{"remainder", 7, 3, 3, []int{3, 3, 1}},
		{"batch larger than input", 4, 10, 1, []int{4}},
		{"batch of one", 3, 1, 3, []int{1, 1, 1}},
		{"single record", 1, 50, 1, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &countingSession{}
			loader := NewBulkLoader(session)

			err := loader.BulkInsert(context.Background(), makeInputs(tt.n), tt.batchSize)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFlushes, session.flushes)
			assert.Equal(t, tt.wantSizes, session.flushSizes)
			assert.Equal(t, 0, session.StagedCount())
		})
	}
}

func TestBulkLoader_PeakStagedBoundedByBatchSize(t *testing.T) {
	for _, batchSize := range []int{1, 3, 10, 64} {
		t.Run(fmt.Sprintf("batch_%d", batchSize), func(t *testing.T) {
			session := &countingSession{}
			loader := NewBulkLoader(session)

			err := loader.BulkInsert(context.Background(), makeInputs(100), batchSize)
			require.NoError(t, err)
			assert.LessOrEqual(t, session.peakStaged, batchSize)
		})
	}
}

func TestBulkLoader_InvalidBatchSize(t *testing.T) {
	loader := NewBulkLoader(&countingSession{})

	err := loader.BulkInsert(context.Background(), makeInputs(3), 0)
	require.Error(t, err)

	err = loader.BulkInsert(context.Background(), makeInputs(3), -1)
	require.Error(t, err)
}

func TestBulkLoader_ValidationFailsBeforeStaging(t *testing.T) {
	session := &countingSession{}
	loader := NewBulkLoader(session)

	inputs := []RecordInput{
		{Number: int64p(1), Name: strp("a")},
		{Name: strp("b")}, // missing number at position 1
	}

	err := loader.BulkInsert(context.Background(), inputs, 10)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Position)

	// Validation runs before any staging
	assert.Equal(t, 0, session.flushes)
	assert.Equal(t, 0, session.peakStaged)
}

func TestBulkLoader_FlushErrorAborts(t *testing.T) {
	session := &countingSession{failFlush: &StoreError{Op: "flush", Err: context.DeadlineExceeded}}
	loader := NewBulkLoader(session)

	err := loader.BulkInsert(context.Background(), makeInputs(5), 2)
	require.Error(t, err)
	assert.True(t, IsStore(err))
}

func TestBulkLoader_Integration(t *testing.T) {
	st, cleanup := testStore(t)
	defer cleanup()

	ctx := context.Background()
	loader := NewBulkLoader(NewWriteSession(st))

	inputs := []RecordInput{
		{Number: int64p(10), Name: strp("ten")},
		{Number: int64p(20), Name: strp("twenty")},
		{Number: int64p(30), Name: strp("thirty")},
		{Number: int64p(40)},
		{Number: int64p(50), Name: strp("fifty")},
	}

	require.NoError(t, loader.BulkInsert(ctx, inputs, 2))

	records, err := NewRecordStore(st).FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)

	numbers := make([]int64, len(records))
	for i, rec := range records {
		assert.Greater(t, rec.ID, int64(0))
		numbers[i] = rec.Number
	}
	assert.ElementsMatch(t, []int64{10, 20, 30, 40, 50}, numbers)
}

func TestBulkLoader_EmptyInput_NoWrites(t *testing.T) {
	st, cleanup := testStore(t)
	defer cleanup()

	ctx := context.Background()
	loader := NewBulkLoader(NewWriteSession(st))

	require.NoError(t, loader.BulkInsert(ctx, nil, 5))

	count, err := NewRecordStore(st).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
