package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedrelay/pkg/history"
)

func record(model string, round uint64, id string) history.Record {
	return history.Record{
		Timestamp:      time.Date(2025, 3, 1, 12, 0, int(round), 0, time.UTC),
		ID:             id,
		ModelName:      model,
		NumUpdates:     1,
		ContributorIDs: []string{"alice"},
		Round:          round,
		Config: history.ConfigSnapshot{
			LearningRate:  0.1,
			MaxRetries:    3,
			BackupEnabled: true,
		},
	}
}

func TestFileSinkAppendAndList(t *testing.T) {
	sink, err := history.NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, record("demo", 1, "rec-1")))
	require.NoError(t, sink.Append(ctx, record("demo", 2, "rec-2")))
	require.NoError(t, sink.Append(ctx, record("other", 1, "rec-3")))

	page, err := sink.List(ctx, "demo", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, uint64(1), page.Records[0].Round)
	assert.Equal(t, uint64(2), page.Records[1].Round)
	assert.Equal(t, []string{"alice"}, page.Records[0].ContributorIDs)
}

func TestFileSinkListPagination(t *testing.T) {
	sink, err := history.NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, sink.Append(ctx, record("demo", i, "rec")))
	}

	page, err := sink.List(ctx, "demo", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, uint64(3), page.Records[0].Round)
	assert.Equal(t, uint64(4), page.Records[1].Round)
}

func TestFileSinkListUnknownModel(t *testing.T) {
	sink, err := history.NewFileSink(t.TempDir())
	require.NoError(t, err)

	page, err := sink.List(context.Background(), "absent", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Records)
}

func TestFileSinkRejectsTraversalNames(t *testing.T) {
	sink, err := history.NewFileSink(t.TempDir())
	require.NoError(t, err)

	rec := record("../../etc", 1, "rec")
	err = sink.Append(context.Background(), rec)
	require.NoError(t, err)

	// The sanitized name keeps only safe characters.
	page, err := sink.List(context.Background(), "../../etc", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}

func TestFileSinkRejectsEmptyModelName(t *testing.T) {
	sink, err := history.NewFileSink(t.TempDir())
	require.NoError(t, err)

	err = sink.Append(context.Background(), record("///", 1, "rec"))
	assert.Error(t, err)
}
