package coordinator_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/pkg/aggregate"
	"github.com/absmach/fedrelay/pkg/backup"
	"github.com/absmach/fedrelay/pkg/blob"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
	"github.com/absmach/fedrelay/pkg/history"
	mqttmocks "github.com/absmach/fedrelay/pkg/mqtt/mocks"
	"github.com/absmach/fedrelay/pkg/weights"
)

var errStoreDown = errors.New("store unreachable")

// flakyStore wraps an in-memory store and fails a configurable number of
// Put calls before letting them through.
type flakyStore struct {
	blob.Store

	mu       sync.Mutex
	putFails int
	putCalls int
	getErr   error
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	getErr := f.getErr
	f.mu.Unlock()
	if getErr != nil {
		return nil, getErr
	}

	return f.Store.Get(ctx, key)
}

// Put only interferes with weight payload writes; metadata writes pass
// through untouched.
func (f *flakyStore) Put(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if strings.HasSuffix(key, "/weights") {
		f.mu.Lock()
		f.putCalls++
		fail := f.putCalls <= f.putFails
		f.mu.Unlock()
		if fail {
			return errStoreDown
		}
	}

	return f.Store.Put(ctx, key, value, headers)
}

type memorySink struct {
	mu      sync.Mutex
	records []history.Record
	err     error
}

func (m *memorySink) Append(_ context.Context, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)

	return nil
}

func (m *memorySink) List(_ context.Context, modelName string, offset, limit uint64) (history.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var recs []history.Record
	for _, r := range m.records {
		if r.ModelName == modelName {
			recs = append(recs, r)
		}
	}

	return history.Page{Offset: offset, Limit: limit, Total: uint64(len(recs)), Records: recs}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() coordinator.Config {
	return coordinator.Config{
		LearningRate:  0.5,
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
		BackupEnabled: false,
		AnnounceTopic: "fedrelay/rounds",
	}
}

func newService(t *testing.T, store blob.Store, sink history.Sink, cfg coordinator.Config) coordinator.Service {
	t.Helper()

	svc, err := coordinator.NewService(store, aggregate.NewFedEMA(), sink, nil, nil, testLogger(), cfg)
	require.NoError(t, err)

	return svc
}

func payload(t *testing.T, v weights.Vector) []byte {
	t.Helper()

	data, err := weights.Encode(v)
	require.NoError(t, err)

	return data
}

func submission(t *testing.T, v weights.Vector) coordinator.Submission {
	t.Helper()

	return coordinator.Submission{
		ModelID:       "demo",
		Round:         1,
		ContributorID: "alice",
		Payload:       payload(t, v),
	}
}

func TestSubmitUpdateFirstContribution(t *testing.T) {
	store := blob.NewInMemoryStore()
	sink := &memorySink{}
	svc := newService(t, store, sink, testConfig())

	rec, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{2, 4}))
	require.NoError(t, err)
	assert.Equal(t, "models/demo/weights", rec.Location)
	assert.Equal(t, uint64(1), rec.Round)
	assert.Equal(t, 1, rec.NumUpdates)

	// Without a baseline the merge is the plain mean of one update,
	// regardless of learning rate.
	model, err := svc.GetModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, weights.Vector{2, 4}, model.Weights)
	assert.Equal(t, uint64(1), model.Round)
}

func TestSubmitUpdateMergesWithBaseline(t *testing.T) {
	store := blob.NewInMemoryStore()
	sink := &memorySink{}
	svc := newService(t, store, sink, testConfig())
	ctx := context.Background()

	_, err := svc.SubmitUpdate(ctx, submission(t, weights.Vector{0, 0}))
	require.NoError(t, err)

	sub := submission(t, weights.Vector{2, 2})
	sub.Round = 2
	_, err = svc.SubmitUpdate(ctx, sub)
	require.NoError(t, err)

	// lr=0.5 interpolation halfway between baseline [0,0] and update [2,2].
	model, err := svc.GetModel(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, weights.Vector{1, 1}, model.Weights)
	assert.Equal(t, uint64(2), model.Round)
}

func TestSubmitUpdateFailOpenOnReadError(t *testing.T) {
	store := &flakyStore{Store: blob.NewInMemoryStore(), getErr: errStoreDown}
	sink := &memorySink{}
	svc := newService(t, store, sink, testConfig())

	rec, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1, 1}))
	require.NoError(t, err)
	assert.Equal(t, "models/demo/weights", rec.Location)
}

func TestSubmitUpdateRetriesUntilSuccess(t *testing.T) {
	store := &flakyStore{Store: blob.NewInMemoryStore(), putFails: 2}
	sink := &memorySink{}
	svc := newService(t, store, sink, testConfig())

	_, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1}))
	require.NoError(t, err)
	assert.Equal(t, 3, store.putCalls)

	page, err := sink.List(context.Background(), "demo", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
}

func TestSubmitUpdateRetryExhaustion(t *testing.T) {
	store := &flakyStore{Store: blob.NewInMemoryStore(), putFails: 10}
	sink := &memorySink{}
	svc := newService(t, store, sink, testConfig())

	_, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1}))
	require.ErrorIs(t, err, coordinator.ErrStorageWrite)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Contains(t, err.Error(), "demo")
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 3, store.putCalls)

	// No audit record on failure.
	page, err := sink.List(context.Background(), "demo", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestSubmitUpdateValidation(t *testing.T) {
	svc := newService(t, blob.NewInMemoryStore(), &memorySink{}, testConfig())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*coordinator.Submission)
	}{
		{name: "missing model id", mutate: func(s *coordinator.Submission) { s.ModelID = "" }},
		{name: "zero round", mutate: func(s *coordinator.Submission) { s.Round = 0 }},
		{name: "missing contributor", mutate: func(s *coordinator.Submission) { s.ContributorID = "" }},
		{name: "empty payload", mutate: func(s *coordinator.Submission) { s.Payload = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := submission(t, weights.Vector{1})
			tc.mutate(&sub)
			_, err := svc.SubmitUpdate(ctx, sub)
			assert.ErrorIs(t, err, coordinator.ErrInvalidSubmission)
		})
	}
}

func TestSubmitUpdateMalformedPayload(t *testing.T) {
	svc := newService(t, blob.NewInMemoryStore(), &memorySink{}, testConfig())

	sub := submission(t, weights.Vector{1})
	sub.Payload = []byte{1, 2, 3}
	_, err := svc.SubmitUpdate(context.Background(), sub)
	assert.ErrorIs(t, err, coordinator.ErrInvalidSubmission)
	assert.ErrorIs(t, err, weights.ErrMalformedPayload)
}

func TestSubmitUpdateShapeMismatchAgainstBaseline(t *testing.T) {
	store := blob.NewInMemoryStore()
	svc := newService(t, store, &memorySink{}, testConfig())
	ctx := context.Background()

	_, err := svc.SubmitUpdate(ctx, submission(t, weights.Vector{1, 2}))
	require.NoError(t, err)

	sub := submission(t, weights.Vector{1, 2, 3})
	sub.Round = 2
	_, err = svc.SubmitUpdate(ctx, sub)
	assert.ErrorIs(t, err, weights.ErrShapeMismatch)
}

func TestSubmitUpdateEmptyStoredBaseline(t *testing.T) {
	store := blob.NewInMemoryStore()
	require.NoError(t, store.Put(context.Background(), "models/demo/weights", []byte{}, nil))

	svc := newService(t, store, &memorySink{}, testConfig())

	// An empty stored value counts as no baseline, so the submission lands
	// as a first contribution.
	rec, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{2, 4}))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.NumUpdates)

	model, err := svc.GetModel(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, weights.Vector{2, 4}, model.Weights)
}

func TestSubmitUpdateCorruptBaseline(t *testing.T) {
	store := blob.NewInMemoryStore()
	require.NoError(t, store.Put(context.Background(), "models/demo/weights", []byte{1, 2, 3}, nil))

	svc := newService(t, store, &memorySink{}, testConfig())

	_, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1}))
	assert.ErrorIs(t, err, coordinator.ErrCorruptBaseline)
}

func TestSubmitUpdateHistoryFailureIsNonFatal(t *testing.T) {
	sink := &memorySink{err: errors.New("sink offline")}
	svc := newService(t, blob.NewInMemoryStore(), sink, testConfig())

	_, err := svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1}))
	assert.NoError(t, err)
}

func TestSubmitUpdateWritesBackup(t *testing.T) {
	backups, err := backup.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.BackupEnabled = true
	svc, err := coordinator.NewService(blob.NewInMemoryStore(), aggregate.NewFedEMA(), &memorySink{}, backups, nil, testLogger(), cfg)
	require.NoError(t, err)

	_, err = svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1.5}))
	require.NoError(t, err)

	data, err := backups.Latest("demo")
	require.NoError(t, err)
	v, err := weights.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, weights.Vector{1.5}, v)
}

func TestSubmitUpdateCBOR(t *testing.T) {
	svc := newService(t, blob.NewInMemoryStore(), &memorySink{}, testConfig())

	sub := submission(t, weights.Vector{3, 4})
	data, err := cbor.Marshal(sub)
	require.NoError(t, err)

	rec, err := svc.SubmitUpdateCBOR(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "models/demo/weights", rec.Location)
}

func TestSubmitUpdateCBORMalformed(t *testing.T) {
	svc := newService(t, blob.NewInMemoryStore(), &memorySink{}, testConfig())

	_, err := svc.SubmitUpdateCBOR(context.Background(), []byte{0xff, 0x00})
	assert.ErrorIs(t, err, coordinator.ErrInvalidSubmission)
}

func TestSubmitUpdateAnnouncesRound(t *testing.T) {
	publisher := new(mqttmocks.MockPubSub)
	publisher.On("Publish", mock.Anything, "fedrelay/rounds/demo", mock.Anything).Return(nil)

	svc, err := coordinator.NewService(blob.NewInMemoryStore(), aggregate.NewFedEMA(), &memorySink{}, nil, publisher, testLogger(), testConfig())
	require.NoError(t, err)

	_, err = svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1}))
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}

func TestSubmitUpdateAnnounceFailureIsNonFatal(t *testing.T) {
	publisher := new(mqttmocks.MockPubSub)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc, err := coordinator.NewService(blob.NewInMemoryStore(), aggregate.NewFedEMA(), &memorySink{}, nil, publisher, testLogger(), testConfig())
	require.NoError(t, err)

	_, err = svc.SubmitUpdate(context.Background(), submission(t, weights.Vector{1}))
	assert.NoError(t, err)
}

func TestGetModelNotFound(t *testing.T) {
	svc := newService(t, blob.NewInMemoryStore(), &memorySink{}, testConfig())

	_, err := svc.GetModel(context.Background(), "absent")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

// summingAggregator adds each update onto the baseline. Unlike the EMA it
// makes every lost update observable: if a worker merges against a stale
// baseline the final sum comes up short.
type summingAggregator struct{}

func (summingAggregator) Merge(updates []weights.Vector, baseline weights.Vector, _ float64) (weights.Vector, error) {
	if len(updates) == 0 {
		return nil, aggregate.ErrNoUpdates
	}

	out := make(weights.Vector, len(updates[0]))
	copy(out, baseline)
	for _, u := range updates {
		for i := range u {
			out[i] += u[i]
		}
	}

	return out, nil
}

func TestConcurrentSubmissionsAreSerialized(t *testing.T) {
	store := blob.NewInMemoryStore()
	svc, err := coordinator.NewService(store, summingAggregator{}, &memorySink{}, nil, nil, testLogger(), testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	const workers = 8
	data := payload(t, weights.Vector{1, 1})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := coordinator.Submission{
				ModelID:       "demo",
				Round:         1,
				ContributorID: "worker",
				Payload:       data,
			}
			_, err := svc.SubmitUpdate(ctx, sub)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every one of the 8 increments must survive the interleaving.
	model, err := svc.GetModel(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, weights.Vector{workers, workers}, model.Weights)
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LearningRate = 0

	_, err := coordinator.NewService(blob.NewInMemoryStore(), aggregate.NewFedEMA(), &memorySink{}, nil, nil, testLogger(), cfg)
	assert.Error(t, err)
}
