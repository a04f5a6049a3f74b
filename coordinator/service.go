package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/absmach/fedrelay/pkg/aggregate"
	"github.com/absmach/fedrelay/pkg/backup"
	"github.com/absmach/fedrelay/pkg/blob"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/privacy"
	"github.com/absmach/fedrelay/pkg/retry"
	"github.com/absmach/fedrelay/pkg/weights"
)

const (
	headerRound     = "X-Fedrelay-Round"
	headerUpdatedAt = "X-Fedrelay-Updated-At"
)

// Publisher announces completed aggregations. Announcements are
// best-effort.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg any) error
}

// stateMeta travels next to the weights payload under a separate key. The
// weights payload stays a bare float array so any contributor can read it
// with the standard codec; metadata loss only degrades reporting.
type stateMeta struct {
	Round        uint64    `json:"round"`
	UpdatedAt    time.Time `json:"updated_at"`
	TotalUpdates int       `json:"total_updates"`
}

type service struct {
	store      blob.Store
	aggregator aggregate.Aggregator
	sink       history.Sink
	backups    *backup.Store
	publisher  Publisher
	logger     *slog.Logger
	cfg        Config
	locks      *keyLock
}

// NewService wires a coordinator. backups and publisher may be nil, which
// disables the corresponding best-effort side effects.
func NewService(store blob.Store, aggregator aggregate.Aggregator, sink history.Sink, backups *backup.Store, publisher Publisher, logger *slog.Logger, cfg Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coordinator config: %w", err)
	}

	return &service{
		store:      store,
		aggregator: aggregator,
		sink:       sink,
		backups:    backups,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
		locks:      newKeyLock(),
	}, nil
}

func (svc *service) SubmitUpdate(ctx context.Context, sub Submission) (Receipt, error) {
	if err := sub.Validate(); err != nil {
		return Receipt{}, err
	}

	update, err := weights.Decode(sub.Payload)
	if err != nil {
		return Receipt{}, errors.Join(ErrInvalidSubmission, err)
	}

	// Serialize fetch-merge-write per model so concurrent submissions
	// cannot overwrite each other's merge.
	unlock := svc.locks.lock(sub.ModelID)
	defer unlock()

	baseline, meta, err := svc.fetchBaseline(ctx, sub.ModelID)
	if err != nil {
		return Receipt{}, err
	}

	merged, err := svc.aggregator.Merge([]weights.Vector{update}, baseline, svc.cfg.LearningRate)
	if err != nil {
		return Receipt{}, err
	}

	payload, err := weights.Encode(merged)
	if err != nil {
		return Receipt{}, err
	}

	updatedAt := time.Now().UTC()
	location, err := svc.persist(ctx, sub, payload, updatedAt)
	if err != nil {
		return Receipt{}, err
	}

	svc.writeMeta(ctx, sub, meta, updatedAt)
	svc.record(ctx, sub, updatedAt)
	svc.backUp(ctx, sub, payload)
	svc.announce(ctx, sub, location, updatedAt)

	return Receipt{
		ModelID:    sub.ModelID,
		Round:      sub.Round,
		Location:   location,
		NumUpdates: 1,
		UpdatedAt:  updatedAt,
	}, nil
}

func (svc *service) SubmitUpdateCBOR(ctx context.Context, data []byte) (Receipt, error) {
	var sub Submission
	if err := cbor.Unmarshal(data, &sub); err != nil {
		return Receipt{}, errors.Join(ErrInvalidSubmission, fmt.Errorf("failed to decode CBOR submission: %w", err))
	}

	return svc.SubmitUpdate(ctx, sub)
}

func (svc *service) GetModel(ctx context.Context, modelID string) (GlobalModel, error) {
	if modelID == "" {
		return GlobalModel{}, errors.Join(ErrInvalidSubmission, errors.New("model id is required"))
	}

	payload, err := svc.store.Get(ctx, weightsKey(modelID))
	if err != nil {
		return GlobalModel{}, err
	}

	v, err := weights.Decode(payload)
	if err != nil {
		return GlobalModel{}, errors.Join(ErrCorruptBaseline, err)
	}

	model := GlobalModel{
		ModelID: modelID,
		Weights: v,
	}

	if meta := svc.readMeta(ctx, modelID); meta != nil {
		model.Round = meta.Round
		model.UpdatedAt = meta.UpdatedAt
	}

	return model, nil
}

func (svc *service) History(ctx context.Context, modelID string, offset, limit uint64) (history.Page, error) {
	if modelID == "" {
		return history.Page{}, errors.Join(ErrInvalidSubmission, errors.New("model id is required"))
	}

	return svc.sink.List(ctx, modelID, offset, limit)
}

func (svc *service) EstimatePrivacyCost(_ context.Context, epsilon, delta float64, iterations int, sampleRate float64) (privacy.Cost, error) {
	return privacy.EstimateCost(epsilon, delta, iterations, sampleRate)
}

// fetchBaseline reads the current global state. A missing value or a
// transport error both degrade to "no baseline yet" so a new model can be
// populated even when the store is flaky; only a present-but-undecodable
// payload is fatal.
func (svc *service) fetchBaseline(ctx context.Context, modelID string) (weights.Vector, *stateMeta, error) {
	payload, err := svc.store.Get(ctx, weightsKey(modelID))
	switch {
	case err == nil:
	case errors.Is(err, pkgerrors.ErrNotFound):
		return nil, nil, nil
	default:
		svc.logger.WarnContext(ctx, "Baseline fetch failed, proceeding without baseline",
			slog.String("model_id", modelID),
			slog.Any("error", err),
		)

		return nil, nil, nil
	}

	// An empty value means nothing was aggregated for this model yet.
	if len(payload) == 0 {
		return nil, nil, nil
	}

	baseline, err := weights.Decode(payload)
	if err != nil {
		return nil, nil, errors.Join(ErrCorruptBaseline, err)
	}

	return baseline, svc.readMeta(ctx, modelID), nil
}

// persist writes the merged payload with bounded linear backoff. After the
// final failed attempt the caller receives ErrStorageWrite with enough
// detail to retry externally.
func (svc *service) persist(ctx context.Context, sub Submission, payload []byte, updatedAt time.Time) (string, error) {
	key := weightsKey(sub.ModelID)
	headers := map[string]string{
		headerRound:     strconv.FormatUint(sub.Round, 10),
		headerUpdatedAt: updatedAt.Format(time.RFC3339Nano),
	}

	attempts := 0
	op := func() (string, error) {
		attempts++
		if err := svc.store.Put(ctx, key, payload, headers); err != nil {
			return "", err
		}

		return key, nil
	}

	notify := func(err error, next time.Duration) {
		svc.logger.WarnContext(ctx, "Persist attempt failed, backing off",
			slog.String("model_id", sub.ModelID),
			slog.Uint64("round", sub.Round),
			slog.Int("attempt", attempts),
			slog.String("next_attempt_in", next.String()),
			slog.Any("error", err),
		)
	}

	location, err := retry.Do(ctx, svc.cfg.MaxRetries, svc.cfg.RetryInterval, op, retry.WithNotify(notify))
	if err != nil {
		return "", fmt.Errorf("%w: model %s round %d after %d attempts: %w",
			ErrStorageWrite, sub.ModelID, sub.Round, attempts, err)
	}

	return location, nil
}

func (svc *service) writeMeta(ctx context.Context, sub Submission, prev *stateMeta, updatedAt time.Time) {
	meta := stateMeta{
		Round:        sub.Round,
		UpdatedAt:    updatedAt,
		TotalUpdates: 1,
	}
	if prev != nil {
		meta.TotalUpdates = prev.TotalUpdates + 1
	}

	data, err := json.Marshal(meta)
	if err == nil {
		err = svc.store.Put(ctx, metaKey(sub.ModelID), data, nil)
	}
	if err != nil {
		svc.logger.WarnContext(ctx, "Failed to write model metadata",
			slog.String("model_id", sub.ModelID),
			slog.Any("error", err),
		)
	}
}

func (svc *service) readMeta(ctx context.Context, modelID string) *stateMeta {
	data, err := svc.store.Get(ctx, metaKey(modelID))
	if err != nil {
		return nil
	}

	var meta stateMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		svc.logger.WarnContext(ctx, "Failed to decode model metadata",
			slog.String("model_id", modelID),
			slog.Any("error", err),
		)

		return nil
	}

	return &meta
}

func (svc *service) record(ctx context.Context, sub Submission, updatedAt time.Time) {
	rec := history.Record{
		Timestamp:      updatedAt,
		ID:             uuid.NewString(),
		ModelName:      sub.ModelID,
		NumUpdates:     1,
		ContributorIDs: []string{sub.ContributorID},
		Round:          sub.Round,
		Config: history.ConfigSnapshot{
			LearningRate:  svc.cfg.LearningRate,
			MaxRetries:    svc.cfg.MaxRetries,
			BackupEnabled: svc.cfg.BackupEnabled,
		},
	}

	if err := svc.sink.Append(ctx, rec); err != nil {
		svc.logger.WarnContext(ctx, "Failed to append audit record",
			slog.String("model_id", sub.ModelID),
			slog.Uint64("round", sub.Round),
			slog.Any("error", err),
		)
	}
}

func (svc *service) backUp(ctx context.Context, sub Submission, payload []byte) {
	if !svc.cfg.BackupEnabled || svc.backups == nil {
		return
	}

	if err := svc.backups.Save(sub.ModelID, sub.Round, payload); err != nil {
		svc.logger.WarnContext(ctx, "Failed to write local backup",
			slog.String("model_id", sub.ModelID),
			slog.Uint64("round", sub.Round),
			slog.Any("error", err),
		)
	}
}

func (svc *service) announce(ctx context.Context, sub Submission, location string, updatedAt time.Time) {
	if svc.publisher == nil {
		return
	}

	msg := map[string]any{
		"model_id":   sub.ModelID,
		"round":      sub.Round,
		"location":   location,
		"updated_at": updatedAt,
	}

	if err := svc.publisher.Publish(ctx, svc.cfg.AnnounceTopic+"/"+sub.ModelID, msg); err != nil {
		svc.logger.WarnContext(ctx, "Failed to announce aggregation",
			slog.String("model_id", sub.ModelID),
			slog.Uint64("round", sub.Round),
			slog.Any("error", err),
		)
	}
}

func weightsKey(modelID string) string {
	return "models/" + modelID + "/weights"
}

func metaKey(modelID string) string {
	return "models/" + modelID + "/meta"
}
