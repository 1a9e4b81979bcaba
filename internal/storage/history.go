package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"farm-alerts/internal/model"
)

// Well-known keys of the two detection history logs.
const (
	DefaultManualHistoryKey = "diseaseAnalysisHistory"
	DefaultLiveHistoryKey   = "liveDetectionHistory"
)

// Manual history caps. A failed write is retried with the reduced cap and then
// with the newest record alone, stripped of its image payloads.
const (
	DefaultManualHistoryLimit = 8
	reducedManualHistoryLimit = 5
)

// HistoryOptions configures a HistoryRepository.
type HistoryOptions struct {
	ManualKey   string
	LiveKey     string
	ManualLimit int
}

// HistoryRepository reads and writes the manual and live detection logs.
// Both logs are stored newest first.
type HistoryRepository struct {
	kv     KV
	opts   HistoryOptions
	logger zerolog.Logger

	mu      sync.Mutex // serialises read-modify-write cycles
	entropy *rand.Rand

	subMu sync.Mutex
	subs  map[int]chan model.HistoryKind
	next  int
}

// NewHistoryRepository creates a repository over kv. Zero option fields take
// their defaults.
func NewHistoryRepository(kv KV, opts HistoryOptions, logger zerolog.Logger) *HistoryRepository {
	if opts.ManualKey == "" {
		opts.ManualKey = DefaultManualHistoryKey
	}
	if opts.LiveKey == "" {
		opts.LiveKey = DefaultLiveHistoryKey
	}
	if opts.ManualLimit <= 0 {
		opts.ManualLimit = DefaultManualHistoryLimit
	}
	return &HistoryRepository{
		kv:      kv,
		opts:    opts,
		logger:  logger.With().Str("component", "history").Logger(),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		subs:    make(map[int]chan model.HistoryKind),
	}
}

// Manual returns the manual analysis log. A missing key yields an empty list
// and a corrupt blob yields an empty list plus a warning.
func (r *HistoryRepository) Manual(ctx context.Context) ([]model.ManualRecord, error) {
	return loadHistory[model.ManualRecord](ctx, r, r.opts.ManualKey)
}

// Live returns the camera-feed analysis log.
func (r *HistoryRepository) Live(ctx context.Context) ([]model.LiveRecord, error) {
	return loadHistory[model.LiveRecord](ctx, r, r.opts.LiveKey)
}

// loadHistory decodes the blob under key. A blob that fails to decode is
// discarded whole, even when some of its records decoded.
func loadHistory[T any](ctx context.Context, r *HistoryRepository, key string) ([]T, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %q: %w", key, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("corrupt history blob, treating as empty")
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// AppendManual stores rec as the newest manual record and returns it with its
// assigned id.
func (r *HistoryRepository) AppendManual(ctx context.Context, rec model.ManualRecord) (model.ManualRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Key() == "" {
		rec.ID = model.FlexString(r.newID())
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	existing, err := r.Manual(ctx)
	if err != nil {
		return rec, err
	}
	history := append([]model.ManualRecord{rec}, existing...)

	err = r.saveManual(ctx, history, r.opts.ManualLimit)
	if errors.Is(err, ErrQuotaExceeded) {
		r.logger.Warn().Int("limit", reducedManualHistoryLimit).Msg("history quota exceeded, keeping fewer records")
		err = r.saveManual(ctx, history, reducedManualHistoryLimit)
	}
	if errors.Is(err, ErrQuotaExceeded) {
		r.logger.Warn().Msg("history quota still exceeded, keeping newest record only")
		minimal := rec
		minimal.VisualizationImage = ""
		minimal.OriginalImage = ""
		err = r.saveManual(ctx, []model.ManualRecord{minimal}, 1)
	}
	if err != nil {
		return rec, err
	}

	r.notify(model.HistoryManual)
	return rec, nil
}

func (r *HistoryRepository) saveManual(ctx context.Context, history []model.ManualRecord, limit int) error {
	if len(history) > limit {
		history = history[:limit]
	}
	return r.save(ctx, r.opts.ManualKey, history)
}

// AppendLive stores recs as the newest live records, in the given order.
func (r *HistoryRepository) AppendLive(ctx context.Context, recs ...model.LiveRecord) ([]model.LiveRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range recs {
		if recs[i].HistoryID == "" {
			recs[i].HistoryID = "history_" + r.newID()
		}
		if recs[i].DriveUploadTime == "" && recs[i].ImageData != nil {
			recs[i].DriveUploadTime = recs[i].ImageData.CreatedTime
		}
		if recs[i].DriveUploadTime == "" {
			recs[i].DriveUploadTime = recs[i].Timestamp
		}
		if recs[i].DriveFileName == "" && recs[i].ImageData != nil {
			recs[i].DriveFileName = recs[i].ImageData.Name
		}
	}

	existing, err := r.Live(ctx)
	if err != nil {
		return nil, err
	}
	history := append(append([]model.LiveRecord{}, recs...), existing...)
	if err := r.save(ctx, r.opts.LiveKey, history); err != nil {
		return nil, err
	}

	r.notify(model.HistoryLive)
	return recs, nil
}

// DeleteLive removes the live record whose historyId (or id) equals key and
// reports whether one was found.
func (r *HistoryRepository) DeleteLive(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Live(ctx)
	if err != nil {
		return false, err
	}
	kept := existing[:0]
	for i := range existing {
		if existing[i].Key() != key {
			kept = append(kept, existing[i])
		}
	}
	if len(kept) == len(existing) {
		return false, nil
	}
	if err := r.save(ctx, r.opts.LiveKey, kept); err != nil {
		return false, err
	}

	r.notify(model.HistoryLive)
	return true, nil
}

// Clear removes one history log entirely.
func (r *HistoryRepository) Clear(ctx context.Context, kind model.HistoryKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.opts.ManualKey
	if kind == model.HistoryLive {
		key = r.opts.LiveKey
	}
	if err := r.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear %s history: %w", kind, err)
	}

	r.notify(kind)
	return nil
}

func (r *HistoryRepository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode history %q: %w", key, err)
	}
	return r.kv.Set(ctx, key, data)
}

func (r *HistoryRepository) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
}

// Subscribe returns a channel that receives the kind of every history mutation
// and a function that cancels the subscription. Notifications are dropped
// while the subscriber has one pending.
func (r *HistoryRepository) Subscribe() (<-chan model.HistoryKind, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.next
	r.next++
	ch := make(chan model.HistoryKind, 1)
	r.subs[id] = ch

	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, id)
	}
}

func (r *HistoryRepository) notify(kind model.HistoryKind) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- kind:
		default:
		}
	}
}
