// Package preference owns the user preference object: category toggles,
// critical-only filter, section expansion and the dismissed/read id sets.
// All mutation goes through Store; persistence is debounced.
package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"farm-alerts/internal/model"
	"farm-alerts/internal/storage"
)

// DefaultKey is the versioned key of the preference blob.
const DefaultKey = "alertPrefs_v8"

// DefaultDebounceWindow is the quiet period before a write.
const DefaultDebounceWindow = 500 * time.Millisecond

const persistTimeout = 5 * time.Second

// ErrUnknownClearKind is returned when Clear is given something other than
// dismissed or read.
var ErrUnknownClearKind = errors.New("unknown clear kind")

// ParseClearKind converts user input into a model.ClearKind.
func ParseClearKind(s string) (model.ClearKind, error) {
	switch model.ClearKind(strings.ToLower(strings.TrimSpace(s))) {
	case model.ClearDismissed:
		return model.ClearDismissed, nil
	case model.ClearRead:
		return model.ClearRead, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClearKind, s)
}

// Options configures a Store.
type Options struct {
	Key            string           // blob key, DefaultKey when empty
	DebounceWindow time.Duration    // DefaultDebounceWindow when zero
	Clock          func() time.Time // time.Now when nil
	OnPersistError func(err error)  // called once per run of failed writes
}

// Store holds the authoritative in-memory preferences and persists them to a
// storage.KV. Write failures never discard in-memory state.
type Store struct {
	kv        storage.KV
	opts      Options
	logger    zerolog.Logger
	debouncer *Debouncer

	mu      sync.RWMutex
	prefs   *model.Preferences
	failing bool  // a failure notice was already reported
	lastErr error // result of the most recent write

	subMu sync.Mutex
	subs  map[int]chan struct{}
	next  int
}

// NewStore creates a Store holding the default preferences. Call Load to read
// the persisted state.
func NewStore(kv storage.KV, opts Options, logger zerolog.Logger) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Store{
		kv:     kv,
		opts:   opts,
		logger: logger.With().Str("component", "preferences").Logger(),
		prefs:  model.DefaultPreferences(),
		subs:   make(map[int]chan struct{}),
	}
	s.debouncer = NewDebouncer(opts.DebounceWindow, s.persistAsync)
	return s
}

// Load reads the persisted blob, merging it over the defaults. An absent or
// corrupt blob yields the defaults. Load never fails.
func (s *Store) Load(ctx context.Context) *model.Preferences {
	prefs := model.DefaultPreferences()

	data, err := s.kv.Get(ctx, s.opts.Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug().Str("key", s.opts.Key).Msg("no stored preferences, using defaults")
	case err != nil:
		s.logger.Warn().Err(err).Str("key", s.opts.Key).Msg("failed to read preferences, using defaults")
	default:
		decoded, derr := model.DecodePreferences(data)
		if derr != nil {
			s.logger.Warn().Err(derr).Str("key", s.opts.Key).Msg("corrupt preferences, using defaults")
		} else {
			prefs = decoded
		}
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()

	s.notify()
	return prefs.Clone()
}

// Snapshot returns a deep copy of the current preferences.
func (s *Store) Snapshot() *model.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Clone()
}

// Update merges patch into the current preferences and schedules a write.
// Set fields replace the stored value, except SectionsExpanded which is merged
// key by key so a patch for one section leaves the others as they were.
func (s *Store) Update(patch model.PreferencesPatch) *model.Preferences {
	if patch.IsEmpty() {
		return s.Snapshot()
	}

	s.mu.Lock()
	patch.Apply(s.prefs)
	out := s.prefs.Clone()
	s.mu.Unlock()

	s.changed()
	return out
}

// MarkRead adds id to the read set and reports whether it was new.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	added := s.prefs.ReadAlerts.Add(id)
	s.mu.Unlock()

	if added {
		s.changed()
	}
	return added
}

// Dismiss adds id to the dismissed set and reports whether it was new.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	added := s.prefs.DismissedAlerts.Add(id)
	s.mu.Unlock()

	if added {
		s.changed()
	}
	return added
}

// Clear empties the dismissed or read set.
func (s *Store) Clear(kind model.ClearKind) error {
	s.mu.Lock()
	var had bool
	switch kind {
	case model.ClearDismissed:
		had = s.prefs.DismissedAlerts.Reset()
	case model.ClearRead:
		had = s.prefs.ReadAlerts.Reset()
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownClearKind, kind)
	}
	s.mu.Unlock()

	if had {
		s.changed()
	}
	return nil
}

// Flush writes pending changes now, or waits for a write already in progress.
// It returns the error of that write, if any.
func (s *Store) Flush() error {
	if !s.debouncer.Flush() {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Close flushes pending changes and stops the debouncer.
func (s *Store) Close() error {
	err := s.Flush()
	s.debouncer.Stop()
	return err
}

// PersistFailing reports whether the most recent write failed.
func (s *Store) PersistFailing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failing
}

func (s *Store) changed() {
	s.debouncer.Trigger()
	s.notify()
}

func (s *Store) persistAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	s.persist(ctx)
}

// persist writes the current preferences. On failure memory stays
// authoritative; the failure is reported once until a write succeeds again.
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	s.prefs.LastUpdate = s.opts.Clock().UnixMilli()
	data, err := json.Marshal(s.prefs)
	s.mu.Unlock()

	if err == nil {
		err = s.kv.Set(ctx, s.opts.Key, data)
	} else {
		err = fmt.Errorf("encode preferences: %w", err)
	}

	s.mu.Lock()
	s.lastErr = err
	report := err != nil && !s.failing
	recovered := err == nil && s.failing
	s.failing = err != nil
	s.mu.Unlock()

	switch {
	case report:
		s.logger.Error().Err(err).Str("key", s.opts.Key).
			Msg("failed to save preferences, changes are kept for this session only")
		if s.opts.OnPersistError != nil {
			s.opts.OnPersistError(err)
		}
	case recovered:
		s.logger.Info().Str("key", s.opts.Key).Msg("preferences saved again")
	case err == nil:
		s.logger.Debug().Int("bytes", len(data)).Msg("preferences saved")
	}
}

// Subscribe returns a channel signalled after every change and a function
// that cancels the subscription. Signals coalesce while one is pending.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
