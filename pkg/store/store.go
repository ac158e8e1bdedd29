package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dipin13k/code-snippets/pkg/metrics"
	"github.com/dipin13k/code-snippets/snippet"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Store is the authoritative snippet collection. It keeps the collection in
// memory and writes every mutation through the history to the backend slot.
type (
	Store struct {
		l            *zap.Logger
		history      *History
		ids          *snippet.IDGenerator
		now          func() time.Time
		onLoaded     func()
		loaded       *atomic.Bool
		snippets     []snippet.Snippet
		snippetsLock sync.RWMutex
	}
	Option func(*Store)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, history *History, opts ...Option) *Store {
	inst := &Store{
		l:        l.Named("store"),
		history:  history,
		ids:      snippet.NewIDGenerator(),
		now:      time.Now,
		loaded:   &atomic.Bool{},
		snippets: []snippet.Snippet{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithIDGenerator(v *snippet.IDGenerator) Option {
	return func(o *Store) {
		o.ids = v
	}
}

func WithClock(v func() time.Time) Option {
	return func(o *Store) {
		o.now = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

func (s *Store) Len() int {
	s.snippetsLock.RLock()
	defer s.snippetsLock.RUnlock()
	return len(s.snippets)
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *Store) OnLoaded(fn func()) {
	s.onLoaded = fn
}

// List returns the collection in insertion order. The returned slice is
// shared with the store and must be treated as read only.
func (s *Store) List() []snippet.Snippet {
	s.snippetsLock.RLock()
	defer s.snippetsLock.RUnlock()
	return s.snippets
}

// GetByID returns a copy of the snippet with the given id. A missing id is
// not an error, the second return value reports whether it was found.
func (s *Store) GetByID(id string) (snippet.Snippet, bool) {
	s.snippetsLock.RLock()
	defer s.snippetsLock.RUnlock()
	for i := range s.snippets {
		if s.snippets[i].ID == id {
			return s.snippets[i].Clone(), true
		}
	}
	return snippet.Snippet{}, false
}

// Add validates the given fields, stamps id and creation time and appends
// the new snippet to the collection. It reports whether the snippet was
// stored, the collection is unchanged on failure.
func (s *Store) Add(ctx context.Context, fields snippet.Fields) (created snippet.Snippet, ok bool) {
	start := time.Now()
	defer func() { observeMutation("add", start, ok) }()

	if err := fields.Validate(); err != nil {
		s.l.Warn("rejecting invalid snippet", zap.Error(err))
		return snippet.Snippet{}, false
	}

	s.snippetsLock.Lock()
	defer s.snippetsLock.Unlock()

	created = snippet.Snippet{
		ID:          s.ids.Next(),
		Title:       fields.Title,
		Language:    fields.Language,
		Tags:        append([]string{}, fields.Tags...),
		Description: fields.Description,
		Code:        fields.Code,
		CreatedAt:   s.now(),
	}

	next := make([]snippet.Snippet, 0, len(s.snippets)+1)
	next = append(next, s.snippets...)
	next = append(next, created)

	if !s.persist(ctx, next) {
		return snippet.Snippet{}, false
	}
	s.l.Debug("added snippet", zap.String("id", created.ID), zap.String("title", created.Title))
	return created, true
}

// Update merges the patch over the snippet with the given id and stamps the
// update time. Id and creation time cannot be changed. An unknown id reports
// failure without side effects.
func (s *Store) Update(ctx context.Context, id string, patch snippet.Patch) (updated snippet.Snippet, ok bool) {
	start := time.Now()
	defer func() { observeMutation("update", start, ok) }()

	s.snippetsLock.Lock()
	defer s.snippetsLock.Unlock()

	index := -1
	for i := range s.snippets {
		if s.snippets[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.l.Info("update for unknown snippet", zap.String("id", id))
		return snippet.Snippet{}, false
	}

	updated = s.snippets[index].Clone()
	patch.Apply(&updated)
	updatedAt := s.now()
	updated.UpdatedAt = &updatedAt

	next := make([]snippet.Snippet, len(s.snippets))
	copy(next, s.snippets)
	next[index] = updated

	if !s.persist(ctx, next) {
		return snippet.Snippet{}, false
	}
	s.l.Debug("updated snippet", zap.String("id", id))
	return updated, true
}

// Delete removes the snippet with the given id. An unknown id reports
// failure without touching the backend.
func (s *Store) Delete(ctx context.Context, id string) (ok bool) {
	start := time.Now()
	defer func() { observeMutation("delete", start, ok) }()

	s.snippetsLock.Lock()
	defer s.snippetsLock.Unlock()

	next := make([]snippet.Snippet, 0, len(s.snippets))
	found := false
	for _, sn := range s.snippets {
		if sn.ID == id {
			found = true
			continue
		}
		next = append(next, sn)
	}
	if !found {
		s.l.Info("delete for unknown snippet", zap.String("id", id))
		return false
	}

	if !s.persist(ctx, next) {
		return false
	}
	s.l.Debug("deleted snippet", zap.String("id", id))
	return true
}

// Search returns all snippets matching the query in insertion order. An
// empty query matches the whole collection.
func (s *Store) Search(query string) []snippet.Snippet {
	s.snippetsLock.RLock()
	defer s.snippetsLock.RUnlock()

	results := make([]snippet.Snippet, 0, len(s.snippets))
	for i := range s.snippets {
		if s.snippets[i].Matches(query) {
			results = append(results, s.snippets[i].Clone())
		}
	}
	return results
}

// Tags returns the distinct tags of the collection in lexicographic order.
func (s *Store) Tags() []string {
	s.snippetsLock.RLock()
	defer s.snippetsLock.RUnlock()

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for i := range s.snippets {
		for _, tag := range s.snippets[i].Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// Export returns the canonical serialization of the collection, the same
// bytes the backend slot holds after a successful mutation.
func (s *Store) Export() string {
	s.snippetsLock.RLock()
	defer s.snippetsLock.RUnlock()

	data, err := snippet.Encode(s.snippets)
	if err != nil {
		s.l.Error("failed to encode collection", zap.Error(err))
		return "[]"
	}
	return string(data)
}

// WriteExport writes the whole collection to the provided writer. It serves
// from the in-memory collection, falling back to storage when not loaded yet.
// The result is wrapped as service response, e.g: {"reply": <collection>}
func (s *Store) WriteExport(ctx context.Context, w io.Writer) error {
	var data []byte
	if s.Loaded() {
		data = []byte(s.Export())
	} else {
		// not loaded yet, serve the slot bytes directly
		slot, err := s.history.GetCurrent(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to read collection from storage")
		}
		data = slot
	}

	if _, err := w.Write([]byte(`{"reply":`)); err != nil {
		return fmt.Errorf("failed to write collection JSON prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write collection JSON data: %w", err)
	}
	if _, err := w.Write([]byte(`}`)); err != nil {
		return fmt.Errorf("failed to write collection JSON suffix: %w", err)
	}
	return nil
}

// Import parses an exported collection and replaces the current one with it.
// The whole import is rejected when the data is not a JSON array, a record
// misses a required field or two records share an id. Records without an id
// receive a generated one. The collection is unchanged on failure.
func (s *Store) Import(ctx context.Context, raw string) (ok bool) {
	start := time.Now()
	defer func() { observeMutation("import", start, ok) }()

	l := s.l.With(zap.String("run_id", uuid.New().String()))

	incoming, err := snippet.Decode([]byte(raw))
	if err != nil {
		l.Warn("rejecting import", zap.Error(err))
		return false
	}

	var errs error
	seen := make(map[string]struct{}, len(incoming))
	for i := range incoming {
		if err := incoming[i].Validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "record %d", i))
			continue
		}
		if id := incoming[i].ID; id != "" {
			if _, exists := seen[id]; exists {
				errs = multierr.Append(errs, errors.Errorf("record %d: duplicate id %q", i, id))
				continue
			}
			seen[id] = struct{}{}
		}
	}
	if errs != nil {
		l.Warn("rejecting import",
			zap.Int("num_records", len(incoming)),
			zap.Error(errs),
		)
		return false
	}

	s.snippetsLock.Lock()
	defer s.snippetsLock.Unlock()

	next := make([]snippet.Snippet, len(incoming))
	copy(next, incoming)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = s.ids.Next()
		}
		if next[i].CreatedAt.IsZero() {
			next[i].CreatedAt = s.now()
		}
	}

	if !s.persist(ctx, next) {
		return false
	}
	l.Info("import complete", zap.Int("num_snippets", len(next)))
	return true
}

// Start restores the collection from the backend slot and blocks until the
// context ends. A missing slot bootstraps an empty collection, an unreadable
// or unparseable one is left in place and an empty collection is served.
func (s *Store) Start(ctx context.Context) error {
	l := s.l.Named("start")

	l.Debug("trying to restore previous collection")
	s.load(ctx)

	if !s.Loaded() {
		s.loaded.Store(true)
		l.Info("initial load complete")
		if s.onLoaded != nil {
			s.onLoaded()
		}
	}

	<-ctx.Done()
	l.Debug("routine canceled", zap.Error(ctx.Err()))
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Store) load(ctx context.Context) {
	l := s.l.Named("load").With(zap.String("run_id", uuid.New().String()))

	data, err := s.history.GetCurrent(ctx)

	s.snippetsLock.Lock()
	defer s.snippetsLock.Unlock()

	switch {
	case errors.Is(err, os.ErrNotExist):
		l.Info("collection slot does not exist, bootstrapping empty collection")
		if !s.persist(ctx, []snippet.Snippet{}) {
			l.Error("failed to bootstrap empty collection")
		}
	case err != nil:
		l.Warn("could not read collection slot, serving empty collection", zap.Error(err))
		s.snippets = []snippet.Snippet{}
	default:
		snippets, errDecode := snippet.Decode(data)
		if errDecode != nil {
			// serve empty but leave the slot in place, backups may still hold good data
			l.Warn("could not parse collection slot, serving empty collection", zap.Error(errDecode))
			s.snippets = []snippet.Snippet{}
			return
		}
		s.snippets = snippets
		metrics.NumSnippetsGauge.WithLabelValues().Set(float64(len(snippets)))
		l.Info("restored collection", zap.Int("num_snippets", len(snippets)))
	}
}

// persist is the single write path to storage. It swaps in the next
// collection, writes its serialization through the history and restores the
// previous collection when the write fails. Callers must hold the write lock.
func (s *Store) persist(ctx context.Context, next []snippet.Snippet) bool {
	data, err := snippet.Encode(next)
	if err != nil {
		s.l.Error("failed to encode collection", zap.Error(err))
		return false
	}

	prev := s.snippets
	s.snippets = next

	if err := s.history.Add(ctx, data); err != nil {
		s.snippets = prev
		s.l.Error("failed to persist collection, restored previous state", zap.Error(err))
		metrics.HistoryPersistFailedCounter.WithLabelValues().Inc()
		return false
	}

	metrics.NumSnippetsGauge.WithLabelValues().Set(float64(len(next)))
	return true
}

func observeMutation(operation string, start time.Time, ok bool) {
	if ok {
		metrics.MutationsCompletedCounter.WithLabelValues(operation).Inc()
	} else {
		metrics.MutationsFailedCounter.WithLabelValues(operation).Inc()
	}
	metrics.MutationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
