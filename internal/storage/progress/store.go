package progress

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Backend persists a full snapshot of completed item ids.
type Backend interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
	Clear(ctx context.Context) error
}

// Store is the set of item ids known to be committed locally.
// It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	done    map[string]struct{}
	backend Backend
	log     *slog.Logger
}

// Open loads the persisted record once. Any load failure means "no prior
// progress" and is only logged.
func Open(ctx context.Context, backend Backend, log *slog.Logger) *Store {
	s := &Store{
		done:    make(map[string]struct{}),
		backend: backend,
		log:     log.With(slog.String("item", "ProgressStore")),
	}

	ids, err := backend.Load(ctx)
	if err != nil {
		s.log.Warn("Cannot load progress, starting from scratch", slog.Any("error", err))

		return s
	}

	for _, id := range ids {
		s.done[id] = struct{}{}
	}

	if len(s.done) > 0 {
		s.log.Info("Loaded progress", slog.Int("completed", len(s.done)))
	}

	return s
}

func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.done[id]

	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.done)
}

// IDs returns the completed ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedIDs()
}

// MarkDone records id and overwrites the persisted snapshot. A persistence
// failure is logged and does not undo the in-memory update. The write is not
// aborted by cancellation of ctx: the item it records is already committed.
func (s *Store) MarkDone(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done[id] = struct{}{}

	if err := s.backend.Save(context.WithoutCancel(ctx), s.sortedIDs()); err != nil {
		s.log.Error("Cannot save progress", slog.String("id", id), slog.Any("error", err))
	}
}

// Reset forgets all progress, in memory and persisted.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done = make(map[string]struct{})

	return s.backend.Clear(ctx)
}

func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.done))
	for id := range s.done {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
