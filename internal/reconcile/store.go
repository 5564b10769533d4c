package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arjnair/dineflow-backend/pkg/logger"
)

const defaultPersistTimeout = 10 * time.Second

// Persister pushes an optimistically-applied local state to the shared store.
type Persister interface {
	Persist(ctx context.Context, state State) error
}

// StoreParams configures the reconciliation store.
type StoreParams struct {
	Logger         *logger.Logger
	Persister      Persister
	PersistTimeout time.Duration
}

// Store keeps the in-memory settlement projection that the admin dashboard
// reads. Two writers feed it: remote snapshots from other sessions and
// optimistic local updates. Snapshots carry a monotonic version so a stale
// one can be detected and discarded instead of clobbering newer local state.
type Store struct {
	logger         *logger.Logger
	persister      Persister
	persistTimeout time.Duration

	mu      sync.RWMutex
	states  map[uuid.UUID]*State
	watched map[uuid.UUID]struct{}

	wg sync.WaitGroup
}

// NewStore builds a reconciliation store.
func NewStore(params StoreParams) (*Store, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := params.PersistTimeout
	if timeout <= 0 {
		timeout = defaultPersistTimeout
	}
	return &Store{
		logger:         params.Logger,
		persister:      params.Persister,
		persistTimeout: timeout,
		states:         make(map[uuid.UUID]*State),
		watched:        make(map[uuid.UUID]struct{}),
	}, nil
}

// Watch registers interest in a restaurant's snapshots. Registration is
// idempotent: re-watching an already-watched restaurant is a no-op and
// reports false, so callers never stack duplicate listeners.
func (s *Store) Watch(restaurantID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watched[restaurantID]; ok {
		return false
	}
	s.watched[restaurantID] = struct{}{}
	return true
}

// Watched reports whether a restaurant has a registered listener.
func (s *Store) Watched(restaurantID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.watched[restaurantID]
	return ok
}

// Seed loads the initial one-shot read into the projection and marks every
// seeded restaurant as watched.
func (s *Store) Seed(states []State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range states {
		state := states[i]
		s.states[state.RestaurantID] = &state
		s.watched[state.RestaurantID] = struct{}{}
	}
}

// Get returns a copy of one restaurant's projected state.
func (s *Store) Get(restaurantID uuid.UUID) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[restaurantID]
	if !ok {
		return State{}, false
	}
	return copyState(state), true
}

// List returns a copy of every projected state.
func (s *Store) List() []State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]State, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, copyState(state))
	}
	return out
}

// ApplySnapshot merges a remote snapshot into the projection. The latest
// snapshot wins unless its version is behind what is already held, in which
// case it is discarded as stale. Snapshots for unwatched restaurants are
// ignored.
func (s *Store) ApplySnapshot(ctx context.Context, doc Document) error {
	state, err := Normalize(doc)
	if err != nil {
		return err
	}

	ctx = s.logger.WithRestaurantID(ctx, state.RestaurantID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watched[state.RestaurantID]; !ok {
		s.logger.Info(ctx, "snapshot ignored: restaurant not watched")
		return nil
	}

	if existing, ok := s.states[state.RestaurantID]; ok && existing.Version > state.Version {
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"held_version":     existing.Version,
			"snapshot_version": state.Version,
		})
		s.logger.Warn(logCtx, "stale snapshot discarded")
		return nil
	}

	s.states[state.RestaurantID] = state
	s.logger.Info(ctx, "snapshot applied")
	return nil
}

// ApplyLocal applies an optimistic local write. The projection is updated
// immediately; persistence to the shared store happens asynchronously. When
// the remote write fails the local state is kept as-is and the failure is
// logged, trading short-term inconsistency for a responsive dashboard. The
// next snapshot for the restaurant supersedes the optimistic value either
// way.
func (s *Store) ApplyLocal(ctx context.Context, state State) {
	ctx = s.logger.WithRestaurantID(ctx, state.RestaurantID.String())

	s.mu.Lock()
	held := state
	s.states[state.RestaurantID] = &held
	s.watched[state.RestaurantID] = struct{}{}
	s.mu.Unlock()

	s.logger.Info(ctx, "local update applied to projection")

	if s.persister == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
		defer cancel()
		if err := s.persister.Persist(persistCtx, state); err != nil {
			s.logger.Error(persistCtx, "async persist failed; projection left as-is", err)
		}
	}()
}

// Flush waits for in-flight asynchronous persists to finish.
func (s *Store) Flush() {
	s.wg.Wait()
}

func copyState(state *State) State {
	copied := *state
	copied.Periods = make(map[string]PeriodState, len(state.Periods))
	for periodKey, period := range state.Periods {
		periodCopy := period
		periodCopy.Payments = append([]PaymentState(nil), period.Payments...)
		copied.Periods[periodKey] = periodCopy
	}
	return copied
}
