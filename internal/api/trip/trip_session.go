package trip

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// session is one open working copy. mu serializes every operation on it so
// each call is atomic with respect to the others.
type session struct {
	mu sync.Mutex

	id      string
	meta    types.Trip // State is not kept current; trip is authoritative
	trip    *planner.Trip
	savedAt time.Time
	// savedVersion is trip.Version() at the last load or save.
	savedVersion uint64

	closed atomic.Bool
}

func newSession(t *types.Trip, ids planner.IDGenerator, maxDays int) *session {
	sess := &session{
		id:      uuid.NewString(),
		meta:    *t,
		trip:    planner.NewTrip(t.State, ids, maxDays),
		savedAt: t.UpdatedAt,
	}
	sess.meta.State = types.TripAggregate{}
	return sess
}

// close marks the session unusable. It reports whether this call closed it.
func (s *session) close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *session) dirty() bool {
	return s.trip.Version() != s.savedVersion
}

func (s *session) state(maxDays int) SessionState {
	return SessionState{
		TripID:         s.meta.ID,
		Name:           s.meta.Name,
		TravelStyle:    s.meta.TravelStyle,
		Version:        s.trip.Version(),
		Dirty:          s.dirty(),
		ActiveDay:      s.trip.Drag().ActiveDay(),
		TimeAware:      s.trip.Drag().TimeAware(),
		MaxDays:        maxDays,
		Days:           s.trip.Days(),
		SavedLocations: s.trip.SavedLocations(),
		SavedAt:        s.savedAt,
	}
}

func (s *session) snapshot() types.Trip {
	t := s.meta
	t.State = s.trip.Aggregate()
	return t
}

func sessionKey(tripID uuid.UUID) string { return tripID.String() }

func (s *ServiceImpl) newSessionCache() *cache.Cache {
	c := cache.New(s.cfg.SessionTTL, sessionJanitorInterval)
	c.OnEvicted(func(key string, v interface{}) {
		sess, ok := v.(*session)
		if !ok || !sess.close() {
			return
		}
		s.metrics.ActiveSessions.Add(context.Background(), -1)
		s.logger.Info("Editing session closed", slog.String("tripID", key), slog.Bool("unsaved_changes", sess.dirty()))
	})
	return c
}

// lookupSession returns the open session of tripID without loading one.
func (s *ServiceImpl) lookupSession(userID, tripID uuid.UUID) (*session, bool) {
	v, ok := s.sessions.Get(sessionKey(tripID))
	if !ok {
		return nil, false
	}
	sess := v.(*session)
	if sess.closed.Load() || sess.meta.UserID != userID {
		return nil, false
	}
	return sess, true
}

// acquireSession returns the open session of tripID, loading the trip from
// the repository when there is none. created reports a fresh load.
func (s *ServiceImpl) acquireSession(ctx context.Context, userID, tripID uuid.UUID) (sess *session, created bool, err error) {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	if v, ok := s.sessions.Get(sessionKey(tripID)); ok {
		existing := v.(*session)
		if existing.meta.UserID != userID {
			return nil, false, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		if !existing.closed.Load() {
			return existing, false, nil
		}
	}

	t, err := s.repo.GetTrip(ctx, tripID, userID)
	if err != nil {
		return nil, false, err
	}
	sess = newSession(t, s.ids, s.cfg.MaxDays)
	s.sessions.Set(sessionKey(tripID), sess, cache.DefaultExpiration)
	s.metrics.ActiveSessions.Add(ctx, 1)
	return sess, true, nil
}

// dropSession closes and forgets the session of tripID.
func (s *ServiceImpl) dropSession(ctx context.Context, userID, tripID uuid.UUID) bool {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	v, ok := s.sessions.Get(sessionKey(tripID))
	if !ok {
		return false
	}
	sess := v.(*session)
	if sess.meta.UserID != userID {
		return false
	}
	closedNow := sess.close()
	if closedNow {
		s.metrics.ActiveSessions.Add(ctx, -1)
	}
	s.sessions.Delete(sessionKey(tripID))
	return closedNow
}

// withSession runs fn on the locked session of tripID and slides its expiry.
// A session closed while waiting for the lock is reloaded once.
func (s *ServiceImpl) withSession(ctx context.Context, userID, tripID uuid.UUID, fn func(sess *session) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		sess, _, err := s.acquireSession(ctx, userID, tripID)
		if err != nil {
			return err
		}
		sess.mu.Lock()
		if sess.closed.Load() {
			sess.mu.Unlock()
			continue
		}
		err = fn(sess)
		if !sess.closed.Load() {
			s.sessions.Set(sessionKey(tripID), sess, cache.DefaultExpiration)
		}
		sess.mu.Unlock()
		return err
	}
	return types.ErrSessionNotFound
}

// mutate is withSession for editing operations: the result always carries
// the post-operation state.
func (s *ServiceImpl) mutate(ctx context.Context, userID, tripID uuid.UUID, fn func(sess *session, res *MutationResult) error) (*MutationResult, error) {
	res := &MutationResult{}
	err := s.withSession(ctx, userID, tripID, func(sess *session) error {
		if err := fn(sess, res); err != nil {
			return err
		}
		res.State = sess.state(s.cfg.MaxDays)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
