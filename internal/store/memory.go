package store

import (
	"context"
	"log"
	"strconv"
	"sync"

	"bikeshare-backend/internal/model"
)

// memoryStore keeps stations in an ordered slice guarded by one mutex.
// Readers receive copies taken under the lock. Every write bumps the
// station version the same way the document store does.
type memoryStore struct {
	mu       sync.Mutex
	stations []model.Station
}

// NewMemoryStore creates a process-lifetime store seeded with stations.
// Seed entries with a number already present are skipped.
func NewMemoryStore(seed []model.Station) Store {
	s := &memoryStore{stations: make([]model.Station, 0, len(seed))}
	for _, st := range seed {
		if s.indexOf(st.Number) >= 0 {
			log.Printf("Skipping duplicate seed station %d", st.Number)
			continue
		}
		st.ID = strconv.Itoa(st.Number)
		st.Version = 1
		s.stations = append(s.stations, st)
	}
	return s
}

// indexOf must be called with mu held.
func (s *memoryStore) indexOf(number int) int {
	for i := range s.stations {
		if s.stations[i].Number == number {
			return i
		}
	}
	return -1
}

func (s *memoryStore) LoadAll(ctx context.Context) ([]model.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Station, len(s.stations))
	copy(out, s.stations)
	return out, nil
}

func (s *memoryStore) FindByNumber(ctx context.Context, number int) (model.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(number)
	if i < 0 {
		return model.Station{}, ErrNotFound
	}
	return s.stations[i], nil
}

func (s *memoryStore) Insert(ctx context.Context, station model.Station) (model.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(station.Number) >= 0 {
		return model.Station{}, ErrDuplicateNumber
	}
	station.ID = strconv.Itoa(station.Number)
	station.Version = 1
	s.stations = append(s.stations, station)
	return station, nil
}

// ReplaceByNumber overwrites the station when the version it carries is
// still current. A zero version replaces unconditionally.
func (s *memoryStore) ReplaceByNumber(ctx context.Context, number int, station model.Station) (model.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(number)
	if i < 0 {
		return model.Station{}, ErrNotFound
	}
	stored := s.stations[i]
	if station.Version != 0 && station.Version != stored.Version {
		return model.Station{}, ErrConcurrentUpdate
	}
	station.ID = stored.ID
	station.Number = number
	station.Version = stored.Version + 1
	station.LastUpdate = max(station.LastUpdate, stored.LastUpdate)
	s.stations[i] = station
	return station, nil
}

// MutateByNumber applies fn to the station carrying number under the write
// lock. Identity is restored afterwards and last_update never moves back.
func (s *memoryStore) MutateByNumber(ctx context.Context, number int, fn func(*model.Station)) (model.Station, error) {
	if err := ctx.Err(); err != nil {
		return model.Station{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(number)
	if i < 0 {
		return model.Station{}, ErrNotFound
	}
	s.mutate(i, fn)
	return s.stations[i], nil
}

// UpsertAll skips stations whose version moved since they were read, so a
// concurrent replace is never overwritten by an older snapshot.
func (s *memoryStore) UpsertAll(ctx context.Context, stations []model.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range stations {
		if i := s.indexOf(st.Number); i >= 0 {
			stored := s.stations[i]
			if st.Version != 0 && st.Version != stored.Version {
				continue
			}
			st.ID = stored.ID
			st.Version = stored.Version + 1
			st.LastUpdate = max(st.LastUpdate, stored.LastUpdate)
			s.stations[i] = st
			continue
		}
		st.ID = strconv.Itoa(st.Number)
		st.Version = 1
		s.stations = append(s.stations, st)
	}
	return nil
}

// MutateAll applies fn to every station while holding the write lock, so
// the pass is atomic with respect to Insert and ReplaceByNumber.
func (s *memoryStore) MutateAll(ctx context.Context, fn func(*model.Station)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.stations {
		s.mutate(i, fn)
	}
	return nil
}

// mutate must be called with mu held.
func (s *memoryStore) mutate(i int, fn func(*model.Station)) {
	prev := s.stations[i]
	fn(&s.stations[i])
	st := &s.stations[i]
	st.ID, st.Number = prev.ID, prev.Number
	st.Version = prev.Version + 1
	st.LastUpdate = max(st.LastUpdate, prev.LastUpdate)
}
