package store

import (
	"context"
	"errors"

	"bikeshare-backend/internal/model"
)

var (
	// ErrNotFound is returned when no station carries the requested number.
	ErrNotFound = errors.New("station not found")
	// ErrDuplicateNumber is returned when a station with the same number already exists.
	ErrDuplicateNumber = errors.New("station number already exists")
	// ErrConcurrentUpdate is returned when a station changed between lookup and replace.
	ErrConcurrentUpdate = errors.New("station was modified concurrently")
)

// Store defines the persistence contract for stations, keyed by the
// business number. Implementations assign the storage id on insert and
// never change it afterwards.
type Store interface {
	// LoadAll returns every station. It may be expensive.
	LoadAll(ctx context.Context) ([]model.Station, error)
	// FindByNumber returns ErrNotFound when the number is unknown.
	FindByNumber(ctx context.Context, number int) (model.Station, error)
	// Insert stores a new station and returns it with its id assigned.
	// It returns ErrDuplicateNumber when the number is taken.
	Insert(ctx context.Context, station model.Station) (model.Station, error)
	// ReplaceByNumber overwrites the station carrying number, keeping its id.
	// A non-zero station version must match the stored one, otherwise
	// ErrConcurrentUpdate is returned.
	ReplaceByNumber(ctx context.Context, number int, station model.Station) (model.Station, error)
	// UpsertAll inserts or overwrites every given station. Stations read at
	// an older version than the stored one are left untouched.
	UpsertAll(ctx context.Context, stations []model.Station) error
}

// BulkMutator is implemented by stores that can apply a mutation to every
// station inside a single critical section.
type BulkMutator interface {
	MutateAll(ctx context.Context, fn func(*model.Station)) error
}

// StationMutator is implemented by stores that can read, modify and write a
// single station inside one critical section.
type StationMutator interface {
	MutateByNumber(ctx context.Context, number int, fn func(*model.Station)) (model.Station, error)
}
