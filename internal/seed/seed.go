// Package seed loads the initial station set from a JSON file.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"bikeshare-backend/internal/model"
	"bikeshare-backend/internal/store"
)

// Load reads a JSON array of stations from path. A missing file yields an
// empty set. Derived fields are recomputed on every record.
func Load(path string) ([]model.Station, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Seed file %s not found, starting with no stations", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a JSON array of stations.
func Decode(r io.Reader) ([]model.Station, error) {
	var stations []model.Station
	if err := json.NewDecoder(r).Decode(&stations); err != nil {
		return nil, fmt.Errorf("failed to decode seed stations: %w", err)
	}
	for i := range stations {
		stations[i].Normalize()
	}
	return stations, nil
}

// Populate inserts stations into s when it is empty. Stations whose number
// is already taken are skipped. It returns the number inserted.
func Populate(ctx context.Context, s store.Store, stations []model.Station) (int, error) {
	existing, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Printf("Store already holds %d stations, skipping seed", len(existing))
		return 0, nil
	}

	var inserted int
	for _, st := range stations {
		if _, err := s.Insert(ctx, st); err != nil {
			if errors.Is(err, store.ErrDuplicateNumber) {
				log.Printf("Skipping duplicate seed station %d", st.Number)
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
