package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bikeshare-backend/internal/model"
)

// upsertBatchSize bounds the number of rows per upsert statement.
const upsertBatchSize = 100

// upsertColumns are overwritten verbatim by UpsertAll. last_update and
// version get their own assignments.
var upsertColumns = []string{
	"number", "contract_name", "name", "address", "position_lat", "position_lng",
	"banking", "bonus", "bike_stands", "available_bike_stands", "available_bikes",
	"status",
}

// documentStore implements Store on top of a GORM database. Every station
// is a document keyed by a generated id; the number carries a unique index.
type documentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a GORM-backed document store.
func NewDocumentStore(db *gorm.DB) Store {
	return &documentStore{db: db}
}

func (s *documentStore) LoadAll(ctx context.Context) ([]model.Station, error) {
	var stations []model.Station
	if err := s.db.WithContext(ctx).Order("number").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	return stations, nil
}

func (s *documentStore) FindByNumber(ctx context.Context, number int) (model.Station, error) {
	var station model.Station
	err := s.db.WithContext(ctx).Where("number = ?", number).Take(&station).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Station{}, ErrNotFound
	}
	if err != nil {
		return model.Station{}, fmt.Errorf("failed to find station %d: %w", number, err)
	}
	return station, nil
}

func (s *documentStore) exists(ctx context.Context, number int) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Station{}).Where("number = ?", number).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert checks for the number first and then creates the document with a
// fresh id. A racing insert of the same number loses on the unique index.
func (s *documentStore) Insert(ctx context.Context, station model.Station) (model.Station, error) {
	taken, err := s.exists(ctx, station.Number)
	if err != nil {
		return model.Station{}, fmt.Errorf("failed to check station %d: %w", station.Number, err)
	}
	if taken {
		return model.Station{}, ErrDuplicateNumber
	}

	station.ID = uuid.NewString()
	station.Version = 1
	if err := s.db.WithContext(ctx).Create(&station).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Station{}, ErrDuplicateNumber
		}
		// Drivers without error translation report the collision verbatim.
		if taken, checkErr := s.exists(ctx, station.Number); checkErr == nil && taken {
			return model.Station{}, ErrDuplicateNumber
		}
		return model.Station{}, fmt.Errorf("failed to insert station %d: %w", station.Number, err)
	}
	return station, nil
}

// ReplaceByNumber resolves the id for number, then overwrites the document
// only if its version still matches. The expected version is the one carried
// by station, or the one seen during the lookup when station has none.
// last_update never moves back.
func (s *documentStore) ReplaceByNumber(ctx context.Context, number int, station model.Station) (model.Station, error) {
	var current model.Station
	err := s.db.WithContext(ctx).Select("id", "version", "last_update").Where("number = ?", number).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Station{}, ErrNotFound
	}
	if err != nil {
		return model.Station{}, fmt.Errorf("failed to resolve station %d: %w", number, err)
	}

	expected := current.Version
	if station.Version != 0 {
		expected = station.Version
	}
	station.ID = current.ID
	station.Number = number
	station.Version = expected + 1
	station.LastUpdate = max(station.LastUpdate, current.LastUpdate)

	res := s.db.WithContext(ctx).Model(&model.Station{}).
		Where("id = ? AND version = ?", current.ID, expected).
		Updates(documentColumns(station))
	if res.Error != nil {
		return model.Station{}, fmt.Errorf("failed to replace station %d: %w", number, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Station{}, ErrConcurrentUpdate
	}
	return station, nil
}

// UpsertAll writes every station by id, inserting missing documents and
// overwriting existing ones. Stations carrying a version only overwrite a
// document still at that version; the rest are skipped, leaving the newer
// write in place. last_update keeps the later of both values.
func (s *documentStore) UpsertAll(ctx context.Context, stations []model.Station) error {
	if len(stations) == 0 {
		return nil
	}

	var versioned, unversioned []model.Station
	for _, st := range stations {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		if st.Version == 0 {
			st.Version = 1
			unversioned = append(unversioned, st)
			continue
		}
		versioned = append(versioned, st)
	}

	log.Printf("Batch upserting %d stations...", len(stations))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, unversioned, clause.Where{}); err != nil {
			return err
		}
		return upsert(tx, versioned, clause.Where{Exprs: []clause.Expression{
			gorm.Expr("stations.version = excluded.version"),
		}})
	})
}

func upsert(tx *gorm.DB, docs []model.Station, guard clause.Where) error {
	if len(docs) == 0 {
		return nil
	}

	assignments := clause.AssignmentColumns(upsertColumns)
	assignments = append(assignments,
		clause.Assignment{
			Column: clause.Column{Name: "last_update"},
			Value: gorm.Expr("CASE WHEN excluded.last_update > stations.last_update " +
				"THEN excluded.last_update ELSE stations.last_update END"),
		},
		clause.Assignment{
			Column: clause.Column{Name: "version"},
			Value:  gorm.Expr("stations.version + 1"),
		},
	)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: assignments,
		Where:     guard,
	}).CreateInBatches(&docs, upsertBatchSize).Error; err != nil {
		return fmt.Errorf("batch upsert stations failed: %w", err)
	}
	return nil
}

func documentColumns(s model.Station) map[string]any {
	return map[string]any{
		"number":                s.Number,
		"contract_name":         s.ContractName,
		"name":                  s.Name,
		"address":               s.Address,
		"position_lat":          s.Position.Lat,
		"position_lng":          s.Position.Lng,
		"banking":               s.Banking,
		"bonus":                 s.Bonus,
		"bike_stands":           s.BikeStands,
		"available_bike_stands": s.AvailableBikeStands,
		"available_bikes":       s.AvailableBikes,
		"status":                s.Status,
		"last_update":           s.LastUpdate,
		"version":               s.Version,
	}
}
