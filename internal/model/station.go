package model

import (
	"strings"
	"time"
)

// Station statuses as reported by the upstream feed.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Position is a geographic coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is one bike-share dock location with capacity and live occupancy.
type Station struct {
	ID                  string   `json:"id" gorm:"primaryKey;size:64"`
	Number              int      `json:"number" gorm:"uniqueIndex;not null"`
	ContractName        string   `json:"contract_name" gorm:"size:128"`
	Name                string   `json:"name" gorm:"size:256;not null"`
	Address             string   `json:"address" gorm:"size:512"`
	Position            Position `json:"position" gorm:"embedded;embeddedPrefix:position_"`
	Banking             bool     `json:"banking"`
	Bonus               bool     `json:"bonus"`
	BikeStands          int      `json:"bike_stands" gorm:"not null"`
	AvailableBikeStands int      `json:"available_bike_stands" gorm:"not null"`
	AvailableBikes      int      `json:"available_bikes" gorm:"not null"`
	Status              string   `json:"status" gorm:"size:16;not null"`
	LastUpdate          int64    `json:"last_update" gorm:"not null"` // epoch milliseconds

	// Version is the optimistic-concurrency token of the document store.
	Version int64 `json:"-" gorm:"not null;default:1"`
}

// Occupancy is available bikes over capacity, 0 for a station without stands.
func (s Station) Occupancy() float64 {
	if s.BikeStands <= 0 {
		return 0
	}
	return float64(s.AvailableBikes) / float64(s.BikeStands)
}

// IsOpen reports whether the station status is OPEN, ignoring case.
func (s Station) IsOpen() bool {
	return strings.EqualFold(s.Status, StatusOpen)
}

// LastUpdateTime converts LastUpdate into a UTC time.
func (s Station) LastUpdateTime() time.Time {
	return time.UnixMilli(s.LastUpdate).UTC()
}

// Normalize enforces the capacity invariants and recomputes the derived
// stand count. Occupancy above capacity is clamped, never rejected.
func (s *Station) Normalize() {
	if s.BikeStands < 0 {
		s.BikeStands = 0
	}
	if s.AvailableBikes < 0 {
		s.AvailableBikes = 0
	}
	if s.AvailableBikes > s.BikeStands {
		s.AvailableBikes = s.BikeStands
	}
	s.AvailableBikeStands = s.BikeStands - s.AvailableBikes
}

// Touch stamps the station with the write time. The timestamp never moves
// backwards, even if the wall clock does.
func (s *Station) Touch(now time.Time) {
	ms := now.UnixMilli()
	if ms < s.LastUpdate {
		return
	}
	s.LastUpdate = ms
}

// ApplyUpdate overwrites the client-editable fields with those of u.
// Identity (id, number), feature flags and the contract are kept.
func (s *Station) ApplyUpdate(u Station, now time.Time) {
	s.Name = u.Name
	s.Address = u.Address
	s.Status = u.Status
	s.BikeStands = u.BikeStands
	s.AvailableBikes = u.AvailableBikes
	s.Position = u.Position
	s.Normalize()
	s.Touch(now)
}

// Resize sets a new capacity and occupancy, as the live feed would.
func (s *Station) Resize(stands, bikes int, now time.Time) {
	s.BikeStands = stands
	s.AvailableBikes = bikes
	s.Normalize()
	s.Touch(now)
}
