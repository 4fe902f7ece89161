package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStation_Normalize(t *testing.T) {
	testCases := []struct {
		name           string
		in             Station
		wantBikes      int
		wantFreeStands int
	}{
		{name: "within capacity", in: Station{BikeStands: 10, AvailableBikes: 4}, wantBikes: 4, wantFreeStands: 6},
		{name: "clamped to capacity", in: Station{BikeStands: 10, AvailableBikes: 999}, wantBikes: 10, wantFreeStands: 0},
		{name: "negative bikes", in: Station{BikeStands: 3, AvailableBikes: -2}, wantBikes: 0, wantFreeStands: 3},
		{name: "negative capacity", in: Station{BikeStands: -5, AvailableBikes: 2}, wantBikes: 0, wantFreeStands: 0},
		{name: "stale derived field is ignored", in: Station{BikeStands: 8, AvailableBikes: 2, AvailableBikeStands: 99}, wantBikes: 2, wantFreeStands: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.in
			s.Normalize()
			assert.Equal(t, tc.wantBikes, s.AvailableBikes)
			assert.Equal(t, tc.wantFreeStands, s.AvailableBikeStands)
			assert.Equal(t, s.BikeStands-s.AvailableBikes, s.AvailableBikeStands)
		})
	}
}

func TestStation_TouchNeverRegresses(t *testing.T) {
	now := time.Date(2025, 11, 6, 12, 0, 0, 0, time.UTC)
	s := Station{}

	s.Touch(now)
	assert.Equal(t, now.UnixMilli(), s.LastUpdate)

	s.Touch(now.Add(-time.Hour))
	assert.Equal(t, now.UnixMilli(), s.LastUpdate, "an earlier clock reading must not move the timestamp back")

	s.Touch(now.Add(time.Second))
	assert.Equal(t, now.Add(time.Second).UnixMilli(), s.LastUpdate)
}

func TestStation_Occupancy(t *testing.T) {
	assert.Equal(t, 0.5, Station{BikeStands: 10, AvailableBikes: 5}.Occupancy())
	assert.Equal(t, 0.0, Station{BikeStands: 0, AvailableBikes: 0}.Occupancy())
}

func TestStation_ApplyUpdateKeepsIdentity(t *testing.T) {
	now := time.Now()
	s := Station{ID: "abc", Number: 7, ContractName: "dublin", Banking: true, Bonus: true}

	s.ApplyUpdate(Station{
		ID: "other", Number: 8, Name: "New", Address: "Addr", Status: "CLOSED",
		BikeStands: 10, AvailableBikes: 999, Position: Position{Lat: 1, Lng: 2},
	}, now)

	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, 7, s.Number)
	assert.Equal(t, "dublin", s.ContractName)
	assert.True(t, s.Banking)
	assert.Equal(t, "New", s.Name)
	assert.Equal(t, 10, s.AvailableBikes)
	assert.Equal(t, 0, s.AvailableBikeStands)
	assert.Equal(t, Position{Lat: 1, Lng: 2}, s.Position)
	assert.Equal(t, now.UnixMilli(), s.LastUpdate)
}

func TestSummarize(t *testing.T) {
	stations := []Station{
		{Status: "OPEN", BikeStands: 10, AvailableBikes: 5},
		{Status: "open", BikeStands: 8, AvailableBikes: 6},
		{Status: "CLOSED", BikeStands: 12, AvailableBikes: 2},
		{Status: "", BikeStands: 4, AvailableBikes: 1},
	}

	sum := Summarize(stations)
	assert.Equal(t, Summary{
		TotalStations:       4,
		TotalBikeStands:     34,
		TotalAvailableBikes: 14,
		OpenStations:        2,
		ClosedStations:      2,
	}, sum)
	assert.Equal(t, Summary{}, Summarize(nil))
}
