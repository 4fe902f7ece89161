package model

// Summary aggregates the whole station set.
type Summary struct {
	TotalStations       int `json:"totalStations"`
	TotalBikeStands     int `json:"totalBikeStands"`
	TotalAvailableBikes int `json:"totalAvailableBikes"`
	OpenStations        int `json:"openStations"`
	ClosedStations      int `json:"closedStations"`
}

// Summarize computes the aggregate counts. Stations that are not OPEN are
// counted as closed.
func Summarize(stations []Station) Summary {
	var sum Summary
	sum.TotalStations = len(stations)
	for _, s := range stations {
		sum.TotalBikeStands += s.BikeStands
		sum.TotalAvailableBikes += s.AvailableBikes
		if s.IsOpen() {
			sum.OpenStations++
		}
	}
	sum.ClosedStations = sum.TotalStations - sum.OpenStations
	return sum
}
