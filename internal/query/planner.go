// Package query filters, sorts and paginates station sets. It performs no
// I/O and never mutates its input.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bikeshare-backend/internal/model"
)

// Sort keys.
const (
	SortName           = "name"
	SortAvailableBikes = "availableBikes"
	SortOccupancy      = "occupancy"
)

// Sort directions.
const (
	DirAsc  = "asc"
	DirDesc = "desc"
)

// DefaultPageSize applies when no positive page size is requested.
const DefaultPageSize = 10

// Params describes a station list request. Zero values mean "unset".
type Params struct {
	Status   string
	MinBikes *int
	Search   string
	Sort     string
	Dir      string
	Page     int
	PageSize int
}

// Normalize returns the effective parameters: blank filters are cleared,
// the sort key and direction are resolved and paging defaults applied.
func (p Params) Normalize() Params {
	if strings.TrimSpace(p.Status) == "" {
		p.Status = ""
	}
	if strings.TrimSpace(p.Search) == "" {
		p.Search = ""
	}
	p.Sort = resolveSort(p.Sort)
	if strings.EqualFold(strings.TrimSpace(p.Dir), DirDesc) {
		p.Dir = DirDesc
	} else {
		p.Dir = DirAsc
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func resolveSort(key string) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "availablebikes", "available_bikes":
		return SortAvailableBikes
	case "occupancy":
		return SortOccupancy
	default:
		return SortName
	}
}

// Signature is the canonical cache key of the effective parameters. Filters
// that match case-insensitively are folded so equivalent requests collide.
func (p Params) Signature() string {
	p = p.Normalize()
	minBikes := "-"
	if p.MinBikes != nil {
		minBikes = strconv.Itoa(*p.MinBikes)
	}
	return fmt.Sprintf("stations|status=%q|minBikes=%s|q=%q|sort=%s|dir=%s|page=%d|size=%d",
		strings.ToLower(p.Status), minBikes, strings.ToLower(p.Search), p.Sort, p.Dir, p.Page, p.PageSize)
}

// Run applies the filters with AND semantics, sorts stably and returns the
// requested page. A page past the end is empty, not an error.
func Run(stations []model.Station, p Params) []model.Station {
	p = p.Normalize()

	search := strings.ToLower(p.Search)
	filtered := make([]model.Station, 0, len(stations))
	for _, s := range stations {
		if p.Status != "" && !strings.EqualFold(s.Status, p.Status) {
			continue
		}
		if p.MinBikes != nil && s.AvailableBikes < *p.MinBikes {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Address), search) {
			continue
		}
		filtered = append(filtered, s)
	}

	less := lessFunc(p.Sort)
	if p.Dir == DirDesc {
		sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[j], filtered[i]) })
	} else {
		sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })
	}

	return paginate(filtered, p.Page, p.PageSize)
}

func lessFunc(key string) func(a, b model.Station) bool {
	switch key {
	case SortAvailableBikes:
		return func(a, b model.Station) bool { return a.AvailableBikes < b.AvailableBikes }
	case SortOccupancy:
		return func(a, b model.Station) bool { return a.Occupancy() < b.Occupancy() }
	default:
		return func(a, b model.Station) bool { return a.Name < b.Name }
	}
}

func paginate(stations []model.Station, page, size int) []model.Station {
	if page-1 > len(stations)/size {
		return []model.Station{}
	}
	start := (page - 1) * size
	if start >= len(stations) {
		return []model.Station{}
	}
	end := start + size
	if end > len(stations) || end < start {
		end = len(stations)
	}
	return stations[start:end]
}
