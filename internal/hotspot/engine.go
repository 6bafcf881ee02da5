package hotspot

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wittawat/incident_map_system/internal/models"
)

// Defaults for the analysis window. The bounding box covers the campus
// reference area the map is centered on.
const (
	DefaultMinLat    = 16.460
	DefaultMaxLat    = 16.485
	DefaultMinLng    = 102.810
	DefaultMaxLng    = 102.835
	DefaultSinceDays = 30
	DefaultCellSize  = 0.001 // ~100m in coordinate degrees
	DefaultMinCount  = 3
)

// Params control one clustering pass. Callers overlay their overrides on
// DefaultParams; the effective values are echoed back in the result so a
// pass is reproducible.
type Params struct {
	MinLat    float64 `json:"minLat"`
	MaxLat    float64 `json:"maxLat"`
	MinLng    float64 `json:"minLng"`
	MaxLng    float64 `json:"maxLng"`
	SinceDays int     `json:"sinceDays"`
	CellSize  float64 `json:"cellSize"`
	MinCount  int     `json:"minCount"`
}

// DefaultParams returns the documented defaults for every field.
func DefaultParams() Params {
	return Params{
		MinLat:    DefaultMinLat,
		MaxLat:    DefaultMaxLat,
		MinLng:    DefaultMinLng,
		MaxLng:    DefaultMaxLng,
		SinceDays: DefaultSinceDays,
		CellSize:  DefaultCellSize,
		MinCount:  DefaultMinCount,
	}
}

// Validate rejects parameter combinations the grid quantization cannot
// handle. A non-positive cell size is a caller error, never a fallback.
func (p Params) Validate() error {
	if p.CellSize <= 0 {
		return fmt.Errorf("hotspot: cell size must be positive, got %v", p.CellSize)
	}
	if p.SinceDays <= 0 {
		return fmt.Errorf("hotspot: sinceDays must be positive, got %d", p.SinceDays)
	}
	if p.MinCount < 1 {
		return fmt.Errorf("hotspot: minCount must be at least 1, got %d", p.MinCount)
	}
	return nil
}

// TimePeaks is a fixed three-band histogram of member creation hours:
// morning [05:00,12:00), evening [12:00,18:00), night otherwise.
type TimePeaks struct {
	Morning int `json:"morning"`
	Evening int `json:"evening"`
	Night   int `json:"night"`
}

// Hotspot is one surviving grid cell with its summary statistics.
type Hotspot struct {
	CenterLat      float64   `json:"centerLat"`
	CenterLng      float64   `json:"centerLng"`
	Count          int       `json:"count"`
	TopTypes       []string  `json:"topTypes"`
	HeatWeight     float64   `json:"heatWeight"`
	TimePeaks      TimePeaks `json:"timePeaks"`
	Recommendation string    `json:"recommendation"`
}

// Result is the full output of one clustering pass, including the echoed
// effective parameters so callers can reproduce it.
type Result struct {
	Hotspots       []Hotspot `json:"hotspots"`
	TotalIncidents int       `json:"totalIncidents"`
	Params         Params    `json:"params"`
}

type cellKey struct {
	latIdx int64
	lngIdx int64
}

// ComputeHotspots groups incidents into grid cells and ranks the cells.
// It is a pure function over the snapshot it is given: incidents outside
// the bounding box are assumed already excluded by the upstream query,
// only the time cutoff is applied here.
func ComputeHotspots(incidents []*models.Incident, p Params, now time.Time) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cutoff := now.AddDate(0, 0, -p.SinceDays)
	cells := make(map[cellKey][]*models.Incident)
	total := 0
	for _, inc := range incidents {
		if !inc.CreatedAt.After(cutoff) {
			continue
		}
		total++
		key := cellKey{
			latIdx: int64(math.Round(inc.Latitude / p.CellSize)),
			lngIdx: int64(math.Round(inc.Longitude / p.CellSize)),
		}
		cells[key] = append(cells[key], inc)
	}

	hotspots := make([]Hotspot, 0, len(cells))
	for _, group := range cells {
		if len(group) < p.MinCount {
			continue
		}
		hotspots = append(hotspots, summarize(group))
	}

	// Rank by cluster size; the sort is stable so equal-count cells keep
	// their relative order.
	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].Count > hotspots[j].Count
	})

	return &Result{
		Hotspots:       hotspots,
		TotalIncidents: total,
		Params:         p,
	}, nil
}

func summarize(group []*models.Incident) Hotspot {
	count := len(group)

	var sumLat, sumLng float64
	typeCounts := make(map[string]int)
	var peaks TimePeaks
	for _, inc := range group {
		sumLat += inc.Latitude
		sumLng += inc.Longitude
		typeCounts[inc.Type]++
		switch h := inc.CreatedAt.Hour(); {
		case h >= 5 && h < 12:
			peaks.Morning++
		case h >= 12 && h < 18:
			peaks.Evening++
		default:
			peaks.Night++
		}
	}

	topTypes := rankTypes(typeCounts, 3)

	return Hotspot{
		CenterLat:      sumLat / float64(count),
		CenterLng:      sumLng / float64(count),
		Count:          count,
		TopTypes:       topTypes,
		HeatWeight:     heatWeight(count),
		TimePeaks:      peaks,
		Recommendation: recommend(count, topTypes),
	}
}

// rankTypes returns up to limit types by descending frequency. Ties keep
// map iteration order, which is deliberately unspecified.
func rankTypes(counts map[string]int, limit int) []string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.SliceStable(types, func(i, j int) bool {
		return counts[types[i]] > counts[types[j]]
	})
	if len(types) > limit {
		types = types[:limit]
	}
	return types
}

// heatWeight is a saturating normalization: intensity plateaus at 10+
// incidents and never drops below a visible floor.
func heatWeight(count int) float64 {
	return math.Max(0.1, math.Min(1.0, float64(count)/10.0))
}
