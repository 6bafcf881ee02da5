package hotspot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wittawat/incident_map_system/internal/models"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func mkIncident(lat, lng float64, incidentType string, createdAt time.Time) *models.Incident {
	return &models.Incident{
		Type:      incidentType,
		Latitude:  lat,
		Longitude: lng,
		CreatedAt: createdAt,
	}
}

// repeatAt builds n identical incidents at one coordinate.
func repeatAt(n int, lat, lng float64, incidentType string, createdAt time.Time) []*models.Incident {
	out := make([]*models.Incident, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mkIncident(lat, lng, incidentType, createdAt))
	}
	return out
}

func TestComputeHotspots_EmptyInput(t *testing.T) {
	result, err := ComputeHotspots(nil, DefaultParams(), testNow)

	require.NoError(t, err)
	assert.Empty(t, result.Hotspots)
	assert.Equal(t, 0, result.TotalIncidents)
	assert.Equal(t, DefaultParams(), result.Params)
}

func TestComputeHotspots_RejectsNonPositiveCellSize(t *testing.T) {
	for _, cellSize := range []float64{0, -0.001} {
		p := DefaultParams()
		p.CellSize = cellSize

		result, err := ComputeHotspots(nil, p, testNow)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "cell size")
	}
}

func TestComputeHotspots_RejectsBadWindowAndThreshold(t *testing.T) {
	p := DefaultParams()
	p.SinceDays = 0
	_, err := ComputeHotspots(nil, p, testNow)
	require.Error(t, err)

	p = DefaultParams()
	p.MinCount = 0
	_, err = ComputeHotspots(nil, p, testNow)
	require.Error(t, err)
}

func TestComputeHotspots_MinCountBoundary(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	p := DefaultParams() // MinCount 3

	// One cell just below the threshold, one exactly at it.
	incidents := repeatAt(2, 16.4700, 102.8200, models.TypeFire, recent)
	incidents = append(incidents, repeatAt(3, 16.4750, 102.8250, models.TypeAccident, recent)...)

	result, err := ComputeHotspots(incidents, p, testNow)

	require.NoError(t, err)
	require.Len(t, result.Hotspots, 1)
	assert.Equal(t, 3, result.Hotspots[0].Count)
	// Below-threshold incidents are still counted in the total.
	assert.Equal(t, 5, result.TotalIncidents)
}

func TestComputeHotspots_MergesNeighboringCoordinatesInOneCell(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	p := DefaultParams()

	// Two coordinates ~10m apart quantize to the same ~100m cell.
	incidents := repeatAt(4, 16.4700, 102.8200, models.TypeAccident, recent)
	incidents = append(incidents, repeatAt(4, 16.4701, 102.8201, models.TypeAccident, recent)...)

	result, err := ComputeHotspots(incidents, p, testNow)

	require.NoError(t, err)
	require.Len(t, result.Hotspots, 1)

	hs := result.Hotspots[0]
	assert.Equal(t, 8, hs.Count)
	assert.InDelta(t, 16.47005, hs.CenterLat, 1e-9)
	assert.InDelta(t, 102.82005, hs.CenterLng, 1e-9)
	assert.InDelta(t, 0.8, hs.HeatWeight, 1e-9)
	assert.Equal(t, []string{models.TypeAccident}, hs.TopTypes)
}

func TestComputeHotspots_HeatWeightSaturates(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	p := DefaultParams()
	p.MinCount = 1

	cases := []struct {
		count  int
		weight float64
	}{
		{1, 0.1},
		{5, 0.5},
		{10, 1.0},
		{50, 1.0},
	}
	for i, tc := range cases {
		// A distinct cell per case, far enough apart to never merge.
		lat := 16.4600 + float64(i)*0.005
		incidents := repeatAt(tc.count, lat, 102.8200, models.TypeOther, recent)

		result, err := ComputeHotspots(incidents, p, testNow)

		require.NoError(t, err)
		require.Len(t, result.Hotspots, 1)
		assert.InDelta(t, tc.weight, result.Hotspots[0].HeatWeight, 1e-9, "count=%d", tc.count)
	}
}

func TestComputeHotspots_TimeWindowCutoff(t *testing.T) {
	p := DefaultParams()
	p.MinCount = 1
	p.SinceDays = 7

	incidents := []*models.Incident{
		mkIncident(16.4700, 102.8200, models.TypeFire, testNow.Add(-24*time.Hour)),
		mkIncident(16.4700, 102.8200, models.TypeFire, testNow.Add(-6*24*time.Hour)),
		// Outside the window, must be ignored entirely.
		mkIncident(16.4700, 102.8200, models.TypeFire, testNow.Add(-8*24*time.Hour)),
		mkIncident(16.4700, 102.8200, models.TypeFire, testNow.AddDate(0, 0, -7)),
	}

	result, err := ComputeHotspots(incidents, p, testNow)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalIncidents)
	require.Len(t, result.Hotspots, 1)
	assert.Equal(t, 2, result.Hotspots[0].Count)
}

func TestComputeHotspots_TimePeakBands(t *testing.T) {
	p := DefaultParams()
	p.MinCount = 1

	day := testNow.Add(-24 * time.Hour)
	at := func(hour int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, 30, 0, 0, time.UTC)
	}

	incidents := []*models.Incident{
		mkIncident(16.4700, 102.8200, models.TypeHelp, at(5)),  // morning, inclusive edge
		mkIncident(16.4700, 102.8200, models.TypeHelp, at(11)), // morning
		mkIncident(16.4700, 102.8200, models.TypeHelp, at(12)), // evening, inclusive edge
		mkIncident(16.4700, 102.8200, models.TypeHelp, at(17)), // evening
		mkIncident(16.4700, 102.8200, models.TypeHelp, at(18)), // night
		mkIncident(16.4700, 102.8200, models.TypeHelp, at(2)),  // night
	}

	result, err := ComputeHotspots(incidents, p, testNow)

	require.NoError(t, err)
	require.Len(t, result.Hotspots, 1)
	assert.Equal(t, TimePeaks{Morning: 2, Evening: 2, Night: 2}, result.Hotspots[0].TimePeaks)
}

func TestComputeHotspots_SortedByCountDescending(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	p := DefaultParams()
	p.MinCount = 1

	incidents := repeatAt(3, 16.4600, 102.8200, models.TypeFire, recent)
	incidents = append(incidents, repeatAt(7, 16.4650, 102.8200, models.TypeAccident, recent)...)
	incidents = append(incidents, repeatAt(5, 16.4700, 102.8200, models.TypeMedical, recent)...)

	result, err := ComputeHotspots(incidents, p, testNow)

	require.NoError(t, err)
	require.Len(t, result.Hotspots, 3)
	assert.Equal(t, 7, result.Hotspots[0].Count)
	assert.Equal(t, 5, result.Hotspots[1].Count)
	assert.Equal(t, 3, result.Hotspots[2].Count)
}

func TestComputeHotspots_OrderIndependent(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	p := DefaultParams()
	p.MinCount = 1

	a := mkIncident(16.4600, 102.8200, models.TypeFire, recent)
	b := mkIncident(16.4650, 102.8200, models.TypeAccident, recent)
	c := mkIncident(16.4650, 102.8201, models.TypeAccident, recent)

	first, err := ComputeHotspots([]*models.Incident{a, b, c}, p, testNow)
	require.NoError(t, err)
	second, err := ComputeHotspots([]*models.Incident{c, a, b}, p, testNow)
	require.NoError(t, err)

	assert.Equal(t, first.TotalIncidents, second.TotalIncidents)
	assert.Equal(t, first.Hotspots, second.Hotspots)
}

func TestComputeHotspots_TopTypesRankedByFrequency(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	p := DefaultParams()

	incidents := repeatAt(4, 16.4700, 102.8200, models.TypeFire, recent)
	incidents = append(incidents, repeatAt(2, 16.4700, 102.8200, models.TypeAccident, recent)...)
	incidents = append(incidents, mkIncident(16.4700, 102.8200, models.TypeMedical, recent))
	incidents = append(incidents, mkIncident(16.4700, 102.8200, models.TypeHelp, recent))

	result, err := ComputeHotspots(incidents, p, testNow)

	require.NoError(t, err)
	require.Len(t, result.Hotspots, 1)

	top := result.Hotspots[0].TopTypes
	require.Len(t, top, 3)
	assert.Equal(t, models.TypeFire, top[0])
	assert.Equal(t, models.TypeAccident, top[1])
	// Third place is a tie between medical and help; either order is valid.
	assert.Contains(t, []string{models.TypeMedical, models.TypeHelp}, top[2])
}

func TestComputeHotspots_EchoesEffectiveParams(t *testing.T) {
	p := Params{
		MinLat:    16.0,
		MaxLat:    17.0,
		MinLng:    102.0,
		MaxLng:    103.0,
		SinceDays: 14,
		CellSize:  0.002,
		MinCount:  2,
	}

	result, err := ComputeHotspots(nil, p, testNow)

	require.NoError(t, err)
	assert.Equal(t, p, result.Params)
}

func TestRecommend_CountBandsAndDominantType(t *testing.T) {
	cases := []struct {
		name     string
		count    int
		topTypes []string
		contains string
	}{
		{"very high", 10, []string{models.TypeOther}, "Very high incident frequency"},
		{"fire band", 6, []string{models.TypeFire}, "fire reports"},
		{"medical band", 5, []string{models.TypeMedical}, "medical emergencies"},
		{"accident band", 7, []string{models.TypeAccident}, "accidents"},
		{"conflict band", 5, []string{models.TypeConflict}, "conflicts"},
		{"moderate default", 5, []string{models.TypeOther}, "Moderate incident frequency"},
		{"low", 4, []string{models.TypeFire}, "Low incident frequency"},
		{"no types", 3, nil, "Low incident frequency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, recommend(tc.count, tc.topTypes), tc.contains)
		})
	}
}
