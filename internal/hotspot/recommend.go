package hotspot

import "github.com/wittawat/incident_map_system/internal/models"

// recommend maps (cluster size, dominant type) to an actionable note for
// patrol planning. The table is deliberately coarse: three count bands,
// with type-specific wording only in the middle band.
func recommend(count int, topTypes []string) string {
	dominant := "misc"
	if len(topTypes) > 0 {
		dominant = topTypes[0]
	}

	switch {
	case count >= 10:
		return "Very high incident frequency in this area - consider adding officers and a fixed watch point"
	case count >= 5:
		switch dominant {
		case models.TypeFire:
			return "Frequent fire reports - stage extinguishing equipment and audit fuel hazards nearby"
		case models.TypeMedical:
			return "Frequent medical emergencies - coordinate with medical units and keep access routes clear"
		case models.TypeAccident:
			return "Frequent accidents - review traffic control, warning signage and street lighting"
		case models.TypeConflict:
			return "Frequent conflicts - increase patrols and preventive presence"
		default:
			return "Moderate incident frequency - increase patrol passes during peak hours"
		}
	default:
		return "Low incident frequency - keep monitoring the trend"
	}
}
