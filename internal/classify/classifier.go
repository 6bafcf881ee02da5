// Package classify holds the rule-based text classifier used to pre-fill
// the report form. It is a stateless keyword lookup, not a model.
package classify

import (
	"strings"

	"github.com/wittawat/incident_map_system/internal/models"
)

// Result is a suggested classification with a rough confidence.
type Result struct {
	Type       string  `json:"type"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
}

type rule struct {
	keywords   []string
	incident   string
	severity   string
	confidence float64
}

// Rule order matters: the first matching rule wins.
var rules = []rule{
	{[]string{"fire", "smoke", "burning", "flames"}, models.TypeFire, "high", 0.85},
	{[]string{"crash", "collision", "accident", "injured"}, models.TypeAccident, "medium", 0.8},
	{[]string{"fight", "assault", "argument", "threat"}, models.TypeConflict, "medium", 0.75},
	{[]string{"sick", "unconscious", "fainted", "breathing"}, models.TypeMedical, "high", 0.85},
}

// Classify suggests an incident type and severity from free text.
// Unrecognized text falls back to a low-confidence help request.
func Classify(text string) Result {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				res := Result{Type: r.incident, Severity: r.severity, Confidence: r.confidence}
				// An accident without reported injuries is less pressing.
				if r.incident == models.TypeAccident && !strings.Contains(lower, "injured") {
					res.Severity = "medium"
				} else if r.incident == models.TypeAccident {
					res.Severity = "high"
				}
				return res
			}
		}
	}
	return Result{Type: models.TypeHelp, Severity: "medium", Confidence: 0.6}
}
