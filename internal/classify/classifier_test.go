package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wittawat/incident_map_system/internal/models"
)

func TestClassify_KeywordRules(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		wantType string
		wantSev  string
	}{
		{"fire keyword", "Smoke coming out of the dorm kitchen", models.TypeFire, "high"},
		{"accident without injuries", "Two cars in a collision at the gate", models.TypeAccident, "medium"},
		{"accident with injuries", "Motorbike crash, rider looks injured", models.TypeAccident, "high"},
		{"conflict keyword", "A fight broke out near the canteen", models.TypeConflict, "medium"},
		{"medical keyword", "Someone fainted in the library", models.TypeMedical, "high"},
		{"case insensitive", "FIRE near building 7", models.TypeFire, "high"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Classify(tc.text)
			assert.Equal(t, tc.wantType, res.Type)
			assert.Equal(t, tc.wantSev, res.Severity)
			assert.Greater(t, res.Confidence, 0.6)
		})
	}
}

func TestClassify_FallsBackToHelp(t *testing.T) {
	res := Classify("something strange is going on")

	assert.Equal(t, models.TypeHelp, res.Type)
	assert.Equal(t, "medium", res.Severity)
	assert.InDelta(t, 0.6, res.Confidence, 1e-9)
}

func TestClassify_FirstMatchingRuleWins(t *testing.T) {
	// "fire" is listed before "crash"; mixed reports classify as fire.
	res := Classify("a crash followed by fire")

	assert.Equal(t, models.TypeFire, res.Type)
}
