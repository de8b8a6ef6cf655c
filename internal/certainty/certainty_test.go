package certainty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_AuditedRecentTableValue(t *testing.T) {
	s := Score(Point{
		Source:             SourceAnnualReport,
		Extraction:         ExtractionExplicitTable,
		Year:               2024,
		CurrentYear:        2025,
		Value:              10.0,
		NearestIndependent: 10.5, // within 15%
	})

	// 0.50 + 0.30 + 0.10 + 0.10
	assert.InDelta(t, 1.0, s, 1e-9)
}

func TestScore_CeilingClamp(t *testing.T) {
	// Same components would exceed 1.0 without the clamp if any bonus grew.
	s := Score(Point{
		Source:             SourceAnnualReport,
		Extraction:         ExtractionExplicitTable,
		Year:               2025,
		CurrentYear:        2025,
		Value:              10.0,
		NearestIndependent: 10.0,
	})
	assert.LessOrEqual(t, s, 1.0)
}

func TestScore_AssetCalcModeled(t *testing.T) {
	s := Score(Point{
		Source:             SourceAssetCalc,
		Extraction:         ExtractionModeled,
		Year:               2020,
		CurrentYear:        2025,
		Value:              30.0,
		NearestIndependent: math.NaN(),
	})

	// 0.30 + 0.15 + 0.05 (age 5) + 0
	assert.InDelta(t, 0.50, s, 1e-9)
}

func TestScore_RecencyBands(t *testing.T) {
	p := Point{
		Source:             SourceSatellite,
		Extraction:         ExtractionModeled,
		CurrentYear:        2025,
		Value:              5.0,
		NearestIndependent: math.NaN(),
	}

	p.Year = 2023 // age 2
	assert.InDelta(t, 0.35+0.15+0.10, Score(p), 1e-9)
	p.Year = 2021 // age 4
	assert.InDelta(t, 0.35+0.15+0.05, Score(p), 1e-9)
	p.Year = 2018 // age 7
	assert.InDelta(t, 0.35+0.15, Score(p), 1e-9)
}

func TestScore_CrossValidationBands(t *testing.T) {
	p := Point{
		Source:      SourceAssetCalc,
		Extraction:  ExtractionModeled,
		Year:        2010,
		CurrentYear: 2025,
		Value:       10.0,
	}

	p.NearestIndependent = 11.0 // ~9% off
	assert.InDelta(t, 0.30+0.15+0.10, Score(p), 1e-9)
	p.NearestIndependent = 13.0 // ~23% off
	assert.InDelta(t, 0.30+0.15+0.05, Score(p), 1e-9)
	p.NearestIndependent = 20.0 // 50% off
	assert.InDelta(t, 0.30+0.15, Score(p), 1e-9)
}

func TestScore_FloorClamp(t *testing.T) {
	s := Score(Point{
		Source:             "spreadsheet_of_unknown_origin",
		Extraction:         ExtractionInferred,
		Year:               2010,
		CurrentYear:        2025,
		Value:              1.0,
		NearestIndependent: math.NaN(),
	})
	assert.InDelta(t, 0.05, s, 1e-9)
}
