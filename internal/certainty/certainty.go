// Package certainty scores individual data points on [0.05, 1.0] from
// provenance, extraction quality, age, and cross-source agreement. The
// score is evaluated independently per point; it never aggregates across
// points.
package certainty

import "math"

// Integration source labels shared with the integrator.
const (
	SourceAnnualReport = "annual_report"
	SourceSatellite    = "climate_trace"
	SourceAssetCalc    = "apa"
)

// Extraction tags how a value got out of its document.
type Extraction string

const (
	// ExtractionExplicitTable: read from a labeled table cell.
	ExtractionExplicitTable Extraction = "explicit_table"
	// ExtractionValidated: inferred from context but checked against an
	// independent figure.
	ExtractionValidated Extraction = "validated_context"
	// ExtractionModeled: produced by a calculation or model.
	ExtractionModeled Extraction = "model_calculated"
	// ExtractionInferred: low-confidence contextual read.
	ExtractionInferred Extraction = "inferred"
)

// Point is one data point to score.
type Point struct {
	Source      string
	Extraction  Extraction
	Year        int
	CurrentYear int
	Value       float64
	// NearestIndependent is the closest value reported for the same
	// company-year by a different source; NaN when no other source covers
	// the pair.
	NearestIndependent float64
}

// Score returns the certainty of a point, clamped to [0.05, 1.0].
func Score(p Point) float64 {
	score := base(p.Source) + quality(p.Extraction) + recency(p.CurrentYear-p.Year) + crossValidation(p.Value, p.NearestIndependent)
	return math.Min(1.0, math.Max(0.05, score))
}

func base(source string) float64 {
	switch source {
	case SourceAnnualReport:
		return 0.50 // third-party audited
	case SourceSatellite:
		return 0.35 // satellite + facility model
	case SourceAssetCalc:
		return 0.30 // physics-based calculation from plant data
	default:
		return 0.0
	}
}

func quality(e Extraction) float64 {
	switch e {
	case ExtractionExplicitTable:
		return 0.30
	case ExtractionValidated:
		return 0.20
	case ExtractionModeled:
		return 0.15
	default:
		return 0.05
	}
}

func recency(age int) float64 {
	switch {
	case age <= 2:
		return 0.10
	case age <= 5:
		return 0.05
	default:
		return 0.0
	}
}

func crossValidation(value, nearest float64) float64 {
	if math.IsNaN(nearest) || nearest == 0 {
		return 0.0
	}
	diff := math.Abs(value-nearest) / math.Abs(nearest)
	switch {
	case diff <= 0.15:
		return 0.10
	case diff <= 0.30:
		return 0.05
	default:
		return 0.0
	}
}
