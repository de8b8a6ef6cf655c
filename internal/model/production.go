package model

// ProductionSource identifies where a production figure came from.
// Priority ranks are data (see the production_sources registry); lower rank
// wins when several sources cover the same company-year.
type ProductionSource string

const (
	SourceReportedWorkbook ProductionSource = "reported_workbook"
	SourceAnnualReport     ProductionSource = "annual_report"
	SourceCuratedReports   ProductionSource = "curated_reports"
	SourceTrackerALD       ProductionSource = "tracker_ald"
	SourcePlantLevel       ProductionSource = "plant_level"
	SourceCapacityEstimate ProductionSource = "capacity_estimate"
)

// ProductionRecord is one (company, year) production fact from one source.
type ProductionRecord struct {
	Company      string
	Year         int
	ProductionMt float64
	Source       ProductionSource
}

// SourceSpec binds a production source label to its priority rank.
type SourceSpec struct {
	Label    ProductionSource `yaml:"label"`
	Priority int              `yaml:"priority"`
	// CoverageFloor applies the per-year reporting-coverage sanity filter
	// before this source's figures are accepted (bottom-up sources only).
	CoverageFloor bool `yaml:"coverage_floor,omitempty"`
}

// PlantProduction is one per-plant reported output figure for one year,
// used to build the bottom-up plant-level production source.
type PlantProduction struct {
	PlantID    string
	PlantName  string
	Parent     string
	Year       int
	OutputTTPA float64
	HasValue   bool // distinguishes a reported zero from no report
}
