package model

// CompanyYearEmissions is the computed output of the asset-based calculation
// for one company-year. Invariant: WeightedEF * ProductionMt == EmissionsMt
// (within float tolerance) whenever ProductionMt > 0.
type CompanyYearEmissions struct {
	Company          string
	Year             int
	ProductionMt     float64
	EmissionsMt      float64
	WeightedEF       float64
	UtilizationRate  float64
	NPlants          int
	TotalCapacityMt  float64
	ProductionSource ProductionSource
}

// Metric names a measured quantity in the long-format interchange rows.
type Metric string

const (
	MetricProductionMt   Metric = "production_mt"
	MetricEmissionsMtCO2 Metric = "emissions_mt_co2"
)

// SourceRecord is the long-format interchange row consumed by the
// multi-source integrator: one (company, year, metric) observation from one
// independent source.
type SourceRecord struct {
	Company          string
	Year             int
	Metric           Metric
	Value            float64
	Unit             string
	Source           string // annual_report, climate_trace, apa
	SourceDetail     string
	ExtractionMethod string
	Confidence       string // raw extraction-confidence tag
	Notes            string
}
