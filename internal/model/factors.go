package model

// EmissionFactors is the decoded emission-factor registry. Factors are in
// tonnes CO2 per tonne crude steel. BF-BOF factors are anchored at
// ReferenceYear and decline by BFBOFAnnualDecline per year compounded; EAF
// factors are static because their absolute level makes annual changes
// negligible. DRI factors are technology constants selected by whether the
// plant's country runs coal-based reduction.
type EmissionFactors struct {
	ReferenceYear      int                `yaml:"reference_year"`
	BFBOFAnnualDecline float64            `yaml:"bf_bof_annual_decline"`
	BFBOF              map[string]float64 `yaml:"bf_bof"`
	EAF                map[string]float64 `yaml:"eaf"`
	DRICoal            float64            `yaml:"dri_coal"`
	DRIGas             float64            `yaml:"dri_gas"`
	H2DRI              float64            `yaml:"h2_dri"`
	DRICoalCountries   []string           `yaml:"dri_coal_countries"`
	// Regions maps a plant country to the row used in the factor tables.
	// Countries absent from the map fall back to the Global row.
	Regions map[string]string `yaml:"regions"`
}

// ExclusionRule identifies one (company, year, metric, source) cell whose
// extracted value is known to be wrong. Matching records are flagged and
// excluded from default-series selection, never deleted.
type ExclusionRule struct {
	Company string `yaml:"company"`
	Year    int    `yaml:"year"`
	Metric  Metric `yaml:"metric"`
	Source  string `yaml:"source"`
	Reason  string `yaml:"reason,omitempty"`
}
