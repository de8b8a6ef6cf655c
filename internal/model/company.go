package model

// CompanyPattern is one tracked company and the patterns used to claim its
// plants from the raw tracker ownership field. Patterns are regex
// alternations maintained as data, so adding a company never touches code.
type CompanyPattern struct {
	Name string `yaml:"name"`
	// ParentPattern matches against the tracker's raw parent/owner string.
	ParentPattern string `yaml:"parent_pattern"`
	// PlantNamePattern is an optional fallback matched against the plant
	// name, for companies whose tracker parent no longer reflects the
	// operator during part of the analysis window (acquisitions).
	PlantNamePattern string `yaml:"plant_name_pattern,omitempty"`
	HQCountry        string `yaml:"hq_country,omitempty"`
}

// OwnershipTransfer records a change of control effective a given year.
// Plants matching TargetPlantPattern belong to the acquirer only from
// YearAcquired onward; earlier years attribute them to the prior owner via
// the plant-name fallback, even though the current tracker vintage already
// shows the acquirer in the parent field.
type OwnershipTransfer struct {
	Acquirer           string `yaml:"acquirer"`
	Target             string `yaml:"target"`
	TargetPlantPattern string `yaml:"target_plant_pattern"`
	YearAcquired       int    `yaml:"year_acquired"`
}
