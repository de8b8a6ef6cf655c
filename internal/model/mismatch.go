package model

// MismatchKind enumerates the ownership cross-validation flags. These are
// review metadata for a human analyst, never consumed by downstream
// calculation.
type MismatchKind string

const (
	// MismatchNotInReference: plant claimed from the current tracker vintage
	// has no counterpart in the reference ownership list.
	MismatchNotInReference MismatchKind = "NOT_IN_REFERENCE"
	// MismatchNotInCurrent: reference plant not matched in the current
	// vintage (possible rename or vintage difference).
	MismatchNotInCurrent MismatchKind = "NOT_IN_CURRENT"
	// MismatchEquity: equity shares differ beyond tolerance.
	MismatchEquity MismatchKind = "EQUITY_MISMATCH"
	// MismatchEquityUnknown: current parent field carries no parseable share.
	MismatchEquityUnknown MismatchKind = "EQUITY_UNKNOWN"
	// MismatchMinorityStake: matched share below 0.5; informational only.
	MismatchMinorityStake MismatchKind = "MINORITY_STAKE"
)

// OwnershipMismatch is one flagged discrepancy between the current tracker
// vintage and the reference ownership list.
type OwnershipMismatch struct {
	Company         string
	Year            int
	PlantID         string
	PlantName       string
	Country         string
	CapacityTTPA    float64
	Kind            MismatchKind
	Detail          string
	CurrentEquity   float64 // NaN when unknown
	ReferenceEquity float64 // NaN when unknown
	Action          string  // suggested review action
}

// OwnershipEntry is one row of the plant-to-company mapping output: a plant
// claimed by a company in a given year, with the parsed equity share.
type OwnershipEntry struct {
	Company     string
	Year        int
	Plant       Plant
	EquityShare float64
	// EquityDerived marks a share assigned by equal-split of the unclaimed
	// remainder because the parent field carried no percentage.
	EquityDerived   bool
	MatchSource     string // parent_pattern or plant_name_fallback
	InReference     bool
	ReferenceEquity float64 // NaN when unmatched or unknown
	Flags           []string
}

// ReferencePlant is one plant of the independent reference ownership list
// the current vintage is cross-validated against.
type ReferencePlant struct {
	Company        string
	PlantID        string
	PlantName      string
	Country        string
	OwnershipShare float64 // NaN when the reference gives no share
	CapacityTTPA   float64
	Process        string
	Status         string
}
