// Package model holds the core domain types shared across pipeline stages.
package model

import "regexp"

// Technology is the steelmaking route of a plant.
type Technology string

const (
	TechBFBOF Technology = "BF-BOF"
	TechEAF   Technology = "EAF"
	TechDRI   Technology = "DRI"
	TechH2DRI Technology = "H2-DRI"
)

// PlantStatus is the lifecycle status reported by the asset tracker.
type PlantStatus string

const (
	StatusOperating     PlantStatus = "operating"
	StatusPreRetirement PlantStatus = "operating pre-retirement"
	StatusConstruction  PlantStatus = "construction"
	StatusRetired       PlantStatus = "retired"
	StatusMothballed    PlantStatus = "mothballed"
	StatusAnnounced     PlantStatus = "announced"
	StatusCancelled     PlantStatus = "cancelled"
)

// Plant is one physical production asset from a tracker vintage.
// IDs are vintage-specific and must never be used to correlate across
// tracker releases; cross-vintage matching goes through name + country.
type Plant struct {
	ID            string
	Name          string
	Country       string
	Parent        string // raw ownership string, e.g. "Shell plc [40.0%]; BP plc"
	Status        PlantStatus
	StartYear     int // commissioning year, 0 = unknown
	Technology    Technology
	CapacityTTPA  float64 // nominal crude steel capacity, thousand tonnes per annum
	BFCapacity    float64
	EAFCapacity   float64
	DRICapacity   float64
	MainEquipment string
}

// CapacityMt returns the nameplate capacity in million tonnes per annum.
func (p Plant) CapacityMt() float64 {
	return p.CapacityTTPA / 1000.0
}

var (
	equipBFRe  = regexp.MustCompile(`(?i)bf|blast.?furnace|bof|basic.?oxygen`)
	equipDRIRe = regexp.MustCompile(`(?i)dri|sponge|direct.?red`)
	equipEAFRe = regexp.MustCompile(`(?i)eaf|electric|scrap`)
	equipH2Re  = regexp.MustCompile(`(?i)h2|hydrogen`)
)

// ClassifyTechnology derives the technology class from per-route capacities,
// falling back to the free-text equipment column.
//
// When a plant has both BF and DRI capacity, the dominant route wins: an
// integrated site with a small DRI module stays BF-BOF, while a DRI site
// with a legacy furnace counts as DRI.
func ClassifyTechnology(bf, eaf, dri float64, equipment string) Technology {
	hasBF := bf > 0
	hasDRI := dri > 0
	hasEAF := eaf > 0

	switch {
	case hasBF && hasDRI:
		if bf >= dri {
			return TechBFBOF
		}
		return TechDRI
	case hasBF:
		return TechBFBOF
	case hasDRI:
		return TechDRI
	case hasEAF:
		return TechEAF
	}

	switch {
	case equipBFRe.MatchString(equipment):
		return TechBFBOF
	case equipDRIRe.MatchString(equipment):
		return TechDRI
	case equipEAFRe.MatchString(equipment):
		return TechEAF
	case equipH2Re.MatchString(equipment):
		return TechH2DRI
	}

	return TechBFBOF
}

// ReclassifyIntegratedDRI rewrites EAF entries that share a plant ID with a
// DRI entry as DRI. The EAF in such plants refines direct-reduced iron, not
// recycled scrap, so the low scrap-EAF emission factor would be wrong.
// Returns the plant IDs that were reclassified.
func ReclassifyIntegratedDRI(plants []Plant) []string {
	driIDs := make(map[string]bool)
	for _, p := range plants {
		if p.Technology == TechDRI {
			driIDs[p.ID] = true
		}
	}

	var changed []string
	for i := range plants {
		if plants[i].Technology == TechEAF && driIDs[plants[i].ID] {
			plants[i].Technology = TechDRI
			changed = append(changed, plants[i].ID)
		}
	}
	return changed
}
