// Package emissions assigns emission factors to plants and computes
// asset-based company emissions from capacity, ownership and resolved
// production.
package emissions

import (
	"math"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// Table answers (country, technology, year) → emission factor lookups.
// Factors are tCO2 per tonne crude steel. Lookups never fail: unmapped
// countries use the Global row, unknown technologies the BF-BOF default.
type Table struct {
	ef   model.EmissionFactors
	coal map[string]bool
}

func NewTable(ef model.EmissionFactors) *Table {
	coal := make(map[string]bool, len(ef.DRICoalCountries))
	for _, c := range ef.DRICoalCountries {
		coal[c] = true
	}
	return &Table{ef: ef, coal: coal}
}

// Region maps a plant country to its factor-table row.
func (t *Table) Region(country string) string {
	if region, ok := t.ef.Regions[country]; ok {
		return region
	}
	return "Global"
}

// Factor returns the emission factor for a plant.
//
// BF-BOF factors decline from the reference year by a fixed annual rate
// compounded, so years before the reference come out higher. EAF factors
// are static per region. DRI is a technology constant chosen by the
// country's reduction feedstock (coal vs gas); H2-DRI is a single constant.
// A zero year means no time adjustment.
func (t *Table) Factor(country string, tech model.Technology, year int) float64 {
	switch tech {
	case model.TechEAF:
		if f, ok := t.ef.EAF[t.Region(country)]; ok {
			return f
		}
		return t.ef.EAF["Global"]
	case model.TechDRI:
		if t.coal[country] {
			return t.ef.DRICoal
		}
		return t.ef.DRIGas
	case model.TechH2DRI:
		return t.ef.H2DRI
	default:
		base, ok := t.ef.BFBOF[t.Region(country)]
		if !ok {
			base = t.ef.BFBOF["Global"]
		}
		if year == 0 {
			return base
		}
		return base * math.Pow(1-t.ef.BFBOFAnnualDecline, float64(year-t.ef.ReferenceYear))
	}
}
