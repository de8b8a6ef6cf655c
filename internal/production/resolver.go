// Package production resolves the single production figure to use for each
// company-year from an ordered list of sources, and builds the derived
// sources: bottom-up plant aggregation and capacity-based estimation.
package production

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// CoverageFloor is the minimum fraction of a company's plants that must
// report output in a year, relative to the company's best-covered year,
// before the bottom-up aggregate is accepted. A sparse reporting year would
// otherwise produce a materially low total.
const CoverageFloor = 0.5

// Resolver picks the highest-priority available production record per
// company-year. The priority order is data, not code: see the
// production_sources registry.
type Resolver struct {
	priority map[model.ProductionSource]int
}

func NewResolver(specs []model.SourceSpec) *Resolver {
	r := &Resolver{priority: make(map[model.ProductionSource]int, len(specs))}
	for _, s := range specs {
		r.priority[s.Label] = s.Priority
	}
	return r
}

// Resolve keeps one record per (company, year): the one from the
// highest-priority source. Records from unregistered sources are an error;
// they mean a loader and the registry have drifted apart. Output is sorted
// by company then year.
func (r *Resolver) Resolve(records []model.ProductionRecord) ([]model.ProductionRecord, error) {
	type key struct {
		company string
		year    int
	}

	best := make(map[key]model.ProductionRecord)
	for _, rec := range records {
		prio, ok := r.priority[rec.Source]
		if !ok {
			return nil, eris.Errorf("production: unregistered source %q", rec.Source)
		}
		k := key{rec.Company, rec.Year}
		cur, seen := best[k]
		if !seen || prio < r.priority[cur.Source] {
			best[k] = rec
		}
	}

	out := make([]model.ProductionRecord, 0, len(best))
	for _, rec := range best {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Company != out[j].Company {
			return out[i].Company < out[j].Company
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

// BuildPlantLevel aggregates one company's per-plant reported output into
// company-year records, applying the coverage floor against the company's
// best-covered year. Years failing the floor are omitted so resolution
// falls through to a lower-priority source.
func BuildPlantLevel(company string, rows []model.PlantProduction) []model.ProductionRecord {
	type yearAgg struct {
		totalTTPA float64
		reporting int
	}

	byYear := make(map[int]*yearAgg)
	for _, row := range rows {
		agg := byYear[row.Year]
		if agg == nil {
			agg = &yearAgg{}
			byYear[row.Year] = agg
		}
		if row.HasValue {
			agg.reporting++
			agg.totalTTPA += row.OutputTTPA
		}
	}

	maxReporting := 0
	for _, agg := range byYear {
		if agg.reporting > maxReporting {
			maxReporting = agg.reporting
		}
	}
	if maxReporting == 0 {
		return nil
	}

	var out []model.ProductionRecord
	for year, agg := range byYear {
		if agg.totalTTPA <= 0 {
			continue
		}
		if float64(agg.reporting)/float64(maxReporting) < CoverageFloor {
			continue
		}
		out = append(out, model.ProductionRecord{
			Company:      company,
			Year:         year,
			ProductionMt: agg.totalTTPA / 1000,
			Source:       model.SourcePlantLevel,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
