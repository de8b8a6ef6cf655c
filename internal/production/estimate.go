package production

import (
	"sort"

	"go.uber.org/zap"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// Utilization-rate sanity bounds for estimation samples. A UR outside this
// range means the tracker's plant list and the reported figure cover
// different perimeters, so the sample would poison the average.
const (
	urSampleMin = 0.1
	urSampleMax = 1.5
	urSampleN   = 3
)

// CapacityFn returns a company's total active capacity in Mt for a year,
// or 0 when unknown.
type CapacityFn func(company string, year int) float64

// EstimateFromCapacity fills company-years that no source covers with
// capacity × historical utilization. The utilization rate is averaged over
// the company's earliest sample years where both a resolved production
// figure and a positive capacity exist, bounded to plausible values.
// Returned records carry the capacity_estimate source and only cover
// (company, year) pairs absent from resolved.
func EstimateFromCapacity(resolved []model.ProductionRecord, capacity CapacityFn, fillYears []int) []model.ProductionRecord {
	log := zap.L().With(zap.String("component", "production"))

	type key struct {
		company string
		year    int
	}
	existing := make(map[key]bool, len(resolved))
	byCompany := make(map[string][]model.ProductionRecord)
	for _, rec := range resolved {
		existing[key{rec.Company, rec.Year}] = true
		byCompany[rec.Company] = append(byCompany[rec.Company], rec)
	}

	companies := make([]string, 0, len(byCompany))
	for c := range byCompany {
		companies = append(companies, c)
	}
	sort.Strings(companies)

	var out []model.ProductionRecord
	for _, company := range companies {
		recs := byCompany[company]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Year < recs[j].Year })

		var samples []float64
		for _, rec := range recs {
			capMt := capacity(company, rec.Year)
			if capMt <= 0 {
				continue
			}
			ur := rec.ProductionMt / capMt
			if ur >= urSampleMin && ur <= urSampleMax {
				samples = append(samples, ur)
			}
			if len(samples) == urSampleN {
				break
			}
		}
		if len(samples) == 0 {
			continue
		}

		avgUR := 0.0
		for _, ur := range samples {
			avgUR += ur
		}
		avgUR /= float64(len(samples))

		for _, year := range fillYears {
			if existing[key{company, year}] {
				continue
			}
			capMt := capacity(company, year)
			if capMt <= 0 {
				continue
			}
			out = append(out, model.ProductionRecord{
				Company:      company,
				Year:         year,
				ProductionMt: capMt * avgUR,
				Source:       model.SourceCapacityEstimate,
			})
			log.Debug("estimated production from capacity",
				zap.String("company", company),
				zap.Int("year", year),
				zap.Float64("capacity_mt", capMt),
				zap.Float64("avg_ur", avgUR))
		}
	}
	return out
}
