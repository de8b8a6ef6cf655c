package emissions

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/open-asset-data/asset-pipeline/internal/lifecycle"
	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// MaxUtilization is the sanity ceiling on the company-wide utilization
// rate. Above it the tracker's plant list cannot cover the reported
// production perimeter and the company-year is skipped rather than
// published with a misallocated intensity.
const MaxUtilization = 1.5

// Calculator computes asset-based (APA) emissions per company-year.
type Calculator struct {
	table *Table
	log   *zap.Logger
}

func NewCalculator(table *Table) *Calculator {
	return &Calculator{
		table: table,
		log:   zap.L().With(zap.String("component", "apa")),
	}
}

// CompanyInput is everything one company contributes to a run: its
// resolved production series, its claimed plants per year, and optional
// per-country production splits.
type CompanyInput struct {
	Company    string
	Production []model.ProductionRecord
	// Holdings returns the company's claimed plants with equity for a
	// year, before lifecycle filtering.
	Holdings func(year int) []model.OwnershipEntry
	// CountryProduction maps year → country → Mt, for companies whose
	// reports break production down geographically.
	CountryProduction map[int]map[string]float64
}

// Compute calculates one company-year. The boolean is false for the
// degenerate cases: no active plants or zero total capacity, where zero
// emissions would be a materially wrong signal, and for utilization beyond
// the sanity ceiling.
func (c *Calculator) Compute(rec model.ProductionRecord, holdings []model.OwnershipEntry, countryProduction map[string]float64) (model.CompanyYearEmissions, bool) {
	var active []model.OwnershipEntry
	totalCap := 0.0
	for _, h := range holdings {
		if !lifecycle.Active(h.Plant, rec.Year) {
			continue
		}
		active = append(active, h)
		totalCap += h.Plant.CapacityMt()
	}
	if len(active) == 0 || totalCap <= 0 {
		return model.CompanyYearEmissions{}, false
	}

	ur := rec.ProductionMt / totalCap
	if ur > MaxUtilization {
		c.log.Warn("skipping company-year: utilization beyond ceiling",
			zap.String("company", rec.Company),
			zap.Int("year", rec.Year),
			zap.Float64("utilization", ur))
		return model.CompanyYearEmissions{}, false
	}

	allocated := c.allocate(active, rec.ProductionMt, ur, countryProduction)

	emissions := 0.0
	for i, h := range active {
		ef := c.table.Factor(h.Plant.Country, h.Plant.Technology, rec.Year)
		emissions += allocated[i] * ef * h.EquityShare
	}

	weightedEF := 0.0
	if rec.ProductionMt > 0 {
		weightedEF = emissions / rec.ProductionMt
	}

	return model.CompanyYearEmissions{
		Company:          rec.Company,
		Year:             rec.Year,
		ProductionMt:     rec.ProductionMt,
		EmissionsMt:      emissions,
		WeightedEF:       weightedEF,
		UtilizationRate:  ur,
		NPlants:          len(active),
		TotalCapacityMt:  totalCap,
		ProductionSource: rec.Source,
	}, true
}

// allocate distributes company production across active plants. With no
// country breakdown every plant runs at the uniform company utilization.
// With one, each covered country's plants share that country's figure by
// capacity and the residual production spreads over the remaining plants.
func (c *Calculator) allocate(active []model.OwnershipEntry, productionMt, ur float64, countryProduction map[string]float64) []float64 {
	allocated := make([]float64, len(active))
	if len(countryProduction) == 0 {
		for i, h := range active {
			allocated[i] = h.Plant.CapacityMt() * ur
		}
		return allocated
	}

	countries := make([]string, 0, len(countryProduction))
	for country := range countryProduction {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	matched := make([]bool, len(active))
	remaining := productionMt
	for _, country := range countries {
		countryCap := 0.0
		for i, h := range active {
			if h.Plant.Country == country {
				countryCap += h.Plant.CapacityMt()
				matched[i] = true
			}
		}
		if countryCap <= 0 {
			// no plants here; the figure stays in the residual
			for i, h := range active {
				if h.Plant.Country == country {
					matched[i] = false
				}
			}
			continue
		}
		countryUR := countryProduction[country] / countryCap
		for i, h := range active {
			if h.Plant.Country == country {
				allocated[i] = h.Plant.CapacityMt() * countryUR
			}
		}
		remaining -= countryProduction[country]
	}

	if remaining > 0 {
		residualCap := 0.0
		for i, h := range active {
			if !matched[i] {
				residualCap += h.Plant.CapacityMt()
			}
		}
		if residualCap > 0 {
			residualUR := remaining / residualCap
			for i, h := range active {
				if !matched[i] {
					allocated[i] = h.Plant.CapacityMt() * residualUR
				}
			}
		}
	}
	return allocated
}

// ComputeAll runs every company in parallel; companies are independent so
// the only coordination is the per-input result slot. Output is sorted by
// company then year.
func (c *Calculator) ComputeAll(ctx context.Context, inputs []CompanyInput) ([]model.CompanyYearEmissions, error) {
	results := make([][]model.CompanyYearEmissions, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			var out []model.CompanyYearEmissions
			for _, rec := range in.Production {
				if err := ctx.Err(); err != nil {
					return err
				}
				holdings := in.Holdings(rec.Year)
				row, ok := c.Compute(rec, holdings, in.CountryProduction[rec.Year])
				if ok {
					out = append(out, row)
				}
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.CompanyYearEmissions
	for _, rs := range results {
		all = append(all, rs...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Company != all[j].Company {
			return all[i].Company < all[j].Company
		}
		return all[i].Year < all[j].Year
	})
	return all, nil
}
