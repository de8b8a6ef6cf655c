package pipeline

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/open-asset-data/asset-pipeline/internal/emissions"
	"github.com/open-asset-data/asset-pipeline/internal/fetcher"
	"github.com/open-asset-data/asset-pipeline/internal/lifecycle"
	"github.com/open-asset-data/asset-pipeline/internal/match"
	"github.com/open-asset-data/asset-pipeline/internal/model"
	"github.com/open-asset-data/asset-pipeline/internal/production"
	"github.com/open-asset-data/asset-pipeline/internal/registry"
)

var apaHeader = []string{
	"company", "year", "production_mt", "emissions_mt_co2", "weighted_ef",
	"utilization_rate", "n_plants", "total_capacity_mt", "production_source",
}

// apa resolves each company-year's production figure, fills gaps with
// capacity-based estimates, and runs the asset-based emissions calculation
// over the ownership mapping.
func (r *Runner) apa(ctx context.Context) (int, error) {
	entries, err := readMapping(r.outPath(MappingFile))
	if err != nil {
		return 0, err
	}
	holdings := make(map[string]map[int][]model.OwnershipEntry)
	for _, e := range entries {
		if holdings[e.Company] == nil {
			holdings[e.Company] = make(map[int][]model.OwnershipEntry)
		}
		holdings[e.Company][e.Year] = append(holdings[e.Company][e.Year], e)
	}

	records, err := r.loadProductionRecords()
	if err != nil {
		return 0, err
	}

	specs, err := registry.ProductionSources()
	if err != nil {
		return 0, err
	}
	resolved, err := production.NewResolver(specs).Resolve(records)
	if err != nil {
		return 0, err
	}

	capacity := func(company string, year int) float64 {
		total := 0.0
		for _, e := range holdings[company][year] {
			if lifecycle.Active(e.Plant, year) {
				total += e.Plant.CapacityMt()
			}
		}
		return total
	}
	estimates := production.EstimateFromCapacity(resolved, capacity, r.years())
	resolved = append(resolved, estimates...)
	r.log.Info("production resolved",
		zap.Int("records", len(resolved)),
		zap.Int("estimated", len(estimates)))

	countryTable, err := readOptionalCSV(r.cfg.Data.CountryProduction, r.log)
	if err != nil {
		return 0, err
	}
	countryProd, err := readCountryProduction(countryTable)
	if err != nil {
		return 0, err
	}

	ef, err := registry.EmissionFactors()
	if err != nil {
		return 0, err
	}
	calc := emissions.NewCalculator(emissions.NewTable(ef))

	byCompany := make(map[string][]model.ProductionRecord)
	for _, rec := range resolved {
		byCompany[rec.Company] = append(byCompany[rec.Company], rec)
	}
	companies := make([]string, 0, len(byCompany))
	for c := range byCompany {
		companies = append(companies, c)
	}
	sort.Strings(companies)

	inputs := make([]emissions.CompanyInput, 0, len(companies))
	for _, company := range companies {
		inputs = append(inputs, emissions.CompanyInput{
			Company:    company,
			Production: byCompany[company],
			Holdings: func(year int) []model.OwnershipEntry {
				return holdings[company][year]
			},
			CountryProduction: countryProd[company],
		})
	}

	results, err := calc.ComputeAll(ctx, inputs)
	if err != nil {
		return 0, err
	}

	rows := make([][]string, len(results))
	for i, res := range results {
		rows[i] = []string{
			res.Company, strconv.Itoa(res.Year),
			formatFloat(res.ProductionMt), formatFloat(res.EmissionsMt),
			formatFloat(res.WeightedEF), formatFloat(res.UtilizationRate),
			strconv.Itoa(res.NPlants), formatFloat(res.TotalCapacityMt),
			string(res.ProductionSource),
		}
	}
	if err := fetcher.WriteCSV(r.outPath(APAFile), apaHeader, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// loadProductionRecords gathers company-year production from every
// registered source file. Absent files contribute nothing; resolution
// simply falls through to lower-priority sources.
func (r *Runner) loadProductionRecords() ([]model.ProductionRecord, error) {
	var records []model.ProductionRecord

	flat := []struct {
		path   string
		source model.ProductionSource
	}{
		{r.cfg.Data.ReportedProduction, model.SourceReportedWorkbook},
		{r.cfg.Data.CuratedReports, model.SourceCuratedReports},
		{r.cfg.Data.TrackerALD, model.SourceTrackerALD},
	}
	for _, f := range flat {
		table, err := readOptionalCSV(f.path, r.log)
		if err != nil {
			return nil, err
		}
		recs, err := readCompanyYearProduction(table, f.source)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	// Annual-report production comes from the long-format extraction file.
	arTable, err := readOptionalCSV(r.cfg.Data.AnnualReports, r.log)
	if err != nil {
		return nil, err
	}
	arRecords, err := readSourceRecords(arTable, "annual_report")
	if err != nil {
		return nil, err
	}
	for _, rec := range arRecords {
		if rec.Metric == model.MetricProductionMt && rec.Value > 0 {
			records = append(records, model.ProductionRecord{
				Company:      rec.Company,
				Year:         rec.Year,
				ProductionMt: rec.Value,
				Source:       model.SourceAnnualReport,
			})
		}
	}

	plantLevel, err := r.loadPlantLevelProduction()
	if err != nil {
		return nil, err
	}
	return append(records, plantLevel...), nil
}

// loadPlantLevelProduction builds the bottom-up source: per-plant reported
// output attributed to companies through the same parent patterns the
// ownership stage uses.
func (r *Runner) loadPlantLevelProduction() ([]model.ProductionRecord, error) {
	table, err := readOptionalCSV(r.cfg.Data.PlantProduction, r.log)
	if err != nil {
		return nil, err
	}
	rows, err := readPlantProduction(table)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	patterns, err := registry.Companies()
	if err != nil {
		return nil, err
	}
	transfers, err := registry.Transfers()
	if err != nil {
		return nil, err
	}
	claimer, err := match.NewClaimer(patterns, transfers)
	if err != nil {
		return nil, err
	}

	var records []model.ProductionRecord
	for _, company := range claimer.Companies() {
		re := claimer.ParentPattern(company)
		var mine []model.PlantProduction
		for _, row := range rows {
			if re.MatchString(row.Parent) {
				mine = append(mine, row)
			}
		}
		records = append(records, production.BuildPlantLevel(company, mine)...)
	}
	return records, nil
}
