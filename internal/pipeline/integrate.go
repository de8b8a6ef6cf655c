package pipeline

import (
	"context"
	"strconv"

	"github.com/open-asset-data/asset-pipeline/internal/certainty"
	"github.com/open-asset-data/asset-pipeline/internal/fetcher"
	"github.com/open-asset-data/asset-pipeline/internal/integrate"
	"github.com/open-asset-data/asset-pipeline/internal/model"
	"github.com/open-asset-data/asset-pipeline/internal/registry"
)

var multiSourceHeader = []string{
	"company", "year", "metric", "value", "unit", "source", "source_detail",
	"extraction_method", "certainty", "is_default", "quality_flag",
	"needs_review", "notes",
}

// comparisonSources fixes the comparison column set; a new source is a
// change to this list and the loaders, nothing else.
var comparisonSources = []string{
	certainty.SourceAssetCalc,
	certainty.SourceSatellite,
	certainty.SourceAnnualReport,
}

// integrate merges the asset-based series with the independently sourced
// figures and writes the long, comparison, and defaults-only outputs.
func (r *Runner) integrate(ctx context.Context) (int, error) {
	records, err := r.loadSourceRecords()
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	exclusions, err := registry.Exclusions()
	if err != nil {
		return 0, err
	}

	it := integrate.New(exclusions, r.cfg.Pipeline.CurrentYear)
	rows, comparisons := it.Integrate(records)

	longRows := make([][]string, len(rows))
	for i, row := range rows {
		longRows[i] = multiSourceRow(row)
	}
	if err := fetcher.WriteCSV(r.outPath(MultiSourceFile), multiSourceHeader, longRows); err != nil {
		return 0, err
	}

	compHeader := []string{
		"company", "year", "metric", "default_value", "default_source",
		"default_certainty", "n_sources", "source_spread_pct", "needs_review",
	}
	for _, src := range comparisonSources {
		compHeader = append(compHeader, "comparison_"+src)
	}
	compRows := make([][]string, len(comparisons))
	for i, c := range comparisons {
		row := []string{
			c.Company, strconv.Itoa(c.Year), string(c.Metric),
			formatFloat(c.DefaultValue), c.DefaultSource,
			formatFloat(c.DefaultCertainty), strconv.Itoa(c.NSources),
			formatOptFloat(c.SourceSpreadPct), strconv.FormatBool(c.NeedsReview),
		}
		for _, src := range comparisonSources {
			if v, ok := c.Values[src]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		compRows[i] = row
	}
	if err := fetcher.WriteCSV(r.outPath(ComparisonFile), compHeader, compRows); err != nil {
		return 0, err
	}

	defaults := integrate.Defaults(rows)
	defRows := make([][]string, len(defaults))
	for i, row := range defaults {
		defRows[i] = multiSourceRow(row)
	}
	if err := fetcher.WriteCSV(r.outPath(DefaultsFile), multiSourceHeader, defRows); err != nil {
		return 0, err
	}

	return len(longRows), nil
}

// loadSourceRecords assembles the integrator's input: the APA output plus
// the annual-report and satellite extraction files.
func (r *Runner) loadSourceRecords() ([]model.SourceRecord, error) {
	apa, err := readAPAEmissions(r.outPath(APAFile))
	if err != nil {
		return nil, err
	}

	var records []model.SourceRecord
	for _, res := range apa {
		records = append(records,
			model.SourceRecord{
				Company:          res.Company,
				Year:             res.Year,
				Metric:           model.MetricProductionMt,
				Value:            res.ProductionMt,
				Unit:             "Mt",
				Source:           certainty.SourceAssetCalc,
				SourceDetail:     "asset_production_approach",
				ExtractionMethod: string(certainty.ExtractionModeled),
				Notes:            "production source: " + string(res.ProductionSource),
			},
			model.SourceRecord{
				Company:          res.Company,
				Year:             res.Year,
				Metric:           model.MetricEmissionsMtCO2,
				Value:            res.EmissionsMt,
				Unit:             "Mt CO2",
				Source:           certainty.SourceAssetCalc,
				SourceDetail:     "asset_production_approach",
				ExtractionMethod: string(certainty.ExtractionModeled),
			},
		)
	}

	arTable, err := readOptionalCSV(r.cfg.Data.AnnualReports, r.log)
	if err != nil {
		return nil, err
	}
	arRecords, err := readSourceRecords(arTable, certainty.SourceAnnualReport)
	if err != nil {
		return nil, err
	}
	records = append(records, arRecords...)

	ctTable, err := readOptionalCSV(r.cfg.Data.ClimateTrace, r.log)
	if err != nil {
		return nil, err
	}
	ctRecords, err := readClimateTrace(ctTable)
	if err != nil {
		return nil, err
	}
	return append(records, ctRecords...), nil
}

// readClimateTrace loads satellite-observed facility emissions aggregated
// to company-years.
func readClimateTrace(table *fetcher.Table) ([]model.SourceRecord, error) {
	if table == nil {
		return nil, nil
	}
	company, err := table.MustCol("company")
	if err != nil {
		return nil, err
	}
	year, err := table.MustCol("year")
	if err != nil {
		return nil, err
	}
	value, err := table.MustCol("emissions_mt_co2")
	if err != nil {
		return nil, err
	}

	var out []model.SourceRecord
	for _, row := range table.Rows {
		y, ok := fetcher.IntField(row, year)
		if !ok {
			continue
		}
		v, ok := fetcher.FloatField(row, value)
		if !ok {
			continue
		}
		out = append(out, model.SourceRecord{
			Company:          fetcher.Field(row, company),
			Year:             y,
			Metric:           model.MetricEmissionsMtCO2,
			Value:            v,
			Unit:             "Mt CO2",
			Source:           certainty.SourceSatellite,
			SourceDetail:     "satellite_observation",
			ExtractionMethod: string(certainty.ExtractionModeled),
		})
	}
	return out, nil
}

func multiSourceRow(row integrate.Row) []string {
	return []string{
		row.Company, strconv.Itoa(row.Year), string(row.Metric),
		formatFloat(row.Value), row.Unit, row.Source, row.SourceDetail,
		row.ExtractionMethod, formatFloat(row.Certainty),
		strconv.FormatBool(row.IsDefault), row.QualityFlag,
		strconv.FormatBool(row.NeedsReview), row.Notes,
	}
}
