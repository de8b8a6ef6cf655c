package pipeline

import (
	"math"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/open-asset-data/asset-pipeline/internal/fetcher"
	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// readOptionalCSV loads a table, returning nil without error when the file
// does not exist. Optional inputs simply contribute nothing when absent.
func readOptionalCSV(path string, log *zap.Logger) (*fetcher.Table, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info("optional input absent, skipping", zap.String("path", path))
		return nil, nil
	}
	return fetcher.ReadCSV(path)
}

// readPlants loads the ingest stage's plants.csv back into memory.
func readPlants(path string) ([]model.Plant, error) {
	table, err := fetcher.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	cols := make([]int, len(plantsHeader))
	for i, name := range plantsHeader {
		if cols[i], err = table.MustCol(name); err != nil {
			return nil, eris.Wrapf(err, "pipeline: %s", path)
		}
	}

	plants := make([]model.Plant, 0, len(table.Rows))
	for _, row := range table.Rows {
		startYear, _ := fetcher.IntField(row, cols[5])
		cap, _ := fetcher.FloatField(row, cols[7])
		bf, _ := fetcher.FloatField(row, cols[8])
		eaf, _ := fetcher.FloatField(row, cols[9])
		dri, _ := fetcher.FloatField(row, cols[10])
		plants = append(plants, model.Plant{
			ID:            fetcher.Field(row, cols[0]),
			Name:          fetcher.Field(row, cols[1]),
			Country:       fetcher.Field(row, cols[2]),
			Parent:        fetcher.Field(row, cols[3]),
			Status:        model.PlantStatus(fetcher.Field(row, cols[4])),
			StartYear:     startYear,
			Technology:    model.Technology(fetcher.Field(row, cols[6])),
			CapacityTTPA:  cap,
			BFCapacity:    bf,
			EAFCapacity:   eaf,
			DRICapacity:   dri,
			MainEquipment: fetcher.Field(row, cols[11]),
		})
	}
	return plants, nil
}

// readReference loads the reference ownership list. Shares may be given as
// fractions or percentages; percentages are recognized by magnitude.
func readReference(path string) ([]model.ReferencePlant, error) {
	table, err := fetcher.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	company, err := table.MustCol("company")
	if err != nil {
		return nil, err
	}
	name, err := table.MustCol("plant_name")
	if err != nil {
		return nil, err
	}
	country, err := table.MustCol("country")
	if err != nil {
		return nil, err
	}
	id, _ := table.Col("plant_id")
	share, _ := table.Col("ownership_share")
	cap, _ := table.Col("capacity_ttpa")
	process, _ := table.Col("process")
	status, _ := table.Col("status")

	refs := make([]model.ReferencePlant, 0, len(table.Rows))
	for _, row := range table.Rows {
		s := math.NaN()
		if v, ok := fetcher.FloatField(row, share); ok {
			if v > 1.5 {
				v /= 100
			}
			s = v
		}
		capTTPA, _ := fetcher.FloatField(row, cap)
		refs = append(refs, model.ReferencePlant{
			Company:        fetcher.Field(row, company),
			PlantID:        fetcher.Field(row, id),
			PlantName:      fetcher.Field(row, name),
			Country:        fetcher.Field(row, country),
			OwnershipShare: s,
			CapacityTTPA:   capTTPA,
			Process:        fetcher.Field(row, process),
			Status:         fetcher.Field(row, status),
		})
	}
	return refs, nil
}

// readMapping loads the ownership stage's mapping output back as entries,
// keeping only the fields the APA stage needs.
func readMapping(path string) ([]model.OwnershipEntry, error) {
	table, err := fetcher.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	need := []string{
		"company", "year", "plant_id", "plant_name", "country", "status",
		"start_year", "technology", "capacity_ttpa", "equity_share",
	}
	cols := make([]int, len(need))
	for i, name := range need {
		if cols[i], err = table.MustCol(name); err != nil {
			return nil, eris.Wrapf(err, "pipeline: %s", path)
		}
	}

	entries := make([]model.OwnershipEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		year, _ := fetcher.IntField(row, cols[1])
		startYear, _ := fetcher.IntField(row, cols[6])
		cap, _ := fetcher.FloatField(row, cols[8])
		equity, ok := fetcher.FloatField(row, cols[9])
		if !ok {
			equity = 1
		}
		entries = append(entries, model.OwnershipEntry{
			Company: fetcher.Field(row, cols[0]),
			Year:    year,
			Plant: model.Plant{
				ID:           fetcher.Field(row, cols[2]),
				Name:         fetcher.Field(row, cols[3]),
				Country:      fetcher.Field(row, cols[4]),
				Status:       model.PlantStatus(fetcher.Field(row, cols[5])),
				StartYear:    startYear,
				Technology:   model.Technology(fetcher.Field(row, cols[7])),
				CapacityTTPA: cap,
			},
			EquityShare: equity,
		})
	}
	return entries, nil
}

// readCompanyYearProduction loads a flat company-year production file and
// labels the records with the given source.
func readCompanyYearProduction(table *fetcher.Table, source model.ProductionSource) ([]model.ProductionRecord, error) {
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
	prod, err := table.MustCol("production_mt")
	if err != nil {
		return nil, err
	}

	var out []model.ProductionRecord
	for _, row := range table.Rows {
		y, ok := fetcher.IntField(row, year)
		if !ok {
			continue
		}
		v, ok := fetcher.FloatField(row, prod)
		if !ok || v <= 0 {
			continue
		}
		out = append(out, model.ProductionRecord{
			Company:      fetcher.Field(row, company),
			Year:         y,
			ProductionMt: v,
			Source:       source,
		})
	}
	return out, nil
}

// readPlantProduction loads per-plant reported output rows for the
// bottom-up production source.
func readPlantProduction(table *fetcher.Table) ([]model.PlantProduction, error) {
	if table == nil {
		return nil, nil
	}
	id, err := table.MustCol("plant_id")
	if err != nil {
		return nil, err
	}
	parent, err := table.MustCol("parent")
	if err != nil {
		return nil, err
	}
	year, err := table.MustCol("year")
	if err != nil {
		return nil, err
	}
	output, err := table.MustCol("output_ttpa")
	if err != nil {
		return nil, err
	}
	name, _ := table.Col("plant_name")

	var out []model.PlantProduction
	for _, row := range table.Rows {
		y, ok := fetcher.IntField(row, year)
		if !ok {
			continue
		}
		v, has := fetcher.FloatField(row, output)
		out = append(out, model.PlantProduction{
			PlantID:    fetcher.Field(row, id),
			PlantName:  fetcher.Field(row, name),
			Parent:     fetcher.Field(row, parent),
			Year:       y,
			OutputTTPA: v,
			HasValue:   has,
		})
	}
	return out, nil
}

// readCountryProduction loads optional per-country production splits:
// company → year → country → Mt.
func readCountryProduction(table *fetcher.Table) (map[string]map[int]map[string]float64, error) {
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
	country, err := table.MustCol("country")
	if err != nil {
		return nil, err
	}
	prod, err := table.MustCol("production_mt")
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[int]map[string]float64)
	for _, row := range table.Rows {
		y, ok := fetcher.IntField(row, year)
		if !ok {
			continue
		}
		v, ok := fetcher.FloatField(row, prod)
		if !ok {
			continue
		}
		c := fetcher.Field(row, company)
		if out[c] == nil {
			out[c] = make(map[int]map[string]float64)
		}
		if out[c][y] == nil {
			out[c][y] = make(map[string]float64)
		}
		out[c][y][fetcher.Field(row, country)] += v
	}
	return out, nil
}

// readSourceRecords loads a long-format extraction file. The source label
// overrides whatever the file carries so loaders and the integrator cannot
// drift apart on naming.
func readSourceRecords(table *fetcher.Table, source string) ([]model.SourceRecord, error) {
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
	metric, err := table.MustCol("metric")
	if err != nil {
		return nil, err
	}
	value, err := table.MustCol("value")
	if err != nil {
		return nil, err
	}
	unit, _ := table.Col("unit")
	detail, _ := table.Col("source_detail")
	method, _ := table.Col("extraction_method")
	confidence, _ := table.Col("confidence")
	notes, _ := table.Col("notes")

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
			Metric:           model.Metric(fetcher.Field(row, metric)),
			Value:            v,
			Unit:             fetcher.Field(row, unit),
			Source:           source,
			SourceDetail:     fetcher.Field(row, detail),
			ExtractionMethod: fetcher.Field(row, method),
			Confidence:       fetcher.Field(row, confidence),
			Notes:            fetcher.Field(row, notes),
		})
	}
	return out, nil
}

// readAPAEmissions loads the APA stage output back for integration.
func readAPAEmissions(path string) ([]model.CompanyYearEmissions, error) {
	table, err := fetcher.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	need := []string{
		"company", "year", "production_mt", "emissions_mt_co2", "weighted_ef",
		"utilization_rate", "n_plants", "total_capacity_mt", "production_source",
	}
	cols := make([]int, len(need))
	for i, name := range need {
		if cols[i], err = table.MustCol(name); err != nil {
			return nil, eris.Wrapf(err, "pipeline: %s", path)
		}
	}

	out := make([]model.CompanyYearEmissions, 0, len(table.Rows))
	for _, row := range table.Rows {
		year, _ := fetcher.IntField(row, cols[1])
		prod, _ := fetcher.FloatField(row, cols[2])
		emis, _ := fetcher.FloatField(row, cols[3])
		ef, _ := fetcher.FloatField(row, cols[4])
		ur, _ := fetcher.FloatField(row, cols[5])
		n, _ := fetcher.IntField(row, cols[6])
		cap, _ := fetcher.FloatField(row, cols[7])
		out = append(out, model.CompanyYearEmissions{
			Company:          fetcher.Field(row, cols[0]),
			Year:             year,
			ProductionMt:     prod,
			EmissionsMt:      emis,
			WeightedEF:       ef,
			UtilizationRate:  ur,
			NPlants:          n,
			TotalCapacityMt:  cap,
			ProductionSource: model.ProductionSource(fetcher.Field(row, cols[8])),
		})
	}
	return out, nil
}

// formatOptFloat renders a float, with NaN as an empty cell.
func formatOptFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
