package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/open-asset-data/asset-pipeline/internal/fetcher"
	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// Commissioning-year defaults for plants whose start date is unknown.
// Existing plants predate the analysis window; pipeline plants are assumed
// near-term so the lifecycle filter keeps them out of historical years.
const (
	defaultStartYearExisting = 2000
	defaultStartYearPlanned  = 2025
)

// ingest reads the tracker workbook's plant sheet, classifies each plant's
// technology from per-route capacities, and writes plants.csv.
func (r *Runner) ingest(_ context.Context) (int, error) {
	wb, err := fetcher.OpenWorkbook(r.cfg.Data.TrackerWorkbook)
	if err != nil {
		return 0, err
	}
	table, err := wb.Sheet(r.cfg.Data.PlantSheet, r.cfg.Data.SheetSkipRows)
	if err != nil {
		return 0, err
	}

	cols, err := plantColumns(table)
	if err != nil {
		return 0, err
	}

	var plants []model.Plant
	for _, row := range table.Rows {
		id := fetcher.Field(row, cols.id)
		if id == "" {
			continue
		}

		cap, _ := fetcher.FloatField(row, cols.capacity)
		bf, _ := fetcher.FloatField(row, cols.bf)
		eaf, _ := fetcher.FloatField(row, cols.eaf)
		dri, _ := fetcher.FloatField(row, cols.dri)
		equipment := fetcher.Field(row, cols.equipment)
		status := model.PlantStatus(strings.ToLower(fetcher.Field(row, cols.status)))

		startYear, ok := fetcher.IntField(row, cols.startYear)
		if !ok {
			startYear = defaultStartYear(status)
		}

		plants = append(plants, model.Plant{
			ID:            id,
			Name:          fetcher.Field(row, cols.name),
			Country:       fetcher.Field(row, cols.country),
			Parent:        fetcher.Field(row, cols.parent),
			Status:        status,
			StartYear:     startYear,
			Technology:    model.ClassifyTechnology(bf, eaf, dri, equipment),
			CapacityTTPA:  cap,
			BFCapacity:    bf,
			EAFCapacity:   eaf,
			DRICapacity:   dri,
			MainEquipment: equipment,
		})
	}
	if len(plants) == 0 {
		return 0, eris.Errorf("ingest: sheet %q yielded no plants", r.cfg.Data.PlantSheet)
	}

	reclassified := model.ReclassifyIntegratedDRI(plants)
	if len(reclassified) > 0 {
		r.log.Info("reclassified integrated DRI-EAF plants",
			zap.Int("count", len(reclassified)))
	}

	rows := make([][]string, len(plants))
	for i, p := range plants {
		rows[i] = []string{
			p.ID, p.Name, p.Country, p.Parent, string(p.Status),
			strconv.Itoa(p.StartYear), string(p.Technology),
			formatFloat(p.CapacityTTPA), formatFloat(p.BFCapacity),
			formatFloat(p.EAFCapacity), formatFloat(p.DRICapacity),
			p.MainEquipment,
		}
	}
	if err := fetcher.WriteCSV(r.outPath(PlantsFile), plantsHeader, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

var plantsHeader = []string{
	"plant_id", "plant_name", "country", "parent", "status", "start_year",
	"technology", "capacity_ttpa", "bf_capacity_ttpa", "eaf_capacity_ttpa",
	"dri_capacity_ttpa", "main_equipment",
}

type plantCols struct {
	id, name, country, parent, status int
	startYear, capacity, bf, eaf, dri int
	equipment                         int
}

// plantColumns resolves the tracker sheet's columns by substring because
// vintages rename headers ("Plant name (English)" vs "Plant name").
func plantColumns(t *fetcher.Table) (plantCols, error) {
	var c plantCols
	required := []struct {
		dst *int
		sub string
	}{
		{&c.id, "plant id"},
		{&c.name, "plant name"},
		{&c.country, "country"},
		{&c.parent, "parent"},
		{&c.status, "status"},
		{&c.capacity, "crude steel capacity"},
	}
	for _, rc := range required {
		i, ok := t.ColContaining(rc.sub)
		if !ok {
			return c, eris.Errorf("ingest: no column matching %q", rc.sub)
		}
		*rc.dst = i
	}

	optional := []struct {
		dst *int
		sub string
	}{
		{&c.startYear, "start"},
		{&c.bf, "bf capacity"},
		{&c.eaf, "eaf capacity"},
		{&c.dri, "dri capacity"},
		{&c.equipment, "equipment"},
	}
	for _, oc := range optional {
		i, ok := t.ColContaining(oc.sub)
		if !ok {
			i = -1 // Field/FloatField treat -1 as absent
		}
		*oc.dst = i
	}
	return c, nil
}

func defaultStartYear(status model.PlantStatus) int {
	switch status {
	case model.StatusConstruction, model.StatusAnnounced:
		return defaultStartYearPlanned
	default:
		return defaultStartYearExisting
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
