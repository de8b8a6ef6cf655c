package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/open-asset-data/asset-pipeline/internal/config"
	"github.com/open-asset-data/asset-pipeline/internal/fetcher"
	"github.com/open-asset-data/asset-pipeline/internal/model"
	"github.com/open-asset-data/asset-pipeline/internal/store"
)

// memStore is an in-memory ledger for runner tests.
type memStore struct {
	mu     sync.Mutex
	nextID int
	runs   map[string]*model.Run
	stages []model.StageResult
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*model.Run)}
}

func (m *memStore) CreateRun(context.Context) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r := &model.Run{ID: "run-" + strconv.Itoa(m.nextID), Status: model.RunStatusRunning}
	m.runs[r.ID] = r
	return r, nil
}

func (m *memStore) FinishRun(_ context.Context, runID string, status model.RunStatus, runErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].Status = status
	m.runs[runID].Error = runErr
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID], nil
}

func (m *memStore) ListRuns(context.Context, store.RunFilter) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) StartStage(_ context.Context, runID, stage string) (*model.StageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.StageResult{
		ID:     "stage-" + strconv.Itoa(len(m.stages)),
		RunID:  runID,
		Stage:  stage,
		Status: model.RunStatusRunning,
	}
	m.stages = append(m.stages, st)
	return &st, nil
}

func (m *memStore) FinishStage(_ context.Context, stageID string, status model.RunStatus, rows int, elapsed time.Duration, stageErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.stages {
		if m.stages[i].ID == stageID {
			m.stages[i].Status = status
			m.stages[i].RowsWritten = rows
			m.stages[i].DurationMS = elapsed.Milliseconds()
			m.stages[i].Error = stageErr
		}
	}
	return nil
}

func (m *memStore) ListStages(_ context.Context, runID string) ([]model.StageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StageResult
	for _, st := range m.stages {
		if st.RunID == runID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Steel Plants")
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().Value = cell
		}
	}
	require.NoError(t, f.Save(path))
}

// fixtureConfig lays out a small but complete input set: two tracked
// companies, one plant under construction, every production source file.
func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	workbook := filepath.Join(dir, "steel_plants.xlsx")
	writeWorkbook(t, workbook, [][]string{
		{
			"Plant ID", "Plant name (English)", "Country", "Parent [formula]",
			"Status", "Start date", "Nominal crude steel capacity (ttpa)",
			"Nominal BF capacity (ttpa)", "Nominal EAF capacity (ttpa)",
			"Nominal DRI capacity (ttpa)", "Main production equipment",
		},
		{"SP001", "Oxelösund steel plant", "Sweden", "SSAB [100.0%]",
			"operating", "2010", "1500", "1500", "", "", "BF, BOF"},
		{"SP002", "Jamshedpur steel plant", "India", "Tata Steel Ltd [100%]",
			"operating", "", "10000", "10000", "", "", "BF, BOF"},
		{"SP003", "Luleå green steel plant", "Sweden", "SSAB [100.0%]",
			"construction", "", "2500", "", "2500", "", "EAF"},
	})

	reference := filepath.Join(dir, "reference.csv")
	writeFixture(t, reference,
		"company,plant_id,plant_name,country,ownership_share,capacity_ttpa,process,status\n"+
			"SSAB,REF1,Oxelösund steel plant,Sweden,1.0,1500,BF,operating\n"+
			"Tata Steel,REF2,Jamshedpur steel plant,India,1.0,10000,BF,operating\n")

	reported := filepath.Join(dir, "reported.csv")
	writeFixture(t, reported,
		"company,year,production_mt\n"+
			"SSAB,2019,1.2\nSSAB,2020,1.3\n"+
			"Tata Steel,2019,8.0\nTata Steel,2020,8.2\n")

	climateTrace := filepath.Join(dir, "climate_trace.csv")
	writeFixture(t, climateTrace,
		"company,year,emissions_mt_co2\nSSAB,2020,2.4\n")

	annualReports := filepath.Join(dir, "annual_reports.csv")
	writeFixture(t, annualReports,
		"company,year,metric,value,unit,source_detail,extraction_method,confidence,notes\n"+
			"SSAB,2020,emissions_mt_co2,2.3,Mt CO2,annual_report_2020,explicit_table,high,\n")

	return &config.Config{
		Data: config.DataConfig{
			TrackerWorkbook:    workbook,
			PlantSheet:         "Steel Plants",
			ReferenceOwnership: reference,
			ReportedProduction: reported,
			ClimateTrace:       climateTrace,
			AnnualReports:      annualReports,
			// remaining sources intentionally absent
			CuratedReports:  filepath.Join(dir, "curated.csv"),
			TrackerALD:      filepath.Join(dir, "ald.csv"),
			PlantProduction: filepath.Join(dir, "plant_production.csv"),
		},
		Output: config.OutputConfig{Dir: filepath.Join(dir, "out")},
		Pipeline: config.PipelineConfig{
			StartYear:   2019,
			EndYear:     2021,
			CurrentYear: 2025,
		},
	}
}

func readOutput(t *testing.T, cfg *config.Config, name string) *fetcher.Table {
	t.Helper()
	table, err := fetcher.ReadCSV(filepath.Join(cfg.Output.Dir, name))
	require.NoError(t, err)
	return table
}

func TestRunner_FullRun(t *testing.T) {
	cfg := fixtureConfig(t)
	st := newMemStore()
	r := NewRunner(cfg, st)

	require.NoError(t, r.Run(context.Background(), nil))

	// One complete run with one complete stage row per stage.
	require.Len(t, st.runs, 1)
	for _, run := range st.runs {
		assert.Equal(t, model.RunStatusComplete, run.Status)
	}
	require.Len(t, st.stages, 4)
	for _, stage := range st.stages {
		assert.Equal(t, model.RunStatusComplete, stage.Status, stage.Stage)
		assert.Greater(t, stage.RowsWritten, 0, stage.Stage)
	}
}

func TestRunner_IngestOutput(t *testing.T) {
	cfg := fixtureConfig(t)
	r := NewRunner(cfg, newMemStore())

	n, err := r.RunStage(context.Background(), StageIngest)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	plants, err := readPlants(filepath.Join(cfg.Output.Dir, PlantsFile))
	require.NoError(t, err)
	require.Len(t, plants, 3)

	byID := make(map[string]model.Plant)
	for _, p := range plants {
		byID[p.ID] = p
	}
	assert.Equal(t, model.TechBFBOF, byID["SP001"].Technology)
	assert.Equal(t, 2010, byID["SP001"].StartYear)
	// Unknown start year defaults by status.
	assert.Equal(t, 2000, byID["SP002"].StartYear)
	assert.Equal(t, 2025, byID["SP003"].StartYear)
	assert.Equal(t, model.TechEAF, byID["SP003"].Technology)
}

func TestRunner_OwnershipOutput(t *testing.T) {
	cfg := fixtureConfig(t)
	r := NewRunner(cfg, newMemStore())
	ctx := context.Background()

	_, err := r.RunStage(ctx, StageIngest)
	require.NoError(t, err)
	n, err := r.RunStage(ctx, StageOwnership)
	require.NoError(t, err)
	// SSAB claims two plants, Tata Steel one, over three years.
	assert.Equal(t, 9, n)

	mapping := readOutput(t, cfg, MappingFile)
	company, _ := mapping.Col("company")
	inRef, _ := mapping.Col("in_reference")
	plantName, _ := mapping.Col("plant_name")

	sawLulea := false
	for _, row := range mapping.Rows {
		if fetcher.Field(row, plantName) == "Luleå green steel plant" {
			sawLulea = true
			// Under construction and absent from the reference list.
			assert.Equal(t, "false", fetcher.Field(row, inRef))
			assert.Equal(t, "SSAB", fetcher.Field(row, company))
		}
	}
	assert.True(t, sawLulea)

	mismatches := readOutput(t, cfg, MismatchesFile)
	kind, _ := mismatches.Col("kind")
	kinds := make(map[string]int)
	for _, row := range mismatches.Rows {
		kinds[fetcher.Field(row, kind)]++
	}
	assert.Greater(t, kinds[string(model.MismatchNotInReference)], 0)
}

func TestRunner_APAOutput(t *testing.T) {
	cfg := fixtureConfig(t)
	r := NewRunner(cfg, newMemStore())
	ctx := context.Background()

	for _, stage := range []string{StageIngest, StageOwnership, StageAPA} {
		_, err := r.RunStage(ctx, stage)
		require.NoError(t, err)
	}

	results, err := readAPAEmissions(filepath.Join(cfg.Output.Dir, APAFile))
	require.NoError(t, err)

	type key struct {
		company string
		year    int
	}
	byKey := make(map[key]model.CompanyYearEmissions)
	for _, res := range results {
		byKey[key{res.Company, res.Year}] = res
	}

	reported := byKey[key{"SSAB", 2019}]
	assert.Equal(t, model.SourceReportedWorkbook, reported.ProductionSource)
	assert.InDelta(t, 1.2, reported.ProductionMt, 1e-9)
	// Only the operating plant counts toward capacity in 2019.
	assert.Equal(t, 1, reported.NPlants)
	assert.InDelta(t, 1.5, reported.TotalCapacityMt, 1e-9)
	assert.InDelta(t, 0.8, reported.UtilizationRate, 1e-9)
	assert.Greater(t, reported.EmissionsMt, 0.0)

	// 2021 has no source: filled from capacity × historical utilization.
	estimated, ok := byKey[key{"SSAB", 2021}]
	require.True(t, ok)
	assert.Equal(t, model.SourceCapacityEstimate, estimated.ProductionSource)
}

func TestRunner_IntegrateOutput(t *testing.T) {
	cfg := fixtureConfig(t)
	r := NewRunner(cfg, newMemStore())
	ctx := context.Background()

	require.NoError(t, r.Run(ctx, nil))

	long := readOutput(t, cfg, MultiSourceFile)
	source, _ := long.Col("source")
	metric, _ := long.Col("metric")
	isDefault, _ := long.Col("is_default")
	company, _ := long.Col("company")
	year, _ := long.Col("year")

	// SSAB 2020 emissions has all three sources and apa is the default.
	sources := make(map[string]string)
	for _, row := range long.Rows {
		if fetcher.Field(row, company) == "SSAB" &&
			fetcher.Field(row, year) == "2020" &&
			fetcher.Field(row, metric) == string(model.MetricEmissionsMtCO2) {
			sources[fetcher.Field(row, source)] = fetcher.Field(row, isDefault)
		}
	}
	require.Len(t, sources, 3)
	assert.Equal(t, "true", sources["apa"])
	assert.Equal(t, "false", sources["annual_report"])
	assert.Equal(t, "false", sources["climate_trace"])

	comparison := readOutput(t, cfg, ComparisonFile)
	_, ok := comparison.Col("comparison_apa")
	assert.True(t, ok)

	defaults := readOutput(t, cfg, DefaultsFile)
	assert.NotEmpty(t, defaults.Rows)
	di, _ := defaults.Col("is_default")
	for _, row := range defaults.Rows {
		assert.Equal(t, "true", fetcher.Field(row, di))
	}
}

func TestRunner_FailedStageRecordedAndHaltsRun(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Data.TrackerWorkbook = filepath.Join(t.TempDir(), "missing.xlsx")
	st := newMemStore()
	r := NewRunner(cfg, st)

	err := r.Run(context.Background(), nil)
	require.Error(t, err)

	require.Len(t, st.stages, 1)
	assert.Equal(t, StageIngest, st.stages[0].Stage)
	assert.Equal(t, model.RunStatusFailed, st.stages[0].Status)
	for _, run := range st.runs {
		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.NotEmpty(t, run.Error)
	}
}

func TestRunner_UnknownStage(t *testing.T) {
	cfg := fixtureConfig(t)
	r := NewRunner(cfg, newMemStore())

	_, err := r.RunStage(context.Background(), "publish")
	assert.Error(t, err)
}
