package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataConfig points at the input files the stages read. Every path is a
// plain file on disk; upstream collaborators drop new vintages in place.
type DataConfig struct {
	TrackerWorkbook    string `yaml:"tracker_workbook" mapstructure:"tracker_workbook"`
	PlantSheet         string `yaml:"plant_sheet" mapstructure:"plant_sheet"`
	SheetSkipRows      int    `yaml:"sheet_skip_rows" mapstructure:"sheet_skip_rows"`
	ReferenceOwnership string `yaml:"reference_ownership" mapstructure:"reference_ownership"`
	ReportedProduction string `yaml:"reported_production" mapstructure:"reported_production"`
	PlantProduction    string `yaml:"plant_production" mapstructure:"plant_production"`
	AnnualReports      string `yaml:"annual_reports" mapstructure:"annual_reports"`
	CuratedReports     string `yaml:"curated_reports" mapstructure:"curated_reports"`
	TrackerALD         string `yaml:"tracker_ald" mapstructure:"tracker_ald"`
	ClimateTrace       string `yaml:"climate_trace" mapstructure:"climate_trace"`
	CountryProduction  string `yaml:"country_production" mapstructure:"country_production"`
}

// OutputConfig configures where stage outputs land.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig holds the year window the pipeline computes over.
type PipelineConfig struct {
	StartYear   int `yaml:"start_year" mapstructure:"start_year"`
	EndYear     int `yaml:"end_year" mapstructure:"end_year"`
	CurrentYear int `yaml:"current_year" mapstructure:"current_year"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSETDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "asset-pipeline.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("data.tracker_workbook", "data/steel_plants.xlsx")
	v.SetDefault("data.plant_sheet", "Steel Plants")
	v.SetDefault("data.sheet_skip_rows", 0)
	v.SetDefault("data.reference_ownership", "data/reference_ownership.csv")
	v.SetDefault("data.reported_production", "data/reported_production.csv")
	v.SetDefault("data.plant_production", "data/plant_production.csv")
	v.SetDefault("data.annual_reports", "data/annual_report_extractions.csv")
	v.SetDefault("data.curated_reports", "data/curated_reports.csv")
	v.SetDefault("data.tracker_ald", "data/tracker_ald.csv")
	v.SetDefault("data.climate_trace", "data/climate_trace.csv")
	v.SetDefault("data.country_production", "")
	v.SetDefault("output.dir", "output")
	v.SetDefault("pipeline.start_year", 2015)
	v.SetDefault("pipeline.end_year", 2025)
	v.SetDefault("pipeline.current_year", 2025)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings every stage depends on. Path existence is
// left to the stages: a stage only needs its own inputs present.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Output.Dir == "" {
		problems = append(problems, "output.dir is required")
	}
	if c.Pipeline.StartYear > c.Pipeline.EndYear {
		problems = append(problems, "pipeline.start_year must not exceed pipeline.end_year")
	}
	if c.Pipeline.CurrentYear < c.Pipeline.EndYear {
		problems = append(problems, "pipeline.current_year must not precede pipeline.end_year")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
