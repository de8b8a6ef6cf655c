// Package registry loads the curation data embedded in the binary: company
// claim patterns, ownership transfers, emission factor tables, production
// source priorities, and known-bad extraction rules. Shipping the data with
// the binary keeps runs reproducible without network or filesystem setup.
package registry

import (
	"embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

//go:embed data/*.yaml
var dataFS embed.FS

func decode(name string, out any) error {
	raw, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return eris.Wrapf(err, "registry: read %s", name)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return eris.Wrapf(err, "registry: decode %s", name)
	}
	return nil
}

// Companies returns the tracked-company pattern registry in file order.
func Companies() ([]model.CompanyPattern, error) {
	var doc struct {
		Companies []model.CompanyPattern `yaml:"companies"`
	}
	if err := decode("companies.yaml", &doc); err != nil {
		return nil, err
	}
	if len(doc.Companies) == 0 {
		return nil, eris.New("registry: companies.yaml is empty")
	}
	return doc.Companies, nil
}

// Transfers returns the ownership-transfer table.
func Transfers() ([]model.OwnershipTransfer, error) {
	var doc struct {
		Transfers []model.OwnershipTransfer `yaml:"transfers"`
	}
	if err := decode("transfers.yaml", &doc); err != nil {
		return nil, err
	}
	return doc.Transfers, nil
}

// EmissionFactors returns the emission-factor tables. The Global rows are
// mandatory: every lookup must be able to fall back to them.
func EmissionFactors() (model.EmissionFactors, error) {
	var ef model.EmissionFactors
	if err := decode("emission_factors.yaml", &ef); err != nil {
		return model.EmissionFactors{}, err
	}
	if _, ok := ef.BFBOF["Global"]; !ok {
		return model.EmissionFactors{}, eris.New("registry: bf_bof table has no Global row")
	}
	if _, ok := ef.EAF["Global"]; !ok {
		return model.EmissionFactors{}, eris.New("registry: eaf table has no Global row")
	}
	if ef.ReferenceYear == 0 {
		return model.EmissionFactors{}, eris.New("registry: reference_year missing")
	}
	return ef, nil
}

// ProductionSources returns the production-source priority specs. Priorities
// must be unique or resolution order would be undefined.
func ProductionSources() ([]model.SourceSpec, error) {
	var doc struct {
		Sources []model.SourceSpec `yaml:"sources"`
	}
	if err := decode("production_sources.yaml", &doc); err != nil {
		return nil, err
	}
	seen := make(map[int]model.ProductionSource, len(doc.Sources))
	for _, s := range doc.Sources {
		if prev, dup := seen[s.Priority]; dup {
			return nil, eris.Errorf("registry: sources %s and %s share priority %d", prev, s.Label, s.Priority)
		}
		seen[s.Priority] = s.Label
	}
	return doc.Sources, nil
}

// Exclusions returns the known-bad extraction rules.
func Exclusions() ([]model.ExclusionRule, error) {
	var doc struct {
		Exclusions []model.ExclusionRule `yaml:"exclusions"`
	}
	if err := decode("exclusions.yaml", &doc); err != nil {
		return nil, err
	}
	return doc.Exclusions, nil
}
