package main

import (
	"github.com/spf13/cobra"

	"github.com/open-asset-data/asset-pipeline/internal/pipeline"
)

// runStages executes the given pipeline stages under one ledger run.
func runStages(cmd *cobra.Command, stages []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	return pipeline.NewRunner(cfg, st).Run(cmd.Context(), stages)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Read the tracker workbook into plants.csv",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, []string{pipeline.StageIngest})
	},
}

var ownershipCmd = &cobra.Command{
	Use:   "ownership",
	Short: "Map plants to companies and cross-validate equity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, []string{pipeline.StageOwnership})
	},
}

var apaCmd = &cobra.Command{
	Use:   "apa",
	Short: "Resolve production and compute asset-based emissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, []string{pipeline.StageAPA})
	},
}

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Merge asset-based and independent sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, []string{pipeline.StageIntegrate})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all pipeline stages in order, halting on the first failure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, nil)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, ownershipCmd, apaCmd, integrateCmd, runCmd)
}
