package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cvio-backend/internal/bootstrap"
	"cvio-backend/internal/shared/config"
)

var seedSkillsCmd = &cobra.Command{
	Use:   "seed-skills",
	Short: "Load a skill catalog file into the configured store",
	Long:  "Upserts every skill of a YAML catalog into the store selected by CV_STORE.",
	RunE:  runSeedSkills,
}

var seedSkillsFile string

func init() {
	seedSkillsCmd.Flags().StringVarP(&seedSkillsFile, "file", "f", "", "Path to skill catalog YAML (required)")
	if err := seedSkillsCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	rootCmd.AddCommand(seedSkillsCmd)
}

func runSeedSkills(cmd *cobra.Command, _ []string) error {
	reqs, err := readCatalog(seedSkillsFile)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if cfg.Store == config.StoreMemory {
		return fmt.Errorf("seed-skills needs a persistent store; set CV_STORE or DATABASE_URL")
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.SkillService.Seed(context.Background(), reqs)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: seeded %d skills into %s\n", n, cfg.Store)
	return nil
}
