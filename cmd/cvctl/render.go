package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cvio-backend/cv/model"
	"cvio-backend/cv/render"
	cvskills "cvio-backend/cv/skills"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a CV document to ODT",
	Long:  "Merges a CV document and a skill catalog into the document template and writes the ODT file.",
	RunE:  runRender,
}

var (
	renderCV       string
	renderCatalog  string
	renderTemplate string
	renderOut      string
)

func init() {
	renderCmd.Flags().StringVarP(&renderCV, "cv", "c", "", "Path to CV JSON document (required)")
	renderCmd.Flags().StringVarP(&renderCatalog, "catalog", "s", "", "Path to skill catalog YAML")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Path to ODT template (defaults to the embedded template)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "cv.odt", "Output path")

	if err := renderCmd.MarkFlagRequired("cv"); err != nil {
		panic(fmt.Sprintf("failed to mark cv flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(renderCV)
	if err != nil {
		return fmt.Errorf("read cv: %w", err)
	}
	profile, err := model.ParseProfile("", raw)
	if err != nil {
		return err
	}

	var catalog []model.SkillCatalogEntry
	if renderCatalog != "" {
		reqs, err := readCatalog(renderCatalog)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			catalog = append(catalog, model.SkillCatalogEntry{ID: req.ID, Name: req.Name, Category: req.Category})
		}
	}

	resolved, report := cvskills.ResolveWithReport(profile.Skills, catalog)
	for _, id := range report.Stale {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skill %s is not in the catalog, dropped\n", id)
	}
	for _, id := range report.Malformed {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skill %s has a malformed rating\n", id)
	}

	doc, err := render.NewEngine().Render(profile.Fields(), resolved, render.TemplateFromPath(renderTemplate))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if dir := filepath.Dir(renderOut); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(renderOut, doc.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", renderOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: wrote %s (%d skills)\n", renderOut, len(resolved))
	return nil
}
