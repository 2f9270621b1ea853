package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cvio-backend/cv/render"
)

var checkTemplateCmd = &cobra.Command{
	Use:   "check-template",
	Short: "Verify a document template can be used for export",
	RunE:  runCheckTemplate,
}

var checkTemplatePath string

func init() {
	checkTemplateCmd.Flags().StringVarP(&checkTemplatePath, "template", "t", "", "Path to ODT template (defaults to the embedded template)")
	rootCmd.AddCommand(checkTemplateCmd)
}

func runCheckTemplate(cmd *cobra.Command, _ []string) error {
	tpl := render.TemplateFromPath(checkTemplatePath)
	if err := render.NewEngine().CheckTemplate(tpl); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", tpl.Name())
	return nil
}
