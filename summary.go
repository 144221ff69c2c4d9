package main

import (
	"encoding/json"
	"fmt"
	"os"

	"finora/api/analysis"
	"finora/api/models"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	summaryFile     string
	summaryPlain    bool
	summarySnapshot bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard for a profile kept in a YAML file",
	Long: `Reads a profile in the same shape the editor submits (free-text
amounts, blank fields allowed) and prints the dashboard as markdown.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryFile, "file", "f", "", "profile YAML file")
	summaryCmd.Flags().BoolVar(&summaryPlain, "plain", false, "print raw markdown")
	summaryCmd.Flags().BoolVar(&summarySnapshot, "snapshot", false, "print the analysis snapshot as JSON")
	_ = summaryCmd.MarkFlagRequired("file")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	profile, err := readProfile(summaryFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if summarySnapshot {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis.BuildSnapshot(profile))
	}

	md := analysis.Markdown(profile)
	if summaryPlain {
		_, err := fmt.Fprint(out, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func readProfile(path string) (models.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var in models.ProfileInput
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return models.Profile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	p, err := in.Normalize()
	if err != nil {
		return models.Profile{}, fmt.Errorf("invalid profile in %s: %w", path, err)
	}
	return p, nil
}
