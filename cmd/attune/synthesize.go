package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"attune/internal/session"
	"attune/internal/synthesis"
)

func newSynthesizeCommand(configPath *string) *cobra.Command {
	var (
		tenant  string
		dir     string
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "synthesize [transcript.json ...]",
		Short: "Aggregate completed interview transcripts into a readiness assessment",
		Long: `Reads stakeholder transcripts (JSON files, one per participant) and
synthesizes an organization-level readiness assessment: pillar and
dimension scores, corroborated themes, and recommendations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := args
			if dir != "" {
				found, err := filepath.Glob(filepath.Join(dir, "*.json"))
				if err != nil {
					return err
				}
				sort.Strings(found)
				refs = append(refs, found...)
			}
			if len(refs) == 0 {
				return fmt.Errorf("no transcripts given: pass file paths or --dir")
			}

			svc, _, _, err := buildService(*configPath)
			if err != nil {
				return err
			}

			report, err := svc.SynthesizeFromRefs(cmd.Context(), tenant, session.NewFileSource(), refs)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printAssessment(report, verbose)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "demo", "tenant identifier for usage gating")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of transcript JSON files (merged with positional args)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw assessment as JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include per-dimension scores")
	return cmd
}

func printAssessment(report *synthesis.ReadinessAssessment, verbose bool) {
	title := color.New(color.FgCyan, color.Bold)
	section := color.New(color.Bold)

	title.Printf("\nOrganizational Readiness: %.0f/100\n", report.OverallScore)
	fmt.Printf("%d transcript(s) consumed, %d total tokens\n\n", report.TranscriptsConsumed, report.Usage.TotalTokens)

	section.Println("Pillars")
	for _, p := range report.Pillars {
		fmt.Printf("  %-24s %s %.0f\n", p.Name, scoreBar(p.Score), p.Score)
		if !verbose {
			continue
		}
		for _, d := range p.Dimensions {
			fmt.Printf("    %-26s %.0f\n", d.Label, d.Score)
		}
	}

	if len(report.KeyThemes) > 0 {
		fmt.Println()
		section.Println("Key themes")
		for _, t := range report.KeyThemes {
			fmt.Printf("  - %s\n", t)
		}
	}
	if len(report.Recommendations) > 0 {
		fmt.Println()
		section.Println("Recommendations")
		for i, r := range report.Recommendations {
			fmt.Printf("  %d. %s\n", i+1, r)
		}
	}
	for _, w := range report.Warnings {
		color.Yellow("warning: %s", w)
	}
	fmt.Println()
}

// scoreBar renders a 20-cell gauge colored by band.
func scoreBar(score float64) string {
	cells := int(score / 5)
	if cells > 20 {
		cells = 20
	}
	if cells < 0 {
		cells = 0
	}
	bar := strings.Repeat("█", cells) + strings.Repeat("░", 20-cells)
	switch {
	case score >= 70:
		return color.GreenString(bar)
	case score >= 40:
		return color.YellowString(bar)
	default:
		return color.RedString(bar)
	}
}
