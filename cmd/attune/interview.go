package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"attune/internal/assessment"
	"attune/internal/conversation"
)

func newInterviewCommand(configPath *string) *cobra.Command {
	var (
		tenant      string
		name        string
		role        string
		org         string
		withReflect bool
	)

	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run an interactive interview session on stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, _, err := buildService(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pctx := conversation.ParticipantContext{
				TenantID:        tenant,
				ParticipantName: name,
				ParticipantRole: role,
				Organization:    org,
			}
			opened, err := svc.OpenInterview(ctx, pctx)
			if err != nil {
				return err
			}
			assistant := color.New(color.FgCyan)
			assistant.Printf("\n%s\n\n", opened.Reply)

			reader := bufio.NewReader(os.Stdin)
			sessionID := opened.SessionID
			for {
				fmt.Print("> ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}

				result, err := svc.AdvanceInterview(ctx, sessionID, line)
				if err != nil {
					return err
				}
				assistant.Printf("\n%s\n\n", result.Reply)
				for _, w := range result.Warnings {
					color.Yellow("warning: %s", w)
				}
				if result.State.Complete {
					break
				}
			}

			if !withReflect {
				return nil
			}
			return runReflection(cmd, svc, sessionID, reader)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "demo", "tenant identifier for usage gating")
	cmd.Flags().StringVar(&name, "name", "there", "participant name")
	cmd.Flags().StringVar(&role, "role", "contributor", "participant role (executive, people_lead, contributor, operations)")
	cmd.Flags().StringVar(&org, "org", "", "organization name")
	cmd.Flags().BoolVar(&withReflect, "reflect", false, "continue into the reflection dialogue after results")
	return cmd
}

func runReflection(cmd *cobra.Command, svc *assessment.Service, sessionID string, reader *bufio.Reader) error {
	ctx := cmd.Context()
	assistant := color.New(color.FgMagenta)

	// Opening turn consumes no input.
	result, err := svc.AdvanceReflection(ctx, sessionID, "")
	if err != nil {
		return err
	}
	assistant.Printf("\n%s\n\n", result.Reply)

	for !result.State.Complete {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		result, err = svc.AdvanceReflection(ctx, sessionID, line)
		if err != nil {
			return err
		}
		assistant.Printf("\n%s\n\n", result.Reply)
		for _, w := range result.Warnings {
			color.Yellow("warning: %s", w)
		}
	}
	return nil
}
