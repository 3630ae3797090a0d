package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"crosspost/internal/service"
	"crosspost/internal/storage/postgres"
)

func statusCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-target publish status of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				tm := postgres.NewTransactionManager(e.db)
				svc := service.NewStatusService(postgres.NewProjectStore(e.db), postgres.NewAttemptStore(e.db, tm))
				report, err := svc.ProjectStatus(ctx, projectID)
				if err != nil {
					return err
				}

				fmt.Printf("Project %s: %s\n", report.ProjectID, report.Status)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Platform", "Status", "Attempt", "URL", "Error", "Updated"})
				for _, t := range report.Targets {
					errText := ""
					if t.ErrorKind != "" {
						errText = string(t.ErrorKind)
						if t.ErrorDetail != "" {
							errText += ": " + t.ErrorDetail
						}
					}
					updated := ""
					if t.UpdatedAt != nil {
						updated = t.UpdatedAt.Local().Format("2006-01-02 15:04:05")
					}
					tw.AppendRow(table.Row{t.Platform, t.Status, t.Attempt, t.URL, errText, updated})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
