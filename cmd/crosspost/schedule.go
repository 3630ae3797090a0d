package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"crosspost/internal/api"
	"crosspost/internal/config"
)

// scheduleCmd asks the running server to queue a project. The server's
// planner owns every open intent, so the CLI never writes intents itself.
func scheduleCmd() *cobra.Command {
	var (
		projectID string
		at        string
		server    string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a project for publication to all of its targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			var due *time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				due = &t
			}

			if server == "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				server = serverURL(cfg.HTTP.Addr)
			}

			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := requestPublish(cmd.Context(), client, server, projectID, due)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Intent", "Platform", "Due", "Seq"})
			for _, i := range resp.Intents {
				tw.AppendRow(table.Row{i.ID, i.Platform, i.DueAt.Local().Format(time.RFC3339), i.Seq})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&at, "at", "", "due time in RFC 3339, defaults to now")
	cmd.Flags().StringVar(&server, "server", "", "base URL of the running server, defaults to http.addr from config")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// serverURL turns a listen address such as ":8080" into a base URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func requestPublish(ctx context.Context, client *http.Client, baseURL, projectID string, due *time.Time) (*api.IntentListResponse, error) {
	body, err := json.Marshal(api.PublishProjectRequest{DueAt: due})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/projects/" + url.PathEscape(projectID) + "/publish"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish project: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
			return nil, fmt.Errorf("publish project: unexpected status %d", res.StatusCode)
		}
		return nil, fmt.Errorf("publish project: %s: %s", envelope.Error.Code, envelope.Error.Message)
	}

	var out api.IntentListResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
