package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const entitiesTemplate = `version: 1
entities:
  - kind: postType
    name: post
    label: Posts
    resource: posts
    transient_edits: [selection]
    raw_attributes: [title, content, excerpt]
    title_field: title
  - kind: postType
    name: page
    label: Pages
    resource: pages
    transient_edits: [selection]
    raw_attributes: [title, content]
    title_field: title
`

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new editstate project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, dsn)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "sqlite://./editstate.db", "Database DSN")
	return cmd
}

func runInit(projectName, dsn string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(entitiesPath); err == nil {
		return fmt.Errorf("%s already exists", entitiesPath)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\ndatabase:\n  dsn: '%s'\n\ncache:\n  size: 1024\n\nlog:\n  level: info\n  format: text\n\nsources:\n  - kind: postType\n    name: post\n    paths:\n      - ./content/posts/\n  - kind: postType\n    name: page\n    paths:\n      - ./content/pages/\n\nexclude:\n  - ./content/drafts/\n", projectName, dsn)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(entitiesPath, []byte(entitiesTemplate), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", entitiesPath, err)
	}

	return nil
}
