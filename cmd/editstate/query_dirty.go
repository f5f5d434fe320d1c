package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"editstate/internal/query"
	"editstate/internal/state"
)

// editFile is one record's edits in a --edits file.
type editFile struct {
	Kind   string         `yaml:"kind"`
	Name   string         `yaml:"name"`
	Key    string         `yaml:"key"`
	Fields map[string]any `yaml:"fields"`
}

func queryDirtyCmd() *cobra.Command {
	var editsPath string
	cmd := &cobra.Command{
		Use:   "dirty",
		Short: "Apply edits from a file and list the records they leave dirty",
		RunE: func(cmd *cobra.Command, args []string) error {
			if editsPath == "" {
				return fmt.Errorf("--edits is required")
			}
			return runQueryDirty(editsPath)
		},
	}
	cmd.Flags().StringVar(&editsPath, "edits", "", "YAML list of {kind, name, key, fields} edits")
	return cmd
}

func runQueryDirty(editsPath string) error {
	ctx := context.Background()

	data, err := os.ReadFile(editsPath)
	if err != nil {
		return fmt.Errorf("reading edits: %w", err)
	}
	var edits []editFile
	if err := yaml.Unmarshal(data, &edits); err != nil {
		return fmt.Errorf("parsing edits: %w", err)
	}

	sess, closeSession, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSession()

	for _, edit := range edits {
		key := state.Key(edit.Key)
		if _, _, err := sess.FetchRecord(ctx, edit.Kind, edit.Name, key, query.Query{}); err != nil {
			return err
		}
		if err := sess.Edit(edit.Kind, edit.Name, key, edit.Fields); err != nil {
			return err
		}
	}

	dirty := sess.Selectors().GetDirtyEntityRecords(sess.Snapshot())
	if len(dirty) == 0 {
		fmt.Fprintln(os.Stdout, "No dirty records.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Dirty records (%d):\n", len(dirty))
	for _, record := range dirty {
		fmt.Fprintf(os.Stdout, "  - %s/%s %s", record.Kind, record.Name, record.Key)
		if record.Title != "" {
			fmt.Fprintf(os.Stdout, " %q", record.Title)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
