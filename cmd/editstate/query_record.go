package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"editstate/internal/query"
	"editstate/internal/state"
)

func queryRecordCmd() *cobra.Command {
	var fields string
	var viewContext string
	var edited bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "record <kind> <name> <key>",
		Short: "Display one stored record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.Query{Context: viewContext, Fields: query.ParseFields(fields)}
			return runQueryRecord(args[0], args[1], state.Key(args[2]), q, edited, asJSON)
		},
	}
	cmd.Flags().StringVar(&fields, "fields", "", "Comma separated fields to return")
	cmd.Flags().StringVar(&viewContext, "context", "", "View context")
	cmd.Flags().BoolVar(&edited, "edited", false, "Show the edited form with raw attributes unwrapped")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	return cmd
}

func runQueryRecord(kind, name string, key state.Key, q query.Query, edited, asJSON bool) error {
	ctx := context.Background()

	sess, closeSession, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSession()

	cfg, err := sess.Entity(kind, name)
	if err != nil {
		return err
	}
	record, presence, err := sess.FetchRecord(ctx, cfg.Kind, cfg.Name, key, q)
	if err != nil {
		return err
	}
	if presence != state.Loaded {
		fmt.Fprintf(os.Stdout, "No record found for %s/%s %s.\n", cfg.Kind, cfg.Name, key)
		return nil
	}
	if edited {
		record = sess.Selectors().GetEditedEntityRecord(sess.Snapshot(), cfg.Kind, cfg.Name, key)
	}

	if asJSON {
		payload, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(payload))
		return nil
	}

	if title := cfg.Title(sess.Selectors().GetEditedEntityRecord(sess.Snapshot(), cfg.Kind, cfg.Name, key)); title != "" {
		fmt.Fprintf(os.Stdout, "Title: %s\n", title)
	}
	fmt.Fprintf(os.Stdout, "Key: %s\n\n", key)
	printPropertyBlock("Fields", record)
	return nil
}
