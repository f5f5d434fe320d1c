package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"editstate/internal/query"
	"editstate/internal/session"
)

func queryListCmd() *cobra.Command {
	var page, perPage int
	var orderBy, order string
	var where []string
	cmd := &cobra.Command{
		Use:   "list <kind> <name>",
		Short: "List a page of stored records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(where)
			if err != nil {
				return err
			}
			if orderBy != "" {
				params[session.ParamOrderBy] = orderBy
			}
			if order != "" {
				params[session.ParamOrder] = order
			}
			q := query.Query{Page: page, PerPage: perPage, Params: params}
			return runQueryList(args[0], args[1], q)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", query.DefaultPerPage, "Records per page, -1 for all")
	cmd.Flags().StringVar(&orderBy, "orderby", "", "Order by key or updated")
	cmd.Flags().StringVar(&order, "order", "", "asc or desc")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Field filter as field=value (repeatable)")
	return cmd
}

func runQueryList(kind, name string, q query.Query) error {
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
	records, _, err := sess.FetchRecords(ctx, cfg.Kind, cfg.Name, q)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "No records found.")
		return nil
	}

	for _, record := range records {
		key, _ := query.KeyOf(record[cfg.KeyField()])
		if title := cfg.Title(record); title != "" {
			fmt.Fprintf(os.Stdout, "%s  %s\n", key, title)
			continue
		}
		fmt.Fprintln(os.Stdout, key)
	}
	return nil
}

func parseParams(values []string) (map[string]string, error) {
	params := make(map[string]string, len(values))
	for _, value := range values {
		field, v, ok := strings.Cut(value, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --where %q, expected field=value", value)
		}
		params[field] = v
	}
	return params, nil
}
