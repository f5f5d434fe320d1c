package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"editstate/internal/session"
	"editstate/internal/store"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored records from the CLI",
	}
	cmd.AddCommand(queryRecordCmd())
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(queryDirtyCmd())
	return cmd
}

// openSession loads the project and opens a session over its store. The
// returned close func releases the store.
func openSession(ctx context.Context) (*session.Session, func(), error) {
	p, err := loadProject()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(ctx, p.cfg)
	if err != nil {
		return nil, nil, err
	}
	sess := session.New(p.registry, db, session.Options{
		Logger:    p.logger,
		CacheSize: p.cfg.Cache.Size,
	})
	return sess, func() { closeDB(ctx, db) }, nil
}

func closeDB(ctx context.Context, db store.Store) {
	if err := db.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "closing database: %v\n", err)
	}
}

func printPropertyBlock(title string, props map[string]any) {
	if len(props) == 0 {
		return
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(os.Stdout, "%s:\n", title)
	for _, key := range keys {
		fmt.Fprintf(os.Stdout, "  %s: %v\n", key, props[key])
	}
	fmt.Fprintln(os.Stdout, "")
}
