package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/topphysics/storage/database"
	"github.com/trezcool/topphysics/storage/database/mongodb"
)

// mockable
var (
	migrateUpFunc     = database.Migrate
	migrateStatusFunc = database.Status
	migrateRunFunc    = database.Run
)

var errNoDatabase = errors.New("migrations need a MongoDB database; the in-memory store is configured")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	ctx := context.Background()

	switch cmd {
	case "up":
		applied, err := migrateUpFunc(ctx, cli.db)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			_, _ = fmt.Fprintln(cli.out, "no pending migration")
		}
		for _, v := range applied {
			_, _ = fmt.Fprintf(cli.out, "applied %d\n", v)
		}
		return nil
	case "status":
		statuses, err := migrateStatusFunc(ctx, cli.db)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			applied := "pending"
			if st.AppliedAt != nil {
				applied = st.AppliedAt.Format("2006-01-02 15:04:05")
			}
			_, _ = fmt.Fprintf(cli.out, "%4d  %-20s  %s\n", st.Version, applied, st.Description)
		}
		return nil
	default:
		return fmt.Errorf("%q: no such command", cmd)
	}
}

// normalize re-runs the student normalization even if it was already applied.
func (cli *commandLine) normalize() error {
	if cli.db == nil {
		return errNoDatabase
	}
	m, ok := database.Find(mongodb.NormalizeStudentsVersion)
	if !ok {
		return errors.Errorf("migration %d is not registered", mongodb.NormalizeStudentsVersion)
	}
	if err := migrateRunFunc(context.Background(), cli.db, m); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, "students normalized")
	return nil
}
