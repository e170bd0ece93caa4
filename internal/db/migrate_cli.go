package db

import (
	"fmt"
	"io"
)

// RunMigrateCommand handles "ptz-tracker migrate <up|down|status>" against the
// database at dbPath.
func RunMigrateCommand(args []string, dbPath string, w io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(w)
		return fmt.Errorf("missing migrate action")
	}

	migrations, err := MigrationsFS()
	if err != nil {
		return err
	}
	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
	case "status":
	case "help":
		PrintMigrateHelp(w)
		return nil
	default:
		PrintMigrateHelp(w)
		return fmt.Errorf("unknown migrate action %q", args[0])
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	latest, err := LatestMigrationVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "schema version: %d (latest %d)", version, latest)
	if dirty {
		fmt.Fprint(w, " DIRTY")
	}
	fmt.Fprintln(w)
	return nil
}

func PrintMigrateHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: ptz-tracker migrate <action>

Actions:
  up      apply all pending migrations
  down    roll back the most recent migration
  status  print the current schema version
`)
}
