package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/database/postgres"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

var skipBackend = map[string]string{annotationSkipBackend: ""}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the assessment database schema",
	}
	cmd.AddCommand(
		newMigrateUpCmd(),
		newMigrateDownCmd(),
		newMigrateStatusCmd(),
		newMigrateListCmd(),
		newMigrateForceCmd(),
	)
	return cmd
}

// databaseURL returns the configured DSN, failing when the database is
// disabled.
func databaseURL(cmd *cobra.Command) (*CLIContext, string, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, "", err
	}
	if !cliCtx.Config.Database.Enabled {
		return nil, "", errors.New(errors.ErrCodeFeatureDisabled, "database is not enabled in configuration")
	}
	return cliCtx, cliCtx.Config.Database.DSN(), nil
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "up",
		Short:       "Apply all pending migrations",
		Args:        cobra.NoArgs,
		Annotations: skipBackend,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, dsn, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(dsn); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "migration failed")
			}
			cliCtx.Logger.Info("migrations applied")
			PrintSuccess(cmd, "schema is up to date")
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:         "down",
		Short:       "Roll back migrations",
		Args:        cobra.NoArgs,
		Annotations: skipBackend,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, dsn, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigration(dsn, steps); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "rollback failed")
			}
			cliCtx.Logger.Info("migrations rolled back", logging.Int("steps", steps))
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d step(s)", steps))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

// migrationState is the result of migrate status.
type migrationState struct {
	Version   uint     `json:"version"`
	Dirty     bool     `json:"dirty"`
	Available []string `json:"available"`
}

func (s migrationState) TableHeaders() []string { return []string{"VERSION", "DIRTY", "AVAILABLE"} }

func (s migrationState) TableRows() [][]string {
	return [][]string{{strconv.FormatUint(uint64(s.Version), 10), strconv.FormatBool(s.Dirty), strconv.Itoa(len(s.Available))}}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show the applied schema version",
		Args:        cobra.NoArgs,
		Annotations: skipBackend,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dsn, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationStatus(dsn)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read migration status")
			}
			available, err := postgres.AvailableMigrations()
			if err != nil {
				return err
			}
			return PrintResult(cmd, migrationState{Version: version, Dirty: dirty, Available: available})
		},
	}
}

// migrationList renders the embedded migration files one per row.
type migrationList []string

func (l migrationList) TableHeaders() []string { return []string{"MIGRATION"} }

func (l migrationList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, name := range l {
		rows[i] = []string{name}
	}
	return rows
}

func newMigrateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List the embedded migrations",
		Args:        cobra.NoArgs,
		Annotations: skipBackend,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := postgres.AvailableMigrations()
			if err != nil {
				return err
			}
			return PrintResult(cmd, migrationList(names))
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "force VERSION",
		Short:       "Mark the schema as VERSION without running migrations",
		Long:        "Recover from a dirty schema after fixing a failed migration by hand.",
		Args:        cobra.ExactArgs(1),
		Annotations: skipBackend,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return errors.InvalidParam("VERSION must be a non-negative integer").WithDetail(args[0])
			}
			_, dsn, err := databaseURL(cmd)
			if err != nil {
				return err
			}
			if err := postgres.ForceMigrationVersion(dsn, version); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "force failed")
			}
			PrintSuccess(cmd, fmt.Sprintf("schema marked as version %d", version))
			return nil
		},
	}
}

//Personal.AI order the ending
