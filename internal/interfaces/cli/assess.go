package cli

import (
	"github.com/spf13/cobra"

	appassessment "github.com/turtacn/recidivism-forecast/internal/application/assessment"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

const fileArgHelp = "FILE is JSON, YAML or TOML by extension; use - to read JSON from stdin."

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score FILE",
		Short: "Score one profile",
		Long:  "Compute the weighted risk score, level and component breakdown of one profile.\n" + fileArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			in, err := loadProfile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := cliCtx.Backend.Score(ctx, in)
			if err != nil {
				return err
			}
			cliCtx.Logger.Debug("profile scored", logging.String("person_id", res.PersonID), logging.Float64("score", res.Score))
			return PrintResult(cmd, res)
		},
	}
}

func newForecastCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "forecast FILE",
		Short: "Forecast the next likely offenses of one profile",
		Long:  "List offense forecasts ordered by expected days until occurrence.\n" + fileArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			in, err := loadProfile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := cliCtx.Backend.Forecast(ctx, in, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, res)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum forecasts to return (0 uses the server default)")
	return cmd
}

func newPlanCmd() *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "plan [FILE]",
		Short: "Build an intervention plan",
		Long: "Build an intervention plan for a risk level (--level) or for a profile file,\n" +
			"in which case the plan also targets the profile's most likely offenses.\n" + fileArgHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (level == "") == (len(args) == 0) {
				return errors.InvalidParam("give either --level or a profile FILE")
			}
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			req := appassessment.PlanRequest{Level: level}
			if len(args) == 1 {
				in, err := loadProfile(args[0], cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Profile = &in
			}
			plan, err := cliCtx.Backend.Plan(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, plan)
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", "", "risk level (low, medium, high, critical)")
	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report FILE",
		Short: "Run a full assessment of one profile",
		Long: "Score, forecast and plan one profile in a single report.  The assessment is\n" +
			"stored when the database is enabled.\n" + fileArgHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			in, err := loadProfile(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := cliCtx.Backend.Assess(ctx, in)
			if err != nil {
				return err
			}
			return PrintResult(cmd, a)
		},
	}
}

func newBatchCmd() *cobra.Command {
	var failOnError bool
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Assess many profiles",
		Long: "Assess a list of profiles.  FILE holds either a list or a {profiles: [...]}\n" +
			"document (TOML needs the document form).  Items fail independently.\n" + fileArgHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			inputs, err := loadBatch(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := cliCtx.Backend.AssessBatch(ctx, inputs)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, res); err != nil {
				return err
			}
			if failOnError && res.Failed > 0 {
				return errors.Newf(errors.ErrCodeBatchPartialFailure, "%d of %d profiles failed", res.Failed, res.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any profile fails")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show research statistics of the active constants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			stats, err := cliCtx.Backend.Statistics(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, stats)
		},
	}
}

//Personal.AI order the ending
