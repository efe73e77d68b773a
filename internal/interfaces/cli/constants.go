package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

func newConstantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constants",
		Short: "Inspect and validate research constants tables",
	}
	cmd.AddCommand(newConstantsShowCmd(), newConstantsValidateCmd())
	return cmd
}

func newConstantsShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active constants table",
		Long: "Print the constants table the engine is running with, either the embedded\n" +
			"table, the --constants override, or the server's table with --server.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, ctx, cancel, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			c, err := cliCtx.Backend.Constants(ctx)
			if err != nil {
				return err
			}
			switch f := strings.ToLower(format); f {
			case "json":
				return render(cmd.OutOrStdout(), OutputJSON, c)
			case string(risk.FormatYAML), string(risk.FormatTOML):
				doc, err := c.Encode(risk.Format(f))
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			default:
				return errors.InvalidParam("unsupported constants format").
					WithDetail(fmt.Sprintf("%q (want yaml, toml or json)", format))
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(risk.FormatYAML), "document format (yaml, toml, json)")
	return cmd
}

// constantsCheck is the validation summary of one table file.
type constantsCheck struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

type constantsChecks []constantsCheck

func (c constantsChecks) TableHeaders() []string { return []string{"PATH", "VALID", "VERSION", "ERROR"} }

func (c constantsChecks) TableRows() [][]string {
	rows := make([][]string, 0, len(c))
	for _, chk := range c {
		rows = append(rows, []string{chk.Path, fmt.Sprint(chk.Valid), chk.Version, chk.Error})
	}
	return rows
}

func newConstantsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "validate FILE...",
		Short:       "Validate constants table files",
		Long:        "Parse and validate YAML or TOML constants tables without starting the engine.",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationSkipBackend: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := make(constantsChecks, 0, len(args))
			failed := 0
			for _, path := range args {
				chk := constantsCheck{Path: path}
				c, err := risk.LoadConstantsFile(path)
				if err != nil {
					failed++
					chk.Error = err.Error()
				} else {
					chk.Valid = true
					chk.Version = c.Version
				}
				checks = append(checks, chk)
			}
			if err := PrintResult(cmd, checks); err != nil {
				return err
			}
			if failed > 0 {
				return errors.Newf(errors.ErrCodeConstantsInvalid, "%d of %d constants files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

//Personal.AI order the ending
