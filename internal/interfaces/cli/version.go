package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
)

// BuildInfo describes the binary.
type BuildInfo struct {
	Version          string `json:"version"`
	Commit           string `json:"commit"`
	BuildDate        string `json:"build_date"`
	GoVersion        string `json:"go_version"`
	ConstantsVersion string `json:"constants_version"`
}

func (b BuildInfo) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (b BuildInfo) TableRows() [][]string {
	return [][]string{
		{"version", b.Version},
		{"commit", b.Commit},
		{"build_date", b.BuildDate},
		{"go_version", b.GoVersion},
		{"constants_version", b.ConstantsVersion},
	}
}

func currentBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if c, err := risk.DefaultConstants(); err == nil {
		info.ConstantsVersion = c.Version
	}
	return info
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: skipBackend,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, currentBuildInfo())
		},
	}
}

//Personal.AI order the ending
