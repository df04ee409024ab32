package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lazypower/verdict/internal/store"
)

// Build metadata, stamped with
//
//	-ldflags "-X github.com/lazypower/verdict/internal/cli.Version=v0.3.0 -X ...Commit=abc123 -X ...BuildDate=2026-01-01"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, build and decision-log schema information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, Version)
			return
		}
		fmt.Fprintf(out, "verdict %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		fmt.Fprintf(out, "  decision log schema: v%d\n", store.LatestSchemaVersion())
		fmt.Fprintf(out, "  go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version")
}

// VersionString returns the version reported by /api/health and server logs.
func VersionString() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
