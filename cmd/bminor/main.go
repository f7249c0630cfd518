package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bminorlang/bminor/pkg/errors"
)

var version = "0.2.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "bminor",
		Short:   "B-minor native compiler",
		Long:    `bminor compiles B-minor source files to native x86-64 executables via NASM assembly.`,
		Version: version,
	}
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	buildCmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Compile a source file to a native executable",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}
	buildCmd.Flags().StringP("output", "o", "", "Output executable name")
	buildCmd.Flags().BoolP("verbose", "v", false, "Verbose diagnostics (info level)")
	buildCmd.Flags().Bool("emit-ir", false, "Print the TAC dump before emitting assembly")
	buildCmd.Flags().Bool("cache", false, "Use the build cache")
	buildCmd.Flags().Bool("run", false, "Run the produced executable after linking")

	checkCmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and type-check without generating code",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().BoolP("verbose", "v", false, "Verbose diagnostics (info level)")

	irCmd := &cobra.Command{
		Use:   "ir <file>",
		Short: "Print the three-address IR for a source file",
		Args:  cobra.ExactArgs(1),
		RunE:  runIR,
	}
	irCmd.Flags().BoolP("verbose", "v", false, "Verbose diagnostics (info level)")

	watchCmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Recompile whenever the source file changes",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().StringP("output", "o", "", "Output executable name")
	watchCmd.Flags().BoolP("verbose", "v", false, "Verbose diagnostics (info level)")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the build cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show build cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	})

	rootCmd.AddCommand(buildCmd, checkCmd, irCmd, watchCmd, cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError renders compiler errors with their diagnostics and anything else
// plainly.
func printError(err error) {
	os.Stderr.WriteString(errors.FormatError(err) + "\n")
}
