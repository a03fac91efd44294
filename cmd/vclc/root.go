// Package main implements vclc, a thin demonstration CLI over
// pkg/session's Host API. Grounded on go-corset's cmd/testgen/main.go
// (a single cobra rootCmd doing all the work, no subcommand tree) and
// pkg/cmd/root.go's flag-to-config wiring (-D/-I-style repeatable
// flags collected with GetStringArray there, cobra's own
// StringArrayVarP here to the same effect).
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagImportDirs []string
	flagDefines    []string
	flagWerror     bool
	flagPrint      bool
	flagVerbose    bool
	flagEntry      string
)

var rootCmd = &cobra.Command{
	Use:   "vclc [flags] source_file",
	Short: "Compile and run a VCL source file against the reference interpreter.",
	Long: `vclc parses, emits, and verifies a single VCL source file through
pkg/session's Host API, then invokes an entry point against the
in-tree tree-walking reference backend (pkg/ir/interp) — there is no
real JIT backend in this repository; see pkg/ir's doc comment.`,
	Args: cobra.ExactArgs(1),
	Run:  runCompile,
}

func main() {
	rootCmd.Flags().StringArrayVarP(&flagImportDirs, "import-dir", "I", nil, "add a directory to the @import search path")
	rootCmd.Flags().StringArrayVarP(&flagDefines, "define", "D", nil, "pre-register a bare @define flag")
	rootCmd.Flags().BoolVar(&flagWerror, "werror", false, "treat warnings as errors")
	rootCmd.Flags().BoolVar(&flagPrint, "print", false, "pretty-print the parsed program instead of running it")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "increase logging verbosity")
	rootCmd.Flags().StringVar(&flagEntry, "entry", "Main", "entry point function to invoke")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	log.SetFormatter(&log.TextFormatter{})
}
