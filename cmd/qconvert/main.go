// Package main implements the qconvert CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gofhir/qconvert/pkg/logger"
)

const version = "0.1.0"

// errFailed signals that the report has already been printed and the
// process should exit non-zero.
var errFailed = errors.New("one or more files failed")

var (
	// Global flags that apply to all commands
	configPath string
	verbose    bool
	quiet      bool
)

const longHelp = `qconvert rewrites FHIR Questionnaire resources, alone or inside Bundles,
from one FHIR version to another and reports every element it had to drop
or approximate.

Examples:
  # Convert an R4 Questionnaire to R5 next to the input
  qconvert convert --from R4 --to R5 intake.json

  # Convert a compressed bundle to STU3, keeping R4-only fields as extensions
  qconvert convert --from R4 --to STU3 --preserve-extensions --out build forms.json.xz

  # Check converted output
  qconvert check --version R5 build/*.json`

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qconvert",
		Short:         "Convert FHIR Questionnaires between STU3, R4, R4B and R5",
		Long:          longHelp,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case verbose:
				logger.SetLevel(logger.LevelDebug)
			case quiet:
				logger.SetLevel(logger.LevelError)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with default settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every conversion step")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(newConvertCmd(), newVersionsCmd(), newCheckCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
