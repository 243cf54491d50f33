// Package cmd provides the root command and CLI setup for skipguard.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"skipguard.dev/pkg/skipguard/internal/adapter"
	"skipguard.dev/pkg/skipguard/internal/controller"
	"skipguard.dev/pkg/skipguard/internal/domain"
)

var sourceFSAdapter adapter.SourceFSAdapter
var archiveAdapter adapter.ArchiveAdapter
var patcher domain.Patcher
var checker domain.ArchiveChecker

// verboseFlag switches file logging to debug level.
var verboseFlag bool

func init() {
	// Initialize shared dependencies.
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	archiveAdapter = adapter.NewLocalArchiveAdapter(sourceFSAdapter)
	patcher = domain.NewPatcher(sourceFSAdapter)
	checker = domain.NewArchiveChecker(archiveAdapter)
}

// workflowFor wires the shared adapters to a UI writing to cmd's output.
var workflowFor = func(cmd *cobra.Command) domain.Workflow {
	tty := cmd.OutOrStdout() == os.Stdout && controller.IsTTY(os.Stdout)

	return domain.NewWorkflow(
		sourceFSAdapter,
		controller.NewUI(cmd, tty),
		patcher,
		checker,
	)
}

const rootLongDescription = `skipguard prepares a Python test suite for a constrained runtime.

It inserts "raise unittest.SkipTest(...)" guards in front of test statements
that cannot run there (subprocesses, signals, terminal queries, ...), and it
verifies that a packaged support archive ships the expected C extensions.`

const patchLongDescription = `Insert skip guards in front of every line that contains one of the
profile's markers. Files are rewritten in place and processed in order;
files without markers are left untouched.

Arguments may be glob patterns (** is supported), for example:
  skipguard patch 'Lib/test/**/*.py'`

const checkLongDescription = `Open a support archive, locate the nested pythonhome zip and check that
every expected C extension is present. Prints one PASS/FAIL line per
extension and exits with status 1 if any is missing.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "skipguard",
		Short:        "Skip-guard patcher and archive checker for Python test suites",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "write debug level entries to the log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
