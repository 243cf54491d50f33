package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skipguard.dev/pkg/skipguard/internal/domain"
	m "skipguard.dev/pkg/skipguard/internal/model"
)

var checkFragmentsFlag []string

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <archive>",
		Short: "Verify that a support archive ships the expected C extensions",
		Long:  checkLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := workflowFor(cmd).Check(cmd.Context(), domain.CheckArgs{
				Archive: m.Path(args[0]),
				Spec:    archiveSpecFromConfig(),
			})

			// Both failures are already printed on stdout; only the exit status is left.
			if errors.Is(err, domain.ErrNestedArchiveNotFound) || errors.Is(err, domain.ErrMissingFragments) {
				cmd.SilenceErrors = true
			}

			return err
		},
	}

	configureCheckFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func configureCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&checkFragmentsFlag, fragmentFlagName, "f", viper.GetStringSlice(checkFragmentsKey), "expected member name fragment (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(fragmentFlagName), checkFragmentsKey)
}
