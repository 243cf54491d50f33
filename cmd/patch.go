package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skipguard.dev/pkg/skipguard/internal/domain"
)

var patchProfileFlag string
var patchDryRunFlag bool
var patchQuietFlag bool

// patchCmd represents the patch command.
var patchCmd = newPatchCmd()

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patch [files...]",
		Aliases: []string{"fix"},
		Short:   "Insert skip guards in front of marked test statements",
		Long:    patchLongDescription,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := profilesFromConfig()
			if err != nil {
				return err
			}

			return workflowFor(cmd).Patch(cmd.Context(), domain.PatchArgs{
				Paths:    args,
				Profile:  viper.GetString(patchProfileKey),
				Profiles: profiles,
				DryRun:   viper.GetBool(patchDryRunKey),
				Quiet:    viper.GetBool(patchQuietKey),
			})
		},
	}

	configurePatchFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(patchCmd)
}

func configurePatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&patchProfileFlag, profileFlagName, "p", viper.GetString(patchProfileKey), "marker profile to apply (see 'skipguard profiles')")
	bindFlagToConfig(cmd.Flags().Lookup(profileFlagName), patchProfileKey)

	cmd.Flags().BoolVarP(&patchDryRunFlag, dryRunFlagName, "n", viper.GetBool(patchDryRunKey), "print a unified diff instead of rewriting files")
	bindFlagToConfig(cmd.Flags().Lookup(dryRunFlagName), patchDryRunKey)

	cmd.Flags().BoolVarP(&patchQuietFlag, quietFlagName, "q", viper.GetBool(patchQuietKey), "do not print the summary table")
	bindFlagToConfig(cmd.Flags().Lookup(quietFlagName), patchQuietKey)
}
