package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skipguard.dev/pkg/skipguard/internal/controller"
	"skipguard.dev/pkg/skipguard/internal/domain"
)

var profilesFormatFlag string

// profilesCmd represents the profiles command.
var profilesCmd = newProfilesCmd()

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the available marker profiles",
		Long:  "List built-in marker profiles and the ones defined under profiles.custom in skipguard.yaml.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := profilesFromConfig()
			if err != nil {
				return err
			}

			return workflowFor(cmd).Profiles(cmd.Context(), domain.ProfilesArgs{
				Profiles: profiles,
				Format:   controller.ProfileFormat(viper.GetString(profilesFormatKey)),
			})
		},
	}

	cmd.Flags().StringVarP(&profilesFormatFlag, formatFlagName, "o", viper.GetString(profilesFormatKey), "output format: table or yaml")
	bindFlagToConfig(cmd.Flags().Lookup(formatFlagName), profilesFormatKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
