package cmd

import (
	"github.com/spf13/cobra"
)

const skipWireAnnotation = "dh.skip-wire"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "dh",
		Short:         "DeltaHash session keeper (dh): keep mining sessions alive for many accounts",
		Long:          "dh keeps one authenticated DeltaHash mining session alive per configured account, rotating proxies, refreshing sessions and sending the periodic earn heartbeat.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWireAnnotation] == "true" {
				return nil
			}
			wired, err := wireApp(configPath)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.deltahash/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newStatusCmd(app),
		newAccountsCmd(app),
		newIdentityCmd(app),
	)

	return rootCmd
}
