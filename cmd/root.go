// Package cmd implements the exposure-watch command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/jonesrussell/exposure-watch/cmd/check"
	"github.com/jonesrussell/exposure-watch/cmd/common"
	cmdtargets "github.com/jonesrussell/exposure-watch/cmd/targets"
	"github.com/jonesrussell/exposure-watch/cmd/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "exposure-watch",
	Short: "Watch a public exposure-site listing and announce new sites",
	Long: `exposure-watch polls a public exposure-site listing page, detects
sites that were not present on the previous check and announces them to
every registered target.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := bindFlags(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String(
		common.KeyConfig,
		"",
		"config file (default is $CONFIG_PATH or ./config.yml)",
	)
	rootCmd.PersistentFlags().Bool(common.KeyDebug, false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "exposure-watch version %s\n", Version)
		},
	})

	rootCmd.AddCommand(watch.Command(Version))
	rootCmd.AddCommand(check.Command())
	rootCmd.AddCommand(cmdtargets.Command())
}

// bindFlags binds the global flags and their environment variables to viper.
func bindFlags() error {
	flags := rootCmd.PersistentFlags()

	if err := viper.BindPFlag(common.KeyConfig, flags.Lookup(common.KeyConfig)); err != nil {
		return fmt.Errorf("failed to bind config flag: %w", err)
	}
	if err := viper.BindPFlag(common.KeyDebug, flags.Lookup(common.KeyDebug)); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := viper.BindEnv(common.KeyDebug, "APP_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind APP_DEBUG: %w", err)
	}

	return nil
}
