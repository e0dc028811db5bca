package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"organtour/pkg/config"
	"organtour/pkg/version"
)

const defaultConfigPath = "configs/organtour.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "organtour",
	Short:         "Organ Tour exhibit runtime",
	Long:          "organtour runs the anatomy exhibit: hotspot prompts, the shared information panel, locomotion preferences and the local control API.",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolveConfigPath(cmd)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), configPath)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the exhibit (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), configPath)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Generate the default config file and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.GenerateDefault(configPath); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file generated: %s\n", configPath)
		return nil
	},
}

// resolveConfigPath loads .env and lets ORGANTOUR_CONFIG replace the default
// config path. An explicit --config always wins.
func resolveConfigPath(cmd *cobra.Command) {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()
	if cmd.Flags().Changed("config") {
		return
	}
	if p := os.Getenv("ORGANTOUR_CONFIG"); p != "" {
		configPath = p
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config file (env ORGANTOUR_CONFIG)")

	rootCmd.AddCommand(serveCmd, initConfigCmd, newPrefsCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}
