package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipguard/shipguard/analytics"
	"github.com/shipguard/shipguard/config"
	"github.com/shipguard/shipguard/hook"
	"github.com/shipguard/shipguard/output"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file and run onInit extension hooks",
	Long:  `init scaffolds a starter shipguard.json in the project root with the built-in defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		projectPath, _ := cmd.Flags().GetString("project")
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")

		absProjectPath, err := filepath.Abs(projectPath)
		if err != nil {
			return fmt.Errorf("failed to resolve project path: %w", err)
		}

		logger := output.NewLogger(output.VerbosityDefault)

		full := filepath.Join(absProjectPath, configPath)
		if !force {
			if _, err := os.Stat(full); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			}
		}

		if err := config.Save(absProjectPath, configPath, config.Default()); err != nil {
			return fmt.Errorf("failed to write %s: %w", configPath, err)
		}
		logger.Progress("Wrote %s", full)

		hooks := hook.NewHost()
		for _, msg := range hooks.DispatchInit(absProjectPath) {
			logger.Progress("%s", msg)
		}

		analytics.ReportEventWithProperties(analytics.InitCompleted, map[string]interface{}{
			"force": force,
		})

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
	initCmd.Flags().StringP("config", "c", "shipguard.json", "Path for the config file, relative to --project")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}
