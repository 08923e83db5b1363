// Command touchscenes bridges a TouchOSC-style controller to a scene host:
// scene buttons on the controller switch scenes, and scene names are pushed
// back to the controller's labels.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"touchscenes/config"
	"touchscenes/logger"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "touchscenes",
	Short:        "OSC scene switcher for TouchOSC controllers",
	Long:         `touchscenes listens for scene buttons from a TouchOSC controller, switches scenes on the host and keeps the controller's scene labels in sync. Controllers are found over mDNS.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug|info|warn|error)")
}

// loadConfig reads the config named by --config and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		if !logger.ValidLevel(lvl) {
			return nil, nil, fmt.Errorf("invalid --log-level %q", lvl)
		}
		cfg.Log.Level = lvl
	}

	return cfg, logger.New(cfg.Log.Level, cfg.Log.Pretty), nil
}
