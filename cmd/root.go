// Package cmd provides the weft command-line interface.
//
// Configuration is layered, highest priority first:
//  1. Command-line flags (--port, --host, ...)
//  2. Environment variables with a WEFT_ prefix (WEFT_SERVER_PORT, ...)
//  3. The .weft.yml configuration file
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "A component template engine with per-render asset collection",
	Long: `Weft renders .weft component templates and collects the CSS and JS
each component declares, so a page links exactly the assets its component
tree uses, each one once, in render order.

Quick Start:
  weft init                       Scaffold a new project
  weft serve                      Start the preview server with hot reload
  weft list                       List discovered components`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .weft.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("WEFT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".weft")
	}

	viper.SetEnvPrefix("WEFT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
