package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lxpfetch/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage lxpfetch configuration files.

Configuration is resolved in this order, later sources winning:
  - Default values
  - Configuration file (.lxpfetch.yaml or ~/.config/lxpfetch/config.yaml)
  - .env files and LXPFETCH_* environment variables
  - Command line flags`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Create a configuration file with the default settings.

The file is written to .lxpfetch.yaml in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.

Login and password never appear in the output; only the path of the
credentials file does.`,
	Args: cobra.NoArgs,
	Run:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = ".lxpfetch.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(os.Stderr, "Configuration file already exists:", path)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.Platform.Domain = "ithub"
	cfg.Credentials.File = "credentials.json"

	if err := cfg.Save(path); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to write configuration:", err)
		os.Exit(1)
	}

	fmt.Println("Wrote", path)
	fmt.Println()
	fmt.Println("Edit it to set your platform domain and credentials file, then run:")
	fmt.Println("  lxpfetch fetch")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(2)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to render configuration:", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
}
