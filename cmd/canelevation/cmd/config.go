package cmd

import (
	"fmt"
	"slices"
	"sort"

	"canelevation/internal/cli/output"
	"canelevation/internal/config"

	"github.com/spf13/cobra"
)

var (
	configInitFormat string
	configInitDir    string
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage canelevation configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configShowCmd shows current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration values in effect after files, environment and flags are applied.`,
	RunE:  runConfigShow,
}

// configPathCmd shows config file path
var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show config file path",
	Long:        `Display the path to the configuration file being used.`,
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigPath,
}

// configInitCmd writes a default config file
var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a default configuration file",
	Long:        `Write a configuration file holding the defaults, in the user config directory unless --dir is given.`,
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&configInitFormat, "format", "yaml", fmt.Sprintf("file format %v", config.SupportedFormats))
	configInitCmd.Flags().StringVar(&configInitDir, "dir", "", "target directory")
}

// settings is a flattened view of the configuration.
type settings map[string]any

func (s settings) TableData() *output.Table {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := output.NewTable("key", "value")
	for _, k := range keys {
		t.AddRow(k, fmt.Sprint(s[k]))
	}
	return t
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	v := config.NewViperFromConfig(Config())
	w := writer(cmd)
	if w.Format() == output.FormatTable {
		flat := settings{}
		for _, k := range v.AllKeys() {
			flat[k] = v.Get(k)
		}
		return w.Write(flat)
	}
	return w.Write(v.AllSettings())
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	w := writer(cmd)
	if path := config.ConfigFileUsed(ConfigFile()); path != "" {
		return w.Write(path)
	}
	w.Printf("No config file found, using defaults\n")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !slices.Contains(config.SupportedFormats, configInitFormat) {
		return usageError("unsupported config format %q, supported: %v", configInitFormat, config.SupportedFormats)
	}
	path, err := config.GenerateConfig(configInitDir, configInitFormat)
	if err != nil {
		return err
	}
	w := writer(cmd)
	w.Success("Configuration written")
	return w.Write(path)
}
