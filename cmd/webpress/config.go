package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/webpress/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration and settings management",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show a setting or config value",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a remembered setting",
	Long:  "Change a remembered setting. Only output_path can be set; other keys live in config.toml.",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config, settings and history file locations",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, field values, and environment variable substitution.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd, configTestCmd, configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

const keyOutputPath = "output_path"

// configValues flattens the effective configuration into dotted keys.
func configValues(cfg *config.Config, outputPath string) map[string]string {
	return map[string]string{
		keyOutputPath:         outputPath,
		"log.level":           cfg.Log.Level,
		"log.format":          cfg.Log.Format,
		"compress.quality":    strconv.FormatFloat(float64(cfg.Compress.QualityValue()), 'g', -1, 32),
		"compress.workers":    strconv.Itoa(cfg.Compress.Workers),
		"compress.mirror":     strconv.FormatBool(cfg.Compress.Mirror),
		"compress.output_dir": cfg.Compress.OutputDir,
		"history.enabled":     strconv.FormatBool(cfg.History.IsEnabled()),
		"history.path":        cfg.History.Path,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unknownKeyError(key string, known []string) error {
	if s := suggest(key, known); s != "" {
		return fmt.Errorf("unknown key %q (did you mean %q?)", key, s)
	}
	return fmt.Errorf("unknown key %q", key)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	outputPath, err := e.settings.Get()
	if err != nil {
		return err
	}
	values := configValues(e.cfg, outputPath)

	if len(args) == 1 {
		v, ok := values[args[0]]
		if !ok {
			return unknownKeyError(args[0], sortedKeys(values))
		}
		if jsonOutput {
			printJSON(map[string]string{args[0]: v})
			return nil
		}
		fmt.Println(v)
		return nil
	}

	if jsonOutput {
		printJSON(values)
		return nil
	}
	for _, k := range sortedKeys(values) {
		fmt.Printf("%-20s %s\n", k, values[k])
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if key != keyOutputPath {
		return unknownKeyError(key, []string{keyOutputPath})
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return err
	}
	if err := e.settings.Set(abs); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, abs)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	source := e.source
	if source == "" {
		source = "(none, using defaults)"
	}
	paths := map[string]string{
		"config":   source,
		"settings": e.settings.Path(),
		"history":  e.cfg.History.Path,
	}
	if jsonOutput {
		printJSON(paths)
		return nil
	}
	fmt.Printf("Config:   %s\n", paths["config"])
	fmt.Printf("Settings: %s\n", paths["settings"])
	fmt.Printf("History:  %s\n", paths["history"])
	return nil
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return err
		}
		path = found
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.Error
		if errors.As(err, &configErr) {
			printConfigErrors(configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

func printConfigErrors(e *config.Error) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	workers := "auto"
	if cfg.Compress.Workers > 0 {
		workers = strconv.Itoa(cfg.Compress.Workers)
	}
	history := "disabled"
	if cfg.History.IsEnabled() {
		history = cfg.History.Path
	}

	fmt.Println("Configuration Summary:")
	fmt.Printf("  Log:      %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Printf("  Quality:  %g\n", cfg.Compress.QualityValue())
	fmt.Printf("  Workers:  %s\n", workers)
	fmt.Printf("  Mirror:   %t\n", cfg.Compress.Mirror)
	if cfg.Compress.OutputDir != "" {
		fmt.Printf("  Output:   %s\n", cfg.Compress.OutputDir)
	}
	fmt.Printf("  History:  %s\n", history)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	if err := config.WriteDefault(path, force); err != nil {
		if errors.Is(err, config.ErrExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
