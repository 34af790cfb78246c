package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage gamechanger configuration settings.

Configuration is loaded from --config, or from:
  1. $XDG_CONFIG_HOME/gamechanger/config.yaml (if set)
  2. ~/.config/gamechanger/config.yaml

Environment variables override file settings using the GAMECHANGER_ prefix:
  GAMECHANGER_BACKUP_ROOT=D:\GameChanger\Backups
  GAMECHANGER_MAX_BACKUPS=20
  GAMECHANGER_HASH_CACHE_ENABLED=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults, file and environment.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'notepad' on Windows and 'vi' elsewhere

If the config file doesn't exist, a default one will be created first.`,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create default configuration file",
	Long:        `Create a commented default configuration file if one doesn't exist.`,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show configuration file path",
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configFilePath returns --config or the default location.
func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.ConfigPath()
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if cfg.File != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", cfg.File)
	} else {
		fmt.Fprintln(out, "Config file: (using defaults, no file found)")
		fmt.Fprintln(out)
	}

	sources, sourcesErr := cfg.ResolveSources()

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "backup_root:          %s\n", cfg.BackupRoot)
	fmt.Fprintf(out, "saved_games_path:     %s\n", cfg.SavedGamesPath)
	fmt.Fprintf(out, "max_backups:          %d\n", cfg.MaxBackups)
	fmt.Fprintf(out, "sources_file:         %s\n", cfg.SourcesFile)
	fmt.Fprintf(out, "exclude:              %v\n", cfg.Exclude)
	fmt.Fprintf(out, "workers:              %d\n", cfg.Workers)
	fmt.Fprintf(out, "hash_cache.enabled:   %t\n", cfg.HashCache.Enabled)
	fmt.Fprintf(out, "hash_cache.path:      %s\n", cfg.HashCache.Path)
	fmt.Fprintf(out, "optimize.categories:  %v\n", cfg.Services.Optimize.Categories)
	fmt.Fprintf(out, "optimize.overrides:   %v\n", cfg.Services.Optimize.Overrides)
	fmt.Fprintf(out, "risk.high:            %v\n", cfg.Risk.High)
	fmt.Fprintf(out, "risk.medium:          %v\n", cfg.Risk.Medium)
	fmt.Fprintf(out, "watch.debounce:       %s\n", cfg.Watch.Debounce)
	fmt.Fprintf(out, "logging.level:        %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.path:         %s\n", cfg.Logging.Path)

	fmt.Fprintln(out, "\nResolved Sources:")
	fmt.Fprintln(out, "-----------------")
	if sourcesErr != nil {
		fmt.Fprintf(out, "(error: %v)\n", sourcesErr)
	}
	for _, s := range sources {
		status := "ok"
		if _, err := os.Stat(s); err != nil {
			status = "missing"
		}
		fmt.Fprintf(out, "%-8s %s\n", status, s)
	}

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	var overrides []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			overrides = append(overrides, kv)
		}
	}
	sort.Strings(overrides)
	if len(overrides) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	for _, kv := range overrides {
		fmt.Fprintln(out, kv)
	}
	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, _ []string) error {
	target, err := configFilePath()
	if err != nil {
		return err
	}
	configPath, _, err := config.WriteDefault(target)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = defaultEditor()
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	target, err := configFilePath()
	if err != nil {
		return err
	}
	configPath, created, err := config.WriteDefault(target)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !created {
		printInfo(cmd, "Config file already exists: %s", configPath)
		printInfo(cmd, "Use 'gamechanger config edit' to modify it.")
		return nil
	}
	printInfo(cmd, "Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := configFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), configPath)
	return nil
}
