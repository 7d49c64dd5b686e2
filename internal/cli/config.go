package cli

import (
	"fmt"
	"strconv"

	"github.com/existflow/edugo/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change client settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting and save it to ~/.edugo/config.yaml.

Keys: server_url, api_key, timeout_seconds, refresh_seconds, log_level`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, _ := config.Path()
	fmt.Printf("Config file:      %s\n", path)
	fmt.Printf("server_url:       %s\n", cfg.ServerURL)
	fmt.Printf("api_key:          %s\n", maskKey(cfg.APIKey))
	fmt.Printf("timeout_seconds:  %d\n", cfg.TimeoutSeconds)
	fmt.Printf("refresh_seconds:  %d\n", cfg.RefreshSeconds)
	fmt.Printf("log_level:        %s\n", cfg.LogLevel)
	fmt.Printf("log_file:         %s\n", cfg.LogFile)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	switch key {
	case "server_url":
		cfg.ServerURL = value
	case "api_key":
		cfg.APIKey = value
	case "timeout_seconds", "refresh_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative number", key)
		}
		if key == "timeout_seconds" {
			cfg.TimeoutSeconds = n
		} else {
			cfg.RefreshSeconds = n
		}
	case "log_level":
		cfg.LogLevel = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("✅ %s updated.\n", key)
	return nil
}

func maskKey(k string) string {
	if len(k) <= 6 {
		return "******"
	}
	return k[:3] + "…" + k[len(k)-3:]
}
