package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/sunwrangle/sunwrangle-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set sunwrangle configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("years: %s\n", joinYears(cfg.Years))
		fmt.Printf("out_dir: %s\n", cfg.OutDir)
		if cfg.UVSourceDir != "" {
			fmt.Printf("uv_source_dir: %s\n", cfg.UVSourceDir)
		}
		if cfg.WorkbookPath != "" {
			fmt.Printf("workbook_path: %s\n", cfg.WorkbookPath)
		}
		fmt.Printf("sheet_name: %s\n", cfg.SheetName)
		fmt.Printf("header_row: %d\n", cfg.HeaderRow)
		fmt.Printf("rate_standard: %s\n", cfg.RateStandard)
		fmt.Printf("ckan_base_url: %s\n", cfg.CKANBaseURL)
		fmt.Printf("fetch_concurrency: %d\n", cfg.FetchConcurrency)
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "years":
			years, err := parseYearList(val)
			if err != nil {
				return err
			}
			cfg.Years = years
		case "out_dir":
			cfg.OutDir = val
		case "uv_source_dir":
			cfg.UVSourceDir = val
		case "workbook_path":
			cfg.WorkbookPath = val
		case "sheet_name":
			cfg.SheetName = val
		case "header_row":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for header_row: %v", val)
			}
			cfg.HeaderRow = i
		case "rate_standard":
			switch val {
			case "2001", "2025":
				cfg.RateStandard = val
			default:
				return fmt.Errorf("invalid rate_standard: %s (use 2001 or 2025)", val)
			}
		case "ckan_base_url":
			cfg.CKANBaseURL = val
		case "fetch_concurrency":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for fetch_concurrency: %v", val)
			}
			cfg.FetchConcurrency = i
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for http_timeout_sec: %v", val)
			}
			cfg.HTTPTimeoutSec = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}

// parseYearList parses a comma-separated year list like "2022,2023,2024".
func parseYearList(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || y < 1900 || y > 2100 {
			return nil, fmt.Errorf("invalid year: %q", part)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("no years in %q", s)
	}
	return years, nil
}
