package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fbinsights/pkg/config"
	"fbinsights/pkg/graph"
	"fbinsights/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage fbinsights configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (FBINSIGHTS_*), including a .env file
  - Configuration file
  - Default values`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as 'fbinsights.yaml' unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The access token and
app secret are masked.`,
	Args: cobra.NoArgs,
	Run:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# fbinsights configuration file
#
# Every option can also be set with an environment variable prefixed with
# FBINSIGHTS_, for example FBINSIGHTS_PAGE_ID and FBINSIGHTS_ACCESS_TOKEN.

facebook:
  # Page to analyze and a page access token with read_insights
  page_id: "YOUR_PAGE_ID"
  access_token: "YOUR_PAGE_ACCESS_TOKEN"
  api_version: "v19.0"
  base_url: "https://graph.facebook.com"

  # Only needed by 'fbinsights auth exchange'
  app_id: ""
  app_secret: ""

fetch:
  # Page insights window: day, week or days_28
  period: "days_28"
  # Number of recent posts to analyze
  post_limit: 3
  # HTTP request timeout
  timeout: 30s

# Off by default: one run makes 2 + 10 x post_limit requests
rate_limit:
  enabled: false
  # token_bucket or sliding_window
  strategy: "token_bucket"
  requests_per_minute: 200

# Off by default: failed requests are reported, not repeated
retry:
  enabled: false
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s
  multiplier: 2.0
  jitter_factor: 0.1

output:
  directory: "."
  summary_file: "facebook_analytics.json"
  raw_file: "facebook_analytics_all_data.json"
  indent: 4

# Run history in a local SQLite database
history:
  enabled: false
  path: "fbinsights.db"

logging:
  # debug, info, warn, error
  level: "info"
  # text or json
  format: "text"
  # Optional log file, stdout when empty
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "fbinsights.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		exitCode(1)
		return
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		fail("Failed to create configuration file", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file and add your page ID and access token")
	fmt.Println("2. Run 'fbinsights config validate' to check it")
	fmt.Println("3. Fetch analytics with 'fbinsights fetch'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		fail("Failed to load configuration", err)
	}

	data, err := yaml.Marshal(maskConfig(cfg))
	if err != nil {
		fail("Failed to format configuration", err)
	}

	ui.PrintHighlight("Current configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (" + config.EnvPrefix + "*)")
	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source != "" {
		fmt.Printf("3. Configuration file: %s\n", source)
	} else {
		fmt.Println("3. Configuration file: (none found)")
	}
	fmt.Println("4. Default values")
}

// maskConfig returns a copy of cfg safe to print
func maskConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	masked.Facebook.AccessToken = mask(cfg.Facebook.AccessToken)
	masked.Facebook.AppSecret = mask(cfg.Facebook.AppSecret)
	return &masked
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		fail("No configuration file found", "specify a file with --config")
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		fail("Configuration validation failed", err)
	}

	var warnings, problems []string

	creds := graph.Credentials{PageID: cfg.Facebook.PageID, AccessToken: cfg.Facebook.AccessToken}
	if err := creds.Validate(); err != nil {
		warnings = append(warnings, fmt.Sprintf("credentials not configured (%v); fetch will fall back to stored accounts", err))
	}
	if cfg.Facebook.AppID != "" && cfg.Facebook.AppSecret == "" {
		warnings = append(warnings, "app_id is set without app_secret")
	}

	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create history directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		exitCode(1)
		return
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Graph API: %s/%s\n", cfg.Facebook.BaseURL, cfg.Facebook.APIVersion)
	fmt.Printf("  Period: %s, posts: %d\n", cfg.Fetch.Period, cfg.Fetch.PostLimit)
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	if cfg.RateLimit.Enabled {
		fmt.Printf("  Rate limit: %d requests/minute (%s)\n", cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Strategy)
	}
	if cfg.Retry.Enabled {
		fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	}
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
