package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/archlens/archlens/constants/lipgloss"
)

// AnalysisConfig holds the settings of the analysis pipeline.
type AnalysisConfig struct {
	EnableGenerativeAnalysis bool     `mapstructure:"enable_generative_analysis"`
	PreferredModel           string   `mapstructure:"preferred_model"`
	BackendEndpoint          string   `mapstructure:"backend_endpoint"`
	OpenAIBaseURL            string   `mapstructure:"openai_base_url"`
	ApiKey                   string   `mapstructure:"api_key"`
	RequestTimeoutSeconds    int      `mapstructure:"request_timeout_seconds"`
	Temperature              float32  `mapstructure:"temperature"`
	ForceCacheRefresh        bool     `mapstructure:"force_cache_refresh"`
	TargetLanguages          []string `mapstructure:"target_languages"`
	Concurrency              int      `mapstructure:"concurrency"`
	CacheDir                 string   `mapstructure:"cache_dir"`
	OutputDir                string   `mapstructure:"output_dir"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version     string          `mapstructure:"version"`
	Theme       string          `mapstructure:"theme"`
	ProjectName string          `mapstructure:"project_name"`
	Analysis    *AnalysisConfig `mapstructure:"analysis"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version: "0.4.1",
	Theme:   "dracula",
	Analysis: &AnalysisConfig{
		EnableGenerativeAnalysis: true,
		PreferredModel:           "codellama:13b-instruct",
		BackendEndpoint:          "http://localhost:11434",
		OpenAIBaseURL:            "https://api.openai.com/v1",
		ApiKey:                   "",
		RequestTimeoutSeconds:    120,
		Temperature:              0.1,
		ForceCacheRefresh:        false,
		TargetLanguages:          nil,
		Concurrency:              4,
		CacheDir:                 ".archlens/cache",
		OutputDir:                ".archlens",
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		// Use the config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("archlens-config") // Name of config file (without extension)
		viper.AddConfigPath(cwd)               // Look in the current working directory

		// Support both JSON and YAML formats
		viper.SetConfigType("yaml") // Set default type
		if err := viper.ReadInConfig(); err != nil {
			// If YAML fails, try JSON
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// If both fail, we'll continue with defaults
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Read the explicitly specified config file (if any)
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("project_name", DefaultConfig.ProjectName)
	viper.SetDefault("analysis.enable_generative_analysis", DefaultConfig.Analysis.EnableGenerativeAnalysis)
	viper.SetDefault("analysis.preferred_model", DefaultConfig.Analysis.PreferredModel)
	viper.SetDefault("analysis.backend_endpoint", DefaultConfig.Analysis.BackendEndpoint)
	viper.SetDefault("analysis.openai_base_url", DefaultConfig.Analysis.OpenAIBaseURL)
	viper.SetDefault("analysis.api_key", DefaultConfig.Analysis.ApiKey)
	viper.SetDefault("analysis.request_timeout_seconds", DefaultConfig.Analysis.RequestTimeoutSeconds)
	viper.SetDefault("analysis.temperature", DefaultConfig.Analysis.Temperature)
	viper.SetDefault("analysis.force_cache_refresh", DefaultConfig.Analysis.ForceCacheRefresh)
	viper.SetDefault("analysis.target_languages", DefaultConfig.Analysis.TargetLanguages)
	viper.SetDefault("analysis.concurrency", DefaultConfig.Analysis.Concurrency)
	viper.SetDefault("analysis.cache_dir", DefaultConfig.Analysis.CacheDir)
	viper.SetDefault("analysis.output_dir", DefaultConfig.Analysis.OutputDir)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("project_name", "PROJECT_NAME")
	_ = viper.BindEnv("analysis.enable_generative_analysis", "ENABLE_GENERATIVE_ANALYSIS")
	_ = viper.BindEnv("analysis.preferred_model", "PREFERRED_MODEL")
	_ = viper.BindEnv("analysis.backend_endpoint", "BACKEND_ENDPOINT")
	_ = viper.BindEnv("analysis.openai_base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("analysis.api_key", "API_KEY")
	_ = viper.BindEnv("analysis.request_timeout_seconds", "REQUEST_TIMEOUT_SECONDS")
	_ = viper.BindEnv("analysis.temperature", "TEMPERATURE")
	_ = viper.BindEnv("analysis.force_cache_refresh", "FORCE_CACHE_REFRESH")
	_ = viper.BindEnv("analysis.cache_dir", "CACHE_DIR")
	_ = viper.BindEnv("analysis.output_dir", "OUTPUT_DIR")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("project_name", rootCmd.PersistentFlags().Lookup("project_name"))
	_ = viper.BindPFlag("analysis.enable_generative_analysis", rootCmd.PersistentFlags().Lookup("enable_generative_analysis"))
	_ = viper.BindPFlag("analysis.preferred_model", rootCmd.PersistentFlags().Lookup("preferred_model"))
	_ = viper.BindPFlag("analysis.backend_endpoint", rootCmd.PersistentFlags().Lookup("backend_endpoint"))
	_ = viper.BindPFlag("analysis.openai_base_url", rootCmd.PersistentFlags().Lookup("openai_base_url"))
	_ = viper.BindPFlag("analysis.api_key", rootCmd.PersistentFlags().Lookup("api_key"))
	_ = viper.BindPFlag("analysis.request_timeout_seconds", rootCmd.PersistentFlags().Lookup("request_timeout_seconds"))
	_ = viper.BindPFlag("analysis.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("analysis.force_cache_refresh", rootCmd.PersistentFlags().Lookup("force_cache_refresh"))
	_ = viper.BindPFlag("analysis.target_languages", rootCmd.PersistentFlags().Lookup("target_languages"))
	_ = viper.BindPFlag("analysis.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	_ = viper.BindPFlag("analysis.cache_dir", rootCmd.PersistentFlags().Lookup("cache_dir"))
	_ = viper.BindPFlag("analysis.output_dir", rootCmd.PersistentFlags().Lookup("output_dir"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for terminal output. (e.g., 'dracula', 'light', 'dark')")
	rootCmd.PersistentFlags().String("project_name", "", "Project name recorded in the generated architecture model. Defaults to the analyzed directory name.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// Analysis pipeline configuration
	rootCmd.PersistentFlags().Bool("enable_generative_analysis", DefaultConfig.Analysis.EnableGenerativeAnalysis, "Enable the generative analysis passes. When disabled only static extraction runs.")
	rootCmd.PersistentFlags().String("preferred_model", DefaultConfig.Analysis.PreferredModel, "The model requested from the local generative backend.")
	rootCmd.PersistentFlags().String("backend_endpoint", DefaultConfig.Analysis.BackendEndpoint, "The base URL of the local generative backend.")
	rootCmd.PersistentFlags().String("openai_base_url", DefaultConfig.Analysis.OpenAIBaseURL, "The base URL of the hosted fallback backend.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.Analysis.ApiKey, "The API key used to authenticate with the hosted fallback backend.")
	rootCmd.PersistentFlags().Int("request_timeout_seconds", DefaultConfig.Analysis.RequestTimeoutSeconds, "Per-attempt timeout for generative backend requests.")
	rootCmd.PersistentFlags().Float32("temperature", DefaultConfig.Analysis.Temperature, "Sampling temperature for analysis requests. Kept low for reproducibility.")
	rootCmd.PersistentFlags().Bool("force_cache_refresh", DefaultConfig.Analysis.ForceCacheRefresh, "Bypass the analysis cache and recompute every result.")
	rootCmd.PersistentFlags().StringSlice("target_languages", nil, "Restrict analysis to these languages (e.g., 'go,python'). Empty means all supported.")
	rootCmd.PersistentFlags().Int("concurrency", DefaultConfig.Analysis.Concurrency, "Number of components analyzed concurrently.")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.Analysis.CacheDir, "Directory for persisted analysis results.")
	rootCmd.PersistentFlags().String("output_dir", DefaultConfig.Analysis.OutputDir, "Directory the architecture model and diagrams are written to.")
}
