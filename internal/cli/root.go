package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wayfind",
	Short: "Wayfind - conversational outdoor activity recommendations",
	Long: `Wayfind turns a free-text request like "easy hike near Zurich" into a
short list of concrete activities found on the web.

Each result describes exactly one named activity. Detailed metrics such as
distance or elevation are only shown when the source page attributes them
to that activity.

Reply to the results to refine them, ask for something else, or finish.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wayfind v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.wayfind/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")
	pf.String("llm-provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	pf.String("llm-model", "", "LLM model name")
	pf.String("search-engine", "", "web search engine (tavily, firecrawl)")
	pf.String("backend", "", "page fetch backend (direct, jina, firecrawl)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("llm.provider", pf.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", pf.Lookup("llm-model"))
	_ = viper.BindPFlag("search.engine", pf.Lookup("search-engine"))
	_ = viper.BindPFlag("http.backend", pf.Lookup("backend"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".wayfind"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configureEnv reads environment variables that match WAYFIND_*, with
// nested keys joined by underscores (WAYFIND_LLM_PROVIDER).
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("WAYFIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
