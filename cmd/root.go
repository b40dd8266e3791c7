package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/internal/logging"
)

var Version = "dev"

var (
	// jsonOutput controls whether output is formatted as JSON
	jsonOutput bool
	configFile string
	logFile    string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:     "tradedesk",
	Short:   "Terminal trading desk",
	Long:    `A terminal client for a live stock trading server: a streaming market board, your portfolio, and a trade dialog.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file (default "+config.DefaultLogPath()+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.SetVersionTemplate("tradedesk version {{.Version}}\n")
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

// configPath returns the config file selected by --config or the default.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithEnv(configPath())
}

// newFileLogger builds the logger for commands that own the terminal.
// --log-file wins over the config's log_file.
func newFileLogger(cfg *config.Config) (*zap.Logger, error) {
	path := logFile
	if path == "" {
		path = cfg.LogFile
	}
	if path == "" {
		path = config.DefaultLogPath()
	}
	return logging.NewFile(path, debug)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
