// Package cli defines the ftpbridge command line: flags overlay the
// configuration loaded from file and environment, then the server runs.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ftpbridge/internal/bridge"
	"ftpbridge/pkg/config"
	"ftpbridge/pkg/logger"
)

var (
	cfg       *config.Config
	cfgSource string
	cfgErr    error
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "ftpbridge",
	Short: "FTP front end for a Paperless-style document ingestion API",
	Long: `ftpbridge exposes an FTP server whose uploads are forwarded to a
Paperless-style document ingestion API. Every uploaded file is staged
locally, submitted as an ingestion job and reported back to the FTP client
once the job finishes.

All settings can be given as flags, environment variables (FTPBRIDGE_*) or
a YAML config file (FTPBRIDGE_CONFIG_PATH).`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Load configuration from file and environment; flags overlay on top.
	cfg, cfgSource, cfgErr = config.LoadConfig()
	if cfgErr != nil {
		cfg = &config.DefaultConfig
	}

	rootCmd.PersistentFlags().StringVarP(&cfg.Server.ListenAddr, "listen", "l", cfg.Server.ListenAddr,
		"Listen address, IP and port both required (e.g. 0.0.0.0:2121 or [::]:2121)")
	rootCmd.PersistentFlags().StringVar(&cfg.Server.PassivePorts, "passive-ports", cfg.Server.PassivePorts,
		"Passive mode port range (e.g. 2122-2124)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Server.Username, "username", "u", cfg.Server.Username,
		"FTP username")
	rootCmd.PersistentFlags().StringVarP(&cfg.Server.Password, "password", "p", cfg.Server.Password,
		"FTP password")
	rootCmd.PersistentFlags().StringVar(&cfg.Paperless.URL, "paperless-url", cfg.Paperless.URL,
		"URL of the Paperless instance (e.g. https://paperless.example.com)")
	rootCmd.PersistentFlags().StringVar(&cfg.Paperless.APIToken, "paperless-api-token", cfg.Paperless.APIToken,
		"Paperless API token")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Be verbose (forces DEBUG log level)")

	rootCmd.AddCommand(newConfigCmd())
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}

	if verbose {
		cfg.Logging.Level = "DEBUG"
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info("configuration loaded", "source", cfgSource)

	return bridge.RunServer(cfg)
}
