package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/logging"
	"fieldservice-backend/internal/oracle"
	"fieldservice-backend/internal/slots"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "fieldschedd",
		Short:         "Field inspection scheduler: travel-aware slot suggestions and bookings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml" // Default path for local development
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultPath, "path to the YAML configuration file")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newSlotsCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// load reads the configuration and builds the process logger.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", o.configPath, err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("configuration loaded", zap.String("path", o.configPath))
	return cfg, logger, nil
}

// newScheduler builds the slot engine around the Google travel time client.
func newScheduler(cfg *config.Config, logger *zap.Logger) (*slots.Scheduler, error) {
	if cfg.Oracle.APIKey == "" {
		logger.Warn("oracle.api_key is empty; travel lookups will fail and slots will not be travel-checked")
	}
	opts, err := slots.OptionsFromConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}
	client := oracle.NewGoogleClient(cfg.Oracle, logger.Named("oracle"))
	return slots.New(client, opts, logger), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fieldschedd %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
