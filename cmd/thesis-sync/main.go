// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the thesis-sync CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/thesis-sync/internal/config"
	"github.com/pdiddy/thesis-sync/internal/logging"
	"github.com/pdiddy/thesis-sync/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE once --verbose is known.
var logger = log.Default()

// rootCmd is the base command for the thesis-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "thesis-sync",
	Short: "Sync collaborative student theses into static JSON datasets",
	Long: `thesis-sync pulls student thesis records from the university research
portal API, keeps those written together with an external partner, resolves
their partner organizations and supervisors, and publishes projects.json,
organizations.json and metadata.json for the project portal.

Configuration comes from thesis-sync.yaml, THESIS_SYNC_* environment
variables, PURE_API_KEY / PURE_API_BASE_URL / DATA_DIR, and .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = logging.New(os.Stderr, verbose)
		log.SetDefault(logger)

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		config.ApplySecrets(viper.GetViper(), s)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./thesis-sync.yaml or ~/.config/thesis-sync/thesis-sync.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output")
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("thesis-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "thesis-sync"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Error("reading config file", "err", err)
			os.Exit(1)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
