package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/dockcatalog/internal/config"
	"github.com/bnema/dockcatalog/internal/logging"
	"github.com/bnema/dockcatalog/internal/usecase/pipeline"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dockcatalog",
	Short: "dockcatalog - self-hosted application catalog builder",
	Long: `dockcatalog assembles per-application descriptors into one catalog,
normalizes their docker-compose manifests and checks that every entry
has the icon and manifest it needs before the catalog is published.`,
	SilenceUsage: true,
}

// Execute runs the root command until it completes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dockcatalog.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config file in standard locations
		viper.SetConfigName("dockcatalog")
		viper.SetConfigType("toml")

		// Current directory (highest priority)
		viper.AddConfigPath(".")

		// User config directory
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(userConfigDir + "/dockcatalog")
		}

		// User home directory
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(homeDir + "/.dockcatalog")
		}

		viper.AddConfigPath("/etc/dockcatalog")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
	}
	// Without a config file every setting falls back to its default.
}

// newService loads the configuration, initializes logging and returns the
// pipeline service for one run of command.
func newService(command string) (*pipeline.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Setup(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	log := logging.ForRun(uuid.NewString(), command)
	return pipeline.NewService(cfg, afero.NewOsFs(), log), cfg, nil
}
