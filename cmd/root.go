// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/config"
	"github.com/bluehensdev/formpilot/internal/observability"
)

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "formpilot",
	Short:   "Formpilot fills the ELI ITA training registration form for you.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Runs before any command, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			// Fall back to a usable logger so the error is still visible.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "formpilot"})
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Starting formpilot", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. The context carries signal cancellation from main.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.config/formpilot/config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig reads in the config file and FORMPILOT_* env variables.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "formpilot"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FORMPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars carry the run.
	}
	return nil
}
