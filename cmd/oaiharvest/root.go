package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/miku/oaiharvest"
	"github.com/miku/oaiharvest/oaixml"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "oaiharvest",
	Short:         "oaiharvest talks to OAI-PMH repositories.",
	Version:       oaiharvest.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return readConfig()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file (default $HOME/.oaiharvest.yaml)")
	f.String("user-agent", oaiharvest.UserAgent, "user agent to send")
	f.Duration("timeout", oaiharvest.DefaultTimeout, "deadline of a single attempt")
	f.Int("retry", 3, "additional attempts after a failed request")
	f.Int("max-requests", 16384, "maximum number of requests per harvest, 0 means no limit")
	f.Float64("rps", 0, "maximum requests per second, 0 means no limit")
	f.BoolP("verbose", "v", false, "more output")
	for _, name := range []string{"config", "user-agent", "timeout", "retry", "max-requests", "rps", "verbose"} {
		if err := viper.BindPFlag(name, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("oaiharvest")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// readConfig loads an optional YAML config file. Flags and environment
// variables take precedence over its values.
func readConfig() error {
	if file := viper.GetString("config"); file != "" {
		expanded, err := homedir.Expand(file)
		if err != nil {
			return err
		}
		viper.SetConfigFile(expanded)
		return viper.ReadInConfig()
	}
	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".oaiharvest")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func newLogger() *zerolog.Logger {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
	return &log
}

func newClient(endpoint string, log *zerolog.Logger) (*oaiharvest.Client, error) {
	return oaiharvest.New(oaiharvest.Config{
		Endpoint:          endpoint,
		UserAgent:         viper.GetString("user-agent"),
		Timeout:           viper.GetDuration("timeout"),
		MaxRetry:          viper.GetInt("retry"),
		MaxRequests:       viper.GetInt("max-requests"),
		RequestsPerSecond: viper.GetFloat64("rps"),
		Parser:            oaixml.Parser{},
		Logger:            log,
	})
}

// writeJSON writes v as a single line of JSON.
func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
