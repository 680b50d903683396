package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhle/habit-calendar/internal/model"
)

// RootOptions are the flags shared by every command.
type RootOptions struct {
	ConfigPath  string
	EnvFile     string
	Debug       bool
	Owner       string
	MetricsAddr string

	cfg *model.AppConfig
}

// AddRootArgs registers the persistent flags.
func AddRootArgs(cmd *cobra.Command, o *RootOptions) {
	cmd.PersistentFlags().StringVar(&o.ConfigPath, "config", model.DefaultConfigPath(),
		"Path to the YAML config file.")
	cmd.PersistentFlags().StringVar(&o.EnvFile, "env-file", ".env",
		"Dotenv file loaded before the config; missing files are ignored.")
	cmd.PersistentFlags().BoolVar(&o.Debug, "debug", false,
		"Log at debug level in development format.")
	cmd.PersistentFlags().StringVar(&o.Owner, "owner", "",
		"Act as this owner id instead of the keyring session.")
	cmd.PersistentFlags().StringVar(&o.MetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address, e.g. :9090.")
}

// Load reads the dotenv file and the config. Environment variables win
// over the file, flags win over both.
func (o *RootOptions) Load() error {
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", o.EnvFile, err)
		}
	}
	cfg, err := model.LoadConfig(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.Owner != "" {
		cfg.Session.OwnerID = o.Owner
	}
	if o.MetricsAddr != "" {
		cfg.Log.MetricsAddr = o.MetricsAddr
	}
	o.cfg = cfg
	return nil
}

// Config returns the loaded configuration.
func (o *RootOptions) Config() *model.AppConfig {
	return o.cfg
}

// OutputOptions select machine-readable output.
type OutputOptions struct {
	JSON bool
}

// AddOutputArg registers --json.
func AddOutputArg(cmd *cobra.Command, o *OutputOptions) {
	cmd.Flags().BoolVar(&o.JSON, "json", false,
		"Output as JSON.")
}

// PrintJSON writes v as indented JSON.
func (o *OutputOptions) PrintJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(color.Output, string(b))
	return err
}

// HandleError reports err as JSON when --json is set.
func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		if jerr := o.PrintJSON(out); jerr != nil {
			return jerr
		}
		os.Exit(1)
	}
	return err
}
