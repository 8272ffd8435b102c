package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/slingql/config"
)

func main() {
	cmd := newCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

var (
	configPath string
	logLevel   string
	listen     string
	schemaPath string
)

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slingql",
		Short: `SlingQL - Serve GraphQL schemas bound to named fetchers`,
		Long: `SlingQL - Serve GraphQL schemas whose fields are bound to named fetchers
  and whose scalars are bound to named converters through schema directives.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, `config`, ``,
		`path to the config file. Overrides <current directory>/`+config.FileName)
	flags.StringVar(&logLevel, `loglevel`, ``,
		`trace/debug/info/warn/error; overrides the config file`)

	cmd.AddCommand(newServeCommand(), newResolveCommand())
	return cmd
}

// loadConfig reads the config file named by --config, else the default
// file when present, else the built-in defaults. Flags override it.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case configPath != ``:
		cfg, err = config.Load(configPath)
	case fileExists(config.FileName):
		cfg, err = config.Load(config.FileName)
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != `` {
		cfg.LogLevel = logLevel
	}
	if listen != `` {
		cfg.Listen = listen
	}
	if schemaPath != `` {
		cfg.Schema = schemaPath
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config, out io.Writer) hclog.Logger {
	hclog.DefaultOptions = &hclog.LoggerOptions{
		Name:   `slingql`,
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: out,
	}
	return hclog.New(hclog.DefaultOptions)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
