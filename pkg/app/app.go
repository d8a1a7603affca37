// Package app implements the cobra-based bootstrap shared by every binary
// in this module: build an Options tree, register its flags, bind viper,
// validate, then hand off to a RunFunc.
package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/brightpath-edu/iepforge/pkg/utils/cliflag"
)

// CliOptions is anything that can contribute flags and validate itself,
// which every *options.Options tree in this module satisfies.
type CliOptions interface {
	Flags() cliflag.NamedFlagSets
	Validate() []error
}

// RunFunc is the application's entrypoint, invoked once options are parsed
// and validated.
type RunFunc func(basename string) error

// App is a thin wrapper around a cobra.Command.
type App struct {
	name        string
	basename    string
	description string
	options     CliOptions
	runFunc     RunFunc
	validArgs   cobra.PositionalArgs
	cmd         *cobra.Command
}

// Option configures an App at construction time.
type Option func(*App)

func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDefaultValidArgs rejects any positional arguments, the common case
// for a long-running server binary.
func WithDefaultValidArgs() Option {
	return func(a *App) { a.validArgs = cobra.NoArgs }
}

// NewApp builds an App and its backing cobra.Command.
func NewApp(name, basename string, opts ...Option) *App {
	a := &App{name: name, basename: basename}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:           basename,
		Short:         a.name,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.validArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run()
		},
	}
	cmd.SetGlobalNormalizationFunc(cliNormalizeFunc)

	if a.options != nil {
		namedFlagSets := a.options.Flags()
		for _, name := range namedFlagSets.Order() {
			cmd.Flags().AddFlagSet(namedFlagSets.FlagSet(name))
		}
		cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file; flags and env vars override it.")
	}
	a.cmd = cmd

	return a
}

var configFile string

func cliNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(name)
}

func (a *App) run() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %q: %w", configFile, err)
		}
		if a.options != nil {
			if err := viper.Unmarshal(a.options); err != nil {
				return fmt.Errorf("bind config file into options: %w", err)
			}
		}
	}

	if a.options != nil {
		if errs := a.options.Validate(); len(errs) > 0 {
			for _, e := range errs {
				fmt.Println(color.RedString("invalid option: %v", e))
			}
			return fmt.Errorf("%d invalid option(s)", len(errs))
		}
	}

	if a.runFunc != nil {
		return a.runFunc(a.basename)
	}
	return nil
}

// Run executes the App's cobra command, printing a colored error and
// exiting non-zero on failure the way an operator-facing CLI should.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Println(color.RedString("Error: %v", err))
		panicExit(1)
	}
}

// panicExit is a var so tests can stub it instead of exiting the process.
var panicExit = func(code int) {
	os.Exit(code)
}
