package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/stackmap/analysis"
	"github.com/deepnoodle-ai/stackmap/assembler"
	"github.com/deepnoodle-ai/stackmap/bytecode"
)

// app holds the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		logger: zerolog.Nop(),
	}
	root := &cobra.Command{
		Use:           "stackmap",
		Short:         "Compute the frames of JVM method bodies",
		Long:          "stackmap assembles JVM methods from listings or YAML class documents\nand computes the locals and operand stack before every instruction.",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.stackmap.yaml)")
	pf.Bool("no-color", false, "disable colored output")
	pf.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	pf.String("domain", "basic", "value domain (basic or source)")
	pf.Int("concurrency", analysis.DefaultConcurrency, "number of methods analyzed at once")
	pf.String("method", "", "only process methods with this name, name+descriptor or owner.name+descriptor")
	if err := a.v.BindPFlags(pf); err != nil {
		panic(err)
	}

	root.AddCommand(
		a.framesCmd(),
		a.disCmd(),
		a.cfgCmd(),
		a.checkCmd(),
		a.maxsCmd(),
	)
	return root
}

// init reads the config file and environment and sets up logging and colors.
// Flags take precedence over STACKMAP_* variables, which take precedence over
// the config file.
func (a *app) init() error {
	a.v.SetEnvPrefix("STACKMAP")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	explicit := a.v.GetString("config")
	if explicit != "" {
		a.v.SetConfigFile(explicit)
	} else {
		if home, err := homedir.Dir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigName(".stackmap")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if !a.useColor() {
		color.NoColor = true
	}
	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     a.errOut,
		NoColor: color.NoColor,
	}).Level(level).With().Timestamp().Logger()
	return nil
}

func (a *app) useColor() bool {
	if a.v.GetBool("no-color") {
		return false
	}
	f, ok := a.out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) analysisOptions() []analysis.Option {
	return []analysis.Option{
		analysis.WithLogger(a.logger),
		analysis.WithConcurrency(a.v.GetInt("concurrency")),
	}
}

// load assembles the methods in path, filtered by --method.
func (a *app) load(path string) ([]*bytecode.Method, error) {
	methods, err := assembler.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("file", path).Int("methods", len(methods)).Msg("loaded")
	filter := a.v.GetString("method")
	if filter == "" {
		return methods, nil
	}
	var selected []*bytecode.Method
	for _, m := range methods {
		if m.Name() == filter || m.Name()+m.Desc() == filter || m.String() == filter {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no method matching %q in %s", filter, path)
	}
	return selected, nil
}

func (a *app) loadAll(paths []string) ([]*bytecode.Method, error) {
	var all []*bytecode.Method
	for _, path := range paths {
		methods, err := a.load(path)
		if err != nil {
			return nil, err
		}
		all = append(all, methods...)
	}
	return all, nil
}

func (a *app) domain() (string, error) {
	switch d := strings.ToLower(a.v.GetString("domain")); d {
	case "basic", "source":
		return d, nil
	default:
		return "", fmt.Errorf("unknown domain %q (want basic or source)", d)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
