// Package hostkit is the hostkit command-line.
package hostkit

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.minekube.com/hostkit/pkg/config"
	"go.minekube.com/hostkit/pkg/event"
	hk "go.minekube.com/hostkit/pkg/hostkit"
	"go.minekube.com/hostkit/pkg/inst"
	"go.minekube.com/hostkit/pkg/util/interrupt"
	"go.minekube.com/hostkit/pkg/version"
)

// Execute runs App() and calls os.Exit when finished.
// Register hk.Plugins and hk.Adapters before calling it.
func Execute() {
	if err := App().Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func init() {
	// -v is used for verbosity, following Unix conventions.
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// App returns the hostkit CLI app.
func App() *cli.App {
	app := cli.NewApp()
	app.Name = "hostkit"
	app.Usage = "Run portable plugins on any game server host."
	app.Description = `Plugins are written once against hostkit's service registry and proxy
events and run on every host platform a platform adapter exists for.

Visit the website https://minekube.com for more information.`
	app.Version = version.String()

	var (
		debug      bool
		configFile string
		verbosity  int
	)
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       `config file (default: ./config.yml) Supports: yaml/yml, json`,
			EnvVars:     []string{"HOSTKIT_CONFIG"},
			Destination: &configFile,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Aliases:     []string{"d"},
			Usage:       "Enable debug mode and highest log verbosity",
			Destination: &debug,
			EnvVars:     []string{"HOSTKIT_DEBUG"},
		},
		&cli.IntFlag{
			Name:        "verbosity",
			Aliases:     []string{"v"},
			Usage:       "The higher the verbosity the more logs are shown",
			EnvVars:     []string{"HOSTKIT_VERBOSITY"},
			Destination: &verbosity,
		},
	}
	app.Commands = []*cli.Command{
		configCommand(),
		servicesCommand(),
	}
	app.Action = func(c *cli.Context) error {
		v := newViper(configFile)
		cfg, warns, err := config.NewValid(v)
		if err != nil {
			return cli.Exit(fmt.Errorf("error loading config: %w", err), 1)
		}
		if c.IsSet("debug") {
			cfg.Debug = debug
		}

		log, err := newLogger(cfg.Debug, verbosity)
		if err != nil {
			return cli.Exit(fmt.Errorf("error creating zap logger: %w", err), 1)
		}
		inst.SetLogger(log.WithName("inst"))
		event.SetLogger(log.WithName("event"))

		if file := v.ConfigFileUsed(); file != "" {
			log.Info("using config file", "config", file)
		}
		for _, w := range warns {
			log.Info("config validation warn", "warn", w.Error())
		}
		log.Info("starting hostkit", "version", version.UserAgent())

		ctx, stop := interrupt.TerminationContext(c.Context)
		defer stop()
		ctx = logr.NewContext(ctx, log)

		rt, err := hk.New(ctx, hk.Options{
			Config:     cfg,
			ConfigFile: v.ConfigFileUsed(),
			Logger:     log,
		})
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err = rt.Start(ctx); err != nil {
			return cli.Exit(err, 1)
		}
		log.Info("shutdown complete")
		return nil
	}
	return app
}

// newViper returns a viper reading configFile, or
// config.{yml,yaml,json} from the working directory if empty.
func newViper(configFile string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	return v
}

// newLogger returns a new zap logger with a modified production
// or development default config to ensure human readability.
func newLogger(debug bool, v int) (l logr.Logger, err error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-v))
	if debug && v == 0 {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-127))
	}

	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	zap.ReplaceGlobals(zl)
	return zapr.NewLogger(zl), nil
}
