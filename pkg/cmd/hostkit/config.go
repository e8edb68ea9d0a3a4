package hostkit

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"go.minekube.com/hostkit/pkg/configs"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Output default configuration file",
		Description: `Output the default configuration file to stdout or a file.
You can redirect to a file or use the --write flag:

	hostkit config > config.yml
	hostkit config --write              # Writes to config.yml

Available config types:
  - full (default): Full configuration with all options
  - minimal: Empty/minimal configuration (uses all defaults)
  - gate: Configuration for running inside a Gate proxy`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Config type: " + strings.Join(configTypes(), ", "),
				Value:   "full",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write config to config.yml instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			configType := c.String("type")
			configBytes, ok := configs.Types[configType]
			if !ok {
				return cli.Exit(fmt.Sprintf("unknown config type: %s (valid types: %s)",
					configType, strings.Join(configTypes(), ", ")), 1)
			}

			if c.Bool("write") {
				outputFile := "config.yml"
				err := os.WriteFile(outputFile, configBytes, 0644)
				if err != nil {
					return cli.Exit(fmt.Errorf("error writing config to %q: %w", outputFile, err), 1)
				}
				_, _ = fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", outputFile)
				return nil
			}

			_, err := c.App.Writer.Write(configBytes)
			if err != nil {
				return cli.Exit(fmt.Errorf("error writing config: %w", err), 1)
			}
			return nil
		},
	}
}

func configTypes() []string {
	types := make([]string, 0, len(configs.Types))
	for t := range configs.Types {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
