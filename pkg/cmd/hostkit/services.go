package hostkit

import (
	"fmt"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"go.minekube.com/hostkit/pkg/config"
	hk "go.minekube.com/hostkit/pkg/hostkit"
)

type servicesReport struct {
	Platform string          `yaml:"platform"`
	Services []serviceStatus `yaml:"services"`
}

type serviceStatus struct {
	Type  string `yaml:"type"`
	Error string `yaml:"error,omitempty"`
}

func servicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "services",
		Usage: "List the services available on a platform",
		Description: `Build the service registry for a platform with all registered
platform adapters and list every service and whether it resolved.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "platform",
				Aliases: []string{"p"},
				Usage:   "The platform to build the registry for",
				Value:   config.DefaultConfig.Platform,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text or yaml",
				Value:   "text",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.DefaultConfig
			cfg.Platform = c.String("platform")
			// Listing stays quiet, build diagnostics end up in the status column.
			ctx := logr.NewContext(c.Context, logr.Discard())
			rt, err := hk.New(ctx, hk.Options{
				Config:  &cfg,
				Plugins: []hk.Plugin{},
			})
			if err != nil {
				return cli.Exit(err, 1)
			}

			report := servicesReport{Platform: rt.Platform().String()}
			for _, t := range rt.Services().Types() {
				s := serviceStatus{Type: t.String()}
				if err := rt.Services().Status(t); err != nil {
					s.Error = err.Error()
				}
				report.Services = append(report.Services, s)
			}

			switch c.String("output") {
			case "yaml":
				enc := yaml.NewEncoder(c.App.Writer)
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return cli.Exit(fmt.Errorf("error encoding services: %w", err), 1)
				}
				return enc.Close()
			case "text":
				w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintf(w, "PLATFORM\t%s\n", report.Platform)
				for _, s := range report.Services {
					status := "ok"
					if s.Error != "" {
						status = s.Error
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\n", s.Type, status)
				}
				return w.Flush()
			default:
				return cli.Exit(fmt.Sprintf("unknown output format: %s", c.String("output")), 1)
			}
		},
	}
}
