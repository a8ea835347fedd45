package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xraph/multi"
	"github.com/xraph/multi/config"
	"github.com/xraph/multi/examples/plugins"
)

type options struct {
	configPath string
	message    string
	format     string
	bindings   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "multi-example",
		Short:        "Run the plugin composition example",
		Version:      version + " (" + commit + ")",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")

	run := &cobra.Command{
		Use:   "run",
		Short: "Compose the plugins and broadcast a message to every listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExample(cmd.OutOrStdout(), opts)
		},
	}
	run.Flags().StringVar(&opts.message, "message", "Hello world", "message broadcast to the listeners")

	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Show the contributions recorded for each token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectExample(cmd.OutOrStdout(), opts)
		},
	}
	inspect.Flags().StringVar(&opts.format, "format", "text", "output format: text or yaml")
	inspect.Flags().BoolVar(&opts.bindings, "bindings", false, "also list every container binding")

	root.AddCommand(run, inspect)
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

func startApp(opts *options) (*multi.App, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	app, err := multi.NewApp(multi.AppConfig{Name: "multi-example", Config: cfg})
	if err != nil {
		return nil, err
	}
	if err := app.Start(context.Background(), plugins.AppModule(app)); err != nil {
		return nil, err
	}
	return app, nil
}

func runExample(out io.Writer, opts *options) error {
	app, err := startApp(opts)
	if err != nil {
		return err
	}
	defer app.Logger().Sync() //nolint:errcheck

	svc, err := multi.Resolve[*plugins.AppService](app.Container(), multi.TypeOf[*plugins.AppService]())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, Bold("Collected values:"), Green(fmt.Sprint(svc.Values())))
	for _, reply := range svc.Broadcast(opts.message) {
		fmt.Fprintln(out, "  "+Cyan("→"), reply)
	}
	return nil
}

func inspectExample(out io.Writer, opts *options) error {
	app, err := startApp(opts)
	if err != nil {
		return err
	}
	defer app.Logger().Sync() //nolint:errcheck

	summary := app.Composition().Inspect()

	switch opts.format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return err
		}
		return enc.Close()
	case "text":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	for _, tok := range summary {
		fmt.Fprintf(out, "%s %s\n", Bold(tok.Token), Gray(fmt.Sprintf("(%d contributions)", len(tok.Contributions))))
		for _, c := range tok.Contributions {
			standalone := "standalone"
			if !c.Standalone {
				standalone = "in " + c.Owner
			}
			fmt.Fprintf(out, "  #%d %s %s %s\n", c.Seq, Cyan(c.Kind), c.Key, Gray(standalone))
		}
	}

	if opts.bindings {
		fmt.Fprintln(out, Bold("Bindings:"))
		for _, b := range app.Container().Inspect() {
			deps := ""
			if len(b.Dependencies) > 0 {
				deps = " <- " + strings.Join(b.Dependencies, ", ")
			}
			fmt.Fprintf(out, "  %s %s %s%s\n", Gray(b.Module), b.Token, Cyan(b.Kind), deps)
		}
	}
	return nil
}
