package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type exportCmd struct {
	app    *app
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the dashboard configuration document" }
func (*exportCmd) Usage() string {
	return `dashctl export [-o dashboard_config.json]

  Writes the same document the dashboard persists. Without -o it goes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withRegistry(ctx, func(reg registry) error {
		doc, err := reg.Export(ctx)
		if err != nil {
			return err
		}
		if c.output == "" {
			_, err = fmt.Fprintln(c.app.out, string(doc))
			return err
		}
		return os.WriteFile(c.output, doc, 0o644)
	})
}

type importCmd struct {
	app *app
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the dashboard with a configuration document" }
func (*importCmd) Usage() string {
	return `dashctl import <file>

  The file must be a JSON array of widgets. A malformed file leaves the
  dashboard unchanged.
`
}
func (*importCmd) SetFlags(_ *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	doc, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	return c.app.withRegistry(ctx, func(reg registry) error {
		if err := reg.Import(ctx, doc); err != nil {
			return err
		}
		fmt.Fprintf(c.app.out, "imported %d widgets\n", len(reg.List(ctx)))
		return nil
	})
}
