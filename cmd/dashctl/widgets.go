package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/sanity-io/litter"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

type listCmd struct {
	app *app
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list dashboard widgets in display order" }
func (*listCmd) Usage() string {
	return `dashctl list

  Prints one line per widget: position, id, type, title, refresh interval
  and whether it polls a live endpoint.
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withRegistry(ctx, func(reg registry) error {
		tw := tabwriter.NewWriter(c.app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tID\tTYPE\tTITLE\tREFRESH\tSOURCE")
		for i, w := range reg.List(ctx) {
			source := "mock"
			if w.HasEndpoint() {
				source = w.APIEndpoint
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%ds\t%s\n", i, w.ID, w.Type, w.Title, w.RefreshInterval, source)
		}
		return tw.Flush()
	})
}

type showCmd struct {
	app  *app
	dump bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print one widget's configuration" }
func (*showCmd) Usage() string {
	return `dashctl show [-dump] <id>
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dump, "dump", false, "Print a Go-syntax dump instead of JSON")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return c.app.withRegistry(ctx, func(reg registry) error {
		w, ok := reg.Get(ctx, f.Arg(0))
		if !ok {
			return errs.NewNotFoundError(fmt.Sprintf("widget %q not found", f.Arg(0)))
		}
		if c.dump {
			fmt.Fprintln(c.app.out, litter.Sdump(w))
			return nil
		}
		b, err := json.MarshalIndent(w, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.app.out, string(b))
		return nil
	})
}

// widgetFlags binds the editable widget fields to a flag set.
type widgetFlags struct {
	id, typ, title, symbol, interval     string
	endpoint, key, header, dataKey, form string
	refresh                              int
}

func (w *widgetFlags) bind(f *flag.FlagSet) {
	f.StringVar(&w.typ, "type", dto.WidgetTypeSummary, "Widget type (summary, chart, list)")
	f.StringVar(&w.title, "title", "", "Widget title")
	f.StringVar(&w.symbol, "symbol", "", "Caption symbol")
	f.StringVar(&w.interval, "interval", "", "Chart window (1D, 1W, 1M)")
	f.StringVar(&w.endpoint, "endpoint", "", "Absolute data source URL; empty runs the widget on mock data")
	f.StringVar(&w.key, "key", "", "Credential for the data source")
	f.StringVar(&w.header, "header", "", "Header carrying the credential (default Authorization)")
	f.StringVar(&w.dataKey, "datakey", "", "Dot path or $-prefixed JSONPath of the displayed field")
	f.StringVar(&w.form, "format", "", "Display format (number, currency-usd, currency-inr, percentage)")
	f.IntVar(&w.refresh, "refresh", 30, "Refresh interval in seconds")
}

type addCmd struct {
	app *app
	widgetFlags
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "append a widget to the dashboard" }
func (*addCmd) Usage() string {
	return `dashctl add -title <title> [-type summary] [-endpoint <url>] [-datakey <path>] [flags]
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.bind(f)
	f.StringVar(&c.id, "id", "", "Widget id (generated when empty)")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.app.withRegistry(ctx, func(reg registry) error {
		w, err := reg.AddWidget(ctx, dto.CreateWidgetRequest{
			ID:              c.id,
			Type:            c.typ,
			Title:           c.title,
			Symbol:          c.symbol,
			Interval:        c.interval,
			APIEndpoint:     c.endpoint,
			APIKey:          c.key,
			APIKeyHeader:    c.header,
			DataKey:         c.dataKey,
			RefreshInterval: c.refresh,
			Format:          c.form,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.out, "added widget %s\n", w.ID)
		return nil
	})
}

type updateCmd struct {
	app *app
	widgetFlags
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "change fields of an existing widget" }
func (*updateCmd) Usage() string {
	return `dashctl update [flags] <id>

  Only the flags given on the command line are changed.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) { c.bind(f) }

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	patch := c.patch(f)
	return c.app.withRegistry(ctx, func(reg registry) error {
		w, err := reg.UpdateWidget(ctx, f.Arg(0), patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.out, "updated widget %s\n", w.ID)
		return nil
	})
}

// patch keeps only the flags that were set explicitly.
func (c *updateCmd) patch(f *flag.FlagSet) dto.WidgetPatch {
	var p dto.WidgetPatch
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "type":
			p.Type = &c.typ
		case "title":
			p.Title = &c.title
		case "symbol":
			p.Symbol = &c.symbol
		case "interval":
			p.Interval = &c.interval
		case "endpoint":
			p.APIEndpoint = &c.endpoint
		case "key":
			p.APIKey = &c.key
		case "header":
			p.APIKeyHeader = &c.header
		case "datakey":
			p.DataKey = &c.dataKey
		case "format":
			p.Format = &c.form
		case "refresh":
			p.RefreshInterval = &c.refresh
		}
	})
	return p
}

type removeCmd struct {
	app *app
}

func (*removeCmd) Name() string             { return "remove" }
func (*removeCmd) Synopsis() string         { return "remove a widget" }
func (*removeCmd) Usage() string            { return "dashctl remove <id>\n" }
func (*removeCmd) SetFlags(_ *flag.FlagSet) {}

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return c.app.withRegistry(ctx, func(reg registry) error {
		removed, err := reg.Remove(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(c.app.out, "no widget %s, nothing removed\n", f.Arg(0))
			return nil
		}
		fmt.Fprintf(c.app.out, "removed widget %s\n", f.Arg(0))
		return nil
	})
}

type moveCmd struct {
	app *app
}

func (*moveCmd) Name() string             { return "move" }
func (*moveCmd) Synopsis() string         { return "move a widget to a new position" }
func (*moveCmd) Usage() string            { return "dashctl move <id> <position>\n" }
func (*moveCmd) SetFlags(_ *flag.FlagSet) {}

func (c *moveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	to, err := strconv.Atoi(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing position: %v\n", err)
		return subcommands.ExitUsageError
	}
	return c.app.withRegistry(ctx, func(reg registry) error {
		if err := reg.MoveWidget(ctx, f.Arg(0), to); err != nil {
			return err
		}
		fmt.Fprintf(c.app.out, "moved widget %s to %d\n", f.Arg(0), to)
		return nil
	})
}
