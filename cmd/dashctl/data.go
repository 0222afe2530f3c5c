package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	proxyclient "github.com/GregMSThompson/finance-dashboard/internal/client/proxy"
	"github.com/GregMSThompson/finance-dashboard/internal/display"
	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/poller"
	"github.com/GregMSThompson/finance-dashboard/internal/services"
)

type fetchCmd struct {
	app      *app
	all      bool
	remote   string
	parallel int

	// fetcher replaces the proxy-backed fetcher when set.
	fetcher poller.Fetcher
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch widgets once and print what they would display" }
func (*fetchCmd) Usage() string {
	return `dashctl fetch [-remote http://host:8080] [-all | <id>...]

  Runs one refresh cycle per widget. Widgets without an endpoint show demo
  data. With -remote the requests go through that server's /api/proxy.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Fetch every widget")
	f.StringVar(&c.remote, "remote", "", "Base URL of a running dashboard server to relay through")
	f.IntVar(&c.parallel, "parallel", 4, "Maximum concurrent fetches")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.all && f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return c.app.withRegistry(ctx, func(reg registry) error {
		widgets, err := c.selectWidgets(ctx, reg, f.Args())
		if err != nil {
			return err
		}

		fetcher := c.fetcher
		if fetcher == nil {
			if fetcher, err = c.newFetcher(ctx); err != nil {
				return err
			}
		}
		opts := poller.Options{CycleTimeout: c.app.cfg.ProxyTimeout}

		views := make([]dto.WidgetView, len(widgets))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(c.parallel, 1))
		for i, w := range widgets {
			g.Go(func() error {
				views[i] = poller.RunOnce(gctx, fetcher, w, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, v := range views {
			fmt.Fprintf(c.app.out, "%s\t%s\n", widgets[i].ID, summarize(v))
		}
		return nil
	})
}

func (c *fetchCmd) selectWidgets(ctx context.Context, reg registry, ids []string) ([]models.Widget, error) {
	if c.all {
		return reg.List(ctx), nil
	}
	widgets := make([]models.Widget, 0, len(ids))
	for _, id := range ids {
		w, ok := reg.Get(ctx, id)
		if !ok {
			return nil, errs.NewNotFoundError(fmt.Sprintf("widget %q not found", id))
		}
		widgets = append(widgets, w)
	}
	return widgets, nil
}

// newFetcher relays through -remote when given, otherwise through an
// in-process proxy using the same default credential the server would use.
func (c *fetchCmd) newFetcher(ctx context.Context) (poller.Fetcher, error) {
	cfg := c.app.cfg
	rules := services.DefaultHeaderRules()
	if len(cfg.HeaderRules) > 0 {
		rules = cfg.HeaderRules
	}
	client := &http.Client{Timeout: cfg.ProxyTimeout}
	if c.remote != "" {
		return services.NewFetchService(proxyclient.NewAdapter(client, c.remote), rules), nil
	}

	token, err := c.app.defaultToken(ctx)
	if err != nil {
		return nil, err
	}
	proxy := services.NewProxyService(client, token, cfg.ProxyUserAgent)
	return services.NewFetchService(proxy, rules), nil
}

func summarize(v dto.WidgetView) string {
	var b strings.Builder
	switch {
	case v.State == dto.StateError:
		b.WriteString("error: " + v.Error)
	case v.Type == dto.WidgetTypeChart:
		fmt.Fprintf(&b, "%d points", len(v.Series))
		if n := len(v.Series); n > 0 {
			fmt.Fprintf(&b, ", last %s", display.Format(v.Series[n-1].Value, dto.FormatNumber))
		}
	case v.Type == dto.WidgetTypeList:
		fmt.Fprintf(&b, "%d rows", len(v.Rows))
	default:
		b.WriteString(v.Display)
	}
	if v.Mock {
		b.WriteString(" (demo)")
	}
	return b.String()
}

type setTokenCmd struct {
	app *app
}

func (*setTokenCmd) Name() string { return "set-token" }
func (*setTokenCmd) Synopsis() string {
	return "store the default upstream credential in Secret Manager"
}
func (*setTokenCmd) Usage() string {
	return `dashctl set-token <token>

  Requires FINANCEAPIKEYSECRET=projects/<project>/secrets/<name>. The proxy
  falls back to this token when a request carries none.
`
}
func (*setTokenCmd) SetFlags(_ *flag.FlagSet) {}

func (c *setTokenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || strings.TrimSpace(f.Arg(0)) == "" {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	if c.app.cfg.DefaultTokenSecret == "" {
		fmt.Fprintln(os.Stderr, "FINANCEAPIKEYSECRET is not set")
		return subcommands.ExitFailure
	}

	secrets, closeFn, err := c.app.openSecrets(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := secrets.StoreToken(ctx, strings.TrimSpace(f.Arg(0))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.app.out, "token stored")
	return subcommands.ExitSuccess
}
