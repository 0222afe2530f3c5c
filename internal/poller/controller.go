package poller

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const (
	DefaultMinInterval  = 5 * time.Second
	DefaultCycleTimeout = 20 * time.Second

	fetchFailedMessage = "Failed to load data"
)

type Options struct {
	MinInterval  time.Duration
	CycleTimeout time.Duration
	Clock        Clock
	Rand         func() float64
}

func (o Options) withDefaults() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.CycleTimeout <= 0 {
		o.CycleTimeout = DefaultCycleTimeout
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Rand == nil {
		o.Rand = rand.Float64
	}
	return o
}

// Controller polls the data source of a single widget on its own ticker.
type Controller struct {
	fetcher Fetcher
	opts    Options

	mu      sync.Mutex
	widget  models.Widget
	view    dto.WidgetView
	payload any
	hasData bool
	mock    bool
	fetched time.Time
	seq     uint64 // last cycle issued
	applied uint64 // newest cycle whose result is in view
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

func NewController(w models.Widget, fetcher Fetcher, opts Options) *Controller {
	return &Controller{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		widget:  w,
		view: dto.WidgetView{
			WidgetID: w.ID,
			Type:     w.Type,
			State:    dto.StateIdle,
		},
	}
}

// Interval is the polling cadence, never below the configured minimum.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval()
}

func (c *Controller) interval() time.Duration {
	d := time.Duration(c.widget.RefreshInterval) * time.Second
	if d < c.opts.MinInterval {
		return c.opts.MinInterval
	}
	return d
}

// Start runs one cycle immediately and then one per interval until Stop or
// until ctx is cancelled. Calling Start twice has no effect.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil || c.stopped {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	ticker := c.opts.Clock.NewTicker(c.interval())

	c.launchLocked()
	c.wg.Add(1)
	go c.loop(c.ctx, ticker)
}

func (c *Controller) loop(ctx context.Context, ticker Ticker) {
	defer c.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.mu.Lock()
			c.launchLocked()
			c.mu.Unlock()
		}
	}
}

// Refresh runs an extra cycle now. The ticker schedule is left alone.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil || c.stopped {
		return false
	}
	c.launchLocked()
	return true
}

// Stop cancels the ticker and any in-flight cycle and waits for them to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// SetWidget swaps in display settings that do not affect fetching and
// re-renders the last payload with them.
func (c *Controller) SetWidget(w models.Widget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.widget = w
	if c.hasData {
		c.renderLocked()
	}
}

func (c *Controller) Widget() models.Widget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.widget
}

func (c *Controller) View() dto.WidgetView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) launchLocked() {
	if c.ctx.Err() != nil {
		return
	}
	c.seq++
	seq, w, ctx := c.seq, c.widget, c.ctx
	c.view.State = dto.StateLoading
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.cycle(ctx, seq, w)
	}()
}

func (c *Controller) cycle(ctx context.Context, seq uint64, w models.Widget) {
	payload, mock := fetchPayload(ctx, c.fetcher, w, c.opts)
	if ctx.Err() != nil {
		return
	}
	if payload == nil && !mock {
		logger.FromContext(ctx).Debug("widget cycle failed", "widget_id", w.ID, "seq", seq)
	}
	c.apply(seq, payload, mock)
}

// apply stores the outcome of cycle seq unless a newer cycle already landed.
func (c *Controller) apply(seq uint64, payload any, mock bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied || c.stopped {
		return
	}
	c.applied = seq
	c.payload, c.mock = payload, mock
	c.hasData = payload != nil || mock
	c.fetched = c.opts.Clock.Now()
	c.renderLocked()
}

func (c *Controller) renderLocked() {
	c.view = renderView(c.widget, c.payload, c.mock, c.fetched)
	c.markInFlightLocked()
}

// a newer cycle is still running: keep showing the data but flag the reload
func (c *Controller) markInFlightLocked() {
	if c.seq > c.applied {
		c.view.State = dto.StateLoading
	}
}
