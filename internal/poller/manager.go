package poller

import (
	"context"
	"sync"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// Manager keeps exactly one running Controller per registered widget.
type Manager struct {
	ctx     context.Context
	fetcher Fetcher
	opts    Options

	mu          sync.Mutex
	controllers map[string]*Controller
	order       []string
	closed      bool
}

func NewManager(ctx context.Context, fetcher Fetcher, opts Options) *Manager {
	return &Manager{
		ctx:         ctx,
		fetcher:     fetcher,
		opts:        opts.withDefaults(),
		controllers: make(map[string]*Controller),
	}
}

// Sync reconciles running controllers with widgets. New widgets start
// polling, removed ones stop, and a changed endpoint, credential or interval
// restarts the widget from idle. Other edits are applied in place.
func (m *Manager) Sync(widgets []models.Widget) {
	log := logger.FromContext(m.ctx)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	var stale []*Controller
	seen := make(map[string]bool, len(widgets))
	order := make([]string, 0, len(widgets))
	for _, w := range widgets {
		seen[w.ID] = true
		order = append(order, w.ID)

		cur, ok := m.controllers[w.ID]
		switch {
		case !ok:
			m.controllers[w.ID] = m.startLocked(w)
			log.Debug("widget polling started", "widget_id", w.ID)
		case needsRestart(cur.Widget(), w):
			stale = append(stale, cur)
			m.controllers[w.ID] = m.startLocked(w)
			log.Debug("widget polling restarted", "widget_id", w.ID)
		default:
			cur.SetWidget(w)
		}
	}
	for id, c := range m.controllers {
		if !seen[id] {
			stale = append(stale, c)
			delete(m.controllers, id)
			log.Debug("widget polling stopped", "widget_id", id)
		}
	}
	m.order = order
	m.mu.Unlock()

	for _, c := range stale {
		c.Stop()
	}
}

func (m *Manager) startLocked(w models.Widget) *Controller {
	c := NewController(w, m.fetcher, m.opts)
	c.Start(m.ctx)
	return c
}

func needsRestart(prev, next models.Widget) bool {
	return prev.APIEndpoint != next.APIEndpoint ||
		prev.RefreshInterval != next.RefreshInterval ||
		prev.APIKey != next.APIKey ||
		prev.APIKeyHeader != next.APIKeyHeader ||
		prev.Type != next.Type
}

// Refresh triggers an immediate cycle for one widget.
func (m *Manager) Refresh(id string) bool {
	m.mu.Lock()
	c, ok := m.controllers[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return c.Refresh()
}

func (m *Manager) View(id string) (dto.WidgetView, bool) {
	m.mu.Lock()
	c, ok := m.controllers[id]
	m.mu.Unlock()
	if !ok {
		return dto.WidgetView{}, false
	}
	return c.View(), true
}

// Views returns every widget's view in registry order.
func (m *Manager) Views() []dto.WidgetView {
	m.mu.Lock()
	cs := make([]*Controller, 0, len(m.order))
	for _, id := range m.order {
		if c, ok := m.controllers[id]; ok {
			cs = append(cs, c)
		}
	}
	m.mu.Unlock()

	views := make([]dto.WidgetView, len(cs))
	for i, c := range cs {
		views[i] = c.View()
	}
	return views
}

// Close stops every controller. Later Syncs are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	cs := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		cs = append(cs, c)
	}
	m.controllers = map[string]*Controller{}
	m.order = nil
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range cs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Stop()
		}()
	}
	wg.Wait()
}
