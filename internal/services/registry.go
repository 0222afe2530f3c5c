package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// registryStore persists the full registry document.
type registryStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

// registryService is the ordered, persisted widget collection. Every mutation
// writes the complete document before the in-memory state changes, so a
// failed write leaves the registry untouched.
type registryService struct {
	mu      sync.RWMutex
	store   registryStore
	widgets []models.Widget
	subs    []func([]models.Widget)
	newID   func() string
}

// NewRegistryService rehydrates the registry from store, falling back to seeds
// when no document has been persisted yet.
func NewRegistryService(ctx context.Context, store registryStore, seeds []models.Widget) (*registryService, error) {
	log := logger.FromContext(ctx)
	s := &registryService{
		store: store,
		newID: func() string { return uuid.New().String() },
	}

	doc, err := store.Load(ctx)
	var nfe *errs.NotFoundError
	switch {
	case errors.As(err, &nfe):
		log.Info("no persisted dashboard, seeding defaults", "widgets", len(seeds))
		if err := s.commit(ctx, slices.Clone(seeds)); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, err
	}

	widgets, err := decodeWidgets(doc)
	if err != nil {
		// keep the broken document on disk until the next mutation overwrites it
		log.Error("persisted dashboard is unreadable, using defaults", "error", err)
		s.widgets = slices.Clone(seeds)
		return s, nil
	}
	s.widgets = widgets
	log.Info("dashboard rehydrated", "widgets", len(widgets))
	return s, nil
}

// Subscribe registers fn to receive a copy of the collection after every
// successful mutation. fn runs under the registry lock and must not call back
// into the registry.
func (s *registryService) Subscribe(fn func([]models.Widget)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *registryService) List(_ context.Context) []models.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.widgets)
}

func (s *registryService) Get(_ context.Context, id string) (models.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.widgets[i], true
	}
	return models.Widget{}, false
}

// Add appends w. Field contents are not validated; only id uniqueness is.
func (s *registryService) Add(ctx context.Context, w models.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(w.ID) >= 0 {
		return errs.NewAlreadyExistsError(fmt.Sprintf("widget %q already exists", w.ID))
	}
	next := append(slices.Clone(s.widgets), w)
	return s.commit(ctx, next)
}

// AddWidget validates user input, assigns an id when none is given and appends the widget.
func (s *registryService) AddWidget(ctx context.Context, req dto.CreateWidgetRequest) (models.Widget, error) {
	if err := validateCreateRequest(req); err != nil {
		return models.Widget{}, err
	}
	w := models.Widget{
		ID:              req.ID,
		Type:            req.Type,
		Title:           req.Title,
		Symbol:          req.Symbol,
		Interval:        req.Interval,
		APIEndpoint:     req.APIEndpoint,
		APIKey:          req.APIKey,
		APIKeyHeader:    req.APIKeyHeader,
		DataKey:         req.DataKey,
		RefreshInterval: req.RefreshInterval,
		Format:          req.Format,
	}
	if w.ID == "" {
		w.ID = s.newID()
	}
	if err := s.Add(ctx, w); err != nil {
		return models.Widget{}, err
	}
	logger.FromContext(ctx).Info("widget added", "widget_id", w.ID, "type", w.Type)
	return w, nil
}

// Remove deletes the widget with id. Absent ids are a no-op and report false.
func (s *registryService) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(s.widgets), i, i+1)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Update merges patch into the widget with id. Absent ids are a no-op.
func (s *registryService) Update(ctx context.Context, id string, patch dto.WidgetPatch) (models.Widget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return models.Widget{}, false, nil
	}
	next := slices.Clone(s.widgets)
	next[i] = patch.Apply(next[i])
	if err := s.commit(ctx, next); err != nil {
		return models.Widget{}, false, err
	}
	return next[i], true, nil
}

// UpdateWidget validates user input before delegating to Update.
func (s *registryService) UpdateWidget(ctx context.Context, id string, patch dto.WidgetPatch) (models.Widget, error) {
	if err := validatePatch(patch); err != nil {
		return models.Widget{}, err
	}
	w, ok, err := s.Update(ctx, id, patch)
	if err != nil {
		return models.Widget{}, err
	}
	if !ok {
		return models.Widget{}, errs.NewNotFoundError("widget not found")
	}
	return w, nil
}

// Reorder replaces the collection with widgets, which is expected to be a
// permutation of the current collection.
func (s *registryService) Reorder(ctx context.Context, widgets []models.Widget) error {
	return s.ReplaceAll(ctx, widgets)
}

// ReplaceAll swaps the whole collection. Duplicate ids reject the call.
func (s *registryService) ReplaceAll(ctx context.Context, widgets []models.Widget) error {
	if err := checkUniqueIDs(widgets); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, slices.Clone(widgets))
}

// ReorderByID permutes the collection into the order given by ids.
func (s *registryService) ReorderByID(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ids) != len(s.widgets) {
		return errs.NewValidationError("ids must list every widget exactly once")
	}
	next := make([]models.Widget, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		i := s.index(id)
		if i < 0 || seen[id] {
			return errs.NewValidationError("ids must list every widget exactly once")
		}
		seen[id] = true
		next = append(next, s.widgets[i])
	}
	return s.commit(ctx, next)
}

// MoveWidget moves the widget with id to index to, shifting the others.
func (s *registryService) MoveWidget(ctx context.Context, id string, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.index(id)
	if from < 0 {
		return errs.NewNotFoundError("widget not found")
	}
	if to < 0 || to >= len(s.widgets) {
		return errs.NewValidationError(fmt.Sprintf("target index %d out of range", to))
	}
	next := slices.Clone(s.widgets)
	w := next[from]
	next = slices.Delete(next, from, from+1)
	next = slices.Insert(next, to, w)
	return s.commit(ctx, next)
}

// Export serializes the collection in the same format that is persisted.
func (s *registryService) Export(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encodeWidgets(s.widgets)
}

// Import replaces the collection with a previously exported document. A
// document that is not a JSON array of widgets is rejected as a whole.
func (s *registryService) Import(ctx context.Context, doc []byte) error {
	widgets, err := decodeWidgets(doc)
	if err != nil {
		return err
	}
	if err := s.ReplaceAll(ctx, widgets); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("dashboard imported", "widgets", len(widgets))
	return nil
}

// --- Internal ---

func (s *registryService) index(id string) int {
	return slices.IndexFunc(s.widgets, func(w models.Widget) bool { return w.ID == id })
}

// commit persists next and then makes it current. Caller holds s.mu.
func (s *registryService) commit(ctx context.Context, next []models.Widget) error {
	doc, err := encodeWidgets(next)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return err
	}
	s.widgets = next
	for _, fn := range s.subs {
		fn(slices.Clone(next))
	}
	return nil
}

func encodeWidgets(widgets []models.Widget) ([]byte, error) {
	if widgets == nil {
		widgets = []models.Widget{}
	}
	return json.MarshalIndent(widgets, "", "  ")
}

func decodeWidgets(doc []byte) ([]models.Widget, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errs.NewMalformedImportError("configuration must be a JSON array of widgets", nil)
	}
	var widgets []models.Widget
	if err := json.Unmarshal(trimmed, &widgets); err != nil {
		return nil, errs.NewMalformedImportError("invalid configuration file", err)
	}
	if err := checkUniqueIDs(widgets); err != nil {
		return nil, errs.NewMalformedImportError(err.Error(), err)
	}
	return widgets, nil
}

func checkUniqueIDs(widgets []models.Widget) error {
	seen := make(map[string]bool, len(widgets))
	for _, w := range widgets {
		if seen[w.ID] {
			return errs.NewValidationError(fmt.Sprintf("duplicate widget id %q", w.ID))
		}
		seen[w.ID] = true
	}
	return nil
}
