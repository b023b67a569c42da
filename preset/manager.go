package preset

import (
	"log/slog"
	"sync"

	"timeline-editor/logging"
)

// Manager holds the preset collection and selection, persisting every change
// through a Persister. Unknown ids are no-ops reported through ok=false; the
// only errors are persistence failures.
type Manager struct {
	mu    sync.RWMutex
	store Persister
	coll  Collection
	log   *slog.Logger
}

// NewManager loads the collection from store. Returns an error only on
// unexpected I/O failures.
func NewManager(store Persister, log *slog.Logger) (*Manager, error) {
	c, err := store.Load()
	if err != nil {
		return nil, err
	}
	if c.Presets == nil {
		c.Presets = []Preset{}
	}
	m := &Manager{store: store, coll: c, log: logging.WithComponent(log, "preset")}
	m.dropDanglingSelection()
	return m, nil
}

// Snapshot returns a pruned copy of the whole collection.
func (m *Manager) Snapshot() Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := copyCollection(m.coll)
	for i := range c.Presets {
		c.Presets[i] = c.Presets[i].Pruned()
	}
	return c
}

// Get returns a pruned copy of the preset with the given id.
func (m *Manager) Get(id string) (Preset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return Preset{}, false
	}
	return m.coll.Presets[i].Pruned(), true
}

// Selected returns the selected preset, if any.
func (m *Manager) Selected() (Preset, bool) {
	m.mu.RLock()
	sel := m.coll.SelectedPresetID
	m.mu.RUnlock()
	if sel == nil {
		return Preset{}, false
	}
	return m.Get(*sel)
}

// Create appends an empty preset and selects it.
func (m *Manager) Create(name string) (Preset, error) {
	p := NewPreset(name)
	return p, m.Add(p)
}

// Add appends p and selects it. An empty id is replaced by a fresh one; other
// ids are assumed to be unique already.
func (m *Manager) Add(p Preset) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Timeline == nil {
		p.Timeline = []TimelineEvent{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll.Presets = append(m.coll.Presets, p.Clone())
	m.coll.SelectedPresetID = strPtr(p.ID)
	m.log.Debug("preset added", slog.String("id", p.ID))
	return m.persist()
}

// Update replaces the preset with the same id.
func (m *Manager) Update(p Preset) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(p.ID)
	if i < 0 {
		return false, nil
	}
	if p.Timeline == nil {
		p.Timeline = []TimelineEvent{}
	}
	m.coll.Presets[i] = p.Clone()
	return true, m.persist()
}

// Edit applies fn to the stored preset under the write lock and stores the
// result. The id of the result is forced back to id.
func (m *Manager) Edit(id string, fn func(Preset) Preset) (Preset, bool, error) {
	return m.TryEdit(id, func(p Preset) (Preset, bool) { return fn(p), true })
}

// TryEdit is Edit for changes that may turn out to be no-ops: when fn reports
// false nothing is stored and the current preset is returned.
func (m *Manager) TryEdit(id string, fn func(Preset) (Preset, bool)) (Preset, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return Preset{}, false, nil
	}
	cur := m.coll.Presets[i].Pruned()
	next, changed := fn(cur)
	if !changed {
		return cur, true, nil
	}
	next.ID = id
	if next.Timeline == nil {
		next.Timeline = []TimelineEvent{}
	}
	m.coll.Presets[i] = next.Clone()
	if err := m.persist(); err != nil {
		return Preset{}, true, err
	}
	return next.Pruned(), true, nil
}

// Delete removes the preset and clears the selection if it pointed at it.
func (m *Manager) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	m.coll.Presets = append(m.coll.Presets[:i], m.coll.Presets[i+1:]...)
	if m.coll.SelectedPresetID != nil && *m.coll.SelectedPresetID == id {
		m.coll.SelectedPresetID = nil
	}
	m.log.Debug("preset deleted", slog.String("id", id))
	return true, m.persist()
}

// Select sets the selection. An empty id clears it; an unknown id is ignored.
func (m *Manager) Select(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		m.coll.SelectedPresetID = nil
		return true, m.persist()
	}
	if m.indexOf(id) < 0 {
		return false, nil
	}
	m.coll.SelectedPresetID = strPtr(id)
	return true, m.persist()
}

// Duplicate deep-copies a preset under a fresh id, appends the copy and
// selects it.
func (m *Manager) Duplicate(id string) (Preset, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return Preset{}, false, nil
	}
	cp := m.coll.Presets[i].Clone()
	cp.ID = NewID()
	cp.Name += CopySuffix
	m.coll.Presets = append(m.coll.Presets, cp)
	m.coll.SelectedPresetID = strPtr(cp.ID)
	m.log.Debug("preset duplicated", slog.String("from", id), slog.String("id", cp.ID))
	return cp.Pruned(), true, m.persist()
}

// BulkReplace swaps the whole collection, as done by a bulk import. A
// selection that no longer resolves is dropped.
func (m *Manager) BulkReplace(presets []Preset) error {
	next := make([]Preset, len(presets))
	for i, p := range presets {
		if p.Timeline == nil {
			p.Timeline = []TimelineEvent{}
		}
		next[i] = p.Clone()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll.Presets = next
	m.dropDanglingSelection()
	m.log.Info("collection replaced", slog.Int("presets", len(next)))
	return m.persist()
}

func (m *Manager) dropDanglingSelection() {
	if m.coll.SelectedPresetID != nil && m.indexOf(*m.coll.SelectedPresetID) < 0 {
		m.coll.SelectedPresetID = nil
	}
}

// persist saves the current collection. Caller must hold m.mu.
func (m *Manager) persist() error {
	if err := m.store.Save(m.coll); err != nil {
		m.log.Error("persist collection failed", slog.Any("err", err))
		return err
	}
	return nil
}

func (m *Manager) indexOf(id string) int {
	for i, p := range m.coll.Presets {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func strPtr(s string) *string { return &s }
