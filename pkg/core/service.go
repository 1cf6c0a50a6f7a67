package core

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before answer state is written.
const DefaultDebounce = 300 * time.Millisecond

// Config configures a Session.
type Config struct {
	Logger *slog.Logger
	// Debounce is the quiet period for answer/area writes. Zero writes through.
	Debounce time.Duration
	Observer Observer
}

// Session owns the active schema, the template store and the area state, and
// is the only writer of the persisted keys. All methods are safe for
// concurrent use; every operation either fully applies or has no effect.
type Session struct {
	mu       sync.Mutex
	storage  Storage
	logger   *slog.Logger
	observer Observer
	debounce time.Duration
	sched    *debouncer

	schema    Schema
	templates *TemplateStore
	areas     *AreaSet
	form      FormMeta

	dirty   bool
	closed  bool
	lastErr error
}

// Snapshot is a consistent, read-only copy of the session for rendering.
type Snapshot struct {
	Template     string
	Schema       Schema
	Form         FormMeta
	Areas        []Area
	ActiveAreaID string
}

// Open loads the session from storage: templates (self-healing), the active
// schema, the answer state (migrating legacy data) and an initial
// reconciliation. Storage read failures are logged and the session starts from
// defaults.
func Open(ctx context.Context, storage Storage, cfg Config) (*Session, error) {
	if storage == nil {
		return nil, errors.New("session requires a storage backend")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	s := &Session{
		storage:  storage,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		debounce: cfg.Debounce,
	}
	s.sched = newDebouncer(cfg.Debounce, s.flushScheduled)

	s.mu.Lock()
	defer s.mu.Unlock()

	rawTemplates := s.read(ctx, KeyTemplates)
	current := s.read(ctx, KeyCurrentTemplate)
	s.templates = LoadTemplates(rawTemplates, current, s.logger)
	s.persistTemplatesLocked(ctx)

	if tpl, ok := s.templates.Get(s.templates.CurrentName()); ok {
		s.schema = tpl.Sections
	}
	if raw := s.read(ctx, KeySchema); raw != "" {
		schema, err := ParseSchema(raw)
		if err != nil {
			s.logger.Warn("ignoring stored checklist", "error", err)
		} else {
			s.schema = schema
		}
	}

	st, migrated := DecodeState(s.read(ctx, KeyState), s.logger)
	s.form = st.Form
	areas, dropped := Reconcile(s.schema, st.Areas)
	s.areas = NewAreaSet(areas, st.ActiveAreaID)
	if dropped > 0 {
		s.logger.Info("answers discarded", "count", dropped, "trigger", "load")
		s.observer.AnswersDiscarded(dropped)
	}
	// Write back anything that would otherwise be rebuilt, with fresh ids, on
	// the next load.
	if dropped > 0 || migrated || s.areas.Repaired() || st.ActiveAreaID != s.areas.Active() {
		s.dirty = true
		s.flushLocked(ctx)
	}

	s.logger.Debug("session loaded",
		"template", s.templates.CurrentName(),
		"sections", len(s.schema),
		"areas", len(s.areas.areas),
	)
	return s, nil
}

func (s *Session) read(ctx context.Context, key string) string {
	v, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Warn("storage read failed, continuing in memory", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (s *Session) write(ctx context.Context, key, value string) error {
	err := s.storage.Set(ctx, key, value)
	s.observer.PersistenceWrite(key, err)
	if err != nil {
		err = &PersistenceError{Op: "set", Key: key, Err: err}
		s.logger.Warn("storage write failed, continuing in memory", "key", key, "error", err)
		s.lastErr = err
	}
	return err
}

func (s *Session) remove(ctx context.Context, key string) error {
	err := s.storage.Remove(ctx, key)
	s.observer.PersistenceWrite(key, err)
	if err != nil {
		err = &PersistenceError{Op: "remove", Key: key, Err: err}
		s.logger.Warn("storage remove failed, continuing in memory", "key", key, "error", err)
		s.lastErr = err
	}
	return err
}

func (s *Session) persistTemplatesLocked(ctx context.Context) {
	data, err := json.Marshal(s.templates)
	if err != nil {
		s.logger.Error("failed to encode templates", "error", err)
		return
	}
	_ = s.write(ctx, KeyTemplates, string(data))
}

func (s *Session) persistCurrentLocked(ctx context.Context) {
	_ = s.write(ctx, KeyCurrentTemplate, s.templates.CurrentName())
}

// markDirtyLocked records an answer/area change and schedules its write.
func (s *Session) markDirtyLocked() {
	s.dirty = true
	if s.debounce <= 0 || s.closed {
		s.flushLocked(context.Background())
		return
	}
	s.sched.Trigger()
}

func (s *Session) flushScheduled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked(context.Background())
}

func (s *Session) flushLocked(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	st := PersistedState{Form: s.form, Areas: s.areas.List(), ActiveAreaID: s.areas.Active()}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.write(ctx, KeyState, string(data)); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// replaceSchemaLocked reconciles the areas against next before publishing it,
// so no reader ever sees answers for items outside the active schema.
func (s *Session) replaceSchemaLocked(next Schema, trigger string) {
	areas, dropped := Reconcile(next, s.areas.List())
	s.areas.replace(areas)
	s.schema = next
	s.observer.SchemaReplaced(trigger)
	if dropped > 0 {
		s.logger.Info("answers discarded", "count", dropped, "trigger", trigger)
		s.observer.AnswersDiscarded(dropped)
		s.markDirtyLocked()
	}
}

// Flush writes any pending answer state now. Call it from shutdown hooks.
func (s *Session) Flush(ctx context.Context) error {
	s.sched.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// Close flushes pending state and stops the write scheduler.
func (s *Session) Close(ctx context.Context) error {
	s.sched.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.flushLocked(ctx)
}

// --- Schema ---

// Schema returns a copy of the active schema.
func (s *Session) Schema() Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema.Clone()
}

// SchemaText renders the active schema as the editable document.
func (s *Session) SchemaText() (string, error) {
	return StringifySchema(s.Schema())
}

// ApplySchemaText validates a user supplied document and makes it active.
// On failure nothing changes and the *SchemaError is returned.
func (s *Session) ApplySchemaText(ctx context.Context, text string) (Schema, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SchemaError{Message: "checklist document is empty"}
	}
	schema, err := ParseSchema(text)
	if err != nil {
		return nil, err
	}
	return schema.Clone(), s.apply(ctx, schema)
}

// ApplySchema validates schema and makes it active.
func (s *Session) ApplySchema(ctx context.Context, schema Schema) error {
	norm, err := Normalize(schema)
	if err != nil {
		return err
	}
	return s.apply(ctx, norm)
}

func (s *Session) apply(ctx context.Context, schema Schema) error {
	text, err := StringifySchema(schema)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceSchemaLocked(schema, "apply")
	_ = s.write(ctx, KeySchema, text)
	return nil
}

// ResetSchema returns to the built-in template and its default checklist.
func (s *Session) ResetSchema(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates.Select(BuiltinTemplateName)
	s.replaceSchemaLocked(DefaultSchema(), "reset")
	_ = s.remove(ctx, KeySchema)
	s.persistCurrentLocked(ctx)
}

// --- Templates ---

// Templates lists template names in stored order.
func (s *Session) Templates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templates.Names()
}

// CurrentTemplate returns the current template name.
func (s *Session) CurrentTemplate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templates.CurrentName()
}

// Template returns a copy of the named template.
func (s *Session) Template(name string) (Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templates.Get(name)
}

// SelectTemplate switches to the named template and makes its schema active.
// It reports false and changes nothing when the template does not exist.
func (s *Session) SelectTemplate(ctx context.Context, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, ok := s.templates.Select(name)
	if !ok {
		s.logger.Debug("ignoring unknown template", "name", name)
		return false
	}
	s.replaceSchemaLocked(schema, "select")
	_ = s.remove(ctx, KeySchema)
	s.persistCurrentLocked(ctx)
	return true
}

// SaveTemplate overwrites an existing template. Saving into the current
// template also makes the schema active.
func (s *Session) SaveTemplate(ctx context.Context, name string, schema Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.templates.SaveOverwrite(name, schema); err != nil {
		return err
	}
	s.persistTemplatesLocked(ctx)
	if name == s.templates.CurrentName() {
		tpl, _ := s.templates.Get(name)
		s.replaceSchemaLocked(tpl.Sections, "template-save")
		_ = s.remove(ctx, KeySchema)
	}
	return nil
}

// SaveTemplateAs stores schema under a new name and makes it current.
func (s *Session) SaveTemplateAs(ctx context.Context, name string, schema Schema) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, err := s.templates.SaveAs(name, schema)
	if err != nil {
		return Template{}, err
	}
	s.persistTemplatesLocked(ctx)
	s.replaceSchemaLocked(tpl.Sections.Clone(), "template-save")
	_ = s.remove(ctx, KeySchema)
	s.persistCurrentLocked(ctx)
	return tpl, nil
}

// ImportTemplate stores schema under a new name. The current template and the
// active checklist are left alone.
func (s *Session) ImportTemplate(ctx context.Context, name string, schema Schema) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, err := s.templates.Add(name, schema)
	if err != nil {
		return Template{}, err
	}
	s.persistTemplatesLocked(ctx)
	return tpl, nil
}

// DeleteTemplate removes a template. If it was current, the fallback template
// becomes active.
func (s *Session) DeleteTemplate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switched, err := s.templates.Delete(name)
	if err != nil {
		return err
	}
	s.persistTemplatesLocked(ctx)
	if switched {
		tpl, _ := s.templates.Get(s.templates.CurrentName())
		s.replaceSchemaLocked(tpl.Sections, "template-delete")
		_ = s.remove(ctx, KeySchema)
		s.persistCurrentLocked(ctx)
	}
	return nil
}

// --- Areas and answers ---

// Areas returns copies of the areas in order.
func (s *Session) Areas() []Area {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areas.List()
}

// ActiveAreaID returns the active area id.
func (s *Session) ActiveAreaID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areas.Active()
}

// Area returns a copy of one area and its position.
func (s *Session) Area(id string) (Area, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areas.Get(id)
}

// Answer returns the recorded answer for an item; absent answers are unset.
func (s *Session) Answer(areaID, itemID string) (Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, _, ok := s.areas.Get(areaID)
	if !ok {
		return Answer{}, false
	}
	ans, ok := a.Items[itemID]
	return ans, ok
}

// AddArea appends an area and makes it active.
func (s *Session) AddArea(name string) Area {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.areas.Add(name)
	s.markDirtyLocked()
	return a
}

// RemoveArea deletes an area; the last one cannot be removed.
func (s *Session) RemoveArea(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.areas.Remove(id); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// SetActiveArea activates an area; unknown ids are ignored.
func (s *Session) SetActiveArea(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.areas.SetActive(id) {
		return false
	}
	s.markDirtyLocked()
	return true
}

// RenameArea sets the label of an area.
func (s *Session) RenameArea(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.areas.Rename(id, name); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// SetAreaNotes sets the notes of an area.
func (s *Session) SetAreaNotes(id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.areas.SetNotes(id, notes); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// SetAnswer merges patch into the answer for one item of one area.
func (s *Session) SetAnswer(areaID, itemID string, patch AnswerPatch) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, ok := s.schema.Lookup(itemID); !ok {
		return Answer{}, ErrUnknownItem
	}
	ans, err := s.areas.SetAnswer(areaID, itemID, patch)
	if err != nil {
		return Answer{}, err
	}
	s.markDirtyLocked()
	return ans, nil
}

// ClearAnswers drops every answer of one area.
func (s *Session) ClearAnswers(areaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.areas.ClearAnswers(areaID); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// Form returns the form fields.
func (s *Session) Form() FormMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// UpdateForm edits the form fields in place.
func (s *Session) UpdateForm(fn func(*FormMeta)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.form)
	s.markDirtyLocked()
}

// CompletedItems lists answered items in schema order. An empty areaID means
// every area, in area order.
func (s *Session) CompletedItems(areaID string) []CompletedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return completedItems(s.schema, s.areas.areas, areaID)
}

func completedItems(schema Schema, areas []Area, areaID string) []CompletedItem {
	out := []CompletedItem{}
	for i, a := range areas {
		if areaID != "" && a.ID != areaID {
			continue
		}
		for _, sec := range schema {
			for _, it := range sec.Items {
				ans, ok := a.Items[it.ID]
				if !ok || ans.Status == StatusUnset {
					continue
				}
				out = append(out, CompletedItem{
					AreaID:    a.ID,
					AreaName:  a.DisplayName(i),
					SectionID: sec.ID,
					Section:   sec.Title,
					ItemID:    it.ID,
					Title:     it.Title,
					Status:    ans.Status,
					Note:      ans.Note,
				})
			}
		}
	}
	return out
}

// Snapshot returns a consistent copy of everything a renderer needs.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Template:     s.templates.CurrentName(),
		Schema:       s.schema.Clone(),
		Form:         s.form,
		Areas:        s.areas.List(),
		ActiveAreaID: s.areas.Active(),
	}
}

// CompletedItems lists answered items of the snapshot, like Session.CompletedItems.
func (snap Snapshot) CompletedItems(areaID string) []CompletedItem {
	return completedItems(snap.Schema, snap.Areas, areaID)
}
