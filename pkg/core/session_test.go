package core_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tenken/pkg/adapters/memory"
	"github.com/aretw0/tenken/pkg/core"
)

type recordingObserver struct {
	mu        sync.Mutex
	writes    map[string]int
	failures  int
	discarded int
	triggers  []string
}

func (o *recordingObserver) PersistenceWrite(key string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.writes == nil {
		o.writes = map[string]int{}
	}
	o.writes[key]++
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) AnswersDiscarded(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discarded += n
}

func (o *recordingObserver) SchemaReplaced(trigger string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.triggers = append(o.triggers, trigger)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func openSession(t *testing.T, store core.Storage) *core.Session {
	t.Helper()
	s, err := core.Open(context.Background(), store, core.Config{Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func statusIssue() *core.Status { s := core.StatusIssue; return &s }
func statusOK() *core.Status { s := core.StatusOK; return &s }
func notePtr(n string) *string { return &n }

func storedState(t *testing.T, store *memory.Storage) core.PersistedState {
	t.Helper()
	raw, found, err := store.Get(context.Background(), core.KeyState)
	require.NoError(t, err)
	require.True(t, found, "answer state was never written")
	var st core.PersistedState
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	return st
}

func TestOpen_FreshStorage(t *testing.T) {
	store := memory.New()
	s := openSession(t, store)

	assert.Equal(t, core.BuiltinTemplateName, s.CurrentTemplate())
	assert.Equal(t, core.DefaultSchema(), s.Schema())
	require.Len(t, s.Areas(), 1)
	assert.Equal(t, core.DefaultAreaName(0), s.Areas()[0].Name)
	assert.Equal(t, s.Areas()[0].ID, s.ActiveAreaID())

	assert.Contains(t, store.Keys(), core.KeyTemplates)
	assert.Contains(t, store.Keys(), core.KeyState)
}

func TestOpen_NilStorage(t *testing.T) {
	_, err := core.Open(context.Background(), nil, core.Config{})
	assert.Error(t, err)
}

// Scenario: applying a schema without an item drops its answers everywhere.
func TestSession_ApplySchemaDropsOrphanAnswers(t *testing.T) {
	store := memory.New()
	obs := &recordingObserver{}
	s, err := core.Open(context.Background(), store, core.Config{Logger: quietLogger(), Observer: obs})
	require.NoError(t, err)
	defer s.Close(context.Background())

	first := s.ActiveAreaID()
	_, err = s.SetAnswer(first, "entrance-doors", core.AnswerPatch{Status: statusIssue(), Note: notePtr("stuck")})
	require.NoError(t, err)
	second := s.AddArea("Roof")
	_, err = s.SetAnswer(second.ID, "entrance-doors", core.AnswerPatch{Status: statusOK()})
	require.NoError(t, err)
	_, err = s.SetAnswer(second.ID, "safety-extinguisher", core.AnswerPatch{Status: statusOK()})
	require.NoError(t, err)

	next := core.DefaultSchema()
	next[0].Items = next[0].Items[1:] // drop entrance-doors
	require.NoError(t, s.ApplySchema(context.Background(), next))

	for _, a := range s.Areas() {
		_, found := a.Items["entrance-doors"]
		assert.False(t, found, "area %s still answers a removed item", a.Name)
	}
	ans, found := s.Answer(second.ID, "safety-extinguisher")
	assert.True(t, found)
	assert.Equal(t, core.StatusOK, ans.Status)
	assert.Equal(t, 2, obs.discarded)
	assert.Contains(t, obs.triggers, "apply")

	st := storedState(t, store)
	for _, a := range st.Areas {
		assert.NotContains(t, a.Items, "entrance-doors")
	}
	_, found, _ = store.Get(context.Background(), core.KeySchema)
	assert.True(t, found, "applied checklist should be stored")
}

// Scenario: a rejected document leaves everything untouched.
func TestSession_InvalidSchemaChangesNothing(t *testing.T) {
	store := memory.New()
	s := openSession(t, store)
	_, err := s.SetAnswer(s.ActiveAreaID(), "entrance-doors", core.AnswerPatch{Status: statusIssue()})
	require.NoError(t, err)
	before := s.Snapshot()
	writes := store.Writes()

	for _, doc := range []string{
		"",
		"not json",
		`[]`,
		`[{"id":"a","title":"A","items":[{"id":"x","title":"X"}]},{"id":"b","title":"B","items":[{"id":"x","title":"Y"}]}]`,
	} {
		_, err := s.ApplySchemaText(context.Background(), doc)
		var se *core.SchemaError
		assert.True(t, errors.As(err, &se), "doc %q: got %v", doc, err)
	}

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, writes, store.Writes())
}

// Scenario: templates survive reload and the built-in cannot be destroyed.
func TestSession_TemplateLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := core.Open(ctx, store, core.Config{Logger: quietLogger()})
	require.NoError(t, err)

	custom := core.Schema{{ID: "roof", Title: "屋上", Items: []core.Item{{ID: "roof-drain", Title: "排水口"}}}}
	tpl, err := s.SaveTemplateAs(ctx, "  Roof only  ", custom)
	require.NoError(t, err)
	assert.Equal(t, "Roof only", tpl.Name)
	assert.Equal(t, "Roof only", s.CurrentTemplate())
	assert.Equal(t, custom, s.Schema())

	_, err = s.SaveTemplateAs(ctx, "Roof only", custom)
	var dup *core.DuplicateNameError
	assert.ErrorAs(t, err, &dup)

	var protected *core.ProtectedTemplateError
	assert.ErrorAs(t, s.SaveTemplate(ctx, core.BuiltinTemplateName, custom), &protected)
	assert.ErrorAs(t, s.DeleteTemplate(ctx, core.BuiltinTemplateName), &protected)
	assert.ErrorIs(t, s.SaveTemplate(ctx, "missing", custom), core.ErrTemplateNotFound)
	require.NoError(t, s.Close(ctx))

	reopened, err := core.Open(ctx, store, core.Config{Logger: quietLogger()})
	require.NoError(t, err)
	defer reopened.Close(ctx)
	assert.Equal(t, []string{core.BuiltinTemplateName, "Roof only"}, reopened.Templates())
	assert.Equal(t, "Roof only", reopened.CurrentTemplate())
	assert.Equal(t, custom, reopened.Schema())

	require.NoError(t, reopened.DeleteTemplate(ctx, "Roof only"))
	assert.Equal(t, core.BuiltinTemplateName, reopened.CurrentTemplate())
	assert.Equal(t, core.DefaultSchema(), reopened.Schema())
}

// Scenario: a removed area leaves no trace in storage.
func TestSession_RemoveAreaLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := openSession(t, store)
	first := s.ActiveAreaID()

	roof := s.AddArea("Roof")
	_, err := s.SetAnswer(roof.ID, "entrance-doors", core.AnswerPatch{Status: statusIssue(), Note: notePtr("crack found")})
	require.NoError(t, err)
	require.NoError(t, s.RemoveArea(roof.ID))
	require.NoError(t, s.Flush(ctx))

	assert.Equal(t, first, s.ActiveAreaID())
	raw, _, _ := store.Get(ctx, core.KeyState)
	assert.NotContains(t, raw, roof.ID)
	assert.NotContains(t, raw, "crack found")

	var last *core.LastAreaError
	assert.ErrorAs(t, s.RemoveArea(first), &last)
	assert.Len(t, s.Areas(), 1)
}

// Scenario: the built-in template always reflects the default checklist.
func TestSession_BuiltinTemplate(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.New())

	_, err := s.ApplySchemaText(ctx, `[{"id":"a","title":"A","items":[{"id":"x","title":"X"}]}]`)
	require.NoError(t, err)
	assert.Equal(t, core.BuiltinTemplateName, s.CurrentTemplate())

	tpl, found := s.Template("標準テンプレート")
	require.True(t, found)
	assert.Equal(t, core.DefaultSchema(), tpl.Sections)

	s.ResetSchema(ctx)
	assert.Equal(t, core.DefaultSchema(), s.Schema())
}

func TestSession_AppliedSchemaSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := core.Open(ctx, store, core.Config{Logger: quietLogger()})
	require.NoError(t, err)
	applied, err := s.ApplySchemaText(ctx, `[{"id":"a","title":"A","items":[{"id":"x","title":"X"}]}]`)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened := openSession(t, store)
	assert.Equal(t, applied, reopened.Schema())

	require.True(t, reopened.SelectTemplate(ctx, core.BuiltinTemplateName))
	_, found, _ := store.Get(ctx, core.KeySchema)
	assert.False(t, found, "selecting a template discards unsaved edits")
	assert.False(t, reopened.SelectTemplate(ctx, "nope"))
}

func TestSession_UnknownItemAndArea(t *testing.T) {
	s := openSession(t, memory.New())
	_, err := s.SetAnswer(s.ActiveAreaID(), "no-such-item", core.AnswerPatch{Status: statusOK()})
	assert.ErrorIs(t, err, core.ErrUnknownItem)
	_, err = s.SetAnswer("no-such-area", "entrance-doors", core.AnswerPatch{Status: statusOK()})
	assert.ErrorIs(t, err, core.ErrAreaNotFound)
	assert.False(t, s.SetActiveArea("no-such-area"))
}

func TestSession_LegacyStateIsMigrated(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, core.KeyState,
		`{"form":{"facilityLocation":"Tokyo"},"items":{"entrance-doors":{"status":"ok","note":""},"gone":{"status":"issue","note":""}}}`))

	s := openSession(t, store)
	areas := s.Areas()
	require.Len(t, areas, 1)
	assert.Equal(t, "Tokyo", areas[0].Name)
	assert.Equal(t, map[string]core.Answer{"entrance-doors": {Status: core.StatusOK}}, areas[0].Items)

	st := storedState(t, store)
	require.Len(t, st.Areas, 1)
	assert.Equal(t, areas[0].ID, st.ActiveAreaID)
}

func TestSession_LegacyMigrationIsWrittenOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, core.KeyState,
		`{"form":{"facilityLocation":"Lobby"},"items":{"entrance-doors":{"status":"ok","note":""}}}`))

	first, err := core.Open(ctx, store, core.Config{Logger: quietLogger()})
	require.NoError(t, err)
	firstID := first.ActiveAreaID()
	require.NoError(t, first.Close(ctx))

	raw, _, err := store.Get(ctx, core.KeyState)
	require.NoError(t, err)
	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &shape))
	assert.Contains(t, shape, "areas", "migrated state should be stored in the multi-area shape")

	second := openSession(t, store)
	assert.Equal(t, firstID, second.ActiveAreaID())
	_, err = second.SetAnswer(firstID, "entrance-pathways", core.AnswerPatch{Status: statusOK()})
	assert.NoError(t, err)
}

func TestSession_RepairedAreaIDsAreStable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, core.KeyState,
		`{"form":{},"areas":[{"id":"a","name":"One","items":{}},{"id":"a","name":"Two","items":{}},{"name":"Three","items":{}}],"activeAreaId":"a"}`))

	first, err := core.Open(ctx, store, core.Config{Logger: quietLogger()})
	require.NoError(t, err)
	ids := func(areas []core.Area) []string {
		out := make([]string, len(areas))
		for i, a := range areas {
			out[i] = a.ID
		}
		return out
	}
	firstIDs := ids(first.Areas())
	require.NoError(t, first.Close(ctx))

	second := openSession(t, store)
	assert.Equal(t, firstIDs, ids(second.Areas()))
	assert.Equal(t, firstIDs, ids(storedState(t, store).Areas))
}

func TestSession_UnknownStoredStatusIsReset(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, core.KeyState,
		`{"form":{},"areas":[{"id":"a","name":"","items":{"entrance-doors":{"status":"broken","note":"see photo"},"entrance-lighting":{"status":"bogus","note":""}}}],"activeAreaId":"a"}`))

	s := openSession(t, store)
	ans, ok := s.Answer("a", "entrance-doors")
	require.True(t, ok)
	assert.Equal(t, core.Answer{Status: core.StatusUnset, Note: "see photo"}, ans)
	_, ok = s.Answer("a", "entrance-lighting")
	assert.False(t, ok, "an answer left empty by the reset is dropped")

	assert.Equal(t, map[string]core.Answer{"entrance-doors": {Note: "see photo"}}, storedState(t, store).Areas[0].Items)
}

func TestSession_SetAnswerRejectsUnknownStatus(t *testing.T) {
	s := openSession(t, memory.New())
	bad := core.Status("broken")
	_, err := s.SetAnswer(s.ActiveAreaID(), "entrance-doors", core.AnswerPatch{Status: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
	_, ok := s.Answer(s.ActiveAreaID(), "entrance-doors")
	assert.False(t, ok)
}

func TestSession_DebouncedWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s, err := core.Open(ctx, store, core.Config{Logger: quietLogger(), Debounce: time.Hour})
	require.NoError(t, err)

	before := store.Writes()
	for i := 0; i < 5; i++ {
		s.UpdateForm(func(f *core.FormMeta) { f.InspectorName = strings.Repeat("x", i+1) })
	}
	assert.Equal(t, before, store.Writes(), "writes should wait for the quiet period")
	assert.True(t, s.State().(core.SessionState).WritePending)

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, before+1, store.Writes())
	assert.Equal(t, "xxxxx", storedState(t, store).Form.InspectorName)
	require.NoError(t, s.Close(ctx))
}

func TestSession_StorageFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	obs := &recordingObserver{}
	s, err := core.Open(ctx, store, core.Config{Logger: quietLogger(), Observer: obs})
	require.NoError(t, err)

	store.SetFailing(true)
	ans, err := s.SetAnswer(s.ActiveAreaID(), "entrance-doors", core.AnswerPatch{Status: statusIssue()})
	require.NoError(t, err, "in-memory state must keep working")
	assert.Equal(t, core.StatusIssue, ans.Status)

	state := s.State().(core.SessionState)
	assert.True(t, state.Dirty)
	assert.Contains(t, state.LastError, "memory storage unavailable")
	assert.Positive(t, obs.failures)

	err = s.Flush(ctx)
	var pe *core.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, memory.ErrUnavailable)

	store.SetFailing(false)
	require.NoError(t, s.Close(ctx))
	assert.Contains(t, storedState(t, store).Areas[0].Items, "entrance-doors")
}

func TestSession_CompletedItems(t *testing.T) {
	s := openSession(t, memory.New())
	first := s.ActiveAreaID()
	_, _ = s.SetAnswer(first, "safety-extinguisher", core.AnswerPatch{Status: statusOK()})
	_, _ = s.SetAnswer(first, "entrance-doors", core.AnswerPatch{Status: statusIssue(), Note: notePtr("n")})
	_, _ = s.SetAnswer(first, "entrance-lighting", core.AnswerPatch{Note: notePtr("note only")})
	roof := s.AddArea("")
	_, _ = s.SetAnswer(roof.ID, "entrance-doors", core.AnswerPatch{Status: statusOK()})

	all := s.CompletedItems("")
	require.Len(t, all, 3)
	assert.Equal(t, "entrance-doors", all[0].ItemID)
	assert.Equal(t, "safety-extinguisher", all[1].ItemID)
	assert.Equal(t, core.DefaultAreaName(1), all[2].AreaName)

	assert.Len(t, s.CompletedItems(roof.ID), 1)
	assert.NotNil(t, s.CompletedItems("nope"))
	assert.Equal(t, all, s.Snapshot().CompletedItems(""))
}

func TestSession_ConcurrentUse(t *testing.T) {
	s, err := core.Open(context.Background(), memory.New(), core.Config{Logger: quietLogger(), Debounce: time.Millisecond})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = s.SetAnswer(s.ActiveAreaID(), "entrance-doors", core.AnswerPatch{Status: statusOK()})
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close(context.Background()))
}
