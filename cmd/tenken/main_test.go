package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tenken/pkg/adapters/fs"
)

// resetFlags restores every flag to its default so runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI in-process against dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	base := []string{
		"--config", filepath.Join(dir, "tenken.yaml"),
		"--path", filepath.Join(dir, ".tenken"),
	}
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, "tenken %s", strings.Join(args, " "))
	return out
}

func TestCLI_AnswerAndReport(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "form", "set", "--facility", "Main Plant", "--date", "2024-05-01", "--recipient", "qa@example.com")
	mustRun(t, dir, "answer", "set", ".", "entrance-doors", "--status", "issue", "--note", "door sticks")
	mustRun(t, dir, "answer", "set", "1", "safety-firstaid", "--status", "ok")

	out := mustRun(t, dir, "report", "text")
	assert.Contains(t, out, "施設名: Main Plant")
	assert.Contains(t, out, "点検日: 2024年05月01日")
	assert.Contains(t, out, "- 出入口の施錠・開閉装置は正常に作動する: 不適合 / 備考: door sticks")
	assert.Contains(t, out, "- 救急箱の備品が揃っている: 適合")

	out = mustRun(t, dir, "--locale", "en", "report", "csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "entrance-doors")

	out = mustRun(t, dir, "report", "mailto")
	assert.True(t, strings.HasPrefix(out, "mailto:qa@example.com?subject="), out)
	assert.NotContains(t, out, "+")
}

func TestCLI_NoteOnlyKeepsStatus(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "answer", "set", ".", "entrance-doors", "--status", "attention")
	mustRun(t, dir, "answer", "set", ".", "entrance-doors", "--note", "hinge worn")

	out := mustRun(t, dir, "summary")
	assert.Contains(t, out, "注意  出入口の施錠・開閉装置は正常に作動する  (hinge worn)")

	mustRun(t, dir, "answer", "set", ".", "entrance-doors", "--status", "unset", "--note", "")
	out = mustRun(t, dir, "summary")
	assert.NotContains(t, out, "hinge worn")
}

func TestCLI_AnswerErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "answer", "set", ".", "no-such-item", "--status", "ok")
	assert.Error(t, err)

	_, err = run(t, dir, "answer", "set", ".", "entrance-doors", "--status", "broken")
	assert.Error(t, err)

	_, err = run(t, dir, "answer", "set", ".", "entrance-doors")
	assert.Error(t, err)

	_, err = run(t, dir, "answer", "set", "7", "entrance-doors", "--status", "ok")
	assert.Error(t, err)
}

func TestCLI_Areas(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "area", "add", "Kitchen")
	mustRun(t, dir, "answer", "set", "Kitchen", "safety-extinguisher", "--status", "ok")

	out := mustRun(t, dir, "area", "list")
	assert.Contains(t, out, "1. エリア1  0/12")
	assert.Contains(t, out, "* 2. Kitchen  1/12")

	mustRun(t, dir, "area", "rename", "2", "Galley")
	mustRun(t, dir, "area", "select", "1")
	out = mustRun(t, dir, "area", "list")
	assert.Contains(t, out, "* 1. エリア1")
	assert.Contains(t, out, "2. Galley  1/12")

	mustRun(t, dir, "area", "remove", "Galley")
	out = mustRun(t, dir, "area", "list")
	assert.NotContains(t, out, "Galley")

	_, err := run(t, dir, "area", "remove", "1")
	assert.Error(t, err, "the last area cannot be removed")
}

func TestCLI_SchemaApplyDiscardsOrphans(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "answer", "set", ".", "entrance-doors", "--status", "ok")
	mustRun(t, dir, "answer", "set", ".", "safety-firstaid", "--status", "issue")

	doc := filepath.Join(dir, "roof.json")
	require.NoError(t, os.WriteFile(doc, []byte(`[
  {"id": "entrance", "title": "Entrance", "items": [{"id": "entrance-doors", "title": "Doors"}]},
  {"id": "roof", "title": "Roof", "items": [{"id": "roof-gutters", "title": "Gutters clear"}]}
]`), 0644))

	out := mustRun(t, dir, "schema", "apply", doc)
	assert.Contains(t, out, "Applied checklist: 2 categories, 2 items")
	assert.Contains(t, out, "1 answers for removed items were discarded")

	out = mustRun(t, dir, "schema", "show")
	assert.Contains(t, out, "Roof")
	assert.Contains(t, out, "Gutters clear")

	mustRun(t, dir, "schema", "reset")
	out = mustRun(t, dir, "area", "list")
	assert.Contains(t, out, "1/12")
}

func TestCLI_SchemaExportToFile(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "exported.json")

	mustRun(t, dir, "schema", "export", "-o", doc)
	mustRun(t, dir, "schema", "export", "-o", doc)

	data, err := os.ReadFile(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": \"entrance\""), string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), fs.TempFilePrefix), "leftover %s", e.Name())
	}

	// The exported document applies cleanly.
	out := mustRun(t, dir, "schema", "apply", doc)
	assert.Contains(t, out, "4 categories, 12 items")
}

func TestCLI_SchemaApplyRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(doc, []byte(`[{"id": "x", "title": "X", "items": []}]`), 0644))

	_, err := run(t, dir, "schema", "apply", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checklist rejected")

	out := mustRun(t, dir, "schema", "show")
	assert.Contains(t, out, "出入口・共用部")
}

func TestCLI_Templates(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "template", "save-as", "Copy")
	out := mustRun(t, dir, "template", "list")
	assert.Contains(t, out, "標準テンプレート (built-in)  12 items")
	assert.Contains(t, out, "* Copy  12 items")

	_, err := run(t, dir, "template", "save-as", "Copy")
	assert.Error(t, err)

	_, err = run(t, dir, "template", "delete", "標準テンプレート")
	assert.Error(t, err)

	mustRun(t, dir, "template", "select", "標準テンプレート")
	mustRun(t, dir, "template", "delete", "Copy")
	out = mustRun(t, dir, "template", "list")
	assert.NotContains(t, out, "Copy")
}

func TestCLI_TemplateImport(t *testing.T) {
	dir := t.TempDir()
	tplDir := filepath.Join(dir, "templates", "site")
	require.NoError(t, os.MkdirAll(tplDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tplDir, "warehouse.json"),
		[]byte(`[{"id": "racks", "title": "Racks", "items": [{"id": "racks-anchored", "title": "Anchored"}, {"id": "racks-labelled", "title": "Labelled"}]}]`), 0644))

	mustRun(t, dir, "template", "import", filepath.Join(dir, "templates", "**", "*.json"))

	out := mustRun(t, dir, "template", "list")
	assert.Contains(t, out, "warehouse  2 items")
	assert.Contains(t, out, "* 標準テンプレート")
}

func TestCLI_StateAndAdapters(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "--adapter", "sqlite", "answer", "set", ".", "entrance-doors", "--status", "ok")

	out := mustRun(t, dir, "--adapter", "sqlite", "state")
	assert.Contains(t, out, `"session"`)
	assert.Contains(t, out, `"sqlite"`)

	out = mustRun(t, dir, "--adapter", "sqlite", "state", "--raw")
	assert.Contains(t, out, `"entrance-doors"`)

	_, err := os.Stat(filepath.Join(dir, ".tenken", "tenken.db"))
	assert.NoError(t, err)
}

func TestCLI_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	metrics := filepath.Join(dir, "tenken.prom")

	mustRun(t, dir, "--metrics-file", metrics, "answer", "set", ".", "entrance-doors", "--status", "ok")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tenken_persistence_writes_total")
}

func TestCLI_Version(t *testing.T) {
	out := mustRun(t, t.TempDir(), "version")
	assert.Equal(t, "tenken dev\n", out)
}

func TestWatchSchema_AppliesOnSave(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "checklist.json")
	require.NoError(t, os.WriteFile(doc, []byte(`[{"id": "a", "title": "A", "items": [{"id": "a1", "title": "One"}]}]`), 0644))

	resetFlags(rootCmd)
	configPath = filepath.Join(dir, "tenken.yaml")
	dataPath = filepath.Join(dir, ".tenken")
	watchDebounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e, err := openEnv(ctx)
	require.NoError(t, err)
	defer e.close(context.Background())

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- watchSchema(ctx, &out, e, doc) }()

	waitForItems := func(n int) {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for e.sess.Schema().ItemCount() != n {
			select {
			case <-deadline:
				t.Fatalf("checklist never reached %d items", n)
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
	waitForItems(1)

	// Give the watcher time to register before saving again.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(doc, []byte(`[{"id": "a", "title": "A", "items": [{"id": "a1", "title": "One"}, {"id": "a2", "title": "Two"}]}]`), 0644))
	waitForItems(2)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, out.String(), "Applied checklist: 1 categories, 2 items")
}
