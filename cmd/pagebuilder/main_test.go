package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--dir", dir, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, out)
	return out
}

func TestCLI_DocumentLifecycle(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "home\n", mustRun(t, dir, "doc", "new", "home"))
	_, err := run(t, dir, "doc", "new", "home")
	assert.ErrorContains(t, err, "already exists")

	assert.Contains(t, mustRun(t, dir, "add", "home", "Heading", "--content", "Welcome"), "Added Heading #1")
	assert.Contains(t, mustRun(t, dir, "add", "home", "List"), "Added List #2")
	mustRun(t, dir, "add", "home", "Paragraph")

	mustRun(t, dir, "edit", "home", "2", "eggs", "milk")
	assert.Equal(t, "#2 List, #1 Heading, #3 Paragraph\n", mustRun(t, dir, "move", "home", "2", "1"))

	md := mustRun(t, dir, "doc", "show", "home")
	assert.Equal(t, "- eggs\n- milk\n\n## Welcome\n\nNew Paragraph\n", md)

	js := mustRun(t, dir, "doc", "show", "home", "-f", "json")
	assert.Contains(t, js, `"content": "eggs\nmilk"`)

	assert.Equal(t, "#2 List, #1 Heading\n", mustRun(t, dir, "delete", "home", "3"))

	_, err = os.Stat(filepath.Join(dir, ".pagebuilder", "documents", "home.json"))
	require.NoError(t, err)

	assert.Equal(t, "home\n", mustRun(t, dir, "doc", "ls"))
	mustRun(t, dir, "doc", "rm", "home")
	assert.Equal(t, "No documents found.\n", mustRun(t, dir, "doc", "ls"))
}

func TestCLI_GeneratedID(t *testing.T) {
	dir := t.TempDir()
	id := strings.TrimSpace(mustRun(t, dir, "doc", "new"))
	assert.Len(t, id, 36)
	assert.Equal(t, id+"\n", mustRun(t, dir, "doc", "ls"))
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "doc", "new", "home")

	tests := map[string][]string{
		"unknown type":     {"add", "home", "Video"},
		"bad element id":   {"move", "home", "one", "2"},
		"missing document": {"doc", "show", "ghost"},
		"bad format":       {"doc", "show", "home", "-f", "xml"},
		"unknown backend":  {"--backend", "etcd", "doc", "ls"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, dir, args...)
			assert.Error(t, err)
		})
	}
}

func TestCLI_Replay(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "page.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
document: page
create: true
save: true
steps:
  - kind: drag_start_palette
    type: Paragraph
  - kind: drop_canvas
  - kind: edit_begin
    id: 1
  - kind: content_changed
    id: 1
    text: Hello
  - kind: key_press
    id: 1
    key: Enter
`), 0o644))

	assert.Equal(t, "Hello\n", mustRun(t, dir, "replay", script))
	yml := mustRun(t, dir, "doc", "show", "page", "-f", "yaml")
	assert.Contains(t, yml, "type: Paragraph")
	assert.Contains(t, yml, "content: Hello")
}

func TestCLI_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pagebuilder.yaml"), []byte(`
store:
  backend: sqlite
  sqlite:
    path: pages.sqlite
`), 0o644))

	mustRun(t, dir, "doc", "new", "home")
	_, err := os.Stat(filepath.Join(dir, "pages.sqlite"))
	assert.NoError(t, err)
}

func TestCLI_Version(t *testing.T) {
	assert.Equal(t, "0.1.0-dev\n", mustRun(t, t.TempDir(), "version", "--short"))
	assert.Contains(t, mustRun(t, t.TempDir(), "version"), "pagebuilder version 0.1.0-dev")
}
