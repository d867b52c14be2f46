// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package server

// Server handles requests.
type Server struct{}

// NewServer creates a server.
func NewServer() *Server { return &Server{} }

func (s *Server) Handle(path string) error { return nil }

const DefaultPort = 8080
`

const pySource = `class Greeter:
    def greet(self, name):
        return name

    def _private(self):
        pass

def top_level():
    pass
`

const jsSource = `export function fetchData(url) {}
class Widget {}
export const render = (props) => props
export interface Props {}
`

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "server/server.go", goSource)
	writeFile(t, root, "tools/greet.py", pySource)
	writeFile(t, root, "web/app.ts", jsSource)
	writeFile(t, root, "node_modules/dep/index.js", "function ignored() {}\n")
	writeFile(t, root, "README.md", "# readme\n")

	idx, err := Open(context.Background(), Options{
		Root:           root,
		IgnorePatterns: []string{"node_modules", ".git"},
		Debounce:       20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, root
}

func names(matches []Match) []string {
	var out []string
	for _, m := range matches {
		out = append(out, m.Name)
	}
	return out
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestGoParser(t *testing.T) {
	symbols, err := (&GoParser{}).Parse(goSource, "server.go")
	require.NoError(t, err)

	byName := map[string]Symbol{}
	for _, s := range symbols {
		byName[s.Name] = s
	}

	assert.Equal(t, KindPackage, byName["server"].Kind)
	assert.Equal(t, KindStruct, byName["Server"].Kind)
	assert.Equal(t, "Server handles requests.", byName["Server"].Doc)
	assert.Equal(t, KindFunction, byName["NewServer"].Kind)
	assert.Equal(t, "func NewServer(...) *Server", byName["NewServer"].Signature)
	assert.Equal(t, KindMethod, byName["Handle"].Kind)
	assert.Equal(t, "*Server", byName["Handle"].Parent)
	assert.Equal(t, KindConst, byName["DefaultPort"].Kind)
	assert.Equal(t, VisibilityExported, byName["DefaultPort"].Visibility)

	_, err = (&GoParser{}).Parse("package", "bad.go")
	assert.Error(t, err)
}

func TestPythonParser(t *testing.T) {
	symbols, err := (&PythonParser{}).Parse(pySource, "greet.py")
	require.NoError(t, err)
	require.Len(t, symbols, 4)

	assert.Equal(t, KindClass, symbols[0].Kind)
	assert.Equal(t, KindMethod, symbols[1].Kind)
	assert.Equal(t, "Greeter", symbols[1].Parent)
	assert.Equal(t, VisibilityPrivate, symbols[2].Visibility)
	assert.Equal(t, KindFunction, symbols[3].Kind)
	assert.Empty(t, symbols[3].Parent)
}

func TestJSParser(t *testing.T) {
	symbols, err := (&JSParser{}).Parse(jsSource, "app.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"fetchData", "Widget", "render", "Props"}, func() []string {
		var out []string
		for _, s := range symbols {
			out = append(out, s.Name)
		}
		return out
	}())
	assert.Equal(t, KindInterface, symbols[3].Kind)
	assert.Equal(t, VisibilityPrivate, symbols[1].Visibility)
}

// =============================================================================
// INDEX TESTS
// =============================================================================

func TestQueriesBeforeBuild(t *testing.T) {
	idx, _ := newTestIndex(t)
	_, err := idx.Search(context.Background(), "Server", 10)
	assert.True(t, errors.Is(err, ErrNotIndexed))
	assert.False(t, idx.IsIndexed())
}

func TestBuildAndSearch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Build(ctx))
	assert.True(t, idx.IsIndexed())

	stats := idx.Stats()
	assert.Equal(t, 3, stats.FileCount)
	assert.Equal(t, 1, stats.Languages["Go"])
	assert.Equal(t, 1, stats.Languages["Python"])
	assert.Equal(t, 1, stats.Languages["TypeScript"])

	matches, err := idx.Search(ctx, "Serv", 10)
	require.NoError(t, err)
	assert.Contains(t, names(matches), "Server")
	for _, m := range matches {
		if m.Name == "Server" {
			assert.Equal(t, "server/server.go", m.Path)
			assert.Equal(t, 4, m.Line)
		}
	}

	// Ignored directories are never indexed.
	matches, err = idx.Search(ctx, "ignored", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	// FTS operators in user input are treated literally.
	_, err = idx.Search(ctx, `"AND OR (`, 10)
	assert.NoError(t, err)

	files, err := idx.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"server/server.go", "tools/greet.py", "web/app.ts"}, files)
}

func TestNamesAndSearchByName(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx))

	got, err := idx.Names(ctx, "gre", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"greet", "Greeter"}, got)

	got, err = idx.Names(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	matches, err := idx.SearchByName(ctx, "han", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, KindMethod, matches[0].Kind)
}

func TestUpdateAndRemoveFile(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx))

	path := writeFile(t, root, "server/extra.go", "package server\n\nfunc Extra() {}\n")
	require.NoError(t, idx.UpdateFile(ctx, path))

	got, err := idx.Names(ctx, "Extra", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Extra"}, got)
	assert.Equal(t, 4, idx.Stats().FileCount)

	// Re-indexing replaces the old symbols.
	writeFile(t, root, "server/extra.go", "package server\n\nfunc Renamed() {}\n")
	require.NoError(t, idx.UpdateFile(ctx, "server/extra.go"))
	got, err = idx.Names(ctx, "Extra", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, idx.RemoveFile(ctx, path))
	syms, err := idx.FileSymbols(ctx, "server/extra.go")
	require.NoError(t, err)
	assert.Empty(t, syms)
	assert.Equal(t, 3, idx.Stats().FileCount)
}

func TestBuildCanceled(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := idx.Build(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.False(t, idx.IsIndexed())
}

func TestClosed(t *testing.T) {
	idx, _ := newTestIndex(t)
	require.NoError(t, idx.Close())
	assert.NoError(t, idx.Close())
	assert.True(t, errors.Is(idx.Build(context.Background()), ErrClosed))
}

func TestReopenKeepsIndex(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx))
	require.NoError(t, idx.Close())

	again, err := Open(ctx, Options{Root: root})
	require.NoError(t, err)
	defer again.Close()
	assert.True(t, again.IsIndexed())
	assert.Equal(t, 3, again.Stats().FileCount)
}

func TestFtsQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Serv", `name:"Serv"*`},
		{"new server", `"new"* "server"*`},
		{`a"b`, `name:"a""b"*`},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcherPicksUpNewFile(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx))

	w, err := idx.Watch(ctx)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, root, "server/watched.go", "package server\n\nfunc Watched() {}\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-w.Changes():
			// A write may be observed half done; wait for a clean update.
			if c.Path != "server/watched.go" || c.Err != nil {
				continue
			}
			got, err := idx.Names(ctx, "Watched", 5)
			require.NoError(t, err)
			assert.Equal(t, []string{"Watched"}, got)
			return
		case <-deadline:
			t.Fatal("watcher did not index the new file")
		}
	}
}
