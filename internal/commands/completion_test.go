// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(
		&stubCommand{name: "file", requires: true, values: []string{"main.go", "model.go", "README.md"}},
		&stubCommand{name: "fetch", requires: true},
		&stubCommand{name: "now"},
		&acceptingCommand{stubCommand{name: "tree", values: []string{"src", "docs"}}},
	)
	_ = reg.Alias("f", "file")
	return reg
}

func TestAfterCompletionFromBool(t *testing.T) {
	if got := AfterCompletionFromBool(true); got != Run {
		t.Errorf("AfterCompletionFromBool(true) = %v, want run", got)
	}
	if got := AfterCompletionFromBool(false); got != Continue {
		t.Errorf("AfterCompletionFromBool(false) = %v, want continue", got)
	}
	for _, b := range []bool{true, false} {
		if AfterCompletionFromBool(b) == Compose {
			t.Errorf("AfterCompletionFromBool(%v) produced compose", b)
		}
	}
	if !Run.ShouldRun() || Continue.ShouldRun() || Compose.ShouldRun() {
		t.Error("ShouldRun() must be true only for run")
	}
}

func TestApplyCompletion(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		c       ArgumentCompletion
		want    string
		wantRun bool
	}{
		{
			name: "command name continue",
			line: "/fi",
			c:    ArgumentCompletion{NewText: "/file", AfterCompletion: Continue},
			want: "/file ",
		},
		{
			name:    "command name run",
			line:    "/no",
			c:       ArgumentCompletion{NewText: "/now", AfterCompletion: Run},
			want:    "/now",
			wantRun: true,
		},
		{
			name: "partial argument compose",
			line: "/file src/ma",
			c:    ArgumentCompletion{NewText: "src/main/", AfterCompletion: Compose},
			want: "/file src/main/",
		},
		{
			name: "second argument continue",
			line: "/file a.go b",
			c:    ArgumentCompletion{NewText: "b.go", AfterCompletion: Continue},
			want: "/file a.go b.go ",
		},
		{
			name:    "empty partial after space",
			line:    "/file ",
			c:       ArgumentCompletion{NewText: "main.go", AfterCompletion: Run},
			want:    "/file main.go",
			wantRun: true,
		},
		{
			name: "replace previous arguments",
			line: "/git log --oneline ma",
			c:    ArgumentCompletion{NewText: "main", AfterCompletion: Continue, ReplacePreviousArguments: true},
			want: "/git main ",
		},
		{
			name: "quotes arguments with spaces",
			line: `/file "my fi`,
			c:    ArgumentCompletion{NewText: "my file.go", AfterCompletion: Continue},
			want: `/file "my file.go" `,
		},
		{
			name: "space inside open quote",
			line: `/file "my `,
			c:    ArgumentCompletion{NewText: "my dir/", AfterCompletion: Compose},
			want: `/file "my dir/"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, run := ApplyCompletion(tt.line, tt.c)
			if got != tt.want || run != tt.wantRun {
				t.Errorf("ApplyCompletion(%q) = (%q, %v), want (%q, %v)", tt.line, got, run, tt.want, tt.wantRun)
			}
		})
	}
}

func TestCompleteCommandNames(t *testing.T) {
	completer := NewCompleter(testRegistry())
	ctx := context.Background()

	got, err := completer.Complete(ctx, "/f", nil)
	require.NoError(t, err)

	var texts []string
	for _, c := range got {
		texts = append(texts, c.NewText)
	}
	assert.ElementsMatch(t, []string{"/file", "/fetch", "/f"}, texts)

	// The exact alias match ranks above longer names.
	assert.Equal(t, "/f", got[0].NewText)

	byText := map[string]Completion{}
	for _, c := range got {
		byText[c.NewText] = c
	}
	assert.Equal(t, Continue, byText["/file"].AfterCompletion)

	got, err = completer.Complete(ctx, "/n", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Run, got[0].AfterCompletion)

	got, err = completer.Complete(ctx, "/tr", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Compose, got[0].AfterCompletion)

	got, err = completer.Complete(ctx, "/", nil)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCompleteArguments(t *testing.T) {
	reg := testRegistry()
	completer := NewCompleter(reg)
	ctx := context.Background()

	got, err := completer.Complete(ctx, "/file m", nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "main.go", got[0].NewText)

	cmd, _ := reg.Get("file")
	assert.Equal(t, []string{"m"}, cmd.(*stubCommand).gotArgs)

	got, err = completer.Complete(ctx, "/f ", nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, []string{""}, cmd.(*stubCommand).gotArgs)

	line, run := ApplyCompletion("/file m", got[0].ArgumentCompletion)
	assert.False(t, run)
	assert.Contains(t, line, "/file ")

	got, err = completer.Complete(ctx, "/unknown x", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = completer.Complete(ctx, "not a command", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompleteCanceled(t *testing.T) {
	completer := NewCompleter(testRegistry())
	var cancel atomic.Bool
	cancel.Store(true)

	got, err := completer.Complete(context.Background(), "/file m", &cancel)
	assert.True(t, errors.Is(err, ErrCompletionCanceled))
	assert.Nil(t, got)

	assert.NoError(t, CheckCanceled(nil))
}

func TestCompleterMaxResults(t *testing.T) {
	completer := NewCompleter(testRegistry())
	completer.MaxResults = 2
	got, err := completer.Complete(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilterByPrefixNormalizes(t *testing.T) {
	values := []string{"caf\u00e9.md", "Cargo.toml", "cmd"}
	// Decomposed e plus combining acute matches the precomposed form.
	assert.Equal(t, []string{"caf\u00e9.md"}, FilterByPrefix(values, "cafe\u0301"))
	assert.Equal(t, []string{"Cargo.toml"}, FilterByPrefix(values, "CAR"))
	assert.Len(t, FilterByPrefix(values, ""), 3)
}

func TestPlainLabel(t *testing.T) {
	l := PlainLabel("main.go (src)", "main.go")
	assert.Equal(t, "main.go", l.FilterText())

	l = PlainLabel("main.go", "zzz")
	assert.Equal(t, "main.go", l.FilterText())
}

func TestCalculateScore(t *testing.T) {
	if calculateScore("file", "file") <= calculateScore("fetch", "f") {
		t.Error("exact match should outrank prefix match")
	}
	if calculateScore("f", "f") <= calculateScore("file", "f") {
		t.Error("shorter exact match should outrank longer prefix")
	}
}
