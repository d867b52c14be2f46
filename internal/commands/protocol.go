// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	"github.com/jeranaias/slashcmd/internal/output"
)

// =============================================================================
// AFTER COMPLETION
// =============================================================================

// AfterCompletion tells the editor what to do once a completion is accepted.
type AfterCompletion int

const (
	// Continue inserts the completion plus a trailing space so the user can
	// keep typing arguments.
	Continue AfterCompletion = iota

	// Run inserts the completion and runs the command immediately.
	Run

	// Compose inserts the completion with no trailing space.
	Compose
)

// AfterCompletionFromBool maps true to Run and false to Continue. Compose is
// never produced.
func AfterCompletionFromBool(run bool) AfterCompletion {
	if run {
		return Run
	}
	return Continue
}

// ShouldRun reports whether the command runs on acceptance.
func (a AfterCompletion) ShouldRun() bool {
	return a == Run
}

// String implements fmt.Stringer.
func (a AfterCompletion) String() string {
	switch a {
	case Run:
		return "run"
	case Compose:
		return "compose"
	default:
		return "continue"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a AfterCompletion) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// =============================================================================
// CODE LABEL
// =============================================================================

// LabelRun highlights a span of a label.
type LabelRun struct {
	Range     output.Range[int] `json:"range"`
	Highlight string            `json:"highlight"`
}

// CodeLabel is the display label of a completion.
type CodeLabel struct {
	Text string `json:"text"`

	// Runs are highlighted spans of Text.
	Runs []LabelRun `json:"runs,omitempty"`

	// FilterRange is the part of Text matched against typed input.
	FilterRange output.Range[int] `json:"filter_range"`
}

// PlainLabel builds an unhighlighted label. When filter occurs in text the
// filter range covers it, otherwise it covers the whole text.
func PlainLabel(text, filter string) CodeLabel {
	l := CodeLabel{Text: text, FilterRange: output.Range[int]{Start: 0, End: len(text)}}
	if filter != "" {
		if ix := strings.Index(text, filter); ix >= 0 {
			l.FilterRange = output.Range[int]{Start: ix, End: ix + len(filter)}
		}
	}
	return l
}

// Push appends text with an optional highlight. The filter range grows to
// cover the whole label.
func (l *CodeLabel) Push(text, highlight string) {
	start := len(l.Text)
	l.Text += text
	if highlight != "" && text != "" {
		l.Runs = append(l.Runs, LabelRun{
			Range:     output.Range[int]{Start: start, End: len(l.Text)},
			Highlight: highlight,
		})
	}
	l.FilterRange = output.Range[int]{Start: 0, End: len(l.Text)}
}

// FilterText returns the part of the label used for matching.
func (l CodeLabel) FilterText() string {
	r := l.FilterRange
	if r.Start < 0 || r.End > len(l.Text) || r.Start > r.End {
		return l.Text
	}
	return l.Text[r.Start:r.End]
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

// ArgumentCompletion is one proposal for the argument being typed.
type ArgumentCompletion struct {
	// Label is shown in the completion menu.
	Label CodeLabel `json:"label"`

	// NewText replaces the partial argument.
	NewText string `json:"new_text"`

	// AfterCompletion is applied once the completion is accepted.
	AfterCompletion AfterCompletion `json:"after_completion"`

	// ReplacePreviousArguments replaces every typed argument instead of only
	// the partial one.
	ReplacePreviousArguments bool `json:"replace_previous_arguments"`
}

// ApplyCompletion applies an accepted completion to a typed command line and
// reports whether the command should now run.
//
// While the command name is still being typed, NewText replaces the whole
// line. Otherwise it replaces the partial last argument, or every argument
// when ReplacePreviousArguments is set. A partial argument inside an open
// quote is replaced along with its quote. Continue appends one space.
func ApplyCompletion(line string, c ArgumentCompletion) (string, bool) {
	toks, open := scanTokens(line)
	trailing := endsWithSpace(line) && !open

	var b strings.Builder
	switch {
	case len(toks) == 0 || (len(toks) == 1 && !trailing):
		b.WriteString(c.NewText)
	case c.ReplacePreviousArguments:
		b.WriteString(line[:toks[0].end])
		b.WriteByte(' ')
		b.WriteString(quoteArg(c.NewText))
	case trailing:
		b.WriteString(line)
		b.WriteString(quoteArg(c.NewText))
	default:
		last := toks[len(toks)-1]
		b.WriteString(line[:last.start])
		b.WriteString(quoteArg(c.NewText))
	}

	if c.AfterCompletion == Continue {
		b.WriteByte(' ')
	}
	return b.String(), c.AfterCompletion.ShouldRun()
}

// quoteArg double-quotes arguments containing whitespace or quotes.
func quoteArg(s string) string {
	if s == "" || !strings.ContainsAny(s, " \t\n\"'") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
