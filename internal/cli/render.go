// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/slashcmd/internal/export"
	"github.com/jeranaias/slashcmd/internal/output"
)

// =============================================================================
// RENDERER
// =============================================================================

// RenderOptions configures terminal rendering of an event stream.
type RenderOptions struct {
	// Highlight colors fenced code sections with chroma
	Highlight bool

	// ChromaStyle is the chroma style name
	ChromaStyle string

	// ShowMetadata prints each section's final metadata after it
	ShowMetadata bool
}

// Renderer prints events as they arrive. Free text and the text of plain
// sections are written immediately. With highlighting on, a section's text
// is held until EndSection so its code block can be highlighted whole.
type Renderer struct {
	w    io.Writer
	opts RenderOptions

	open    bool
	pending strings.Builder
	err     error
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer, opts RenderOptions) *Renderer {
	if opts.ChromaStyle == "" {
		opts.ChromaStyle = "monokai"
	}
	return &Renderer{w: w, opts: opts}
}

// Render writes one event. The first write error is sticky.
func (r *Renderer) Render(ev output.Event) error {
	if r.err != nil {
		return r.err
	}
	switch e := ev.(type) {
	case output.StartSection:
		if r.open {
			r.flush()
		}
		r.open = true
		r.printf("%s\n", renderSectionHeader(e.Icon, e.Label))
	case output.Content:
		if r.open && r.opts.Highlight {
			r.pending.WriteString(e.Text)
			return r.err
		}
		r.printf("%s", e.Text)
	case output.EndSection:
		if !r.open {
			return r.err
		}
		r.flush()
		r.open = false
		if r.opts.ShowMetadata && e.Metadata.Present() {
			r.printf("%s\n", RenderConditional(DimStyle, "  metadata: "+e.Metadata.String()))
		}
	}
	return r.err
}

// Finish flushes a section left open by a truncated stream.
func (r *Renderer) Finish() error {
	if r.open {
		r.flush()
		r.open = false
	}
	return r.err
}

func (r *Renderer) flush() {
	if r.pending.Len() == 0 {
		return
	}
	text := r.pending.String()
	r.pending.Reset()
	r.printf("%s", highlightFenced(text, r.opts.ChromaStyle))
}

func (r *Renderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// RenderStream drains stream through r and returns the reconstructed
// Output. The stream is closed on return.
func RenderStream(ctx context.Context, stream output.EventStream, r *Renderer) (output.Output, error) {
	defer stream.Close()

	var b output.Builder
	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return b.Finish(), r.Finish()
		}
		if err != nil {
			_ = r.Finish()
			return output.Output{}, err
		}
		b.Push(ev)
		if err := r.Render(ev); err != nil {
			return output.Output{}, err
		}
	}
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightFenced highlights the body of a fenced code block, choosing the
// lexer from the info string (usually a file path). Text that is not a
// single fenced block is returned unchanged.
func highlightFenced(text, styleName string) string {
	trimmed := strings.TrimRight(text, "\n")
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return text
	}
	header, rest, ok := strings.Cut(trimmed, "\n")
	if !ok {
		return text
	}
	body := strings.TrimSuffix(rest, "```")
	info := strings.TrimSpace(strings.TrimPrefix(header, "```"))

	lexer := lexers.Match(info)
	if lexer == nil {
		lexer = lexers.Get(info)
	}
	if lexer == nil {
		lexer = lexers.Analyse(body)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, body)
	if err != nil {
		return text
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}

	var sb strings.Builder
	sb.WriteString(RenderConditional(DimStyle, header))
	sb.WriteString("\n")
	sb.WriteString(buf.String())
	if !strings.HasSuffix(buf.String(), "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(RenderConditional(DimStyle, "```"))
	sb.WriteString(text[len(trimmed):])
	return sb.String()
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders an output through the Markdown exporter and
// glamour. Without colors the notty style is used. Falls back to the raw
// Markdown when glamour fails.
func renderMarkdown(out output.Output, wordWrap int, theme string) string {
	md := export.NewMarkdownExporter(&export.Options{}).Render(out)

	style := "notty"
	if ColorsEnabled() {
		switch theme {
		case "dark", "light":
			style = theme
		default:
			style = ""
		}
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrap)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}
