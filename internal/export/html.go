// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/slashcmd/internal/output"
	"github.com/jeranaias/slashcmd/internal/snapshots"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports an output as a standalone HTML page with embedded
// CSS. Fenced code in sections is highlighted with chroma.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts an entry to HTML.
func (e *HTMLExporter) Export(entry snapshots.Entry) ([]byte, error) {
	out := entry.Output
	if err := out.Validate(); err != nil {
		return nil, err
	}

	title := "/" + strings.TrimPrefix(entry.Command, "/")
	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("    <meta name=\"generator\" content=\"slashcmd\">\n")
	if !entry.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", entry.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(title)))
		if entry.Line != "" {
			sb.WriteString(fmt.Sprintf("            <div class=\"line\"><code>%s</code></div>\n", html.EscapeString(entry.Line)))
		}
		if !entry.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("            <div class=\"meta\">%s &middot; %d sections</div>\n",
				formatTimestamp(entry.CreatedAt), len(out.Sections)))
		}
		sb.WriteString("        </header>\n")
	}

	sb.WriteString("        <main class=\"output\">\n")
	pos := 0
	for i, s := range out.Sections {
		if gap := out.Text[pos:s.Range.Start]; strings.TrimSpace(gap) != "" {
			sb.WriteString(fmt.Sprintf("            <pre class=\"free-text\">%s</pre>\n", html.EscapeString(gap)))
		}
		sb.WriteString(e.renderSection(s, out.SectionText(i)))
		pos = s.Range.End
	}
	if gap := out.Text[pos:]; strings.TrimSpace(gap) != "" {
		sb.WriteString(fmt.Sprintf("            <pre class=\"free-text\">%s</pre>\n", html.EscapeString(gap)))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">Generated by slashcmd</footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

func (e *HTMLExporter) renderSection(s output.Section[int], text string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("            <section class=\"section\" data-icon=\"%s\">\n", html.EscapeString(s.Icon.String())))
	sb.WriteString(fmt.Sprintf("                <div class=\"section-label\">%s</div>\n", html.EscapeString(sectionTitle(s))))

	if lang, code, ok := splitFence(text); ok {
		sb.WriteString(e.highlight(lang, code))
	} else {
		sb.WriteString(fmt.Sprintf("                <pre>%s</pre>\n", html.EscapeString(text)))
	}

	if e.options.IncludeMetadata && s.Metadata.Present() && !s.Metadata.IsNull() {
		sb.WriteString(fmt.Sprintf("                <div class=\"section-meta\"><code>%s</code></div>\n",
			html.EscapeString(s.Metadata.String())))
	}
	sb.WriteString("            </section>\n")
	return sb.String()
}

// highlight renders code with inline chroma styles. The info string is a
// file name or a language.
func (e *HTMLExporter) highlight(info, code string) string {
	lexer := lexers.Match(info)
	if lexer == nil {
		lexer = lexers.Get(info)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(e.options.ChromaStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Sprintf("                <pre>%s</pre>\n", html.EscapeString(code))
	}
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return fmt.Sprintf("                <pre>%s</pre>\n", html.EscapeString(code))
	}
	return "                <div class=\"code-block\">" + buf.String() + "</div>\n"
}

// splitFence splits a fenced block into its info string and body.
func splitFence(text string) (info, body string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return "", "", false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return "", "", false
	}
	return strings.TrimSpace(inner[:nl]), inner[nl+1:], true
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f5f5f7;
            --text-primary: #1d1d1f;
            --text-muted: #86868b;
            --border-color: #d2d2d7;
            --accent: #0066cc;
        }

        body {
            font-family: var(--font-sans);
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }

        .container { max-width: 960px; margin: 0 auto; padding: 2rem 1rem; }
        .header { border-bottom: 1px solid var(--border-color); margin-bottom: 1.5rem; padding-bottom: 1rem; }
        .header h1 { color: var(--accent); font-size: 1.5rem; }
        .line, .meta { color: var(--text-muted); font-size: 0.9rem; }
        pre, code { font-family: var(--font-mono); font-size: 0.85rem; }
        pre { white-space: pre-wrap; padding: 0.75rem; overflow-x: auto; }
        .free-text { color: var(--text-muted); }
        .section { background: var(--bg-secondary); border: 1px solid var(--border-color); border-radius: 6px; margin-bottom: 1rem; }
        .section-label { font-weight: 600; padding: 0.5rem 0.75rem; border-bottom: 1px solid var(--border-color); }
        .section-meta { color: var(--text-muted); padding: 0.25rem 0.75rem 0.5rem; font-size: 0.8rem; }
        .code-block pre { margin: 0; border-radius: 0; }
        .footer { color: var(--text-muted); font-size: 0.8rem; margin-top: 2rem; text-align: center; }
    </style>
`
