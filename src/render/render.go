// Package render turns markdown replies into styled terminal text.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/elee1766/gem/src/theme"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

// Config configures a Renderer.
type Config struct {
	Theme theme.Theme
	// Width wraps paragraphs; zero means 80.
	Width int
	// NoColor disables code highlighting.
	NoColor bool
}

// Renderer renders markdown for the terminal.
type Renderer struct {
	theme   theme.Theme
	width   int
	noColor bool
	md      goldmark.Markdown

	heading lipgloss.Style
	bold    lipgloss.Style
	italic  lipgloss.Style
	strike  lipgloss.Style
	code    lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
	frame   lipgloss.Style
}

// New creates a renderer.
func New(cfg Config) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Theme.Name == "" {
		cfg.Theme = theme.CurrentTheme
	}
	t := cfg.Theme
	return &Renderer{
		theme:   t,
		width:   cfg.Width,
		noColor: cfg.NoColor,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),

		heading: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
		strike:  lipgloss.NewStyle().Strikethrough(true),
		code:    lipgloss.NewStyle().Foreground(t.Accent),
		link:    lipgloss.NewStyle().Underline(true).Foreground(t.Primary),
		muted:   lipgloss.NewStyle().Foreground(t.TextMuted),
		frame: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.CodeBorder).
			PaddingLeft(1),
	}
}

// Render renders markdown.
func (r *Renderer) Render(markdown string) (string, error) {
	source := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		out, err := r.block(n, source, r.width)
		if err != nil {
			return "", err
		}
		if out != "" {
			blocks = append(blocks, out)
		}
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

func (r *Renderer) block(n ast.Node, source []byte, width int) (string, error) {
	switch n := n.(type) {
	case *ast.Heading:
		return r.heading.Render(ansi.Wordwrap(r.inline(n, source), width, "")), nil

	case *ast.Paragraph, *ast.TextBlock:
		return ansi.Wordwrap(r.inline(n, source), width, ""), nil

	case *ast.FencedCodeBlock:
		return r.codeBlock(string(n.Language(source)), lines(n, source))

	case *ast.CodeBlock:
		return r.codeBlock("", lines(n, source))

	case *ast.HTMLBlock:
		return strings.TrimRight(lines(n, source), "\n"), nil

	case *ast.Blockquote:
		inner, err := r.children(n, source, width-2)
		if err != nil {
			return "", err
		}
		return prefixLines(inner, r.muted.Render("│")+" ", r.muted.Render("│")+" "), nil

	case *ast.List:
		return r.list(n, source, width)

	case *ast.ThematicBreak:
		return r.muted.Render(strings.Repeat("─", width)), nil

	case *east.Table:
		return r.table(n, source), nil
	}

	return r.children(n, source, width)
}

// children renders the block children of n separated by blank lines.
func (r *Renderer) children(n ast.Node, source []byte, width int) (string, error) {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out, err := r.block(c, source, width)
		if err != nil {
			return "", err
		}
		if out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (r *Renderer) list(n *ast.List, source []byte, width int) (string, error) {
	var items []string
	i := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if n.IsOrdered() {
			marker = strconv.Itoa(i) + ". "
			i++
		}
		indent := strings.Repeat(" ", ansi.StringWidth(marker))

		var parts []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			out, err := r.block(c, source, width-len(indent))
			if err != nil {
				return "", err
			}
			parts = append(parts, out)
		}
		sep := "\n"
		if !n.IsTight {
			sep = "\n\n"
		}
		items = append(items, prefixLines(strings.Join(parts, sep), marker, indent))
	}
	if n.IsTight {
		return strings.Join(items, "\n"), nil
	}
	return strings.Join(items, "\n\n"), nil
}

func (r *Renderer) table(n *east.Table, source []byte) string {
	var rows [][]string
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell, source))
		}
		rows = append(rows, cells)
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], ansi.StringWidth(cell))
		}
	}

	sep := r.muted.Render(" │ ")
	var out []string
	for ri, row := range rows {
		padded := make([]string, len(row))
		for i, cell := range row {
			padded[i] = cell + strings.Repeat(" ", widths[i]-ansi.StringWidth(cell))
		}
		line := strings.TrimRight(strings.Join(padded, sep), " ")
		if ri == 0 {
			line = r.bold.Render(line)
		}
		out = append(out, line)
		if ri == 0 {
			rule := make([]string, len(widths))
			for i, w := range widths {
				rule[i] = strings.Repeat("─", w)
			}
			out = append(out, r.muted.Render(strings.Join(rule, "─┼─")))
		}
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) codeBlock(lang, code string) (string, error) {
	code = strings.TrimRight(code, "\n")
	if !r.noColor {
		highlighted, err := r.highlight(lang, code)
		if err != nil {
			return "", err
		}
		code = highlighted
	}
	return r.frame.Render(code), nil
}

func (r *Renderer) highlight(lang, code string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(r.theme.CodeStyle)
	formatter := formatters.Get("terminal256")

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", lang, err)
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("format code: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// inline renders the inline children of n.
func (r *Renderer) inline(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c, source)
	}
	return b.String()
}

func (r *Renderer) writeInline(b *strings.Builder, n ast.Node, source []byte) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			b.WriteString("\n")
		case n.SoftLineBreak():
			b.WriteString(" ")
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.CodeSpan:
		b.WriteString(r.code.Render(plainText(n, source)))

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level >= 2 {
			b.WriteString(r.bold.Render(inner))
		} else {
			b.WriteString(r.italic.Render(inner))
		}

	case *east.Strikethrough:
		b.WriteString(r.strike.Render(r.inline(n, source)))

	case *ast.Link:
		label := r.inline(n, source)
		dest := string(n.Destination)
		b.WriteString(r.link.Render(label))
		if dest != "" && dest != plainText(n, source) {
			b.WriteString(r.muted.Render(" (" + dest + ")"))
		}

	case *ast.AutoLink:
		b.WriteString(r.link.Render(string(n.URL(source))))

	case *ast.Image:
		b.WriteString(r.muted.Render("[image: " + plainText(n, source) + "]"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(source))
		}

	case *east.TaskCheckBox:
		if n.IsChecked {
			b.WriteString("[x] ")
		} else {
			b.WriteString("[ ] ")
		}

	default:
		b.WriteString(r.inline(n, source))
	}
}

// plainText concatenates the text under n without styling.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// lines joins the raw lines of a block node.
func lines(n ast.Node, source []byte) string {
	var b strings.Builder
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// prefixLines puts first before the first line and rest before the others.
func prefixLines(s, first, rest string) string {
	ls := strings.Split(s, "\n")
	for i, l := range ls {
		p := rest
		if i == 0 {
			p = first
		}
		if l == "" && i > 0 {
			ls[i] = strings.TrimRight(p, " ")
			continue
		}
		ls[i] = p + l
	}
	return strings.Join(ls, "\n")
}
