package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/elee1766/gem/src/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPlain(t *testing.T, cfg Config, md string) string {
	t.Helper()
	cfg.NoColor = true
	out, err := New(cfg).Render(md)
	require.NoError(t, err)
	return ansi.Strip(out)
}

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name     string
		md       string
		contains []string
		absent   []string
	}{
		{
			name:     "heading and emphasis",
			md:       "# Title\n\nSome **bold** and *soft* text with `code`.",
			contains: []string{"Title", "Some bold and soft text with code."},
			absent:   []string{"**", "`", "# "},
		},
		{
			name:     "bullet list",
			md:       "- one\n- two\n  - nested",
			contains: []string{"• one", "• two", "  • nested"},
		},
		{
			name:     "ordered list",
			md:       "3. three\n4. four",
			contains: []string{"3. three", "4. four"},
		},
		{
			name:     "code block",
			md:       "```go\nfmt.Println(\"hi\")\n```",
			contains: []string{"│ fmt.Println(\"hi\")"},
			absent:   []string{"```"},
		},
		{
			name:     "quote",
			md:       "> careful now",
			contains: []string{"│ careful now"},
		},
		{
			name:     "link",
			md:       "see [docs](https://go.dev/doc)",
			contains: []string{"see docs (https://go.dev/doc)"},
		},
		{
			name:     "table",
			md:       "| a | bb |\n|---|----|\n| 1 | 2 |",
			contains: []string{"a │ bb", "1 │ 2", "─┼─"},
		},
		{
			name:     "tasks and strike",
			md:       "- [x] done ~~old~~\n- [ ] todo",
			contains: []string{"• [x] done old", "• [ ] todo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderPlain(t, Config{Theme: theme.Dark}, tt.md)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, bad := range tt.absent {
				assert.NotContains(t, out, bad)
			}
		})
	}
}

func TestRenderWraps(t *testing.T) {
	md := strings.Repeat("word ", 30)
	out := renderPlain(t, Config{Width: 20}, md)
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 20, "line %q", line)
	}
}

func TestHighlight(t *testing.T) {
	r := New(Config{Theme: theme.Dark})
	out, err := r.Render("```go\npackage main\n```")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, ansi.Strip(out), "package main")

	// unknown languages still render
	out, err = r.Render("```nosuchlang\nplain words\n```")
	require.NoError(t, err)
	assert.Contains(t, ansi.Strip(out), "plain words")
}
