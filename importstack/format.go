/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package importstack

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
)

type styles struct {
	header  lipgloss.Style
	path    lipgloss.Style
	request lipgloss.Style
	failing lipgloss.Style
	note    lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		header:  lipgloss.NewStyle().Bold(true),
		path:    lipgloss.NewStyle().Bold(true),
		request: lipgloss.NewStyle().Foreground(colorMuted),
		failing: lipgloss.NewStyle().Bold(true).Foreground(colorError),
		note:    lipgloss.NewStyle().Foreground(colorWarning),
	}
}

// Format renders stack as an "Import stack:" block. Paths are shown
// relative to base when they are inside it.
func Format(stack *Stack, base string, noColor bool) string {
	if stack == nil || len(stack.Frames) == 0 {
		return ""
	}
	st := newStyles(noColor)

	var b strings.Builder
	b.WriteString(st.header.Render("Import stack:"))
	b.WriteString("\n")
	if stack.Truncated {
		b.WriteString("\n ")
		b.WriteString(st.note.Render(fmt.Sprintf("... (truncated at %d frames)", len(stack.Frames))))
		b.WriteString("\n")
	}

	last := len(stack.Frames) - 1
	for i, f := range stack.Frames {
		request := st.request
		if i == last {
			request = st.failing
		}
		fmt.Fprintf(&b, "\n %s\n %s %s\n",
			st.path.Render(displayPath(f.Origin, base)),
			st.request.Render("|"),
			request.Render(fmt.Sprintf("import %q", f.Request)))
	}

	if stack.Circular {
		b.WriteString("\n ")
		b.WriteString(st.note.Render("(circular import: " + displayPath(stack.Frames[0].Origin, base) + ")"))
		b.WriteString("\n")
	}
	return b.String()
}

func displayPath(p, base string) string {
	if base == "" {
		return p
	}
	rel, err := filepath.Rel(base, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return filepath.ToSlash(rel)
}

// StripANSI removes terminal styling from s.
func StripANSI(s string) string {
	return ansi.Strip(s)
}
