package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// activeOptions returns the index of the last enabled options bubble, or -1.
// Only that menu takes keyboard selection.
func (r *Root) activeOptions() int {
	for i := len(r.bubbles) - 1; i >= 0; i-- {
		b := r.bubbles[i]
		if b.Kind == BubbleOptions && !b.Disabled && len(b.Options) > 0 {
			return i
		}
	}
	return -1
}

func (r *Root) conversationLines(width int) []string {
	if len(r.bubbles) == 0 {
		return []string{r.theme.Muted.Render("Choose a solver type with Ctrl+T or start practice with Ctrl+P.")}
	}
	maxW := max(20, width*3/4)
	active := r.activeOptions()
	var out []string
	for i, b := range r.bubbles {
		body := r.bubbleBody(b, i == active, maxW-2)
		if body == "" {
			continue
		}
		style := r.theme.BotBubble
		pos := lipgloss.Left
		if b.Role == RoleUser {
			style = r.theme.UserBubble
			pos = lipgloss.Right
		}
		rendered := style.MaxWidth(maxW).Render(body)
		out = append(out, strings.Split(lipgloss.PlaceHorizontal(width, pos, rendered), "\n")...)
		out = append(out, "")
	}
	return out
}

func (r *Root) bubbleBody(b Bubble, active bool, width int) string {
	switch b.Kind {
	case BubbleLoading:
		return r.loadSpin.View() + " " + firstNonEmptyStr(b.Text, "Solving...")
	case BubbleWarning:
		return r.theme.Pending.Render(wrapText(b.Text, width))
	case BubbleError:
		return r.theme.Fail.Render(wrapText(b.Text, width))
	case BubbleSuccess:
		return r.theme.Pass.Render(wrapText(b.Text, width))
	case BubbleSolution:
		parts := []string{}
		if strings.TrimSpace(b.Text) != "" {
			parts = append(parts, wrapText(b.Text, width))
		}
		if md := r.renderMarkdown(b.Markdown, width); md != "" {
			parts = append(parts, md)
		}
		if len(b.Lines) > 0 {
			parts = append(parts, r.theme.Info.Render(strings.Join(b.Lines, "\n")))
		}
		return strings.Join(parts, "\n")
	case BubbleOptions:
		lines := []string{}
		if strings.TrimSpace(b.Text) != "" {
			lines = append(lines, wrapText(b.Text, width))
		}
		for i, opt := range b.Options {
			prefix := "  "
			label := numberedLabel(i, opt.Label)
			if opt.Detail != "" {
				label += "  " + r.theme.Muted.Render(opt.Detail)
			}
			switch {
			case b.Disabled || opt.Disabled:
				lines = append(lines, prefix+r.theme.NavLocked.Render(ansi.Strip(label)))
			case active && i == r.optionIndex:
				lines = append(lines, r.theme.Selected.Render("> ")+r.theme.Selected.Render(label))
			default:
				lines = append(lines, prefix+label)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return wrapText(b.Text, width)
	}
}

func numberedLabel(i int, label string) string {
	if i < 9 {
		return string(rune('1'+i)) + ". " + label
	}
	return label
}

// renderMarkdown caches glamour output per source and width; glamour is too
// slow to run on every frame.
func (r *Root) renderMarkdown(src string, width int) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if r.markdown == nil {
		return wrapText(src, width)
	}
	key := mdKey{src: src, width: width}
	if out, ok := r.mdCache[key]; ok {
		return out
	}
	out, err := r.markdown.Render(src)
	if err != nil {
		r.logger.Debug("ui.markdown_failed", "err", err)
		out = wrapText(src, width)
	}
	out = strings.Trim(out, "\n")
	if len(r.mdCache) > 64 {
		r.mdCache = map[mdKey]string{}
	}
	r.mdCache[key] = out
	return out
}

type mdKey struct {
	src   string
	width int
}

// wrapText breaks on spaces so no line is wider than width runes.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			switch {
			case line == "":
				line = w
			case len([]rune(line))+1+len([]rune(w)) <= width:
				line += " " + w
			default:
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
