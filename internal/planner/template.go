package planner

import (
	"fmt"
	"strconv"
	"strings"

	"chaptersplit/internal/chapters"
)

// templateVars returns the integer placeholders available to naming templates.
// Times are truncated to whole seconds or minutes.
func templateVars(c chapters.Chapter) map[string]int {
	duration := c.DurationS()
	return map[string]int{
		"n":            c.Index,
		"start":        int(c.StartS),
		"end":          int(c.EndS),
		"duration":     int(duration),
		"start_min":    int(c.StartS / 60),
		"end_min":      int(c.EndS / 60),
		"duration_min": int(duration / 60),
	}
}

// RenderTemplate expands a naming template such as "{n:02d} - {title}" for
// one chapter. Integer placeholders accept an optional "d", "Nd", or "0Nd"
// spec; "{{" and "}}" produce literal braces. An unknown placeholder or bad
// spec yields the "NN - title" fallback.
func RenderTemplate(template string, c chapters.Chapter) string {
	out, err := renderTemplate(template, c)
	if err != nil {
		return fallbackName(c)
	}
	return out
}

func fallbackName(c chapters.Chapter) string {
	return fmt.Sprintf("%02d - %s", c.Index, c.Title)
}

func renderTemplate(template string, c chapters.Chapter) (string, error) {
	vars := templateVars(c)
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch ch {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			field := template[i+1 : i+1+end]
			value, err := renderField(field, c.Title, vars)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("single '}' at offset %d", i)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

func renderField(field, title string, vars map[string]int) (string, error) {
	name, spec, _ := strings.Cut(field, ":")
	if name == "title" {
		if spec != "" && spec != "s" {
			return "", fmt.Errorf("unsupported spec %q for title", spec)
		}
		return title, nil
	}
	value, ok := vars[name]
	if !ok {
		return "", fmt.Errorf("unknown placeholder %q", name)
	}
	if spec == "" {
		return strconv.Itoa(value), nil
	}
	if !strings.HasSuffix(spec, "d") {
		return "", fmt.Errorf("unsupported spec %q", spec)
	}
	width := strings.TrimSuffix(spec, "d")
	pad := " "
	if strings.HasPrefix(width, "0") && len(width) > 1 {
		pad = "0"
		width = width[1:]
	}
	if width == "" {
		return strconv.Itoa(value), nil
	}
	n, err := strconv.Atoi(width)
	if err != nil || n < 0 || n > 32 {
		return "", fmt.Errorf("invalid width in spec %q", spec)
	}
	if pad == "0" {
		return fmt.Sprintf("%0*d", n, value), nil
	}
	return fmt.Sprintf("%*d", n, value), nil
}
