// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/staranto/rdsprops/internal/properties"
)

// Diff renders a unified diff of the patch in res. Secret values are masked
// in the new side. An empty string means nothing changed.
func Diff(res properties.Result, color bool) (string, error) {
	after := res.After
	for _, o := range res.Outcomes {
		if o.Secret && o.Applied() {
			after = strings.ReplaceAll(after, o.New, o.Masked())
		}
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(res.Before),
		B:        difflib.SplitLines(after),
		FromFile: res.Path,
		ToFile:   res.Path + " (patched)",
		Context:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", res.Path, err)
	}

	if !color || text == "" {
		return text, nil
	}
	return colorize(text), nil
}

func colorize(text string) string {
	var (
		addStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		delStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		hunkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	)

	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(lipgloss.NewStyle().Bold(true).Render(body))
		case strings.HasPrefix(body, "@@"):
			b.WriteString(hunkStyle.Render(body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(addStyle.Render(body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(delStyle.Render(body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}
