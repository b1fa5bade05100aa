// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"

	"github.com/staranto/rdsprops/internal/properties"
)

// Formats accepted by Spit.
var Formats = []string{"text", "json", "yaml"}

// Row is one replacement in the summary.
type Row struct {
	Property string `json:"property" yaml:"property"`
	Status   string `json:"status" yaml:"status"`
	Matches  int    `json:"matches" yaml:"matches"`
	Value    string `json:"value" yaml:"value"`
}

// Summary is the report of a patch run. Secret values are masked.
type Summary struct {
	File         string `json:"file" yaml:"file"`
	DryRun       bool   `json:"dry_run" yaml:"dry_run"`
	Changed      bool   `json:"changed" yaml:"changed"`
	Written      int    `json:"bytes_written" yaml:"bytes_written"`
	Replacements []Row  `json:"replacements" yaml:"replacements"`
}

// NewSummary builds the report for res.
func NewSummary(res properties.Result) Summary {
	s := Summary{
		File:    res.Path,
		DryRun:  res.DryRun,
		Changed: res.Changed(),
		Written: res.Written,
	}

	for _, o := range res.Outcomes {
		status := "unchanged"
		if o.Applied() {
			status = "replaced"
			if res.DryRun {
				status = "would replace"
			}
		}
		s.Replacements = append(s.Replacements, Row{
			Property: o.Key,
			Status:   status,
			Matches:  o.Count,
			Value:    valueOf(o.Masked(), o.Key),
		})
	}

	return s
}

// valueOf strips the "key=" prefix from a properties line.
func valueOf(line, key string) string {
	if len(line) > len(key) && line[:len(key)+1] == key+"=" {
		return line[len(key)+1:]
	}
	return line
}

// Spit writes the summary of res to w in the requested format.
func Spit(w io.Writer, res properties.Result, format string, color bool) error {
	s := NewSummary(res)

	switch format {
	case "", "text":
		return textWriter(w, s, color)
	case "json":
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = w.Write(b)
		return err
	}

	return fmt.Errorf("unknown output format %q, must be one of %v", format, Formats)
}

// textWriter renders the summary as a borderless table followed by a one
// line footer.
func textWriter(w io.Writer, s Summary, color bool) error {
	var (
		headerStyle = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle   = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		hitStyle    = cellStyle
	)

	if color {
		headerStyle = headerStyle.Foreground(lipgloss.Color("#f6be00"))
		hitStyle = hitStyle.Foreground(lipgloss.Color("#00c8f0"))
	}

	var rows [][]string
	for _, r := range s.Replacements {
		rows = append(rows, []string{r.Property, r.Status, r.Value})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row >= 0 && row < len(s.Replacements) && s.Replacements[row].Matches > 0:
				style = hitStyle
			default:
				style = cellStyle
			}
			if col > 0 {
				style = style.PaddingLeft(1)
			}
			return style
		}).
		Headers("PROPERTY", "STATUS", "VALUE").
		BorderHeader(false).
		Rows(rows...)

	if _, err := fmt.Fprintln(w, t); err != nil {
		return err
	}

	var footer string
	switch {
	case s.DryRun:
		footer = fmt.Sprintf("%s: dry run, nothing written", s.File)
	case !s.Changed:
		footer = fmt.Sprintf("%s: no default lines found, %s rewritten", s.File, humanize.Bytes(uint64(s.Written)))
	default:
		footer = fmt.Sprintf("%s: %s written", s.File, humanize.Bytes(uint64(s.Written)))
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}
