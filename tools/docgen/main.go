// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// docgen writes a reference page and a man page for every rdsprops command.
// Synopsis, description and options come from the command tree the binary
// builds, so they cannot drift from the flags. Examples and other prose are
// appended from docs/commands/<command>.md when present.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/rdsprops/internal/command"
	"github.com/staranto/rdsprops/internal/config"
)

// page is one command to document.
type page struct {
	Stem  string // docs/commands/<Stem>.md
	Name  string // rdsprops or rdsprops-<cmd>
	Cmd   *cli.Command
	Flags []cli.Flag
}

// inherited lists the root flags a subcommand actually reads.
var inherited = map[string]func() []cli.Flag{
	"lookup": func() []cli.Flag { return command.NewLookupFlags(config.Type{}) },
}

func main() {
	var (
		repoRoot      string
		onlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root")
	flag.BoolVar(&onlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	app, err := command.NewApp(context.Background(), "", []string{"rdsprops"}, command.AWSDeps)
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	refDir := filepath.Join(repoRoot, "docs", "reference")
	manDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	for _, dir := range []string{refDir, manDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatalf("creating %s: %v", dir, err)
		}
	}

	for _, p := range pages(app) {
		extra, err := os.ReadFile(filepath.Join(repoRoot, "docs", "commands", p.Stem+".md"))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fatalf("reading docs for %s: %v", p.Name, err)
		}

		md := render(p, string(extra))
		if err := writeFileIfChanged(filepath.Join(refDir, p.Name+".md"), []byte(md), onlyIfChanged); err != nil {
			fatalf("writing reference for %s: %v", p.Name, err)
		}
		if err := writeFileIfChanged(filepath.Join(manDir, p.Name+".1"), md2man.Render([]byte(md)), onlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", p.Name, err)
		}
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

// pages returns the root command and every visible subcommand.
func pages(root *cli.Command) []page {
	out := []page{{Stem: root.Name, Name: root.Name, Cmd: root, Flags: root.Flags}}
	for _, sub := range root.Commands {
		if sub.Hidden {
			continue
		}
		flags := sub.Flags
		if fn, ok := inherited[sub.Name]; ok {
			flags = append(fn(), flags...)
		}
		out = append(out, page{Stem: sub.Name, Name: root.Name + "-" + sub.Name, Cmd: sub, Flags: flags})
	}
	return out
}

// render builds the markdown for p with extra appended verbatim.
func render(p page, extra string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.Replace(p.Name, "-", " ", 1))
	if p.Cmd.Usage != "" {
		b.WriteString(p.Cmd.Usage + "\n\n")
	}

	if p.Cmd.UsageText != "" {
		b.WriteString("## Synopsis\n\n")
		for _, ln := range strings.Split(p.Cmd.UsageText, "\n") {
			b.WriteString("    " + ln + "\n")
		}
		b.WriteString("\n")
	}

	if p.Cmd.Description != "" {
		b.WriteString("## Description\n\n")
		b.WriteString(strings.Join(strings.Fields(p.Cmd.Description), " ") + "\n\n")
	}

	if opts := renderFlags(p.Flags); opts != "" {
		b.WriteString("## Options\n\n" + opts)
	}

	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString(extra + "\n")
	}

	return b.String()
}

// renderFlags writes a definition list entry per visible flag, sorted by name.
func renderFlags(flags []cli.Flag) string {
	sorted := append([]cli.Flag(nil), flags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Names()[0] < sorted[j].Names()[0]
	})

	var b strings.Builder
	for _, fl := range sorted {
		if v, ok := fl.(cli.VisibleFlag); ok && !v.IsVisible() {
			continue
		}

		var names []string
		for _, n := range fl.Names() {
			if len(n) == 1 {
				names = append(names, "`-"+n+"`")
			} else {
				names = append(names, "`--"+n+"`")
			}
		}
		b.WriteString(strings.Join(names, ", ") + "\n")

		desc := ""
		if d, ok := fl.(cli.DocGenerationFlag); ok {
			desc = d.GetUsage()
			if envs := d.GetEnvVars(); len(envs) > 0 {
				desc += ". Env " + strings.Join(envs, ", ")
			}
			// Bool defaults can depend on the terminal, so only value flags
			// show one.
			if d.TakesValue() {
				if v := strings.Trim(d.GetValue(), `"`); v != "" {
					desc += ". Default " + v
				}
			}
			desc += "."
		}
		b.WriteString(": " + desc + "\n\n")
	}
	return b.String()
}

func writeFileIfChanged(path string, data []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)) {
			return nil
		}
	}
	return os.WriteFile(path, data, 0o644)
}
