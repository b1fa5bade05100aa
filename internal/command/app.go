// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/rdsprops/internal/config"
	mylog "github.com/staranto/rdsprops/internal/log"
	"github.com/staranto/rdsprops/internal/meta"
)

// InitApp builds the rdsprops command tree wired to real AWS clients. set is
// the @set selected on the command line, or "".
func InitApp(ctx context.Context, set string, args []string) (*cli.Command, error) {
	return NewApp(ctx, set, args, AWSDeps)
}

// NewApp builds the command tree with the given client factory.
func NewApp(ctx context.Context, set string, args []string, deps DepsFunc) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// A missing config file is fine; every flag has a compiled-in default.
	cfg, err := config.Load(set)
	if err != nil {
		log.Debugf("config: %v", err)
	}
	applyLogConfig(cfg)

	m := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		Set:         set,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "rdsprops",
		Usage: "point application.properties at the RDS database",
		UsageText: `rdsprops [@set] [options]
rdsprops lookup [@set] [options]`,
		Description: "Reads the RDS endpoint from SSM Parameter Store and the database\n" +
			"credentials from the tagged Secrets Manager secret, then rewrites the\n" +
			"stock datasource lines of the properties file.",
		Metadata: map[string]any{
			"meta": m,
		},
		Writer: os.Stdout,
		Flags: append(append([]cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "rdsprops version info",
				HideDefault: true,
			},
		}, NewLookupFlags(cfg)...), NewPatchFlags(cfg)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return PatchCommandAction(ctx, cmd, deps)
		},
	}

	app.Commands = append(app.Commands,
		LookupCommandBuilder(app, m, deps),
		CompletionCommandBuilder(app, m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range append([]*cli.Command{app}, app.Commands...) {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}

// applyLogConfig honors the config file's log and quiet keys unless
// RDSPROPS_LOG is set.
func applyLogConfig(cfg config.Type) {
	if os.Getenv("RDSPROPS_LOG") != "" {
		return
	}
	if lvl, err := cfg.GetString("log"); err == nil {
		mylog.SetLevel(lvl)
	}
	if quiet, _ := cfg.GetBool("quiet", false); quiet {
		mylog.SetLevel("warn")
	}
}

// GetMeta returns the meta.Meta stored in the command's Metadata, walking up
// to the root. If missing it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	if root := cmd.Root(); root != nil && root != cmd {
		if m, ok := root.Metadata["meta"].(meta.Meta); ok {
			return m
		}
	}
	return meta.Meta{}
}

// PatchCommandAction is the root action: the full endpoint, credentials and
// patch sequence.
func PatchCommandAction(ctx context.Context, cmd *cli.Command, deps DepsFunc) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v (set=%q)", m.Args, m.Set)

	log.Info("Starting RDS configuration update...")

	s := SettingsFromCommand(cmd)
	d, err := deps(ctx, s)
	if err != nil {
		return err
	}

	if err := Run(ctx, s, d, cmd.Root().Writer); err != nil {
		return err
	}

	log.Info("RDS configuration update completed successfully")
	return nil
}

// LookupCommandBuilder constructs the "lookup" subcommand, which reports the
// endpoint and the matched secret without changing anything.
func LookupCommandBuilder(root *cli.Command, m meta.Meta, deps DepsFunc) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "show the endpoint and the matched secret, change nothing",
		UsageText: "rdsprops lookup [@set] [options]",
		Metadata: map[string]any{
			"meta": m,
		},
		// The lookup flags are inherited from the root command.
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s := SettingsFromCommand(cmd)
			d, err := deps(ctx, s)
			if err != nil {
				return err
			}
			return Lookup(ctx, s, d, root.Writer)
		},
	}
}
