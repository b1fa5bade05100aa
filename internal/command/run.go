// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	awsx "github.com/staranto/rdsprops/internal/aws"
	"github.com/staranto/rdsprops/internal/backup"
	"github.com/staranto/rdsprops/internal/credentials"
	"github.com/staranto/rdsprops/internal/endpoint"
	"github.com/staranto/rdsprops/internal/output"
	"github.com/staranto/rdsprops/internal/properties"
)

// Settings are the resolved flag values for one run.
type Settings struct {
	Region    string
	Profile   string
	Parameter string
	TagKey    string
	TagValue  string

	File         string
	Atomic       bool
	Backup       bool
	BackupBucket string
	BackupPrefix string
	DryRun       bool
	Output       string
	Color        bool
}

// SettingsFromCommand reads Settings from cmd's flags. Patch flags that a
// command does not define read as their zero value.
func SettingsFromCommand(cmd *cli.Command) Settings {
	return Settings{
		Region:       cmd.String("region"),
		Profile:      cmd.String("profile"),
		Parameter:    cmd.String("parameter"),
		TagKey:       cmd.String("tag-key"),
		TagValue:     cmd.String("tag-value"),
		File:         cmd.String("file"),
		Atomic:       cmd.Bool("atomic"),
		Backup:       cmd.Bool("backup"),
		BackupBucket: cmd.String("backup-bucket"),
		BackupPrefix: cmd.String("backup-prefix"),
		DryRun:       cmd.Bool("dry-run"),
		Output:       cmd.String("output"),
		Color:        cmd.Bool("color"),
	}
}

// Deps are the service clients a run talks to.
type Deps struct {
	SSM     endpoint.API
	Secrets credentials.API
	S3      backup.API
}

// DepsFunc builds Deps once the settings are known.
type DepsFunc func(ctx context.Context, s Settings) (Deps, error)

// AWSDeps loads the shared AWS config for the settings' region and profile
// and returns real service clients.
func AWSDeps(ctx context.Context, s Settings) (Deps, error) {
	cfg, err := awsx.LoadAWSConfig(ctx,
		awsx.WithRegion(s.Region),
		awsx.WithProfile(s.Profile),
	)
	if err != nil {
		return Deps{}, err
	}
	log.Debugf("aws region: %s", cfg.Region)

	clients := awsx.NewClients(cfg)
	return Deps{
		SSM:     clients.SSM,
		Secrets: clients.SecretsManager,
		S3:      clients.S3,
	}, nil
}

// NewPatcher builds the properties.Patcher described by s.
func NewPatcher(s Settings, deps Deps) (*properties.Patcher, error) {
	opts := []properties.Option{
		properties.WithAtomic(s.Atomic),
		properties.WithBackup(s.Backup),
		properties.WithDryRun(s.DryRun),
	}

	if s.BackupBucket != "" {
		if deps.S3 == nil {
			return nil, errors.New("backup bucket given but no S3 client available")
		}
		b := backup.NewS3(deps.S3, s.BackupBucket, s.BackupPrefix)
		opts = append(opts, properties.WithBeforeWrite(b.Upload))
	}

	return properties.NewPatcher(opts...), nil
}

// Run performs the whole update: check the file, resolve the endpoint,
// resolve the credentials, patch, report. Any error aborts the run; nothing
// already written is rolled back.
func Run(ctx context.Context, s Settings, deps Deps, w io.Writer) error {
	patcher, err := NewPatcher(s, deps)
	if err != nil {
		return err
	}

	// Fail before any remote call if the file can't be updated.
	if err := patcher.Check(s.File); err != nil {
		return err
	}

	ep, err := endpoint.NewResolver(deps.SSM).Resolve(ctx, s.Parameter)
	if err != nil {
		return err
	}

	creds, err := credentials.NewResolver(deps.Secrets).Resolve(ctx, s.TagKey, s.TagValue)
	if err != nil {
		return err
	}

	reps, err := properties.Replacements(ep, creds)
	if err != nil {
		return err
	}

	res, err := patcher.Patch(ctx, s.File, reps)
	if err != nil {
		return err
	}

	// The diff only goes with the text summary; json and yaml stay parseable.
	if s.DryRun && (s.Output == "" || s.Output == "text") {
		diff, err := output.Diff(res, s.Color)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, diff); err != nil {
			return fmt.Errorf("failed to write diff: %w", err)
		}
	}

	return output.Spit(w, res, s.Output, s.Color)
}

// Lookup resolves the endpoint and locates the secret without reading its
// value or touching any file.
func Lookup(ctx context.Context, s Settings, deps Deps, w io.Writer) error {
	ep, err := endpoint.NewResolver(deps.SSM).Resolve(ctx, s.Parameter)
	if err != nil {
		return err
	}

	secret, err := credentials.NewResolver(deps.Secrets).Find(ctx, s.TagKey, s.TagValue)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "endpoint: %s\nsecret:   %s\narn:      %s\n",
		ep, deref(secret.Name), deref(secret.ARN))
	return err
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
