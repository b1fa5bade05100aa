// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/rdsprops/internal/config"
	"github.com/staranto/rdsprops/internal/credentials"
	"github.com/staranto/rdsprops/internal/endpoint"
	"github.com/staranto/rdsprops/internal/output"
	"github.com/staranto/rdsprops/internal/properties"
)

// DefaultRegion is where the parameter and the secret live.
const DefaultRegion = "us-west-2"

// ValueChain builds the source chain for a flag: env vars first, then the
// @set section of the config file, then the config file root.
func ValueChain(cfg config.Type, name string, envs ...string) cli.ValueSourceChain {
	var chain []cli.ValueSource
	for _, e := range envs {
		chain = append(chain, cli.EnvVar(e))
	}
	if cfg.Namespace != "" {
		chain = append(chain, yaml.YAML(cfg.Namespace+"."+name, altsrc.StringSourcer(cfg.Source)))
	}
	chain = append(chain, yaml.YAML(name, altsrc.StringSourcer(cfg.Source)))
	return cli.NewValueSourceChain(chain...)
}

// NewLookupFlags are the flags needed to reach the parameter and the secret.
func NewLookupFlags(cfg config.Type) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "region",
			Aliases: []string{"r"},
			Usage:   "AWS region of the parameter and secret",
			Sources: ValueChain(cfg, "region", "RDSPROPS_REGION"),
			Value:   DefaultRegion,
			Validator: func(value string) error {
				return FlagValidators(value, NotEmptyValidator, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "AWS shared config profile. Defaults to the SDK credential chain",
			Sources: ValueChain(cfg, "profile", "RDSPROPS_PROFILE", "AWS_PROFILE"),
		},
		&cli.StringFlag{
			Name:    "parameter",
			Aliases: []string{"p"},
			Usage:   "SSM parameter holding the RDS endpoint",
			Sources: ValueChain(cfg, "parameter", "RDSPROPS_PARAMETER"),
			Value:   endpoint.DefaultKey,
			Validator: func(value string) error {
				return FlagValidators(value, NotEmptyValidator, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "tag-key",
			Usage:   "tag key identifying the credentials secret",
			Sources: ValueChain(cfg, "tag-key", "RDSPROPS_TAG_KEY"),
			Value:   credentials.DefaultTagKey,
			Validator: func(value string) error {
				return FlagValidators(value, NotEmptyValidator)
			},
		},
		&cli.StringFlag{
			Name:    "tag-value",
			Aliases: []string{"t"},
			Usage:   "tag value identifying the credentials secret",
			Sources: ValueChain(cfg, "tag-value", "RDSPROPS_TAG_VALUE"),
			Value:   credentials.DefaultTagValue,
			Validator: func(value string) error {
				return FlagValidators(value, NotEmptyValidator)
			},
		},
	}
}

// NewPatchFlags are the flags controlling how the properties file is written
// and reported.
func NewPatchFlags(cfg config.Type) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "properties file to update",
			Sources: ValueChain(cfg, "file", "RDSPROPS_FILE"),
			Value:   properties.DefaultPath,
			Validator: func(value string) error {
				return FlagValidators(value, NotEmptyValidator, JammedFlagValidator)
			},
		},
		&cli.BoolFlag{
			Name:    "atomic",
			Usage:   "write a temp file and rename it over the target, keeping mode and owner (owner needs root)",
			Sources: ValueChain(cfg, "atomic"),
			Value:   false,
		},
		&cli.BoolFlag{
			Name:    "backup",
			Usage:   "keep the original file as <file>.bak",
			Sources: ValueChain(cfg, "backup"),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "backup-bucket",
			Usage:   "S3 bucket to upload the original file to before writing",
			Sources: ValueChain(cfg, "backup-bucket", "RDSPROPS_BACKUP_BUCKET"),
		},
		&cli.StringFlag{
			Name:    "backup-prefix",
			Usage:   "key prefix for S3 backups",
			Sources: ValueChain(cfg, "backup-prefix"),
			Value:   "rdsprops",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "show the diff without writing anything",
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "summary format",
			Sources: ValueChain(cfg, "output"),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: ValueChain(cfg, "color"),
			Value:   isTerminal(os.Stdout),
		},
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// outputFormats is exposed for the validator and completion scripts.
var outputFormats = output.Formats
