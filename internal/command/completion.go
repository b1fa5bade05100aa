// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/rdsprops/internal/meta"
)

const bashCompletionScript = `# bash completion for rdsprops
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_rdsprops()
{
    local cur prev
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    local lookup="--region -r --profile --parameter -p --tag-key --tag-value -t"
    local patch="--file -f --atomic --backup --backup-bucket --backup-prefix --dry-run -n --output -o --color -c --no-color"

    case "$prev" in
    --output|-o)
        COMPREPLY=( $(compgen -W "{{FORMATS}}" -- "$cur") )
        return 0
        ;;
    --file|-f)
        COMPREPLY=( $(compgen -f -- "$cur") )
        return 0
        ;;
    esac

    if [[ "$cur" == @* ]]; then
        COMPREPLY=( $(compgen -W "{{SETS}}" -- "$cur") )
        return 0
    fi

    case "${COMP_WORDS[1]}" in
    lookup)
        COMPREPLY=( $(compgen -W "$lookup" -- "$cur") )
        ;;
    completion)
        COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
        ;;
    *)
        if [[ ${COMP_CWORD} -eq 1 && "$cur" != -* ]]; then
            COMPREPLY=( $(compgen -W "lookup completion" -- "$cur") )
        else
            COMPREPLY=( $(compgen -W "$lookup $patch --help --version" -- "$cur") )
        fi
        ;;
    esac
    return 0
}

complete -F _rdsprops rdsprops
`

const zshCompletionScript = `#compdef rdsprops

_rdsprops() {
  local -a lookup
  lookup=(
  '(-r --region)'{-r,--region}'[AWS region]:region'
  '--profile[AWS profile]:profile'
  '(-p --parameter)'{-p,--parameter}'[SSM parameter]:parameter'
  '--tag-key[secret tag key]:key'
  '(-t --tag-value)'{-t,--tag-value}'[secret tag value]:value'
  )

  local -a patch
  patch=(
  '(-f --file)'{-f,--file}'[properties file]:file:_files'
  '--atomic[write temp file and rename]'
  '--backup[keep <file>.bak]'
  '--backup-bucket[S3 backup bucket]:bucket'
  '--backup-prefix[S3 backup prefix]:prefix'
  '(-n --dry-run)'{-n,--dry-run}'[show diff only]'
  '(-o --output)'{-o,--output}'[output format]:format:({{FORMATS}})'
  '(-c --color)'{-c,--color}'[enable colored text]'
  )

  case $words[2] in
    lookup)
      _arguments -C $lookup '::set:({{SETS}})'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $lookup $patch '::set:({{SETS}})'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _rdsprops rdsprops
`

// completionScript fills in the output formats and the @sets known from the
// config file.
func completionScript(tmpl string, m meta.Meta) string {
	var sets []string
	for _, s := range m.Config.Sets() {
		sets = append(sets, "@"+s)
	}
	r := strings.NewReplacer(
		"{{FORMATS}}", strings.Join(outputFormats, " "),
		"{{SETS}}", strings.Join(sets, " "),
	)
	return r.Replace(tmpl)
}

// detectShell maps a $SHELL path to a supported shell name, or "".
func detectShell(sh string) string {
	switch {
	case strings.HasSuffix(sh, "zsh"):
		return "zsh"
	case strings.HasSuffix(sh, "bash"):
		return "bash"
	}
	return ""
}

func writeCompletion(w io.Writer, shell string, m meta.Meta) error {
	switch shell {
	case "bash":
		_, err := fmt.Fprint(w, completionScript(bashCompletionScript, m))
		return err
	case "zsh":
		_, err := fmt.Fprint(w, completionScript(zshCompletionScript, m))
		return err
	}
	return fmt.Errorf("unsupported shell %q, use bash or zsh", shell)
}

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}

	if shell == "" {
		shell = detectShell(os.Getenv("SHELL"))
		if shell == "" {
			return errors.New("cannot detect shell, usage: rdsprops completion [bash|zsh]")
		}
	}

	return writeCompletion(cmd.Root().Writer, shell, GetMeta(cmd))
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "rdsprops completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
