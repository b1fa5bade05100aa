// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	apexlog "github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/staranto/rdsprops/internal/config"
	"github.com/staranto/rdsprops/internal/credentials"
	"github.com/staranto/rdsprops/internal/endpoint"
	mylog "github.com/staranto/rdsprops/internal/log"
	"github.com/staranto/rdsprops/internal/meta"
	"github.com/staranto/rdsprops/internal/output"
	"github.com/staranto/rdsprops/internal/properties"
)

// isolate keeps the caller's environment and config file out of the test.
func isolate(t *testing.T, cfgFile string) {
	t.Helper()
	for _, k := range []string{
		"RDSPROPS_REGION", "RDSPROPS_PROFILE", "RDSPROPS_PARAMETER",
		"RDSPROPS_TAG_KEY", "RDSPROPS_TAG_VALUE", "RDSPROPS_FILE",
		"RDSPROPS_BACKUP_BUCKET", "AWS_PROFILE",
	} {
		if old, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		}
	}
	if cfgFile == "" {
		cfgFile = filepath.Join(t.TempDir(), "none.yaml")
	}
	t.Setenv("RDSPROPS_CFG", cfgFile)
}

// capture returns a DepsFunc that records the settings it was called with.
func capture(f *fixture, got *Settings) DepsFunc {
	return func(ctx context.Context, s Settings) (Deps, error) {
		*got = s
		return f.deps(), nil
	}
}

func runApp(t *testing.T, set string, deps DepsFunc, args ...string) (string, error) {
	t.Helper()
	args = append([]string{"rdsprops"}, args...)

	app, err := NewApp(context.Background(), set, args, deps)
	require.NoError(t, err)

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}

	err = app.Run(context.Background(), args)
	return out.String(), err
}

func TestApp_Defaults(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	_, err := runApp(t, "", capture(f, &got), "--file", f.path)
	require.NoError(t, err)

	assert.Equal(t, DefaultRegion, got.Region)
	assert.Equal(t, endpoint.DefaultKey, got.Parameter)
	assert.Equal(t, credentials.DefaultTagKey, got.TagKey)
	assert.Equal(t, credentials.DefaultTagValue, got.TagValue)
	assert.Equal(t, "text", got.Output)
	assert.False(t, got.Atomic)
	assert.False(t, got.DryRun)
	assert.Equal(t, wantProperties, f.content(t))
}

func TestApp_AmbientAWSRegionIgnored(t *testing.T) {
	isolate(t, "")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_DEFAULT_REGION", "eu-central-1")
	f := newFixture(t)
	var got Settings

	_, err := runApp(t, "", capture(f, &got), "--file", f.path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, got.Region)

	// The tool's own variable still overrides the default.
	t.Setenv("RDSPROPS_REGION", "ca-central-1")
	_, err = runApp(t, "", capture(f, &got), "--file", f.path)
	require.NoError(t, err)
	assert.Equal(t, "ca-central-1", got.Region)
}

func TestApp_DefaultFileConstant(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	// Dry run so a real /opt/application.properties is never touched.
	_, _ = runApp(t, "", capture(f, &got), "--dry-run")
	assert.Equal(t, properties.DefaultPath, got.File)
}

func TestApp_JSONOutput(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	out, err := runApp(t, "", capture(f, &got), "-f", f.path, "-o", "json")
	require.NoError(t, err)

	var s output.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, f.path, s.File)
	assert.True(t, s.Changed)
	assert.Len(t, s.Replacements, 3)
}

func TestApp_DryRunFlag(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	out, err := runApp(t, "", capture(f, &got), "-f", f.path, "--dry-run")
	require.NoError(t, err)
	assert.True(t, got.DryRun)
	assert.Contains(t, out, "+spring.datasource.url=jdbc:mysql://mydb.abcdef.us-west-2.rds.amazonaws.com:3306/petclinic")
	assert.Equal(t, inputProperties, f.content(t))
}

func TestApp_InvalidOutput(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	_, err := runApp(t, "", capture(f, &got), "-f", f.path, "-o", "xml")
	assert.Error(t, err)
}

func TestApp_EnvOverride(t *testing.T) {
	isolate(t, "")
	t.Setenv("RDSPROPS_TAG_VALUE", "qa-rds-db")
	f := newFixture(t)
	var got Settings

	_, err := runApp(t, "", capture(f, &got), "-f", f.path)
	assert.ErrorIs(t, err, credentials.ErrSecretNotFound)
	assert.Equal(t, "qa-rds-db", got.TagValue)
	assert.Equal(t, inputProperties, f.content(t))
}

func TestApp_ConfigSet(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "rdsprops.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`region: eu-west-1
prod:
  parameter: /prod/petclinic/rds_endpoint
  tag-value: prod-rds-db
  atomic: true
`), 0o600))
	isolate(t, cfgFile)

	f := newFixture(t)
	f.ssm.values["/prod/petclinic/rds_endpoint"] = "prod.example"
	f.secrets.values["arn:other"] = `{"username":"produser","password":"x"}`
	var got Settings

	_, err := runApp(t, "prod", capture(f, &got), "-f", f.path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", got.Region)
	assert.Equal(t, "/prod/petclinic/rds_endpoint", got.Parameter)
	assert.Equal(t, "prod-rds-db", got.TagValue)
	assert.True(t, got.Atomic)
	assert.Contains(t, f.content(t), "spring.datasource.username=produser")

	// Flags beat the config file.
	_, err = runApp(t, "prod", capture(f, &got), "-f", f.path, "--tag-value", "dev-rds-db")
	require.NoError(t, err)
	assert.Equal(t, "dev-rds-db", got.TagValue)
}

func TestApp_Lookup(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	out, err := runApp(t, "", capture(f, &got), "lookup")
	require.NoError(t, err)
	assert.Contains(t, out, "endpoint: mydb.abcdef.us-west-2.rds.amazonaws.com")
	assert.Contains(t, out, "arn:dev")
	assert.Equal(t, inputProperties, f.content(t))
}

func TestWriteCompletion(t *testing.T) {
	m := meta.Meta{Config: config.Type{Data: map[string]interface{}{
		"region": "us-west-2",
		"prod":   map[string]interface{}{"region": "eu-west-1"},
	}}}

	var buf bytes.Buffer
	require.NoError(t, writeCompletion(&buf, "bash", m))
	assert.Contains(t, buf.String(), "complete -F _rdsprops rdsprops")
	assert.Contains(t, buf.String(), "@prod")
	assert.Contains(t, buf.String(), "text json yaml")
	assert.NotContains(t, buf.String(), "{{")

	buf.Reset()
	require.NoError(t, writeCompletion(&buf, "zsh", m))
	assert.Contains(t, buf.String(), "#compdef rdsprops")

	assert.Error(t, writeCompletion(&buf, "fish", m))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, OutputValidator("yaml"))
	assert.Error(t, OutputValidator("raw"))
	assert.Error(t, NotEmptyValidator("  "))
	assert.NoError(t, NotEmptyValidator("x"))
	assert.Error(t, JammedFlagValidator("--dry-run"))
	assert.Error(t, FlagValidators("", NotEmptyValidator, JammedFlagValidator))
}

func TestGetMeta(t *testing.T) {
	assert.Equal(t, meta.Meta{}, GetMeta(nil))
}

func TestApplyLogConfig(t *testing.T) {
	logger, ok := apexlog.Log.(*apexlog.Logger)
	require.True(t, ok)
	old := logger.Level
	t.Cleanup(func() { apexlog.SetLevel(old) })

	t.Setenv("RDSPROPS_LOG", "")
	applyLogConfig(config.Type{Data: map[string]interface{}{"log": "debug"}})
	assert.Equal(t, apexlog.DebugLevel, logger.Level)

	applyLogConfig(config.Type{Data: map[string]interface{}{"log": "debug", "quiet": true}})
	assert.Equal(t, apexlog.WarnLevel, logger.Level)

	// The env var wins over the file.
	t.Setenv("RDSPROPS_LOG", "error")
	apexlog.SetLevel(apexlog.ErrorLevel)
	applyLogConfig(config.Type{Data: map[string]interface{}{"log": "debug"}})
	assert.Equal(t, apexlog.ErrorLevel, logger.Level)
}

// redirectStdout swaps os.Stdout for a pipe and returns a func that restores
// it and returns what was written.
func redirectStdout(t *testing.T) func() string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	old := os.Stdout
	os.Stdout = w
	done := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()

	return func() string {
		os.Stdout = old
		require.NoError(t, w.Close())
		return <-done
	}
}

func TestApp_StructuredOutputOnStdout(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
	}{
		{"json", []string{"-o", "json"}},
		{"json dry run", []string{"-o", "json", "--dry-run"}},
		{"yaml dry run", []string{"-o", "yaml", "-n"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t, "")
			t.Setenv("RDSPROPS_LOG", "debug")
			mylog.InitLogger()
			t.Cleanup(func() { apexlog.SetLevel(apexlog.InfoLevel) })

			f := newFixture(t)
			var got Settings
			args := append([]string{"rdsprops", "-f", f.path}, tt.args...)

			restore := redirectStdout(t)
			app, err := NewApp(context.Background(), "", args, capture(f, &got))
			require.NoError(t, err)
			app.ErrWriter = &bytes.Buffer{}
			runErr := app.Run(context.Background(), args)
			out := restore()
			require.NoError(t, runErr)

			var s output.Summary
			if tt.args[1] == "json" {
				require.NoError(t, json.Unmarshal([]byte(out), &s), out)
			} else {
				require.NoError(t, yaml.Unmarshal([]byte(out), &s), out)
			}
			assert.Equal(t, f.path, s.File)
			assert.Len(t, s.Replacements, 3)
			assert.NotContains(t, out, "INFO")
			assert.NotContains(t, out, "p@ss")
		})
	}
}

func TestApp_Completion(t *testing.T) {
	isolate(t, "")
	f := newFixture(t)
	var got Settings

	t.Setenv("SHELL", "/usr/bin/fish")
	_, err := runApp(t, "", capture(f, &got), "completion")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot detect shell")

	t.Setenv("SHELL", "/bin/zsh")
	out, err := runApp(t, "", capture(f, &got), "completion")
	require.NoError(t, err)
	assert.Contains(t, out, "#compdef rdsprops")

	out, err = runApp(t, "", capture(f, &got), "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "complete -F _rdsprops rdsprops")
}

func TestDetectShell(t *testing.T) {
	assert.Equal(t, "zsh", detectShell("/usr/local/bin/zsh"))
	assert.Equal(t, "bash", detectShell("/bin/bash"))
	assert.Equal(t, "", detectShell("/usr/bin/fish"))
	assert.Equal(t, "", detectShell(""))
}
