// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/staranto/rdsprops/internal/credentials"
	"github.com/staranto/rdsprops/internal/properties"
)

const stock = `database=mysql
spring.datasource.url=jdbc:mysql://localhost:3306/petclinic
spring.datasource.username=petclinic
spring.datasource.password=petclinic
spring.sql.init.mode=always
`

func testResult(t *testing.T, before string, dryRun bool) properties.Result {
	t.Helper()
	reps, err := properties.Replacements("mydb.example", credentials.Credentials{
		"username": "dbadmin",
		"password": "hunter2",
	})
	require.NoError(t, err)

	after, outcomes := properties.Apply(before, reps)
	res := properties.Result{
		Path:     "/opt/application.properties",
		Before:   before,
		After:    after,
		Outcomes: outcomes,
		DryRun:   dryRun,
	}
	if !dryRun {
		res.Written = len(after)
	}
	return res
}

func TestNewSummary(t *testing.T) {
	s := NewSummary(testResult(t, stock, false))

	assert.Equal(t, "/opt/application.properties", s.File)
	assert.True(t, s.Changed)
	require.Len(t, s.Replacements, 3)
	assert.Equal(t, Row{"spring.datasource.url", "replaced", 1, "jdbc:mysql://mydb.example:3306/petclinic"}, s.Replacements[0])
	assert.Equal(t, Row{"spring.datasource.username", "replaced", 1, "dbadmin"}, s.Replacements[1])
	assert.Equal(t, Row{"spring.datasource.password", "replaced", 1, properties.Mask}, s.Replacements[2])
}

func TestNewSummary_DryRunAndUnchanged(t *testing.T) {
	s := NewSummary(testResult(t, stock, true))
	assert.Equal(t, "would replace", s.Replacements[0].Status)

	s = NewSummary(testResult(t, "database=mysql\n", false))
	assert.False(t, s.Changed)
	for _, r := range s.Replacements {
		assert.Equal(t, "unchanged", r.Status)
		assert.Zero(t, r.Matches)
	}
}

func TestSpit_NeverLeaksPassword(t *testing.T) {
	for _, format := range Formats {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Spit(&buf, testResult(t, stock, false), format, true))
			assert.NotContains(t, buf.String(), "hunter2")
			assert.Contains(t, buf.String(), "dbadmin")
		})
	}
}

func TestSpit_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spit(&buf, testResult(t, stock, false), "json", false))

	var got Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, NewSummary(testResult(t, stock, false)), got)
}

func TestSpit_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spit(&buf, testResult(t, stock, true), "yaml", false))

	assert.Contains(t, buf.String(), "dry_run: true")
	assert.Contains(t, buf.String(), "property: spring.datasource.username")

	var got Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.True(t, got.DryRun)
	assert.Len(t, got.Replacements, 3)
}

func TestSpit_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spit(&buf, testResult(t, stock, false), "text", false))

	out := buf.String()
	assert.Contains(t, out, "PROPERTY")
	assert.Contains(t, out, "spring.datasource.url")
	assert.Contains(t, out, "replaced")
	assert.Contains(t, out, "/opt/application.properties:")
	assert.Contains(t, out, "written")
}

func TestSpit_TextDryRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Spit(&buf, testResult(t, stock, true), "", false))
	assert.Contains(t, buf.String(), "dry run, nothing written")
}

func TestSpit_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Spit(&buf, testResult(t, stock, false), "xml", false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestDiff(t *testing.T) {
	d, err := Diff(testResult(t, stock, true), false)
	require.NoError(t, err)

	assert.Contains(t, d, "--- /opt/application.properties")
	assert.Contains(t, d, "-spring.datasource.username=petclinic")
	assert.Contains(t, d, "+spring.datasource.username=dbadmin")
	assert.Contains(t, d, "+spring.datasource.password="+properties.Mask)
	assert.NotContains(t, d, "hunter2")
}

func TestDiff_NoChange(t *testing.T) {
	d, err := Diff(testResult(t, "database=mysql\n", true), true)
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestDiff_Color(t *testing.T) {
	plain, err := Diff(testResult(t, stock, true), false)
	require.NoError(t, err)
	colored, err := Diff(testResult(t, stock, true), true)
	require.NoError(t, err)

	assert.Contains(t, colored, "spring.datasource.username=dbadmin")
	assert.NotContains(t, colored, "hunter2")
	assert.Equal(t, strings.Count(plain, "\n"), strings.Count(colored, "\n"))
}
