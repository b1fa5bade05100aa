// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package properties

import (
	"errors"
	"fmt"
	"strings"

	"github.com/staranto/rdsprops/internal/credentials"
)

// DefaultPath is the Spring Boot properties file rewritten by default.
const DefaultPath = "/opt/application.properties"

// The stock petclinic datasource lines that get replaced.
const (
	DefaultURL      = "spring.datasource.url=jdbc:mysql://localhost:3306/petclinic"
	DefaultUsername = "spring.datasource.username=petclinic"
	DefaultPassword = "spring.datasource.password=petclinic"
)

var ErrMissingCredential = errors.New("credential missing required key")

// Replacement is one literal find-and-replace. Secret marks values that must
// never be printed.
type Replacement struct {
	Key    string
	Old    string
	New    string
	Secret bool
}

// Masked returns New with the value hidden when the replacement is secret.
func (r Replacement) Masked() string {
	if !r.Secret {
		return r.New
	}
	return r.Key + "=" + Mask
}

// Mask replaces secret values in any output.
const Mask = "********"

// Replacements builds the three datasource replacements for endpoint and
// creds, in url, username, password order.
func Replacements(endpoint string, creds credentials.Credentials) ([]Replacement, error) {
	username, ok := creds.Username()
	if !ok {
		return nil, fmt.Errorf("%w: username", ErrMissingCredential)
	}
	password, ok := creds.Password()
	if !ok {
		return nil, fmt.Errorf("%w: password", ErrMissingCredential)
	}

	return []Replacement{
		{
			Key: "spring.datasource.url",
			Old: DefaultURL,
			New: fmt.Sprintf("spring.datasource.url=jdbc:mysql://%s:3306/petclinic", endpoint),
		},
		{
			Key: "spring.datasource.username",
			Old: DefaultUsername,
			New: "spring.datasource.username=" + username,
		},
		{
			Key:    "spring.datasource.password",
			Old:    DefaultPassword,
			New:    "spring.datasource.password=" + password,
			Secret: true,
		},
	}, nil
}

// Outcome records how many times a replacement matched.
type Outcome struct {
	Replacement
	Count int
}

func (o Outcome) Applied() bool {
	return o.Count > 0
}

// Apply performs each replacement, in order, on every occurrence of its Old
// text. Missing text is not an error; the Outcome just has a zero Count.
func Apply(content string, reps []Replacement) (string, []Outcome) {
	outcomes := make([]Outcome, 0, len(reps))
	for _, r := range reps {
		n := strings.Count(content, r.Old)
		if r.Old == "" {
			n = 0
		}
		if n > 0 {
			content = strings.ReplaceAll(content, r.Old, r.New)
		}
		outcomes = append(outcomes, Outcome{Replacement: r, Count: n})
	}
	return content, outcomes
}
