// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package properties rewrites the datasource lines of a Spring Boot
// application.properties file. Replacement is purely textual: a default line
// that is absent or reformatted is left alone.
package properties
