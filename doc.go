// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// rdsprops points a Spring Boot application.properties file at an RDS
// database. The endpoint comes from SSM Parameter Store and the credentials
// from a tagged Secrets Manager secret.
package main
