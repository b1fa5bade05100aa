// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws loads the shared AWS SDK v2 config and builds the SSM, Secrets
// Manager and S3 clients that are handed to the resolvers at startup.
package aws
