// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package properties

import (
	"io/fs"
	"os"
)

func chownLike(f *os.File, info fs.FileInfo) error {
	return nil
}
