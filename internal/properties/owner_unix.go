// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package properties

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	"github.com/apex/log"
)

// chownLike gives f the owner and group recorded in info. Without the
// privilege to do so the file keeps the caller's ownership and a warning is
// logged.
func chownLike(f *os.File, info fs.FileInfo) error {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}

	err := f.Chown(int(st.Uid), int(st.Gid))
	if errors.Is(err, fs.ErrPermission) {
		log.Warnf("cannot keep owner %d:%d on %s: %v", st.Uid, st.Gid, info.Name(), err)
		return nil
	}
	return err
}
