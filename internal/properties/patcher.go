// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package properties

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

var ErrFileIO = errors.New("failed to update application properties")

// BeforeWriteFunc is called with the original content right before the file
// is rewritten. Returning an error aborts the write.
type BeforeWriteFunc func(ctx context.Context, path string, original []byte) error

// options holds optional patcher behavior.
type options struct {
	atomic      bool
	backup      bool
	dryRun      bool
	beforeWrite []BeforeWriteFunc
}

// Option customizes a Patcher. The zero Patcher rewrites the file in place.
type Option func(*options)

// WithAtomic writes a sibling temp file and renames it over the target
// instead of truncating the target in place.
func WithAtomic(atomic bool) Option {
	return func(o *options) { o.atomic = atomic }
}

// WithBackup copies the original content to <path>.bak before writing.
func WithBackup(backup bool) Option {
	return func(o *options) { o.backup = backup }
}

// WithDryRun computes the result without touching the file.
func WithDryRun(dryRun bool) Option {
	return func(o *options) { o.dryRun = dryRun }
}

// WithBeforeWrite registers a hook run before the file is written.
func WithBeforeWrite(fn BeforeWriteFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.beforeWrite = append(o.beforeWrite, fn)
		}
	}
}

// Patcher rewrites a properties file.
type Patcher struct {
	opts options
}

func NewPatcher(opts ...Option) *Patcher {
	p := &Patcher{}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// Result describes a patch run.
type Result struct {
	Path     string
	Before   string
	After    string
	Outcomes []Outcome
	Written  int
	DryRun   bool
}

// Changed reports whether any replacement matched.
func (r Result) Changed() bool {
	return r.Before != r.After
}

// Check verifies the target exists, is a regular file, and (unless this is a
// dry run) is writable. It does not modify the file.
func (p *Patcher) Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileIO, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrFileIO, path)
	}
	if p.opts.dryRun {
		return nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileIO, err)
	}
	return f.Close()
}

// Patch reads path, applies reps and writes the result back.
func (p *Patcher) Patch(ctx context.Context, path string, reps []Replacement) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFileIO, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFileIO, err)
	}

	before := string(raw)
	after, outcomes := Apply(before, reps)

	res := Result{
		Path:     path,
		Before:   before,
		After:    after,
		Outcomes: outcomes,
		DryRun:   p.opts.dryRun,
	}

	for _, o := range outcomes {
		if !o.Applied() {
			log.Debugf("no match for %s, leaving as is", o.Key)
		}
	}

	if p.opts.dryRun {
		log.Infof("dry run, not writing %s", path)
		return res, nil
	}

	for _, fn := range p.opts.beforeWrite {
		if err := fn(ctx, path, raw); err != nil {
			return res, err
		}
	}

	mode := info.Mode().Perm()

	if p.opts.backup {
		bak := path + ".bak"
		if err := os.WriteFile(bak, raw, mode); err != nil {
			return res, fmt.Errorf("%w: backup: %w", ErrFileIO, err)
		}
		log.Debugf("backed up %s to %s", path, bak)
	}

	if p.opts.atomic {
		err = writeAtomic(path, []byte(after), info)
	} else {
		err = os.WriteFile(path, []byte(after), mode)
	}
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrFileIO, err)
	}

	res.Written = len(after)
	log.Infof("Successfully updated %s (%s)", path, humanize.Bytes(uint64(res.Written)))

	return res, nil
}

// writeAtomic writes data to a temp file in the target's directory and
// renames it over path. The replacement keeps the permissions and, where the
// platform allows, the owner of the file it replaces.
func writeAtomic(path string, data []byte, info fs.FileInfo) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	if err = chownLike(tmp, info); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
