// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// RDSPROPS_LOG env variable. The default is INFO so progress is visible.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("RDSPROPS_LOG"))
	if level == "" {
		level = "INFO"
	}
	log.SetHandler(&CustomHandler{})
	SetLevel(level)
}

// SetLevel sets the log level by name. Unknown names mean INFO.
func SetLevel(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// CustomHandler formats log messages and writes to Writer, or stderr when
// Writer is nil.
type CustomHandler struct {
	Writer io.Writer
	Now    func() time.Time

	mu sync.Mutex
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w := h.Writer
	if w == nil {
		w = os.Stderr
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	timestamp := now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", timestamp, level, e.Message)

	// Fields are sorted so lines are stable.
	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
