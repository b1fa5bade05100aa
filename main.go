// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/rdsprops/internal/command"
	mylog "github.com/staranto/rdsprops/internal/log"
	"github.com/staranto/rdsprops/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	set, args := mangleArguments(os.Args)

	// Short-circuit --version/-v.
	for _, a := range args[1:] {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, set, args)
	if err != nil {
		log.Errorf("Configuration update failed: %v", err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		log.Errorf("Configuration update failed: %v", err)
		return 1
	}

	return 0
}

// mangleArguments pulls the first @set out of args. The remaining args are
// returned in their original order.
func mangleArguments(args []string) (string, []string) {
	set := ""
	out := make([]string, 0, len(args))
	for i, a := range args {
		if i > 0 && set == "" && strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			continue
		}
		out = append(out, a)
	}

	log.Debugf("set=%s, args=%v", set, out)
	return set, out
}
