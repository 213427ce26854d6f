/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package probe runs health check commands and reduces every outcome to an
// exit status.
package probe

//go:generate mockgen -destination=mock_probe.go -package=probe github.com/wfxiang08/zkwatcher/pkg/probe Runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
)

const (
	// DefaultTimeout bounds a single check invocation. A check still
	// running when it expires is killed.
	DefaultTimeout = 90 * time.Second

	// FailureExitCode is reported when a check cannot produce a real exit
	// status: the command failed to spawn, timed out, or died on a signal.
	FailureExitCode = 1
)

// Runner executes one health check command and returns its exit status.
// Run never returns an error; every failure mode maps to a status.
type Runner interface {
	Run(ctx context.Context, command string, timeout time.Duration) int
}

// ExecRunner runs commands directly, without a shell. The command string is
// split on whitespace; the first token is the program, the rest are its
// arguments. Output is discarded.
type ExecRunner struct {
	logger logger.Logger
}

func NewExecRunner(log logger.Logger) *ExecRunner {
	return &ExecRunner{logger: log}
}

func (r *ExecRunner) Run(ctx context.Context, command string, timeout time.Duration) int {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		r.logger.Warn().Msg("Empty check command")
		return FailureExitCode
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()

	// Stdout and Stderr stay nil so the child writes to the null device.
	cmd := exec.CommandContext(runCtx, fields[0], fields[1:]...)

	err := cmd.Run()
	elapsed := time.Since(started)

	if err == nil {
		r.logger.Debug().
			Str("command", fields[0]).
			Dur("elapsed", elapsed).
			Msg("Check command succeeded")

		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			r.logger.Debug().
				Str("command", fields[0]).
				Int("exit_code", code).
				Dur("elapsed", elapsed).
				Msg("Check command exited nonzero")

			return code
		}
	}

	if runCtx.Err() != nil {
		r.logger.Warn().
			Str("command", fields[0]).
			Dur("timeout", timeout).
			Msg("Check command timed out and was killed")
	} else {
		r.logger.Warn().
			Str("command", fields[0]).
			Err(err).
			Msg("Check command failed to run")
	}

	return FailureExitCode
}
