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

package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
	"github.com/wfxiang08/zkwatcher/pkg/probe"
	"github.com/wfxiang08/zkwatcher/pkg/registry"
)

// ServiceWatcher monitors a single service definition. It runs the health
// check on its own schedule and keeps the service's registration entry in
// sync with the latest result. Watchers are created and stopped by the
// Supervisor only.
type ServiceWatcher struct {
	def      models.ServiceDefinition
	fullPath string

	// mutable configuration, hot-swapped by Reconfigure
	mu       sync.Mutex
	command  string
	metadata models.Metadata
	refresh  time.Duration

	reg               registry.Registry
	runner            probe.Runner
	clock             Clock
	tick              time.Duration
	probeTimeout      time.Duration
	deregisterTimeout time.Duration
	logger            logger.Logger

	// owned by the run goroutine
	lastChecked time.Time
	lastHealthy bool

	done     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

func newServiceWatcher(def *models.ServiceDefinition, cfg *Config, reg registry.Registry,
	runner probe.Runner, clock Clock, log logger.Logger) *ServiceWatcher {
	return &ServiceWatcher{
		def:               *def,
		fullPath:          def.FullPath(),
		command:           def.Command,
		metadata:          def.Metadata,
		refresh:           time.Duration(def.Refresh),
		reg:               reg,
		runner:            runner,
		clock:             clock,
		tick:              cfg.Tick,
		probeTimeout:      cfg.ProbeTimeout,
		deregisterTimeout: cfg.DeregisterTimeout,
		logger:            log,
		done:              make(chan struct{}),
		stopped:           make(chan struct{}),
	}
}

// Reconfigure atomically replaces the check command, registration metadata,
// and refresh interval. The check countdown is deliberately not reset, so an
// in-flight refresh cycle completes on its original schedule. Identity
// fields (path, hostname, port) cannot change here; the Supervisor recreates
// the watcher instead.
func (w *ServiceWatcher) Reconfigure(command string, metadata models.Metadata, refresh time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.command = command
	w.metadata = metadata
	w.refresh = refresh

	w.logger.Debug().
		Str("service", w.def.Name).
		Str("command", command).
		Dur("refresh", refresh).
		Msg("Watcher reconfigured")
}

// Stop requests a cooperative shutdown. The watcher observes the signal at
// its next scheduling tick, publishes a final alive=false report, removes
// its registration entry, and exits. Stop is idempotent and returns without
// waiting; use Done to observe completion.
func (w *ServiceWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// Done is closed once the watcher has deregistered and exited its run loop.
func (w *ServiceWatcher) Done() <-chan struct{} {
	return w.stopped
}

func (w *ServiceWatcher) run(ctx context.Context) {
	defer close(w.stopped)

	w.logger.Debug().
		Str("service", w.def.Name).
		Str("path", w.fullPath).
		Msg("Watcher starting")

	ticker := w.clock.Ticker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			w.deregister()
			return
		case <-ctx.Done():
			w.deregister()
			return
		default:
		}

		// The zero lastChecked sentinel makes the very first pass check
		// immediately.
		if elapsed := w.clock.Now().Sub(w.lastChecked); elapsed > w.refreshInterval() {
			w.check(ctx)
		}

		select {
		case <-w.done:
			w.deregister()
			return
		case <-ctx.Done():
			w.deregister()
			return
		case <-ticker.Chan():
		}
	}
}

func (w *ServiceWatcher) refreshInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.refresh
}

func (w *ServiceWatcher) check(ctx context.Context) {
	w.mu.Lock()
	command := w.command
	w.mu.Unlock()

	status := w.runner.Run(ctx, command, w.probeTimeout)
	alive := status == 0

	if alive {
		w.logger.Debug().
			Str("service", w.def.Name).
			Str("command", command).
			Msg("Check succeeded")
	} else {
		w.logger.Warn().
			Str("service", w.def.Name).
			Str("command", command).
			Int("exit_code", status).
			Msg("Check returned a failed exit code")
	}

	if alive != w.lastHealthy && !w.lastChecked.IsZero() {
		w.logger.Info().
			Str("service", w.def.Name).
			Bool("alive", alive).
			Msg("Health state changed")
	}

	w.report(ctx, alive)

	w.lastChecked = w.clock.Now()
	w.lastHealthy = alive
}

func (w *ServiceWatcher) report(ctx context.Context, alive bool) {
	w.mu.Lock()
	data := w.metadata
	w.mu.Unlock()

	err := w.reg.SetNode(ctx, w.fullPath, data, alive)

	switch {
	case err == nil:
		w.logger.Debug().
			Str("service", w.def.Name).
			Str("path", w.fullPath).
			Bool("alive", alive).
			Msg("Registration updated")
	case errors.Is(err, registry.ErrNotConnected):
		// Not fatal: the next scheduled check refreshes the entry once
		// the registry is reachable again.
		w.logger.Warn().
			Str("service", w.def.Name).
			Str("path", w.fullPath).
			Bool("alive", alive).
			Msg("Registry not connected, will retry at next check")
	default:
		w.logger.Error().
			Err(err).
			Str("service", w.def.Name).
			Str("path", w.fullPath).
			Bool("alive", alive).
			Msg("Failed to update registration")
	}
}

// deregister publishes a final alive=false state and removes the
// registration entry. It runs on a fresh context so shutdown still
// deregisters after the run context is canceled.
func (w *ServiceWatcher) deregister() {
	ctx, cancel := context.WithTimeout(context.Background(), w.deregisterTimeout)
	defer cancel()

	w.report(ctx, false)

	if err := w.reg.UnsetNode(ctx, w.fullPath); err != nil {
		w.logger.Warn().
			Err(err).
			Str("service", w.def.Name).
			Str("path", w.fullPath).
			Msg("Failed to remove registration entry")
	}

	w.reg = nil

	w.logger.Debug().Str("service", w.def.Name).Msg("Watcher exiting")
}
