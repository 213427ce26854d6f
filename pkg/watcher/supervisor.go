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
	"fmt"
	"sync"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
	"github.com/wfxiang08/zkwatcher/pkg/probe"
	"github.com/wfxiang08/zkwatcher/pkg/registry"
)

const (
	defaultTick              = time.Second
	defaultDeregisterTimeout = 5 * time.Second
)

// Config holds the supervisor's timing knobs. Zero values select the
// defaults: a 1 second scheduling tick, the probe package's 90 second check
// timeout, and a 5 second bound on each watcher's final deregistration.
type Config struct {
	Tick              time.Duration
	ProbeTimeout      time.Duration
	DeregisterTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Tick <= 0 {
		c.Tick = defaultTick
	}

	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = probe.DefaultTimeout
	}

	if c.DeregisterTimeout <= 0 {
		c.DeregisterTimeout = defaultDeregisterTimeout
	}
}

// Supervisor owns the live set of service watchers and reconciles it
// against configuration snapshots from its Source. It implements the
// lifecycle.Service and lifecycle.Reloader interfaces.
type Supervisor struct {
	config Config
	source Source
	reg    registry.Registry
	runner probe.Runner
	clock  Clock
	logger logger.Logger

	// mu serializes reconciliation passes and guards the watcher set.
	mu       sync.Mutex
	watchers map[string]*ServiceWatcher

	wg        sync.WaitGroup
	reloadCh  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a supervisor. A nil clock selects the wall clock.
func New(cfg Config, source Source, reg registry.Registry, runner probe.Runner, clock Clock, log logger.Logger) *Supervisor {
	cfg.setDefaults()

	if clock == nil {
		clock = realClock{}
	}

	return &Supervisor{
		config:   cfg,
		source:   source,
		reg:      reg,
		runner:   runner,
		clock:    clock,
		logger:   log,
		watchers: make(map[string]*ServiceWatcher),
		reloadCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start implements the lifecycle.Service interface. It performs the initial
// reconciliation and then blocks consuming reload requests until ctx is
// canceled or Stop is called. A failed initial configuration load is fatal;
// reload failures only keep the current watcher set running.
func (s *Supervisor) Start(ctx context.Context) error {
	defs, creds, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load initial configuration: %w", err)
	}

	s.Reconcile(ctx, defs, creds)

	s.logger.Info().Int("services", len(defs)).Msg("Watcher supervisor started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-s.reloadCh:
			s.reload(ctx)
		}
	}
}

// Stop implements the lifecycle.Service interface. Every watcher is stopped
// and waited for, so all registration entries are removed before the
// registry connection closes. The wait is bounded by ctx.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	s.mu.Lock()

	stopping := make([]*ServiceWatcher, 0, len(s.watchers))

	for _, w := range s.watchers {
		w.Stop()
		stopping = append(stopping, w)
	}

	s.watchers = make(map[string]*ServiceWatcher)

	s.mu.Unlock()

	var stragglers int

	for _, w := range stopping {
		select {
		case <-w.Done():
		case <-ctx.Done():
			stragglers++
		}
	}

	if stragglers > 0 {
		s.logger.Warn().Int("watchers", stragglers).Msg("Shutdown deadline hit before all watchers deregistered")
	}

	if err := s.reg.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing registry client")
	}

	s.logger.Info().Int("watchers", len(stopping)).Msg("Watcher supervisor stopped")

	if stragglers > 0 {
		return ctx.Err()
	}

	return nil
}

// Reload requests a configuration reload. It never blocks; requests
// arriving while a reload is already pending coalesce into one.
func (s *Supervisor) Reload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Supervisor) reload(ctx context.Context) {
	defs, creds, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Configuration reload failed, keeping current watcher set")
		return
	}

	s.Reconcile(ctx, defs, creds)
}

// Reconcile diffs the incoming definitions against the live watcher set and
// applies the minimal set of changes: new names get a fresh watcher, known
// names with an unchanged identity are reconfigured in place, identity
// changes stop the old watcher before a replacement starts, and names absent
// from the snapshot are stopped and removed. Passes are mutually exclusive
// but do not block running watchers' check cycles.
func (s *Supervisor) Reconcile(ctx context.Context, defs []models.ServiceDefinition, creds *models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if creds != nil {
		// Swapped in place: watchers keep their reference to the shared
		// client across a credential change.
		s.reg.UpdateCredentials(creds.User, creds.Password)
	}

	var created, updated, recreated, skipped int

	seen := make(map[string]bool, len(defs))

	for i := range defs {
		def := defs[i]

		if err := def.Validate(); err != nil {
			s.logger.Error().Err(err).Str("service", def.Name).Msg("Skipping invalid service definition")

			skipped++

			if _, ok := s.watchers[def.Name]; ok {
				// The existing watcher keeps running on its last good
				// configuration.
				seen[def.Name] = true
			}

			continue
		}

		seen[def.Name] = true

		if w, ok := s.watchers[def.Name]; ok {
			if w.def.SameIdentity(&def) {
				w.Reconfigure(def.Command, def.Metadata, time.Duration(def.Refresh))

				updated++

				continue
			}

			// Identity changed: the old entry must be gone before the
			// replacement registers under the new path.
			s.logger.Info().
				Str("service", def.Name).
				Str("old_path", w.fullPath).
				Str("new_path", def.FullPath()).
				Msg("Service identity changed, recreating watcher")

			s.stopAndWait(ctx, w)
			delete(s.watchers, def.Name)

			recreated++
		} else {
			created++
		}

		s.startWatcher(ctx, &def)
	}

	// Snapshot the removal set first; mutating the map while ranging over
	// it would skip entries.
	var stale []*ServiceWatcher

	for name, w := range s.watchers {
		if !seen[name] {
			stale = append(stale, w)
			delete(s.watchers, name)
		}
	}

	for _, w := range stale {
		w.Stop()
	}

	for _, w := range stale {
		s.awaitStopped(ctx, w)
	}

	s.logger.Info().
		Int("created", created).
		Int("updated", updated).
		Int("recreated", recreated).
		Int("removed", len(stale)).
		Int("skipped", skipped).
		Msg("Reconciliation complete")
}

func (s *Supervisor) startWatcher(ctx context.Context, def *models.ServiceDefinition) {
	w := newServiceWatcher(def, &s.config, s.reg, s.runner, s.clock, s.logger)
	s.watchers[def.Name] = w

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		w.run(ctx)
	}()
}

func (s *Supervisor) stopAndWait(ctx context.Context, w *ServiceWatcher) {
	w.Stop()
	s.awaitStopped(ctx, w)
}

func (s *Supervisor) awaitStopped(ctx context.Context, w *ServiceWatcher) {
	select {
	case <-w.Done():
	case <-ctx.Done():
		s.logger.Warn().Str("service", w.def.Name).Msg("Gave up waiting for watcher to deregister")
	}
}

// WatcherNames returns the names of the live watchers, for diagnostics.
func (s *Supervisor) WatcherNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.watchers))
	for name := range s.watchers {
		names = append(names, name)
	}

	return names
}
