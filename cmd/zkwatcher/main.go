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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/config"
	"github.com/wfxiang08/zkwatcher/pkg/lifecycle"
	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/probe"
	"github.com/wfxiang08/zkwatcher/pkg/registry"
	"github.com/wfxiang08/zkwatcher/pkg/version"
	"github.com/wfxiang08/zkwatcher/pkg/watcher"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/zkwatcher/config.json", "Path to config file")
	server := flag.String("server", "", "Registry server address, overrides the config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("zkwatcher %s\n", version.GetFullVersion())
		os.Exit(0)
	}

	ctx := context.Background()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if *server != "" {
		cfg.Registry.Server = *server
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stdout",
		}
	}

	if *debug {
		logConfig.Debug = true
	}

	mainLogger, err := lifecycle.CreateComponentLogger(ctx, "zkwatcher", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mainLogger.Info().Str("version", version.GetVersion()).Msg("zkwatcher starting")

	reg, err := registry.New(ctx, &cfg.Registry, cfg.Auth, mainLogger)
	if err != nil {
		return fmt.Errorf("failed to create registry client: %w", err)
	}

	supervisor := watcher.New(
		watcher.Config{ProbeTimeout: time.Duration(cfg.ProbeTimeout)},
		config.NewFileSource(*configPath),
		reg,
		probe.NewExecRunner(mainLogger),
		nil, // real clock
		mainLogger,
	)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	fileEvents, err := config.WatchFile(watchCtx, *configPath, 0, mainLogger)
	if err != nil {
		// SIGHUP still triggers reloads without the file watch.
		mainLogger.Warn().Err(err).Msg("Config file watch unavailable")
		fileEvents = nil
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			mainLogger.Error().Err(err).Msg("Error shutting down logger")
		}
	}()

	return lifecycle.Run(ctx, &lifecycle.Options{
		Service:      supervisor,
		Reloader:     supervisor,
		ReloadEvents: fileEvents,
		Logger:       mainLogger,
	})
}
