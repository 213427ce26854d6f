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

package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
)

const defaultStopTimeout = 30 * time.Second

// Service is the lifecycle contract a long-running component implements.
// Start blocks until the service stops or ctx is canceled.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Reloader is implemented by services that can re-read their configuration
// while running.
type Reloader interface {
	Reload()
}

// Options configures Run.
type Options struct {
	Service      Service
	Reloader     Reloader        // optional, receives SIGHUP and ReloadEvents
	ReloadEvents <-chan struct{} // optional, external reload triggers
	StopTimeout  time.Duration
	Logger       logger.Logger
}

// Run starts the service and blocks until SIGINT/SIGTERM or until the
// service stops on its own. SIGHUP and ReloadEvents are forwarded to the
// Reloader. Stop is bounded by StopTimeout.
func Run(ctx context.Context, opts *Options) error {
	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	stopTimeout := opts.StopTimeout
	if stopTimeout == 0 {
		stopTimeout = defaultStopTimeout
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	defer signal.Stop(hup)

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Service.Start(ctx)
	}()

	reloadEvents := opts.ReloadEvents

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutdown signal received")
			return shutdown(opts.Service, errCh, stopTimeout)
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		case <-hup:
			log.Info().Msg("SIGHUP received, requesting reload")

			if opts.Reloader != nil {
				opts.Reloader.Reload()
			}
		case _, ok := <-reloadEvents:
			if !ok {
				reloadEvents = nil
				continue
			}

			log.Info().Msg("Configuration change detected, requesting reload")

			if opts.Reloader != nil {
				opts.Reloader.Reload()
			}
		}
	}
}

func shutdown(svc Service, errCh <-chan error, stopTimeout time.Duration) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := svc.Stop(stopCtx); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	case <-stopCtx.Done():
		return stopCtx.Err()
	}
}
