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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
)

var errBoom = errors.New("boom")

type fakeService struct {
	mu        sync.Mutex
	startErr  error
	release   chan struct{}
	stopCalls int
}

func newFakeService(startErr error) *fakeService {
	return &fakeService{
		startErr: startErr,
		release:  make(chan struct{}),
	}
}

func (f *fakeService) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.release:
		return f.startErr
	}
}

func (f *fakeService) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopCalls++

	select {
	case <-f.release:
	default:
		close(f.release)
	}

	return nil
}

func (f *fakeService) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stopCalls
}

type fakeReloader struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReloader) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
}

func (f *fakeReloader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func TestRunReturnsServiceError(t *testing.T) {
	svc := newFakeService(errBoom)
	close(svc.release)

	err := Run(context.Background(), &Options{
		Service: svc,
		Logger:  logger.NewTestLogger(),
	})

	require.ErrorIs(t, err, errBoom)
}

func TestRunCleanServiceExit(t *testing.T) {
	svc := newFakeService(nil)
	close(svc.release)

	err := Run(context.Background(), &Options{
		Service: svc,
		Logger:  logger.NewTestLogger(),
	})

	require.NoError(t, err)
}

func TestRunForwardsReloadEvents(t *testing.T) {
	svc := newFakeService(nil)
	reloader := &fakeReloader{}
	events := make(chan struct{}, 1)

	done := make(chan error, 1)

	go func() {
		done <- Run(context.Background(), &Options{
			Service:      svc,
			Reloader:     reloader,
			ReloadEvents: events,
			Logger:       logger.NewTestLogger(),
		})
	}()

	events <- struct{}{}

	require.Eventually(t, func() bool {
		return reloader.count() == 1
	}, time.Second, 10*time.Millisecond)

	close(svc.release)
	require.NoError(t, <-done)
}

func TestRunStopsServiceOnContextCancel(t *testing.T) {
	svc := newFakeService(nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, &Options{
			Service:     svc,
			StopTimeout: time.Second,
			Logger:      logger.NewTestLogger(),
		})
	}()

	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, 1, svc.stops())
}
