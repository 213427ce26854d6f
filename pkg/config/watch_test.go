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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
)

func TestWatchFileEmitsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := WatchFile(ctx, path, 20*time.Millisecond, logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"services": []}`), 0o600))

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("no event after config file change")
	}
}

func TestWatchFileIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := WatchFile(ctx, path, 20*time.Millisecond, logger.NewTestLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))

	select {
	case <-events:
		t.Fatal("unexpected event for a sibling file")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatchFileClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())

	events, err := WatchFile(ctx, path, 20*time.Millisecond, logger.NewTestLogger())
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		require.False(t, ok, "channel must close, not emit")
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close after cancel")
	}
}

func TestWatchFileMissingDirectory(t *testing.T) {
	_, err := WatchFile(context.Background(), "/nonexistent-dir-zkwatcher/config.json", 0, logger.NewTestLogger())
	require.Error(t, err)
}
