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
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
)

const defaultDebounce = 500 * time.Millisecond

// WatchFile emits one event per burst of changes to the configuration file.
// The parent directory is watched rather than the file itself, because
// editors and config management tools typically replace the file instead of
// writing it in place. The channel closes when ctx is canceled.
func WatchFile(ctx context.Context, path string, debounce time.Duration, log logger.Logger) (<-chan struct{}, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("failed to watch directory of '%s': %w", path, err)
	}

	events := make(chan struct{}, 1)

	go func() {
		defer func() {
			_ = watcher.Close()
			close(events)
		}()

		base := filepath.Base(path)

		var pending *time.Timer

		for {
			select {
			case <-ctx.Done():
				if pending != nil {
					pending.Stop()
				}

				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Base(ev.Name) != base {
					continue
				}

				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}

				log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Configuration file changed")

				if pending != nil {
					pending.Stop()
				}

				pending = time.AfterFunc(debounce, func() {
					select {
					case events <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				log.Warn().Err(err).Msg("Configuration file watcher error")
			}
		}
	}()

	return events, nil
}
