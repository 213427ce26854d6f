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

// Package registry abstracts the coordination service that holds the
// registration entries. A registration entry exists while its service is
// healthy and its owning daemon is running; consumers discover service
// instances by listing entries.
package registry

//go:generate mockgen -destination=mock_registry.go -package=registry github.com/wfxiang08/zkwatcher/pkg/registry Registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
)

// ErrNotConnected reports that the coordination service is currently
// unreachable. Callers treat it as transient and retry at their next
// scheduled check.
var ErrNotConnected = errors.New("registry not connected")

var errUnknownBackend = errors.New("unknown registry backend")

// Registry is the client surface the watchers write through. A single
// shared instance serves every watcher; each watcher only touches its own
// path, so no cross-watcher coordination is needed.
type Registry interface {
	// SetNode reflects the service's health at path. alive=true creates or
	// refreshes the registration entry with data as its payload;
	// alive=false removes it.
	SetNode(ctx context.Context, path string, data models.Metadata, alive bool) error

	// UnsetNode removes the registration entry at path. Removing an absent
	// entry is not an error.
	UnsetNode(ctx context.Context, path string) error

	// UpdateCredentials swaps the authentication credentials in place,
	// without invalidating the connection or outstanding client references.
	UpdateCredentials(user, password string)

	Close() error
}

// Backend names accepted by New.
const (
	BackendZooKeeper = "zookeeper"
	BackendNatsKV    = "natskv"
)

// Config selects and configures a registry backend.
type Config struct {
	// Backend is "zookeeper" (default) or "natskv".
	Backend string `json:"backend,omitempty"`

	// Server is the backend address: "host:port" for ZooKeeper, a NATS URL
	// for natskv.
	Server string `json:"server,omitempty"`

	// SessionTimeout is the ZooKeeper session timeout.
	SessionTimeout models.Duration `json:"session_timeout,omitempty"`

	// Bucket and TTL configure the natskv key-value bucket. A nonzero TTL
	// makes entries expire if the daemon dies without deregistering.
	Bucket string          `json:"bucket,omitempty"`
	TTL    models.Duration `json:"ttl,omitempty"`
}

const (
	defaultZooKeeperServer = "localhost:2181"
	defaultSessionTimeout  = 10 * time.Second
	defaultNatsBucket      = "zkwatcher"
)

// New constructs the registry backend named by cfg.Backend.
func New(ctx context.Context, cfg *Config, creds *models.Credentials, log logger.Logger) (Registry, error) {
	switch cfg.Backend {
	case "", BackendZooKeeper:
		return NewZooKeeper(cfg, creds, log)
	case BackendNatsKV:
		return NewNatsKV(ctx, cfg, creds, log)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}
}

// encodePayload renders the registration entry's value: the canonical JSON
// encoding of the metadata map. A nil map encodes as {}.
func encodePayload(data models.Metadata) ([]byte, error) {
	if data == nil {
		data = models.Metadata{}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration data: %w", err)
	}

	return payload, nil
}
