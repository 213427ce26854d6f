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

package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
)

// NatsKV is the alternate registry backend: registration entries live in a
// JetStream key-value bucket. The bucket's TTL substitutes for ephemerality;
// with a nonzero TTL, entries from a dead daemon expire instead of lingering.
type NatsKV struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	logger logger.Logger

	// NATS cannot swap credentials on a live connection; updates are
	// recorded here and used if the connection is rebuilt.
	mu       sync.Mutex
	user     string
	password string
}

// NewNatsKV connects to the NATS server in cfg.Server and ensures the
// key-value bucket exists.
func NewNatsKV(ctx context.Context, cfg *Config, creds *models.Credentials, log logger.Logger) (*NatsKV, error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultNatsBucket
	}

	var opts []nats.Option

	n := &NatsKV{logger: log}

	if creds != nil {
		n.user = creds.User
		n.password = creds.Password
		opts = append(opts, nats.UserInfo(creds.User, creds.Password))
	}

	nc, err := nats.Connect(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kvConfig := jetstream.KeyValueConfig{
		Bucket: bucket,
	}

	if ttl := time.Duration(cfg.TTL); ttl > 0 {
		kvConfig.TTL = ttl // TTL is bucket-level
	}

	kv, err := js.CreateKeyValue(ctx, kvConfig)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	n.nc = nc
	n.kv = kv

	return n, nil
}

func (n *NatsKV) SetNode(ctx context.Context, path string, data models.Metadata, alive bool) error {
	if !alive {
		return n.UnsetNode(ctx, path)
	}

	payload, err := encodePayload(data)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(ctx, natsKey(path), payload); err != nil {
		return n.mapError(fmt.Errorf("failed to put key for %s: %w", path, err))
	}

	return nil
}

func (n *NatsKV) UnsetNode(ctx context.Context, path string) error {
	err := n.kv.Delete(ctx, natsKey(path))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return n.mapError(fmt.Errorf("failed to delete key for %s: %w", path, err))
	}

	return nil
}

// UpdateCredentials records the new credentials for the next reconnect. The
// NATS client cannot change the user on an established connection; until it
// reconnects, the live connection keeps working under the old identity.
func (n *NatsKV) UpdateCredentials(user, password string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.user = user
	n.password = password

	n.logger.Debug().Msg("NATS credentials recorded for next reconnect")
}

func (n *NatsKV) Close() error {
	n.nc.Close()

	return nil
}

func (n *NatsKV) mapError(err error) error {
	if n.nc != nil && !n.nc.IsConnected() {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrNoServers) {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	return err
}

// natsKey maps a registration path onto the KV bucket's key alphabet:
// the leading slash goes, separators become dots, and anything outside
// [-/_=.a-zA-Z0-9] becomes an underscore.
func natsKey(path string) string {
	key := strings.TrimPrefix(path, "/")

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '=' || r == '.':
			return r
		case r == '/':
			return '.'
		default:
			return '_'
		}
	}, key)
}
