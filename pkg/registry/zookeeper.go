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

	"github.com/go-zookeeper/zk"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
)

// ZooKeeper is the primary registry backend. Registration entries are
// ephemeral nodes, so they disappear with the session if the daemon dies
// without deregistering. The connection is established in the background;
// construction succeeds even while the server is unreachable, and writes
// return ErrNotConnected until the session is up.
type ZooKeeper struct {
	conn   *zk.Conn
	logger logger.Logger

	mu       sync.Mutex
	user     string
	password string
}

// NewZooKeeper connects to the ZooKeeper ensemble in cfg.Server
// (comma-separated "host:port" list). Credentials, when present, are applied
// as digest auth and created nodes get a digest ACL.
func NewZooKeeper(cfg *Config, creds *models.Credentials, log logger.Logger) (*ZooKeeper, error) {
	server := cfg.Server
	if server == "" {
		server = defaultZooKeeperServer
	}

	sessionTimeout := time.Duration(cfg.SessionTimeout)
	if sessionTimeout <= 0 {
		sessionTimeout = defaultSessionTimeout
	}

	conn, _, err := zk.Connect(strings.Split(server, ","), sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create ZooKeeper connection: %w", err)
	}

	z := &ZooKeeper{
		conn:   conn,
		logger: log,
	}

	if creds != nil {
		z.UpdateCredentials(creds.User, creds.Password)
	}

	return z, nil
}

// SetNode creates or refreshes the ephemeral registration entry at path
// when alive is true, and removes it when alive is false. Parent nodes are
// created as persistent nodes on demand.
func (z *ZooKeeper) SetNode(ctx context.Context, path string, data models.Metadata, alive bool) error {
	if !alive {
		return z.UnsetNode(ctx, path)
	}

	payload, err := encodePayload(data)
	if err != nil {
		return err
	}

	acl := z.acl()

	for _, parent := range parentPaths(path) {
		_, err = z.conn.Create(parent, nil, 0, acl)
		if err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return z.mapError(fmt.Errorf("failed to create parent %s: %w", parent, err))
		}
	}

	_, err = z.conn.Create(path, payload, zk.FlagEphemeral, acl)
	if errors.Is(err, zk.ErrNodeExists) {
		// Entry survives from an earlier session of ours; refresh its
		// payload in place.
		_, err = z.conn.Set(path, payload, -1)
	}

	if err != nil {
		return z.mapError(fmt.Errorf("failed to set node %s: %w", path, err))
	}

	return nil
}

// UnsetNode removes the registration entry at path. A missing entry is not
// an error.
func (z *ZooKeeper) UnsetNode(_ context.Context, path string) error {
	err := z.conn.Delete(path, -1)
	if err != nil && !errors.Is(err, zk.ErrNoNode) {
		return z.mapError(fmt.Errorf("failed to unset node %s: %w", path, err))
	}

	return nil
}

// UpdateCredentials re-applies digest auth on the live connection. The
// connection itself stays up, so watchers holding this client see no gap.
func (z *ZooKeeper) UpdateCredentials(user, password string) {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.user = user
	z.password = password

	if user == "" {
		return
	}

	if err := z.conn.AddAuth("digest", []byte(user+":"+password)); err != nil {
		z.logger.Warn().Err(err).Msg("Failed to apply ZooKeeper digest auth")
	}
}

func (z *ZooKeeper) Close() error {
	z.conn.Close()

	return nil
}

func (z *ZooKeeper) acl() []zk.ACL {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.user == "" {
		return zk.WorldACL(zk.PermAll)
	}

	return append(zk.DigestACL(zk.PermAll, z.user, z.password), zk.WorldACL(zk.PermRead)...)
}

// mapError folds the client's connection-level failures into
// ErrNotConnected so callers can treat them as transient.
func (z *ZooKeeper) mapError(err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	return err
}

func isConnectionError(err error) bool {
	return errors.Is(err, zk.ErrNoServer) ||
		errors.Is(err, zk.ErrConnectionClosed) ||
		errors.Is(err, zk.ErrSessionExpired) ||
		errors.Is(err, zk.ErrSessionMoved)
}

// parentPaths lists the ancestors of path, shallowest first, excluding the
// root and path itself.
func parentPaths(path string) []string {
	var parents []string

	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			parents = append(parents, path[:i])
		}
	}

	return parents
}
