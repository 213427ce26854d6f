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
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
)

func TestEncodePayload(t *testing.T) {
	tests := []struct {
		name     string
		data     models.Metadata
		expected string
	}{
		{
			name:     "nil map encodes as empty object",
			data:     nil,
			expected: "{}",
		},
		{
			name:     "empty map encodes as empty object",
			data:     models.Metadata{},
			expected: "{}",
		},
		{
			name:     "single pair",
			data:     models.Metadata{"foo": "bar"},
			expected: `{"foo":"bar"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := encodePayload(tt.data)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(payload))
		})
	}
}

func TestEncodePayloadRoundTrip(t *testing.T) {
	data := models.Metadata{"foo": "bar", "region": "uswest1"}

	payload, err := encodePayload(data)
	require.NoError(t, err)

	var decoded map[string]string

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, map[string]string{"foo": "bar", "region": "uswest1"}, decoded)
}

func TestParentPaths(t *testing.T) {
	tests := []struct {
		path     string
		expected []string
	}{
		{"/services/mc/host:11211", []string{"/services", "/services/mc"}},
		{"/services/prod-uswest1-mc/h:1", []string{"/services", "/services/prod-uswest1-mc"}},
		{"/leaf", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parentPaths(tt.path), "path %q", tt.path)
	}
}

func TestNatsKey(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/services/mc/host:11211", "services.mc.host_11211"},
		{"/services/prod-uswest1-mc/10.0.0.1:6379", "services.prod-uswest1-mc.10.0.0.1_6379"},
		{"/a b/c", "a_b.c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, natsKey(tt.path), "path %q", tt.path)
	}
}

func TestConnectionErrorMapping(t *testing.T) {
	z := &ZooKeeper{logger: logger.NewTestLogger()}

	for _, cause := range []error{zk.ErrNoServer, zk.ErrConnectionClosed, zk.ErrSessionExpired} {
		err := z.mapError(fmt.Errorf("failed to set node: %w", cause))
		assert.ErrorIs(t, err, ErrNotConnected, "cause %v", cause)
	}

	// Application-level failures pass through unchanged.
	err := z.mapError(fmt.Errorf("failed to set node: %w", zk.ErrNoAuth))
	assert.NotErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, err, zk.ErrNoAuth)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &Config{Backend: "etcd"}, nil, logger.NewTestLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownBackend)
}
